package feedstocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/modules/rating"
)

// feedstockColumns is the column list shared by every SELECT.
// Column order must match scanFeedstock.
const feedstockColumns = `id, supplier_id, name, category, carbon_intensity,
sustainability_json, quality_json, created_at,
abfi_score, sustainability_score, carbon_intensity_score, quality_score, reliability_score,
carbon_rating, score_tier, standards_digest, breakdown_json, scored_at`

// FeedstockRepository handles feedstock database operations
type FeedstockRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewFeedstockRepository creates a new feedstock repository
func NewFeedstockRepository(db *sql.DB, log zerolog.Logger) *FeedstockRepository {
	return &FeedstockRepository{
		db:  db,
		log: log.With().Str("repo", "feedstock").Logger(),
	}
}

// Create inserts a feedstock. Score columns stay NULL until the first rating run.
func (r *FeedstockRepository) Create(ctx context.Context, f *Feedstock) error {
	sustainability, err := json.Marshal(f.Sustainability)
	if err != nil {
		return fmt.Errorf("failed to encode sustainability inputs: %w", err)
	}
	quality, err := json.Marshal(f.Quality)
	if err != nil {
		return fmt.Errorf("failed to encode quality parameters: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO feedstocks (
			id, supplier_id, name, category, carbon_intensity,
			sustainability_json, quality_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.SupplierID, f.Name, string(f.Category), f.CarbonIntensity,
		string(sustainability), string(quality), f.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert feedstock: %w", err)
	}

	r.log.Debug().Str("feedstock_id", f.ID).Str("category", string(f.Category)).Msg("Feedstock created")
	return nil
}

// GetByID returns a feedstock or ErrNotFound
func (r *FeedstockRepository) GetByID(ctx context.Context, id string) (*Feedstock, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+feedstockColumns+" FROM feedstocks WHERE id = ?", id)
	f, err := scanFeedstock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feedstock %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feedstock: %w", err)
	}
	return f, nil
}

// List returns feedstocks matching the filter, best scores first. Unscored
// feedstocks sort last and are excluded when MinScore is set.
func (r *FeedstockRepository) List(ctx context.Context, filter ListFilter) ([]Feedstock, error) {
	var where []string
	var args []interface{}

	if filter.SupplierID != "" {
		where = append(where, "supplier_id = ?")
		args = append(args, filter.SupplierID)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.MinScore > 0 {
		where = append(where, "abfi_score >= ?")
		args = append(args, filter.MinScore)
	}

	query := "SELECT " + feedstockColumns + " FROM feedstocks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY abfi_score DESC NULLS LAST, created_at, id"

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(0, filter.Offset))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedstocks: %w", err)
	}
	defer rows.Close()

	feedstocks := []Feedstock{}
	for rows.Next() {
		f, err := scanFeedstock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedstock: %w", err)
		}
		feedstocks = append(feedstocks, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedstocks: %w", err)
	}
	return feedstocks, nil
}

// ListIDs returns every feedstock ID in creation order
func (r *FeedstockRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM feedstocks ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query feedstock IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan feedstock ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateScore stores the latest rating for a feedstock
func (r *FeedstockRepository) UpdateScore(ctx context.Context, id string, s Score) error {
	breakdown, err := json.Marshal(s.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode score breakdown: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE feedstocks SET
			abfi_score = ?,
			sustainability_score = ?,
			carbon_intensity_score = ?,
			quality_score = ?,
			reliability_score = ?,
			carbon_rating = ?,
			score_tier = ?,
			standards_digest = ?,
			breakdown_json = ?,
			scored_at = ?
		WHERE id = ?
	`, s.AbfiScore, s.SustainabilityScore, s.CarbonIntensityScore, s.QualityScore, s.ReliabilityScore,
		string(s.CarbonRating), string(s.Tier), s.StandardsDigest, string(breakdown), s.ScoredAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update feedstock score: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feedstock %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeedstock(row rowScanner) (*Feedstock, error) {
	var f Feedstock
	var category, sustainability, quality string
	var createdAt int64

	var (
		abfiScore, sustainabilityScore, qualityScore, reliabilityScore sql.NullInt64
		carbonScore                                                    sql.NullFloat64
		carbonRating, tier, digest, breakdown                          sql.NullString
		scoredAt                                                       sql.NullInt64
	)

	err := row.Scan(
		&f.ID, &f.SupplierID, &f.Name, &category, &f.CarbonIntensity,
		&sustainability, &quality, &createdAt,
		&abfiScore, &sustainabilityScore, &carbonScore, &qualityScore, &reliabilityScore,
		&carbonRating, &tier, &digest, &breakdown, &scoredAt,
	)
	if err != nil {
		return nil, err
	}

	f.Category = rating.Category(category)
	f.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(sustainability), &f.Sustainability); err != nil {
		return nil, fmt.Errorf("failed to decode sustainability inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(quality), &f.Quality); err != nil {
		return nil, fmt.Errorf("failed to decode quality parameters: %w", err)
	}

	if abfiScore.Valid {
		s := &Score{
			AbfiScore:            int(abfiScore.Int64),
			SustainabilityScore:  int(sustainabilityScore.Int64),
			CarbonIntensityScore: carbonScore.Float64,
			QualityScore:         int(qualityScore.Int64),
			ReliabilityScore:     int(reliabilityScore.Int64),
			CarbonRating:         rating.CarbonRating(carbonRating.String),
			Tier:                 rating.ScoreTier(tier.String),
			StandardsDigest:      digest.String,
			ScoredAt:             time.Unix(scoredAt.Int64, 0).UTC(),
		}
		if breakdown.Valid && breakdown.String != "" {
			if err := json.Unmarshal([]byte(breakdown.String), &s.Breakdown); err != nil {
				return nil, fmt.Errorf("failed to decode score breakdown: %w", err)
			}
		}
		f.Score = s
	}

	return &f, nil
}
