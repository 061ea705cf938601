package bankability

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/modules/stresstest"
)

const stressTestColumns = `id, buyer_id, scenario, risk_score, risk_level, covenant_status,
financial_impact, confidence, result_json, input_snapshot, snapshot_digest, created_at`

// StressTestRepository handles stress test record database operations
type StressTestRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStressTestRepository creates a new stress test repository
func NewStressTestRepository(db *sql.DB, log zerolog.Logger) *StressTestRepository {
	return &StressTestRepository{
		db:  db,
		log: log.With().Str("repo", "stress_test").Logger(),
	}
}

// Create inserts a stress test record
func (r *StressTestRepository) Create(ctx context.Context, rec *StressTestRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode stress test result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stress_tests (`+stressTestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.BuyerID, string(rec.Scenario), rec.RiskScore, string(rec.RiskLevel),
		string(rec.CovenantStatus), rec.FinancialImpact, string(rec.Confidence),
		string(result), string(rec.InputSnapshot), rec.SnapshotDigest, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert stress test: %w", err)
	}

	r.log.Debug().Str("stress_test_id", rec.ID).Str("buyer_id", rec.BuyerID).Msg("Stress test stored")
	return nil
}

// GetByID returns a stress test record or ErrNotFound
func (r *StressTestRepository) GetByID(ctx context.Context, id string) (*StressTestRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+stressTestColumns+" FROM stress_tests WHERE id = ?", id)
	rec, err := scanStressTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stress test %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stress test: %w", err)
	}
	return rec, nil
}

// ListByBuyer returns a buyer's stress tests, newest first. limit <= 0
// returns all of them.
func (r *StressTestRepository) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]StressTestRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+stressTestColumns+` FROM stress_tests
		WHERE buyer_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, buyerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stress tests: %w", err)
	}
	defer rows.Close()

	records := []StressTestRecord{}
	for rows.Next() {
		rec, err := scanStressTest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stress test: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stress tests: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStressTest(row rowScanner) (*StressTestRecord, error) {
	var rec StressTestRecord
	var scenario, level, status, confidence, result, snapshot string
	var createdAt int64

	err := row.Scan(
		&rec.ID, &rec.BuyerID, &scenario, &rec.RiskScore, &level, &status,
		&rec.FinancialImpact, &confidence, &result, &snapshot, &rec.SnapshotDigest, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Scenario = stresstest.ScenarioType(scenario)
	rec.RiskLevel = stresstest.RiskLevel(level)
	rec.CovenantStatus = stresstest.CovenantStatus(status)
	rec.Confidence = stresstest.ConfidenceLevel(confidence)
	rec.InputSnapshot = json.RawMessage(snapshot)
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()

	if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode stress test result: %w", err)
	}
	return &rec, nil
}
