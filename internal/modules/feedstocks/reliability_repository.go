package feedstocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ReliabilityRepository stores per-supplier reliability history
type ReliabilityRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewReliabilityRepository creates a new reliability repository
func NewReliabilityRepository(db *sql.DB, log zerolog.Logger) *ReliabilityRepository {
	return &ReliabilityRepository{
		db:  db,
		log: log.With().Str("repo", "reliability").Logger(),
	}
}

// Upsert replaces the reliability record for a supplier
func (r *ReliabilityRepository) Upsert(ctx context.Context, rel *Reliability) error {
	in := rel.Inputs
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO supplier_reliability (
			supplier_id, otif_pct, volume_variance, quality_cov,
			avg_response_time_hours, months_active, transaction_count, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(supplier_id) DO UPDATE SET
			otif_pct = excluded.otif_pct,
			volume_variance = excluded.volume_variance,
			quality_cov = excluded.quality_cov,
			avg_response_time_hours = excluded.avg_response_time_hours,
			months_active = excluded.months_active,
			transaction_count = excluded.transaction_count,
			updated_at = excluded.updated_at
	`, rel.SupplierID, in.OnTimeInFullPct, in.VolumeVariance, in.QualityCoV,
		in.AvgResponseTimeHours, in.MonthsActive, in.TransactionCount, rel.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert supplier reliability: %w", err)
	}
	return nil
}

// GetBySupplier returns the reliability record or ErrNotFound
func (r *ReliabilityRepository) GetBySupplier(ctx context.Context, supplierID string) (*Reliability, error) {
	rel := Reliability{SupplierID: supplierID}
	var updatedAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT otif_pct, volume_variance, quality_cov, avg_response_time_hours,
		       months_active, transaction_count, updated_at
		FROM supplier_reliability WHERE supplier_id = ?
	`, supplierID).Scan(
		&rel.Inputs.OnTimeInFullPct,
		&rel.Inputs.VolumeVariance,
		&rel.Inputs.QualityCoV,
		&rel.Inputs.AvgResponseTimeHours,
		&rel.Inputs.MonthsActive,
		&rel.Inputs.TransactionCount,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reliability for supplier %s: %w", supplierID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier reliability: %w", err)
	}

	rel.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &rel, nil
}
