package feedstocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SupplierRepository handles supplier database operations
type SupplierRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *sql.DB, log zerolog.Logger) *SupplierRepository {
	return &SupplierRepository{
		db:  db,
		log: log.With().Str("repo", "supplier").Logger(),
	}
}

// Create inserts a supplier
func (r *SupplierRepository) Create(ctx context.Context, s *Supplier) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, abn, region, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.ABN, s.Region, s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert supplier: %w", err)
	}

	r.log.Debug().Str("supplier_id", s.ID).Msg("Supplier created")
	return nil
}

// GetByID returns a supplier or ErrNotFound
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*Supplier, error) {
	var s Supplier
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, abn, region, created_at FROM suppliers WHERE id = ?
	`, id).Scan(&s.ID, &s.Name, &s.ABN, &s.Region, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &s, nil
}

// List returns all suppliers ordered by name
func (r *SupplierRepository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, abn, region, created_at FROM suppliers ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []Supplier{}
	for rows.Next() {
		var s Supplier
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.Name, &s.ABN, &s.Region, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return suppliers, nil
}
