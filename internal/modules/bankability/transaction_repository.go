package bankability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TransactionRepository handles buyer transaction database operations
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// Create inserts a transaction
func (r *TransactionRepository) Create(ctx context.Context, t *Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, buyer_id, supplier_id, volume_tonnes, price_per_tonne, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.BuyerID, t.SupplierID, t.VolumeTonnes, t.PricePerTonne, t.DeliveredAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListByBuyerSince returns a buyer's transactions delivered at or after since,
// oldest first
func (r *TransactionRepository) ListByBuyerSince(ctx context.Context, buyerID string, since time.Time) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, buyer_id, supplier_id, volume_tonnes, price_per_tonne, delivered_at
		FROM transactions
		WHERE buyer_id = ? AND delivered_at >= ?
		ORDER BY delivered_at, id
	`, buyerID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		var t Transaction
		var deliveredAt int64
		if err := rows.Scan(&t.ID, &t.BuyerID, &t.SupplierID, &t.VolumeTonnes, &t.PricePerTonne, &deliveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.DeliveredAt = time.Unix(deliveredAt, 0).UTC()
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	r.log.Debug().Str("buyer_id", buyerID).Int("count", len(txs)).Msg("Loaded transactions")
	return txs, nil
}
