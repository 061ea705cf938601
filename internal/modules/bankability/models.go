// Package bankability runs stress tests for buyers against their delivered
// supply history and keeps an auditable record of every run.
package bankability

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/abfi/platform/internal/modules/stresstest"
)

var (
	// ErrNotFound is returned when a stress test record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransaction is returned for transactions that cannot count
	// towards a baseline.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// BaselineMonths is how far back transactions count towards a baseline.
const BaselineMonths = 12

// Transaction is one delivery from a supplier to a buyer.
type Transaction struct {
	ID            string    `json:"id"`
	BuyerID       string    `json:"buyer_id"`
	SupplierID    string    `json:"supplier_id"`
	VolumeTonnes  float64   `json:"volume_tonnes"`
	PricePerTonne float64   `json:"price_per_tonne"`
	DeliveredAt   time.Time `json:"delivered_at"`
}

// StressTestRecord is a persisted stress test run.
type StressTestRecord struct {
	ID              string                     `json:"id"`
	BuyerID         string                     `json:"buyer_id"`
	Scenario        stresstest.ScenarioType    `json:"scenario"`
	RiskScore       int                        `json:"risk_score"`
	RiskLevel       stresstest.RiskLevel       `json:"risk_level"`
	CovenantStatus  stresstest.CovenantStatus  `json:"covenant_status"`
	FinancialImpact float64                    `json:"financial_impact"`
	Confidence      stresstest.ConfidenceLevel `json:"confidence"`
	Result          stresstest.Result          `json:"result"`
	InputSnapshot   json.RawMessage            `json:"input_snapshot"`
	SnapshotDigest  string                     `json:"snapshot_digest"`
	CreatedAt       time.Time                  `json:"created_at"`
}

// RunRequest is the input for a buyer stress test.
type RunRequest struct {
	Scenario   stresstest.ScenarioType
	Parameters stresstest.Parameters
	Covenant   *stresstest.Covenant
}

// inputSnapshot is the canonical record of what a run was computed from.
type inputSnapshot struct {
	BuyerID        string                  `json:"buyer_id"`
	Scenario       stresstest.ScenarioType `json:"scenario"`
	Baseline       stresstest.Baseline     `json:"baseline"`
	Parameters     stresstest.Parameters   `json:"parameters"`
	Covenant       stresstest.Covenant     `json:"covenant"`
	WindowStart    time.Time               `json:"window_start"`
	WindowEnd      time.Time               `json:"window_end"`
	TransactionIDs []string                `json:"transaction_ids"`
}
