// Package handlers provides HTTP handlers for stress tests and buyer
// transaction history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/modules/bankability"
	"github.com/abfi/platform/internal/modules/stresstest"
)

// Handler handles stress test HTTP requests
type Handler struct {
	service  *bankability.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new bankability handler
func NewHandler(service *bankability.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With().Str("handler", "bankability").Logger(),
	}
}

type baselineRequest struct {
	AnnualVolumeTonnes   float64 `json:"annual_volume_tonnes" validate:"gte=0"`
	AveragePricePerTonne float64 `json:"average_price_per_tonne" validate:"gte=0"`
	TopSupplierShare     float64 `json:"top_supplier_share" validate:"gte=0,lte=1"`
	SupplierCount        int     `json:"supplier_count" validate:"gte=0"`
	TransactionCount     int     `json:"transaction_count" validate:"gte=0"`
}

type runRequest struct {
	Scenario   string                `json:"scenario" validate:"required"`
	Baseline   baselineRequest       `json:"baseline"`
	Parameters stresstest.Parameters `json:"parameters"`
	Covenant   *stresstest.Covenant  `json:"covenant"`
}

type buyerRunRequest struct {
	Scenario   string                `json:"scenario" validate:"required"`
	Parameters stresstest.Parameters `json:"parameters"`
	Covenant   *stresstest.Covenant  `json:"covenant"`
}

type transactionRequest struct {
	SupplierID    string    `json:"supplier_id" validate:"required"`
	VolumeTonnes  float64   `json:"volume_tonnes" validate:"gt=0"`
	PricePerTonne float64   `json:"price_per_tonne" validate:"gte=0"`
	DeliveredAt   time.Time `json:"delivered_at"`
}

// HandleGetTemplates handles GET /api/stress-tests/templates
func (h *Handler) HandleGetTemplates(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"templates": stresstest.GetScenarioTemplates(),
		"covenant":  h.service.Covenant(),
	})
}

// HandleRun handles POST /api/stress-tests/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !h.decode(w, r, &req) {
		return
	}

	scenario, err := stresstest.ParseScenario(req.Scenario)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.Run(scenario, stresstest.Baseline{
		AnnualVolumeTonnes:   req.Baseline.AnnualVolumeTonnes,
		AveragePricePerTonne: req.Baseline.AveragePricePerTonne,
		TopSupplierShare:     req.Baseline.TopSupplierShare,
		SupplierCount:        req.Baseline.SupplierCount,
		TransactionCount:     req.Baseline.TransactionCount,
	}, req.Parameters, req.Covenant)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, result)
}

// HandleCreateTransaction handles POST /api/buyers/{id}/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	tx, err := h.service.RecordTransaction(r.Context(), chi.URLParam(r, "id"), bankability.NewTransaction{
		SupplierID:    req.SupplierID,
		VolumeTonnes:  req.VolumeTonnes,
		PricePerTonne: req.PricePerTonne,
		DeliveredAt:   req.DeliveredAt,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, tx)
}

// HandleRunForBuyer handles POST /api/buyers/{id}/stress-tests
func (h *Handler) HandleRunForBuyer(w http.ResponseWriter, r *http.Request) {
	var req buyerRunRequest
	if !h.decode(w, r, &req) {
		return
	}

	scenario, err := stresstest.ParseScenario(req.Scenario)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rec, err := h.service.RunForBuyer(r.Context(), chi.URLParam(r, "id"), bankability.RunRequest{
		Scenario:   scenario,
		Parameters: req.Parameters,
		Covenant:   req.Covenant,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, rec)
}

// HandleListForBuyer handles GET /api/buyers/{id}/stress-tests
// Query: limit
func (h *Handler) HandleListForBuyer(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	records, err := h.service.ListStressTests(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, records)
}

// HandleGetStressTest handles GET /api/stress-tests/{id}
func (h *Handler) HandleGetStressTest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetStressTest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, rec)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stresstest.ErrInvalidScenario),
		errors.Is(err, stresstest.ErrInvalidCovenant),
		errors.Is(err, stresstest.ErrNonFiniteResult),
		errors.Is(err, bankability.ErrInvalidTransaction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, bankability.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
