// Package handlers provides HTTP handlers for ratings, suppliers and feedstocks.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/modules/feedstocks"
	"github.com/abfi/platform/internal/modules/rating"
)

// Handler handles rating and feedstock HTTP requests
type Handler struct {
	service  *feedstocks.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new feedstocks handler
func NewHandler(service *feedstocks.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With().Str("handler", "feedstocks").Logger(),
	}
}

// =============================================================================
// REQUEST BODIES
// =============================================================================

type reliabilityRequest struct {
	OnTimeInFullPct      float64 `json:"otif_pct" validate:"gte=0,lte=100"`
	VolumeVariance       float64 `json:"volume_variance" validate:"gte=0"`
	QualityCoV           float64 `json:"quality_cov" validate:"gte=0"`
	AvgResponseTimeHours float64 `json:"avg_response_time_hours" validate:"gte=0"`
	MonthsActive         float64 `json:"months_active" validate:"gte=0"`
	TransactionCount     int     `json:"transaction_count" validate:"gte=0"`
}

func (r reliabilityRequest) inputs() rating.ReliabilityInputs {
	return rating.ReliabilityInputs{
		OnTimeInFullPct:      r.OnTimeInFullPct,
		VolumeVariance:       r.VolumeVariance,
		QualityCoV:           r.QualityCoV,
		AvgResponseTimeHours: r.AvgResponseTimeHours,
		MonthsActive:         r.MonthsActive,
		TransactionCount:     r.TransactionCount,
	}
}

type qualityRequest struct {
	Category   string             `json:"category" validate:"required"`
	Parameters map[string]float64 `json:"parameters"`
}

type calculateRequest struct {
	Sustainability  rating.SustainabilityInputs `json:"sustainability"`
	CarbonIntensity *float64                    `json:"carbon_intensity" validate:"required"`
	Quality         qualityRequest              `json:"quality"`
	Reliability     reliabilityRequest          `json:"reliability"`
}

type createSupplierRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	ABN    string `json:"abn" validate:"omitempty,len=11,numeric"`
	Region string `json:"region" validate:"max=100"`
}

type createFeedstockRequest struct {
	SupplierID        string                      `json:"supplier_id" validate:"required"`
	Name              string                      `json:"name" validate:"required,max=200"`
	Category          string                      `json:"category" validate:"required"`
	CarbonIntensity   *float64                    `json:"carbon_intensity" validate:"required"`
	Sustainability    rating.SustainabilityInputs `json:"sustainability"`
	QualityParameters map[string]float64          `json:"quality_parameters"`
}

// =============================================================================
// RATINGS
// =============================================================================

// HandleCalculate handles POST /api/ratings/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !h.decode(w, r, &req) {
		return
	}

	sustainability, err := normaliseSustainability(req.Sustainability)
	if err != nil {
		h.writeError(w, err)
		return
	}
	category, err := rating.ParseCategory(req.Quality.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.Calculate(
		sustainability,
		*req.CarbonIntensity,
		rating.QualityInputs{Category: category, Parameters: req.Quality.Parameters},
		req.Reliability.inputs(),
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"result":           result,
		"tier":             rating.GetScoreTier(result.AbfiScore),
		"standards_digest": h.service.StandardsDigest(),
	})
}

// HandleGetTiers handles GET /api/ratings/tiers
func (h *Handler) HandleGetTiers(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"tiers":   rating.TierBands(),
		"weights": h.service.Engine().Weights(),
	})
}

// =============================================================================
// SUPPLIERS
// =============================================================================

// HandleCreateSupplier handles POST /api/suppliers
func (h *Handler) HandleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if !h.decode(w, r, &req) {
		return
	}

	supplier, err := h.service.CreateSupplier(r.Context(), req.Name, req.ABN, req.Region)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, supplier)
}

// HandleListSuppliers handles GET /api/suppliers
func (h *Handler) HandleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, suppliers)
}

// HandleGetSupplier handles GET /api/suppliers/{id}
func (h *Handler) HandleGetSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, supplier)
}

// HandlePutReliability handles PUT /api/suppliers/{id}/reliability
func (h *Handler) HandlePutReliability(w http.ResponseWriter, r *http.Request) {
	var req reliabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	rel, err := h.service.UpsertReliability(r.Context(), chi.URLParam(r, "id"), req.inputs())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, rel)
}

// =============================================================================
// FEEDSTOCKS
// =============================================================================

// HandleCreateFeedstock handles POST /api/feedstocks
func (h *Handler) HandleCreateFeedstock(w http.ResponseWriter, r *http.Request) {
	var req createFeedstockRequest
	if !h.decode(w, r, &req) {
		return
	}

	category, err := rating.ParseCategory(req.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sustainability, err := normaliseSustainability(req.Sustainability)
	if err != nil {
		h.writeError(w, err)
		return
	}

	f, err := h.service.CreateFeedstock(r.Context(), feedstocks.NewFeedstock{
		SupplierID:      req.SupplierID,
		Name:            req.Name,
		Category:        category,
		CarbonIntensity: *req.CarbonIntensity,
		Sustainability:  sustainability,
		Quality:         req.QualityParameters,
	})
	if err != nil {
		if errors.Is(err, feedstocks.ErrNotFound) {
			// The body referenced a supplier that does not exist
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, f)
}

// HandleListFeedstocks handles GET /api/feedstocks
// Query: supplier_id, category, min_score, limit, offset
func (h *Handler) HandleListFeedstocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := feedstocks.ListFilter{SupplierID: q.Get("supplier_id")}

	if c := q.Get("category"); c != "" {
		category, err := rating.ParseCategory(c)
		if err != nil {
			h.writeError(w, err)
			return
		}
		filter.Category = category
	}

	for name, dst := range map[string]*int{
		"min_score": &filter.MinScore,
		"limit":     &filter.Limit,
		"offset":    &filter.Offset,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, fmt.Sprintf("invalid %s: %q", name, raw), http.StatusBadRequest)
			return
		}
		*dst = v
	}

	list, err := h.service.ListFeedstocks(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, list)
}

// HandleGetFeedstock handles GET /api/feedstocks/{id}
func (h *Handler) HandleGetFeedstock(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetFeedstock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, f)
}

// HandleScoreFeedstock handles POST /api/feedstocks/{id}/score
func (h *Handler) HandleScoreFeedstock(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.ScoreFeedstock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, f)
}

// HandleRescoreAll handles POST /api/feedstocks/rescore
func (h *Handler) HandleRescoreAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RescoreAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, summary)
}

// HandleGetCertificate handles GET /api/feedstocks/{id}/certificate
func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.Certificate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, cert.Number))
	w.Header().Set("X-Certificate-Number", cert.Number)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(cert.PDF); err != nil {
		h.log.Error().Err(err).Msg("Failed to write certificate")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func normaliseSustainability(in rating.SustainabilityInputs) (rating.SustainabilityInputs, error) {
	cert, err := rating.ParseCertification(string(in.Certification))
	if err != nil {
		return in, err
	}
	in.Certification = cert
	return in, nil
}

// decode reads and validates a JSON body. It writes a 400 and returns false
// on failure.
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
	case errors.Is(err, rating.ErrInvalidCategory),
		errors.Is(err, rating.ErrInvalidCertification),
		errors.Is(err, feedstocks.ErrInvalidSupplier):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, feedstocks.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, feedstocks.ErrNotScored):
		http.Error(w, err.Error(), http.StatusConflict)
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
