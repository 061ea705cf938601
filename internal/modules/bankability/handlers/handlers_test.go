package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abfi/platform/internal/modules/bankability"
	testingpkg "github.com/abfi/platform/internal/testing"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "abfi")
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	svc := bankability.NewService(
		bankability.NewTransactionRepository(db.Conn(), log),
		bankability.NewStressTestRepository(db.Conn(), log),
		nil, log,
	)

	router := chi.NewRouter()
	router.Route("/api", NewHandler(svc, log).RegisterRoutes)
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var resp struct {
		Data     json.RawMessage        `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Metadata, "timestamp")
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func TestHandleGetTemplates(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/api/stress-tests/templates", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Templates []map[string]interface{} `json:"templates"`
		Covenant  map[string]float64       `json:"covenant"`
	}
	decodeData(t, w, &data)
	assert.Len(t, data.Templates, 5)
	assert.Equal(t, 0.9, data.Covenant["min_supply_coverage"])
	assert.Equal(t, 0.2, data.Covenant["max_cost_increase"])
}

func TestHandleRun(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/stress-tests/run", `{"scenario": "price-shock"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result map[string]interface{}
	decodeData(t, w, &result)
	assert.Equal(t, "price_shock", result["scenario"])
	assert.Equal(t, 2125000.0, result["financial_impact"])
	covenant := result["covenant"].(map[string]interface{})
	assert.Equal(t, "breach", covenant["status"])
}

func TestHandleRun_CallerBaselineAndCovenant(t *testing.T) {
	router := setupRouter(t)

	body := `{
		"scenario": "price_shock",
		"baseline": {"annual_volume_tonnes": 1000, "average_price_per_tonne": 500, "top_supplier_share": 0.5, "supplier_count": 4},
		"parameters": {"price_increase_pct": 10},
		"covenant": {"min_supply_coverage": 0.8, "max_cost_increase": 0.15}
	}`
	w := do(t, router, http.MethodPost, "/api/stress-tests/run", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result map[string]interface{}
	decodeData(t, w, &result)
	assert.InDelta(t, 50000.0, result["financial_impact"], 1e-6)
	covenant := result["covenant"].(map[string]interface{})
	assert.Equal(t, "compliant", covenant["status"])
	provenance := result["provenance"].(map[string]interface{})
	assert.Equal(t, "caller", provenance["baseline"].(map[string]interface{})["source"])
}

func TestHandleRun_BadRequests(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"scenario":`},
		{"missing scenario", `{}`},
		{"unknown scenario", `{"scenario": "meteor_strike"}`},
		{"share above one", `{"scenario": "supply_shock", "baseline": {"top_supplier_share": 1.5}}`},
		{"negative volume", `{"scenario": "supply_shock", "baseline": {"annual_volume_tonnes": -1}}`},
		{"coverage above one", `{"scenario": "supply_shock", "covenant": {"min_supply_coverage": 2}}`},
		{"overflowing parameter", `{"scenario": "price_shock", "parameters": {"price_increase_pct": 1e308}}`},
		{"overflowing baseline", `{"scenario": "supply_shock", "baseline": {"annual_volume_tonnes": 1e308, "average_price_per_tonne": 1e10}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/stress-tests/run", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestBuyerStressTestLifecycle(t *testing.T) {
	router := setupRouter(t)

	for _, body := range []string{
		`{"supplier_id": "s1", "volume_tonnes": 600, "price_per_tonne": 800}`,
		`{"supplier_id": "s1", "volume_tonnes": 200, "price_per_tonne": 900}`,
		`{"supplier_id": "s2", "volume_tonnes": 200, "price_per_tonne": 1000}`,
	} {
		w := do(t, router, http.MethodPost, "/api/buyers/b1/transactions", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodPost, "/api/buyers/b1/stress-tests", `{"scenario": "supplier_default"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec struct {
		ID             string          `json:"id"`
		BuyerID        string          `json:"buyer_id"`
		Confidence     string          `json:"confidence"`
		SnapshotDigest string          `json:"snapshot_digest"`
		InputSnapshot  json.RawMessage `json:"input_snapshot"`
	}
	decodeData(t, w, &rec)
	assert.Equal(t, "b1", rec.BuyerID)
	assert.Equal(t, "medium", rec.Confidence)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, rec.SnapshotDigest)
	assert.NotEmpty(t, rec.InputSnapshot)

	w = do(t, router, http.MethodGet, "/api/stress-tests/"+rec.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/buyers/b1/stress-tests?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	decodeData(t, w, &list)
	assert.Len(t, list, 1)
}

func TestBuyerErrors(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown stress test", http.MethodGet, "/api/stress-tests/ghost", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/buyers/b1/stress-tests?limit=x", "", http.StatusBadRequest},
		{"zero volume", http.MethodPost, "/api/buyers/b1/transactions", `{"supplier_id": "s1", "volume_tonnes": 0}`, http.StatusBadRequest},
		{"missing supplier", http.MethodPost, "/api/buyers/b1/transactions", `{"volume_tonnes": 5}`, http.StatusBadRequest},
		{"unknown scenario", http.MethodPost, "/api/buyers/b1/stress-tests", `{"scenario": "meteor"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
