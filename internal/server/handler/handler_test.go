package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/dexmon/internal/cache"
	"github.com/alanyoungcy/dexmon/internal/domain"
)

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func seededCache(t *testing.T, age time.Duration) *cache.PriceCache {
	t.Helper()
	c := cache.New(cache.Config{TTL: time.Minute, Logger: testLogger()})
	rec := domain.PriceRecord{
		Pair: "SOL/USDC", Venue: "orca", Price: 100, Liquidity: 100_000,
		Slot: 1000, ObservedAt: time.Now().UTC().Add(-age), FeeRate: 0.0025,
	}
	if err := c.Update(rec); err != nil {
		t.Fatal(err)
	}
	return c
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return body
}

func TestHealthCheckOK(t *testing.T) {
	h := NewHealthHandler(seededCache(t, 0), 2*time.Second, testLogger())

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["entries"] != float64(1) {
		t.Errorf("entries = %v, want 1", body["entries"])
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	h := NewHealthHandler(seededCache(t, 10*time.Second), 2*time.Second, testLogger())

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if body := decodeBody(t, rr); body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded when a pair goes stale", body["status"])
	}
}

func TestListPairs(t *testing.T) {
	h := NewPriceHandler(seededCache(t, 0), testLogger())

	rr := httptest.NewRecorder()
	h.ListPairs(rr, httptest.NewRequest(http.MethodGet, "/api/prices", nil))

	body := decodeBody(t, rr)
	pairs, ok := body["pairs"].([]any)
	if !ok || len(pairs) != 1 || pairs[0] != "SOL/USDC" {
		t.Errorf("pairs = %v", body["pairs"])
	}
}

func TestGetPair(t *testing.T) {
	h := NewPriceHandler(seededCache(t, 0), testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/prices/{pair}", h.GetPair)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/prices/SOL%2FUSDC", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["pair"] != "SOL/USDC" {
		t.Errorf("pair = %v", body["pair"])
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/prices/NOPE", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown pair status = %d, want 404", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != domain.ErrUnknownPair.Error()+": NOPE" {
		t.Errorf("error = %v", body["error"])
	}
}

type stubRecent struct{ opps []domain.Opportunity }

func (s *stubRecent) Recent() []domain.Opportunity { return s.opps }

func TestListRecentLimit(t *testing.T) {
	src := &stubRecent{}
	for i := 0; i < 5; i++ {
		src.opps = append(src.opps, domain.Opportunity{ID: string(rune('a' + i))})
	}
	h := NewOpportunityHandler(src, testLogger())

	rr := httptest.NewRecorder()
	h.ListRecent(rr, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=2", nil))

	body := decodeBody(t, rr)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestListRecentDefaults(t *testing.T) {
	h := NewOpportunityHandler(&stubRecent{}, testLogger())

	rr := httptest.NewRecorder()
	h.ListRecent(rr, httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=junk", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["count"] != float64(0) {
		t.Errorf("count = %v, want 0", body["count"])
	}
}
