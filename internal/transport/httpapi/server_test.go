package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/domain"
	feedbackuc "github.com/kailas-cloud/attire/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/attire/internal/usecase/health"
	"github.com/kailas-cloud/attire/internal/weather"
)

// --- Mocks ---

type mockRecommender struct {
	items      []domain.ScoredItem
	err        error
	lastIntent domain.Intent
	lastK      int
}

func (m *mockRecommender) Recommend(_ context.Context, intent domain.Intent, k int) ([]domain.ScoredItem, error) {
	m.lastIntent = intent
	m.lastK = k
	return m.items, m.err
}

type mockForecaster struct {
	forecast weather.Forecast
	err      error
	calls    int
	lastLat  float64
	lastLng  float64
}

func (m *mockForecaster) Forecast(_ context.Context, lat, lng float64) (weather.Forecast, error) {
	m.calls++
	m.lastLat, m.lastLng = lat, lng
	return m.forecast, m.err
}

type mockFeedback struct {
	err        error
	lastRating int
	lastText   string
}

func (m *mockFeedback) Record(_ context.Context, rating int, text string) (feedbackuc.Entry, error) {
	m.lastRating, m.lastText = rating, text
	if m.err != nil {
		return feedbackuc.Entry{}, m.err
	}
	return feedbackuc.Entry{ID: "f-1", Rating: rating, Text: text}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type testDeps struct {
	engine    *mockRecommender
	forecasts *mockForecaster
	feedback  *mockFeedback
	health    *mockHealth
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()
	deps := &testDeps{
		engine: &mockRecommender{items: []domain.ScoredItem{{
			ID:          "1163",
			ArticleType: "Tshirts",
			Gender:      "Men",
			Season:      domain.SeasonSummer,
			Usage:       domain.UsageCasual,
			ImageURL:    "/static/images/1163.jpg",
			Score:       0.8751,
		}}},
		forecasts: &mockForecaster{forecast: weather.Forecast{
			Latitude:  1.25,
			Elevation: 23,
			DailyMax:  []float64{32, 33},
			DailyMin:  []float64{26, 27},
		}},
		feedback: &mockFeedback{},
		health:   &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"engine": healthuc.CheckOK}}},
	}
	s := NewServer(deps.engine, deps.forecasts, deps.feedback, deps.health, zap.NewNop())
	s.now = func() time.Time {
		return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	return s, deps
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	s.Routes(r)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// --- Recommend ---

func TestRecommend_OK(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/recommend",
		`{"gender":"Men","age":25,"season":"Summer","usage":"casual","k":3}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if deps.engine.lastK != 3 {
		t.Errorf("k = %d, want 3", deps.engine.lastK)
	}
	if deps.engine.lastIntent.Usage != domain.UsageCasual {
		t.Errorf("usage = %q, want Casual", deps.engine.lastIntent.Usage)
	}

	body := decodeBody(t, rec)
	recs, ok := body["recommendations"].([]any)
	if !ok || len(recs) != 1 {
		t.Fatalf("recommendations = %v", body["recommendations"])
	}
	first := recs[0].(map[string]any)
	links, ok := first["buy_links"].(map[string]any)
	if !ok {
		t.Fatalf("buy_links missing: %v", first)
	}
	if !strings.Contains(links["shopee"].(string), "shopee") {
		t.Errorf("shopee link = %v", links["shopee"])
	}
}

func TestRecommend_DefaultK(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/recommend",
		`{"gender":"Women","age":30,"season":"Winter","usage":"Formal"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if deps.engine.lastK != defaultK {
		t.Errorf("k = %d, want default %d", deps.engine.lastK, defaultK)
	}
}

func TestRecommend_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"age below range", `{"gender":"Men","age":14,"season":"Summer","usage":"casual"}`},
		{"age above range", `{"gender":"Men","age":51,"season":"Summer","usage":"casual"}`},
		{"k above range", `{"gender":"Men","age":25,"season":"Summer","usage":"casual","k":11}`},
		{"bad season", `{"gender":"Men","age":25,"season":"Monsoon","usage":"casual"}`},
		{"bad gender", `{"gender":"Other","age":25,"season":"Summer","usage":"casual"}`},
		{"unknown usage", `{"gender":"Men","age":25,"season":"Summer","usage":"gardening"}`},
		{"malformed json", `{"gender":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, deps := newTestServer(t)
			rec := doRequest(t, s, http.MethodPost, "/api/v1/recommend", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if deps.engine.lastK != 0 {
				t.Error("engine must not be called for invalid input")
			}
		})
	}
}

func TestRecommend_NotReady(t *testing.T) {
	s, deps := newTestServer(t)
	deps.engine.items = nil
	deps.engine.err = domain.ErrNotReady

	rec := doRequest(t, s, http.MethodPost, "/api/v1/recommend",
		`{"gender":"Men","age":25,"season":"Summer","usage":"casual"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRecommend_CatalogDesyncIsInternal(t *testing.T) {
	s, deps := newTestServer(t)
	deps.engine.items = nil
	deps.engine.err = domain.NewDesync("9999")

	rec := doRequest(t, s, http.MethodPost, "/api/v1/recommend",
		`{"gender":"Men","age":25,"season":"Summer","usage":"casual"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "9999") {
		t.Error("internal error details must not leak to the client")
	}
}

// --- ProcessLocation ---

func TestProcessLocation_OK(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process",
		`{"gender":"Men","age":25,"occasion":"casual","location":{"lat":1.3,"lng":103.8},"k":2}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if deps.forecasts.lastLat != 1.3 || deps.forecasts.lastLng != 103.8 {
		t.Errorf("forecast coords = (%v, %v)", deps.forecasts.lastLat, deps.forecasts.lastLng)
	}
	// Tropical latitude with ~29.5C average midpoint classifies as Summer.
	if deps.engine.lastIntent.Season != domain.SeasonSummer {
		t.Errorf("derived season = %q, want Summer", deps.engine.lastIntent.Season)
	}

	body := decodeBody(t, rec)
	if body["season"] != "Summer" {
		t.Errorf("season in response = %v", body["season"])
	}
}

func TestProcessLocation_DateWindow(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		status int
	}{
		{"today", "2025-03-14", http.StatusOK},
		{"edge of window", "2025-03-29", http.StatusOK},
		{"beyond window", "2025-03-30", http.StatusBadRequest},
		{"in the past", "2025-03-13", http.StatusBadRequest},
		{"unparseable", "14/03/2025", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			body := `{"gender":"Men","age":25,"occasion":"casual","location":{"lat":1.3,"lng":103.8},"date":"` + tt.date + `"}`
			rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process", body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestProcessLocation_OffLand(t *testing.T) {
	s, deps := newTestServer(t)
	deps.forecasts.forecast.Elevation = 0

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process",
		`{"gender":"Men","age":25,"occasion":"casual","location":{"lat":0,"lng":-140}}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
	if deps.engine.lastK != 0 {
		t.Error("engine must not be called for off-land locations")
	}
}

func TestProcessLocation_WeatherUnavailable(t *testing.T) {
	s, deps := newTestServer(t)
	deps.forecasts.err = domain.ErrWeatherUnavailable

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process",
		`{"gender":"Men","age":25,"occasion":"casual","location":{"lat":1.3,"lng":103.8}}`)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestProcessLocation_NullIslandReachesLandCheck(t *testing.T) {
	// The (0, 0) coordinate is a real location, not an omitted field: it must
	// pass validation and be rejected by the land check instead.
	s, deps := newTestServer(t)
	deps.forecasts.forecast.Elevation = 0

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process",
		`{"gender":"Men","age":25,"occasion":"casual","location":{"lat":0,"lng":0}}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
	if deps.forecasts.calls != 1 {
		t.Errorf("forecast calls = %d, want 1 (validation must not short-circuit)", deps.forecasts.calls)
	}
	if deps.engine.lastK != 0 {
		t.Error("engine must not be called for off-land locations")
	}
}

func TestProcessLocation_MissingLocation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process",
		`{"gender":"Men","age":25,"occasion":"casual"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestProcessLocation_CoordinateBounds(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations/process",
		`{"gender":"Men","age":25,"occasion":"casual","location":{"lat":91,"lng":103.8}}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- Feedback ---

func TestFeedback_OK(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/feedback",
		`{"rating":4,"feedback":"liked the formal picks"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if deps.feedback.lastRating != 4 || deps.feedback.lastText != "liked the formal picks" {
		t.Errorf("recorded (%d, %q)", deps.feedback.lastRating, deps.feedback.lastText)
	}

	body := decodeBody(t, rec)
	if body["id"] != "f-1" {
		t.Errorf("id = %v", body["id"])
	}
}

func TestFeedback_Validation(t *testing.T) {
	for _, body := range []string{
		`{"rating":0,"feedback":"x"}`,
		`{"rating":6,"feedback":"x"}`,
		`{"rating":3,"feedback":""}`,
	} {
		s, _ := newTestServer(t)
		rec := doRequest(t, s, http.MethodPost, "/api/v1/feedback", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	s, deps := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	deps.health.report = healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"engine": healthuc.CheckError},
	}
	rec = doRequest(t, s, http.MethodGet, "/api/v1/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	deps.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"engine": healthuc.CheckOK, "cache": healthuc.CheckError},
	}
	rec = doRequest(t, s, http.MethodGet, "/api/v1/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("degraded status = %d, want 200", rec.Code)
	}
}
