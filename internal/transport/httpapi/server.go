// Package httpapi exposes the recommendation service over HTTP with chi.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/domain"
	"github.com/kailas-cloud/attire/internal/shoplink"
	feedbackuc "github.com/kailas-cloud/attire/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/attire/internal/usecase/health"
	"github.com/kailas-cloud/attire/internal/weather"
)

// Recommender is the engine entry point consumed by the HTTP layer.
type Recommender interface {
	Recommend(ctx context.Context, intent domain.Intent, k int) ([]domain.ScoredItem, error)
}

// FeedbackRecorder persists user feedback.
type FeedbackRecorder interface {
	Record(ctx context.Context, rating int, text string) (feedbackuc.Entry, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the route handlers for the public API.
type Server struct {
	engine        Recommender
	forecasts     weather.Provider
	feedback      FeedbackRecorder
	health        HealthChecker
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	engine Recommender,
	forecasts weather.Provider,
	feedback FeedbackRecorder,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		engine:    engine,
		forecasts: forecasts,
		feedback:  feedback,
		health:    health,
		logger:    logger,
		now:       time.Now,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, "not_ready"),
		sentinelHandler(domain.ErrOffLand, http.StatusUnprocessableEntity, "location_off_land"),
		sentinelHandler(domain.ErrWeatherUnavailable, http.StatusBadGateway, "weather_unavailable"),
	}
	return s
}

// Routes mounts the API handlers onto the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/recommend", s.Recommend)
	r.Post("/api/v1/locations/process", s.ProcessLocation)
	r.Post("/api/v1/feedback", s.Feedback)
	r.Get("/api/v1/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// recommendationItem is a scored item plus shopping links.
type recommendationItem struct {
	domain.ScoredItem
	BuyLinks shoplink.Links `json:"buy_links"`
}

type recommendResponse struct {
	Recommendations []recommendationItem `json:"recommendations"`
	Query           queryEcho            `json:"query"`
}

type queryEcho struct {
	Gender string `json:"gender"`
	Season string `json:"season"`
	Usage  string `json:"usage"`
	K      int    `json:"k"`
}

// Recommend handles POST /api/v1/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationMessage(err))
		return
	}

	usage, err := parseUsage(req.Usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	k := req.K
	if k == 0 {
		k = defaultK
	}

	intent := domain.Intent{
		Gender: req.Gender,
		Season: domain.Season(req.Season),
		Usage:  usage,
	}
	items, err := s.engine.Recommend(r.Context(), intent, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Recommendations: attachLinks(items),
		Query: queryEcho{
			Gender: intent.Gender,
			Season: string(intent.Season),
			Usage:  string(intent.Usage),
			K:      k,
		},
	})
}

type processLocationResponse struct {
	Message string             `json:"message"`
	Season  string             `json:"season"`
	Data    recommendationData `json:"data"`
}

type recommendationData struct {
	Result []recommendationItem `json:"result"`
}

// ProcessLocation handles POST /api/v1/locations/process. The season comes
// from the forecast at the submitted coordinates instead of the request.
func (s *Server) ProcessLocation(w http.ResponseWriter, r *http.Request) {
	var req processLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationMessage(err))
		return
	}
	if err := validateDate(req.Date, s.now()); err != nil {
		s.handleDomainError(w, err)
		return
	}

	usage, err := parseUsage(req.Occasion)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	k := req.K
	if k == 0 {
		k = defaultK
	}

	fc, err := s.forecasts.Forecast(r.Context(), req.Location.Lat, req.Location.Lng)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !fc.OnLand() {
		s.handleDomainError(w, domain.ErrOffLand)
		return
	}
	season := weather.CategorizeSeason(fc)

	intent := domain.Intent{
		Gender: req.Gender,
		Season: season,
		Usage:  usage,
	}
	items, err := s.engine.Recommend(r.Context(), intent, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processLocationResponse{
		Message: "Location processed successfully",
		Season:  string(season),
		Data:    recommendationData{Result: attachLinks(items)},
	})
}

// Feedback handles POST /api/v1/feedback.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationMessage(err))
		return
	}

	entry, err := s.feedback.Record(r.Context(), req.Rating, req.Feedback)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Feedback saved",
		"id":      entry.ID,
	})
}

// HealthCheck handles GET /api/v1/healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// attachLinks builds the shopping links for each result.
func attachLinks(items []domain.ScoredItem) []recommendationItem {
	out := make([]recommendationItem, len(items))
	for i, it := range items {
		out[i] = recommendationItem{
			ScoredItem: it,
			BuyLinks: shoplink.BuildLinks(domain.CatalogItem{
				ID:          it.ID,
				Gender:      it.Gender,
				ArticleType: it.ArticleType,
				Season:      it.Season,
				Usage:       it.Usage,
			}),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotReady,
		domain.ErrOffLand,
		domain.ErrWeatherUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			if errors.Is(err, domain.ErrValidation) {
				// Validation details are safe and useful to echo back.
				return err.Error()
			}
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	// Catalog desync and anything unknown is an internal failure.
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
