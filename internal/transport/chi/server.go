// Package chi exposes the usage engine and study services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
	domartifact "github.com/fonta-cloud/studymeter/internal/domain/artifact"
	healthuc "github.com/fonta-cloud/studymeter/internal/usecase/health"
	studyuc "github.com/fonta-cloud/studymeter/internal/usecase/study"
	usageuc "github.com/fonta-cloud/studymeter/internal/usecase/usage"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Error codes returned to clients.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeInvalidFeature      = "invalid_feature"
	codeInvalidTier         = "invalid_tier"
	codeArtifactNotFound    = "artifact_not_found"
	codeWindowQuotaExceeded = "window_quota_exceeded"
	codeFeatureLimitReached = "feature_limit_reached"
	codeStoreUnavailable    = "store_unavailable"
	codeGenerationFailed    = "generation_failed"
	codeInternalError       = "internal_error"
)

// UsageEngine is the consumer interface over the usage engine; both the
// plain and instrumented engines satisfy it.
type UsageEngine interface {
	TryConsume(ctx context.Context, userID string, feature domain.Feature) (usageuc.Decision, error)
	CanUseFeature(ctx context.Context, userID string, tier domain.Tier, feature domain.Feature) (bool, error)
	SetTier(ctx context.Context, userID string, tier domain.Tier) error
	Snapshot(ctx context.Context, userID string) (usageuc.Snapshot, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the usage and study services.
type Server struct {
	engine        UsageEngine
	study         *studyuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	engine UsageEngine,
	study *studyuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		engine: engine,
		study:  study,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFeature, http.StatusBadRequest, codeInvalidFeature),
		sentinelHandler(domain.ErrInvalidUser, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidTier, http.StatusBadRequest, codeInvalidTier),
		sentinelHandler(domain.ErrArtifactNotFound, http.StatusNotFound, codeArtifactNotFound),
		sentinelHandler(domain.ErrWindowQuotaExceeded, http.StatusTooManyRequests, codeWindowQuotaExceeded),
		sentinelHandler(domain.ErrFeatureLimitReached, http.StatusTooManyRequests, codeFeatureLimitReached),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeGenerationFailed),
	}
	return s
}

// Routes mounts all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Post("/consume", s.Consume)
		r.Get("/usage", s.GetUsage)
		r.Get("/features/{feature}", s.CheckFeature)
		r.Put("/tier", s.SetTier)
		r.Post("/quiz", s.GenerateQuiz)
		r.Post("/summary", s.Summarize)
		r.Post("/homework", s.HomeworkHelp)
		r.Get("/artifacts/{artifactID}", s.GetArtifact)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type consumeRequest struct {
	Feature string `json:"feature"`
}

type consumeResponse struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	Remaining       int    `json:"remaining"`
	WindowRemaining int    `json:"window_remaining"`
}

// Consume handles POST /api/v1/users/{userID}/consume. A quota denial
// is a successful decision, not an error: it returns 200 with
// allowed=false so clients can distinguish "over quota" from failures.
func (s *Server) Consume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	feature, err := domain.ParseFeature(req.Feature)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	d, err := s.engine.TryConsume(r.Context(), chi.URLParam(r, "userID"), feature)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := consumeResponse{
		Allowed:         d.Allowed,
		Remaining:       d.Remaining,
		WindowRemaining: d.WindowRemaining,
	}
	if d.Reason != nil {
		resp.Reason = reasonCode(d.Reason)
	}
	writeJSON(w, http.StatusOK, resp)
}

type usageResponse struct {
	Tier            string         `json:"tier"`
	RollingCount    int            `json:"rolling_count"`
	WindowRemaining int            `json:"window_remaining"`
	Remaining       map[string]int `json:"remaining"`
	ResetInSeconds  int64          `json:"reset_in_seconds"`
	CurrentStreak   int            `json:"current_streak"`
	LongestStreak   int            `json:"longest_streak"`
}

// GetUsage handles GET /api/v1/users/{userID}/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	remaining := make(map[string]int, len(snap.Remaining))
	for f, n := range snap.Remaining {
		remaining[string(f)] = n
	}

	writeJSON(w, http.StatusOK, usageResponse{
		Tier:            string(snap.Tier),
		RollingCount:    snap.RollingCount,
		WindowRemaining: snap.WindowRemaining,
		Remaining:       remaining,
		ResetInSeconds:  int64(snap.TimeUntilReset / time.Second),
		CurrentStreak:   snap.CurrentStreak,
		LongestStreak:   snap.LongestStreak,
	})
}

type checkFeatureResponse struct {
	Feature string `json:"feature"`
	CanUse  bool   `json:"can_use"`
}

// CheckFeature handles GET /api/v1/users/{userID}/features/{feature}.
// The optional tier query parameter defaults to the free tier.
func (s *Server) CheckFeature(w http.ResponseWriter, r *http.Request) {
	feature, err := domain.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	tier, err := domain.ParseTier(r.URL.Query().Get("tier"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	can, err := s.engine.CanUseFeature(r.Context(), chi.URLParam(r, "userID"), tier, feature)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkFeatureResponse{
		Feature: string(feature),
		CanUse:  can,
	})
}

type setTierRequest struct {
	Tier string `json:"tier"`
}

// SetTier handles PUT /api/v1/users/{userID}/tier.
func (s *Server) SetTier(w http.ResponseWriter, r *http.Request) {
	var req setTierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	tier, err := domain.ParseTier(req.Tier)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.engine.SetTier(r.Context(), chi.URLParam(r, "userID"), tier); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type quizRequest struct {
	Material      string `json:"material"`
	QuestionCount int    `json:"question_count,omitempty"`
}

// GenerateQuiz handles POST /api/v1/users/{userID}/quiz.
func (s *Server) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Material == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "material is required")
		return
	}

	a, err := s.study.GenerateQuiz(r.Context(), chi.URLParam(r, "userID"), req.Material, req.QuestionCount)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, artifactToResponse(a))
}

type materialRequest struct {
	Material string `json:"material"`
}

// Summarize handles POST /api/v1/users/{userID}/summary.
func (s *Server) Summarize(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Material == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "material is required")
		return
	}

	a, err := s.study.Summarize(r.Context(), chi.URLParam(r, "userID"), req.Material)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, artifactToResponse(a))
}

type homeworkRequest struct {
	Problem string `json:"problem"`
}

// HomeworkHelp handles POST /api/v1/users/{userID}/homework.
func (s *Server) HomeworkHelp(w http.ResponseWriter, r *http.Request) {
	var req homeworkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Problem == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "problem is required")
		return
	}

	a, err := s.study.HomeworkHelp(r.Context(), chi.URLParam(r, "userID"), req.Problem)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, artifactToResponse(a))
}

// GetArtifact handles GET /api/v1/users/{userID}/artifacts/{artifactID}.
func (s *Server) GetArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := s.study.Artifact(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "artifactID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, artifactToResponse(a))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
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

type artifactResponse struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func artifactToResponse(a domartifact.Artifact) artifactResponse {
	return artifactResponse{
		ID:        a.ID(),
		Feature:   string(a.Feature()),
		Content:   a.Content(),
		CreatedAt: a.CreatedAt(),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return json.NewDecoder(r.Body).Decode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// reasonCode maps a denial reason to its client-facing code.
func reasonCode(reason error) string {
	switch {
	case errors.Is(reason, domain.ErrWindowQuotaExceeded):
		return codeWindowQuotaExceeded
	case errors.Is(reason, domain.ErrFeatureLimitReached):
		return codeFeatureLimitReached
	default:
		return codeInternalError
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidFeature,
		domain.ErrInvalidUser,
		domain.ErrInvalidTier,
		domain.ErrArtifactNotFound,
		domain.ErrWindowQuotaExceeded,
		domain.ErrFeatureLimitReached,
		domain.ErrStoreUnavailable,
		domain.ErrGenerationFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
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
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
