package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
	domartifact "github.com/fonta-cloud/studymeter/internal/domain/artifact"
	healthuc "github.com/fonta-cloud/studymeter/internal/usecase/health"
	studyuc "github.com/fonta-cloud/studymeter/internal/usecase/study"
	usageuc "github.com/fonta-cloud/studymeter/internal/usecase/usage"
)

var testTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// --- Mocks ---

type fakeEngine struct {
	decision    usageuc.Decision
	consumeErr  error
	canUse      bool
	canUseErr   error
	setTierErr  error
	snapshot    usageuc.Snapshot
	snapshotErr error

	lastUser    string
	lastFeature domain.Feature
	lastTier    domain.Tier
}

func (f *fakeEngine) TryConsume(_ context.Context, userID string, feature domain.Feature) (usageuc.Decision, error) {
	f.lastUser, f.lastFeature = userID, feature
	return f.decision, f.consumeErr
}

func (f *fakeEngine) CanUseFeature(_ context.Context, userID string, tier domain.Tier, feature domain.Feature) (bool, error) {
	f.lastUser, f.lastTier, f.lastFeature = userID, tier, feature
	return f.canUse, f.canUseErr
}

func (f *fakeEngine) SetTier(_ context.Context, userID string, tier domain.Tier) error {
	f.lastUser, f.lastTier = userID, tier
	return f.setTierErr
}

func (f *fakeEngine) Snapshot(_ context.Context, userID string) (usageuc.Snapshot, error) {
	f.lastUser = userID
	return f.snapshot, f.snapshotErr
}

type fakeGenerator struct {
	content string
	err     error
}

func (f *fakeGenerator) GenerateQuiz(context.Context, string, int) (string, error) {
	return f.content, f.err
}
func (f *fakeGenerator) GenerateSummary(context.Context, string) (string, error) {
	return f.content, f.err
}
func (f *fakeGenerator) GenerateHomeworkHelp(context.Context, string) (string, error) {
	return f.content, f.err
}

type fakeArtifacts struct {
	artifact domartifact.Artifact
	getErr   error
}

func (f *fakeArtifacts) Save(context.Context, domartifact.Artifact) error { return nil }
func (f *fakeArtifacts) Get(context.Context, string, string) (domartifact.Artifact, error) {
	return f.artifact, f.getErr
}
func (f *fakeArtifacts) Delete(context.Context, string, string) error { return nil }

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestRouter(engine *fakeEngine, gen *fakeGenerator, arts *fakeArtifacts, pingErr error) http.Handler {
	clock := domain.ClockFunc(func() time.Time { return testTime })
	study := studyuc.New(engine, gen, arts, clock, zap.NewNop())
	health := healthuc.New(&fakePinger{err: pingErr}, nil)

	server := NewServer(engine, study, health, zap.NewNop())
	r := chi.NewRouter()
	server.Routes(r)
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- Consume ---

func TestConsume_Allowed(t *testing.T) {
	engine := &fakeEngine{decision: usageuc.Decision{Allowed: true, Remaining: 2, WindowRemaining: 14}}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/consume", `{"feature":"quiz"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp consumeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Allowed || resp.Remaining != 2 || resp.WindowRemaining != 14 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Reason != "" {
		t.Errorf("allowed decision must not carry a reason, got %q", resp.Reason)
	}
	if engine.lastUser != "u1" || engine.lastFeature != domain.FeatureQuiz {
		t.Errorf("engine called with %q %q", engine.lastUser, engine.lastFeature)
	}
}

func TestConsume_DeniedIsStill200(t *testing.T) {
	engine := &fakeEngine{decision: usageuc.Decision{
		Allowed: false,
		Reason:  domain.ErrWindowQuotaExceeded,
	}}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/consume", `{"feature":"summary"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("denial is a decision, not an error: got %d", rr.Code)
	}

	var resp consumeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Allowed {
		t.Error("expected allowed=false")
	}
	if resp.Reason != codeWindowQuotaExceeded {
		t.Errorf("expected reason %q, got %q", codeWindowQuotaExceeded, resp.Reason)
	}
}

func TestConsume_UnknownFeature_400(t *testing.T) {
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/consume", `{"feature":"essay"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != codeInvalidFeature {
		t.Errorf("expected %q, got %q", codeInvalidFeature, resp.Code)
	}
}

func TestConsume_StoreUnavailable_503(t *testing.T) {
	engine := &fakeEngine{consumeErr: domain.ErrStoreUnavailable}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/consume", `{"feature":"quiz"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
}

func TestConsume_MalformedBody_400(t *testing.T) {
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/consume", `{feature`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

// --- Usage / feature check / tier ---

func TestGetUsage(t *testing.T) {
	engine := &fakeEngine{snapshot: usageuc.Snapshot{
		Tier:            domain.TierFree,
		RollingCount:    4,
		WindowRemaining: 11,
		Remaining: map[domain.Feature]int{
			domain.FeatureQuiz:     1,
			domain.FeatureSummary:  2,
			domain.FeatureHomework: 0,
		},
		TimeUntilReset: 90 * time.Minute,
		CurrentStreak:  3,
		LongestStreak:  8,
	}}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "GET", "/api/v1/users/u1/usage", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp usageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Tier != "free" || resp.RollingCount != 4 || resp.WindowRemaining != 11 {
		t.Errorf("unexpected counters: %+v", resp)
	}
	if resp.ResetInSeconds != 5400 {
		t.Errorf("expected 5400s until reset, got %d", resp.ResetInSeconds)
	}
	if resp.CurrentStreak != 3 || resp.LongestStreak != 8 {
		t.Errorf("unexpected streaks: %+v", resp)
	}
	if resp.Remaining["quiz"] != 1 || resp.Remaining["homework"] != 0 {
		t.Errorf("unexpected remaining: %+v", resp.Remaining)
	}
}

func TestCheckFeature(t *testing.T) {
	engine := &fakeEngine{canUse: true}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "GET", "/api/v1/users/u1/features/homework?tier=premium", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp checkFeatureResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.CanUse || resp.Feature != "homework" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if engine.lastTier != domain.TierPremium {
		t.Errorf("tier query param not passed, got %q", engine.lastTier)
	}
}

func TestCheckFeature_DefaultTierIsFree(t *testing.T) {
	engine := &fakeEngine{canUse: true}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "GET", "/api/v1/users/u1/features/quiz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if engine.lastTier != domain.TierFree {
		t.Errorf("expected free tier default, got %q", engine.lastTier)
	}
}

func TestCheckFeature_UnknownTier_400(t *testing.T) {
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "GET", "/api/v1/users/u1/features/quiz?tier=gold", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestSetTier(t *testing.T) {
	engine := &fakeEngine{}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "PUT", "/api/v1/users/u1/tier", `{"tier":"premium"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204: %s", rr.Code, rr.Body.String())
	}
	if engine.lastTier != domain.TierPremium {
		t.Errorf("expected premium, got %q", engine.lastTier)
	}
}

// --- Study routes ---

func TestGenerateQuiz_Created(t *testing.T) {
	engine := &fakeEngine{decision: usageuc.Decision{Allowed: true}}
	gen := &fakeGenerator{content: "Q1: ..."}
	handler := newTestRouter(engine, gen, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/quiz",
		`{"material":"biology notes","question_count":5}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var resp artifactResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Content != "Q1: ..." || resp.Feature != "quiz" || resp.ID == "" {
		t.Errorf("unexpected artifact: %+v", resp)
	}
}

func TestGenerateQuiz_QuotaDenied_429(t *testing.T) {
	engine := &fakeEngine{decision: usageuc.Decision{
		Allowed: false,
		Reason:  domain.ErrFeatureLimitReached,
	}}
	handler := newTestRouter(engine, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/quiz", `{"material":"notes"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429: %s", rr.Code, rr.Body.String())
	}

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != codeFeatureLimitReached {
		t.Errorf("expected %q, got %q", codeFeatureLimitReached, resp.Code)
	}
}

func TestSummarize_ProviderFailure_502(t *testing.T) {
	engine := &fakeEngine{decision: usageuc.Decision{Allowed: true}}
	gen := &fakeGenerator{err: domain.ErrGenerationFailed}
	handler := newTestRouter(engine, gen, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/summary", `{"material":"notes"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502: %s", rr.Code, rr.Body.String())
	}
}

func TestHomeworkHelp_MissingProblem_400(t *testing.T) {
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "POST", "/api/v1/users/u1/homework", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestGetArtifact(t *testing.T) {
	a := domartifact.New("a1", "u1", domain.FeatureSummary, "notes", "the summary", testTime)
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{artifact: a}, nil)

	rr := doRequest(t, handler, "GET", "/api/v1/users/u1/artifacts/a1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp artifactResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "a1" || resp.Content != "the summary" {
		t.Errorf("unexpected artifact: %+v", resp)
	}
}

func TestGetArtifact_NotFound_404(t *testing.T) {
	arts := &fakeArtifacts{getErr: domain.ErrArtifactNotFound}
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, arts, nil)

	rr := doRequest(t, handler, "GET", "/api/v1/users/u1/artifacts/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

// --- Health ---

func TestHealthCheck_Healthy(t *testing.T) {
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{}, nil)

	rr := doRequest(t, handler, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
}

func TestHealthCheck_Degraded_503(t *testing.T) {
	handler := newTestRouter(&fakeEngine{}, &fakeGenerator{}, &fakeArtifacts{}, errors.New("db down"))

	rr := doRequest(t, handler, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
}
