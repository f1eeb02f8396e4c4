package studymeter

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "secret")(cfg)
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v, want [localhost:6379]", cfg.addrs)
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithRedisDB(3)(cfg)
	if cfg.db != 3 {
		t.Errorf("db = %d, want 3", cfg.db)
	}

	WithUsername("app")(cfg)
	if cfg.username != "app" {
		t.Errorf("username = %q, want app", cfg.username)
	}

	WithPersistTimeout(5 * time.Second)(cfg)
	if cfg.persistTimeout != 5*time.Second {
		t.Errorf("persistTimeout = %v, want 5s", cfg.persistTimeout)
	}

	WithArtifactTTL(7 * 24 * time.Hour)(cfg)
	if cfg.artifactTTL != 7*24*time.Hour {
		t.Errorf("artifactTTL = %v, want 168h", cfg.artifactTTL)
	}

	WithRefreshInterval(30 * time.Second)(cfg)
	if cfg.refreshInterval != 30*time.Second {
		t.Errorf("refreshInterval = %v, want 30s", cfg.refreshInterval)
	}

	WithLogger(zap.NewNop())(cfg)
	if cfg.logger == nil {
		t.Error("logger not set")
	}
}

func TestClockAdapter(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	adapter := clockAdapter{inner: domain.ClockFunc(func() time.Time { return fixed })}

	if !adapter.Now().Equal(fixed) {
		t.Errorf("adapter returned %v, want %v", adapter.Now(), fixed)
	}
}

type mockGenerator struct {
	fn func(ctx context.Context, material string) (string, error)
}

func (m *mockGenerator) GenerateQuiz(ctx context.Context, material string, _ int) (string, error) {
	return m.fn(ctx, material)
}

func (m *mockGenerator) GenerateSummary(ctx context.Context, material string) (string, error) {
	return m.fn(ctx, material)
}

func (m *mockGenerator) GenerateHomeworkHelp(ctx context.Context, problem string) (string, error) {
	return m.fn(ctx, problem)
}

func TestGeneratorAdapter(t *testing.T) {
	called := false
	mock := &mockGenerator{
		fn: func(_ context.Context, material string) (string, error) {
			called = true
			return "content for " + material, nil
		},
	}

	adapter := generatorAdapter{inner: mock}
	content, err := adapter.GenerateSummary(context.Background(), "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner generator was not called")
	}
	if content != "content for notes" {
		t.Errorf("content = %q", content)
	}
}

func TestGeneratorAdapter_Error(t *testing.T) {
	mock := &mockGenerator{
		fn: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("provider down")
		},
	}

	adapter := generatorAdapter{inner: mock}
	if _, err := adapter.GenerateQuiz(context.Background(), "notes", 5); err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestGenerateQuiz_NoGeneratorConfigured(t *testing.T) {
	c := &Client{}
	if _, err := c.GenerateQuiz(context.Background(), "u1", "notes", 5); err == nil {
		t.Fatal("expected error without a generator")
	}
}
