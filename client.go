// Package studymeter embeds the usage accounting engine in-process: a
// single trusted client wires the Redis-backed ledger store, the quota
// engine and the optional study content generator without running the
// HTTP service.
package studymeter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/db"
	dbRedis "github.com/fonta-cloud/studymeter/internal/db/redis"
	"github.com/fonta-cloud/studymeter/internal/domain"
	artifactrepo "github.com/fonta-cloud/studymeter/internal/repository/artifact"
	profilerepo "github.com/fonta-cloud/studymeter/internal/repository/profile"
	"github.com/fonta-cloud/studymeter/internal/session"
	studyuc "github.com/fonta-cloud/studymeter/internal/usecase/study"
	usageuc "github.com/fonta-cloud/studymeter/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Feature is a gated AI feature.
type Feature string

// Gated features.
const (
	FeatureQuiz     Feature = "quiz"
	FeatureSummary  Feature = "summary"
	FeatureHomework Feature = "homework"
)

// Tier is a subscription tier.
type Tier string

// Subscription tiers.
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Clock supplies the current time to the engine.
type Clock interface {
	Now() time.Time
}

// Generator produces study content from source material.
type Generator interface {
	GenerateQuiz(ctx context.Context, material string, questionCount int) (string, error)
	GenerateSummary(ctx context.Context, material string) (string, error)
	GenerateHomeworkHelp(ctx context.Context, problem string) (string, error)
}

// Decision is the outcome of a consume attempt.
type Decision struct {
	Allowed         bool
	Reason          error
	Remaining       int
	WindowRemaining int
}

// Usage is the derived usage state for display.
type Usage struct {
	Tier            Tier
	RollingCount    int
	WindowRemaining int
	Remaining       map[Feature]int
	TimeUntilReset  time.Duration
	CurrentStreak   int
	LongestStreak   int
}

// Artifact is one piece of generated study content.
type Artifact struct {
	ID        string
	Feature   Feature
	Content   string
	CreatedAt time.Time
}

// Client is the studymeter embedded entry point.
type Client struct {
	store     db.Store
	engine    *usageuc.Service
	study     *studyuc.Service
	publisher *session.Publisher
	interval  time.Duration

	mu        sync.Mutex
	sessions  *session.Manager
	onRefresh func(Usage)
}

// New creates a studymeter Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		clock:           domain.UTCClock{},
		refreshInterval: usageuc.DefaultRefreshInterval,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("studymeter: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("studymeter: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("studymeter: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	clock := clockAdapter{inner: cfg.clock}

	engine := usageuc.New(profilerepo.New(store), clock)
	if cfg.persistTimeout > 0 {
		engine = engine.WithPersistTimeout(cfg.persistTimeout)
	}

	var study *studyuc.Service
	if cfg.generator != nil {
		artifacts := artifactrepo.New(store)
		if cfg.artifactTTL > 0 {
			artifacts = artifacts.WithTTL(cfg.artifactTTL)
		}
		study = studyuc.New(engine, generatorAdapter{inner: cfg.generator}, artifacts, clock, cfg.logger)
	}

	return &Client{
		store:     store,
		engine:    engine,
		study:     study,
		publisher: session.NewPublisher(),
		interval:  cfg.refreshInterval,
	}
}

// Close releases all resources, stopping any session refresher first.
func (c *Client) Close() {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = nil
	c.mu.Unlock()

	if sessions != nil {
		sessions.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// TryConsume records one use of a feature if quota allows.
func (c *Client) TryConsume(ctx context.Context, userID string, feature Feature) (Decision, error) {
	d, err := c.engine.TryConsume(ctx, userID, domain.Feature(feature))
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:         d.Allowed,
		Reason:          d.Reason,
		Remaining:       d.Remaining,
		WindowRemaining: d.WindowRemaining,
	}, nil
}

// CanUse reports whether a consume would currently be allowed.
func (c *Client) CanUse(ctx context.Context, userID string, tier Tier, feature Feature) (bool, error) {
	return c.engine.CanUseFeature(ctx, userID, domain.Tier(tier), domain.Feature(feature))
}

// SetTier switches a user's subscription tier.
func (c *Client) SetTier(ctx context.Context, userID string, tier Tier) error {
	return c.engine.SetTier(ctx, userID, domain.Tier(tier))
}

// Usage returns the derived usage state for display.
func (c *Client) Usage(ctx context.Context, userID string) (Usage, error) {
	snap, err := c.engine.Snapshot(ctx, userID)
	if err != nil {
		return Usage{}, err
	}

	remaining := make(map[Feature]int, len(snap.Remaining))
	for f, n := range snap.Remaining {
		remaining[Feature(f)] = n
	}

	return Usage{
		Tier:            Tier(snap.Tier),
		RollingCount:    snap.RollingCount,
		WindowRemaining: snap.WindowRemaining,
		Remaining:       remaining,
		TimeUntilReset:  snap.TimeUntilReset,
		CurrentStreak:   snap.CurrentStreak,
		LongestStreak:   snap.LongestStreak,
	}, nil
}

// GenerateQuiz produces a quiz, charging quota first.
// Requires WithGenerator.
func (c *Client) GenerateQuiz(ctx context.Context, userID, material string, questionCount int) (Artifact, error) {
	if c.study == nil {
		return Artifact{}, errGeneratorNotConfigured
	}
	a, err := c.study.GenerateQuiz(ctx, userID, material, questionCount)
	if err != nil {
		return Artifact{}, err
	}
	return artifactFromDomain(a.ID(), string(a.Feature()), a.Content(), a.CreatedAt()), nil
}

// Summarize produces a summary, charging quota first.
// Requires WithGenerator.
func (c *Client) Summarize(ctx context.Context, userID, material string) (Artifact, error) {
	if c.study == nil {
		return Artifact{}, errGeneratorNotConfigured
	}
	a, err := c.study.Summarize(ctx, userID, material)
	if err != nil {
		return Artifact{}, err
	}
	return artifactFromDomain(a.ID(), string(a.Feature()), a.Content(), a.CreatedAt()), nil
}

// HomeworkHelp produces step-by-step guidance, charging quota first.
// Requires WithGenerator.
func (c *Client) HomeworkHelp(ctx context.Context, userID, problem string) (Artifact, error) {
	if c.study == nil {
		return Artifact{}, errGeneratorNotConfigured
	}
	a, err := c.study.HomeworkHelp(ctx, userID, problem)
	if err != nil {
		return Artifact{}, err
	}
	return artifactFromDomain(a.ID(), string(a.Feature()), a.Content(), a.CreatedAt()), nil
}

// SignIn starts a session for userID: a background refresher delivers
// a fresh Usage to onRefresh once per refresh interval until SignOut
// or Close.
func (c *Client) SignIn(ctx context.Context, userID string, onRefresh func(Usage)) {
	c.mu.Lock()
	c.onRefresh = onRefresh
	if c.sessions == nil {
		c.sessions = session.NewManager(c.publisher, func(uid string) session.Task {
			r := usageuc.NewRefresher(c.engine, uid, c.interval, c.deliverRefresh)
			r.Start(ctx)
			return r
		})
	}
	c.mu.Unlock()

	c.publisher.SignIn(userID)
}

func (c *Client) deliverRefresh(snap usageuc.Snapshot) {
	c.mu.Lock()
	onRefresh := c.onRefresh
	c.mu.Unlock()
	if onRefresh == nil {
		return
	}

	remaining := make(map[Feature]int, len(snap.Remaining))
	for f, n := range snap.Remaining {
		remaining[Feature(f)] = n
	}
	onRefresh(Usage{
		Tier:            Tier(snap.Tier),
		RollingCount:    snap.RollingCount,
		WindowRemaining: snap.WindowRemaining,
		Remaining:       remaining,
		TimeUntilReset:  snap.TimeUntilReset,
		CurrentStreak:   snap.CurrentStreak,
		LongestStreak:   snap.LongestStreak,
	})
}

// SignOut ends the active session and stops its refresher.
func (c *Client) SignOut() {
	c.publisher.SignOut()
}

// CurrentUser returns the signed-in user id, if any.
func (c *Client) CurrentUser() (string, bool) {
	return c.publisher.Current()
}

var errGeneratorNotConfigured = errors.New(
	"studymeter: generator not configured (use WithGenerator for study content)",
)

func artifactFromDomain(id, feature, content string, createdAt time.Time) Artifact {
	return Artifact{
		ID:        id,
		Feature:   Feature(feature),
		Content:   content,
		CreatedAt: createdAt,
	}
}

// clockAdapter wraps the public Clock to satisfy internal domain.Clock.
type clockAdapter struct {
	inner Clock
}

func (a clockAdapter) Now() time.Time { return a.inner.Now() }

// generatorAdapter wraps the public Generator to satisfy the internal
// study contract.
type generatorAdapter struct {
	inner Generator
}

func (a generatorAdapter) GenerateQuiz(ctx context.Context, material string, n int) (string, error) {
	return a.inner.GenerateQuiz(ctx, material, n)
}

func (a generatorAdapter) GenerateSummary(ctx context.Context, material string) (string, error) {
	return a.inner.GenerateSummary(ctx, material)
}

func (a generatorAdapter) GenerateHomeworkHelp(ctx context.Context, problem string) (string, error) {
	return a.inner.GenerateHomeworkHelp(ctx, problem)
}
