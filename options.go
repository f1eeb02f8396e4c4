package studymeter

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	clock           Clock
	persistTimeout  time.Duration
	artifactTTL     time.Duration
	refreshInterval time.Duration

	generator Generator
	logger    *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedisDB selects a logical Redis database. Default: 0.
func WithRedisDB(db int) Option {
	return func(c *clientConfig) {
		c.db = db
	}
}

// WithUsername sets the Redis ACL username.
func WithUsername(username string) Option {
	return func(c *clientConfig) {
		c.username = username
	}
}

// WithClock overrides the engine clock. Defaults to UTC wall time.
// Tests use this for deterministic window and streak behavior.
func WithClock(clock Clock) Option {
	return func(c *clientConfig) {
		c.clock = clock
	}
}

// WithPersistTimeout bounds each persistence call. Default: 2s.
func WithPersistTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.persistTimeout = d
	}
}

// WithArtifactTTL sets retention for generated study content. Default: 30 days.
func WithArtifactTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.artifactTTL = ttl
	}
}

// WithRefreshInterval sets how often session refreshers recompute the
// usage snapshot. Default: one minute.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *clientConfig) {
		c.refreshInterval = d
	}
}

// WithGenerator sets the study content provider. Required for
// GenerateQuiz, Summarize and HomeworkHelp; the quota surface works
// without it.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
