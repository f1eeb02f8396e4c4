// Package artifact persists generated study content in the KV store.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fonta-cloud/studymeter/internal/db"
	"github.com/fonta-cloud/studymeter/internal/domain"
	domartifact "github.com/fonta-cloud/studymeter/internal/domain/artifact"
)

// DefaultTTL bounds how long generated content is retained.
const DefaultTTL = 30 * 24 * time.Hour

// store is the consumer interface for artifact persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/study.Artifacts.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates an artifact repository with the default retention TTL.
func New(s store) *Repo {
	return &Repo{store: s, ttl: DefaultTTL}
}

// WithTTL overrides the retention TTL.
func (r *Repo) WithTTL(ttl time.Duration) *Repo {
	r.ttl = ttl
	return r
}

// artifactDTO is the stored JSON shape of an artifact.
type artifactDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Feature     string `json:"feature"`
	Material    string `json:"material,omitempty"`
	Content     string `json:"content"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

// Save stores an artifact under its owner's key space.
func (r *Repo) Save(ctx context.Context, a domartifact.Artifact) error {
	key := artifactKey(a.UserID(), a.ID())
	data, err := json.Marshal(artifactDTO{
		ID:          a.ID(),
		UserID:      a.UserID(),
		Feature:     string(a.Feature()),
		Material:    a.Material(),
		Content:     a.Content(),
		CreatedAtMs: a.CreatedAt().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", key, err)
	}
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns one of a user's artifacts by id.
func (r *Repo) Get(ctx context.Context, userID, id string) (domartifact.Artifact, error) {
	key := artifactKey(userID, id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domartifact.Artifact{}, domain.ErrArtifactNotFound
		}
		return domartifact.Artifact{}, fmt.Errorf("get %s: %w", key, err)
	}

	var dto artifactDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domartifact.Artifact{}, fmt.Errorf("unmarshal artifact %s: %w", key, err)
	}

	feature, err := domain.ParseFeature(dto.Feature)
	if err != nil {
		return domartifact.Artifact{}, fmt.Errorf("stored feature: %w", err)
	}

	return domartifact.New(
		dto.ID, dto.UserID, feature, dto.Material, dto.Content,
		time.UnixMilli(dto.CreatedAtMs).UTC(),
	), nil
}

// Delete removes one of a user's artifacts. Missing keys are ignored.
func (r *Repo) Delete(ctx context.Context, userID, id string) error {
	key := artifactKey(userID, id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func artifactKey(userID, id string) string {
	return domain.KeyPrefix + "artifact:" + userID + ":" + id
}
