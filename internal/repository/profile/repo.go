// Package profile persists user ledgers as JSON values in the KV store.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fonta-cloud/studymeter/internal/db"
	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/domain/ledger"
)

// store is the consumer interface for profile persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/usage.Repository.
type Repo struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Load returns the stored ledger for a user.
// Returns domain.ErrProfileNotFound if the user has no profile yet.
func (r *Repo) Load(ctx context.Context, userID string) (ledger.Ledger, error) {
	key := profileKey(userID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ledger.Ledger{}, domain.ErrProfileNotFound
		}
		return ledger.Ledger{}, fmt.Errorf("get %s: %w", key, err)
	}

	var dto profileDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return ledger.Ledger{}, fmt.Errorf("unmarshal profile %s: %w", key, err)
	}
	return fromDTO(dto)
}

// Save stores the ledger for a user, replacing any previous value.
func (r *Repo) Save(ctx context.Context, userID string, l ledger.Ledger) error {
	key := profileKey(userID)
	data, err := json.Marshal(toDTO(l))
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func profileKey(userID string) string {
	return domain.KeyPrefix + "profile:" + userID
}
