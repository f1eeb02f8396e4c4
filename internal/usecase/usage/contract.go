package usage

import (
	"context"

	"github.com/fonta-cloud/studymeter/internal/domain/ledger"
)

// Repository is the persistence contract for user ledgers.
// Load returns domain.ErrProfileNotFound for users never seen before.
type Repository interface {
	Load(ctx context.Context, userID string) (ledger.Ledger, error)
	Save(ctx context.Context, userID string, l ledger.Ledger) error
}
