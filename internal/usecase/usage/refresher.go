package usage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRefreshInterval matches the presentation layer's one-minute
// countdown granularity.
const DefaultRefreshInterval = time.Minute

// Refresher periodically recomputes a user's usage snapshot so the
// presentation layer can show a live time-until-reset countdown. It is
// read-only: it never writes the ledger and never blocks consume
// operations. One refresher exists per active session; Stop must be
// called when the session ends.
type Refresher struct {
	svc      *Service
	userID   string
	interval time.Duration
	onTick   func(Snapshot)

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRefresher creates a stopped refresher for one user's session.
// onTick receives each recomputed snapshot.
func NewRefresher(svc *Service, userID string, interval time.Duration, onTick func(Snapshot)) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		svc:      svc,
		userID:   userID,
		interval: interval,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. The loop ends when ctx is canceled
// or Stop is called. Subsequent calls are no-ops.
func (r *Refresher) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.run(ctx)
}

// Stop cancels the loop and waits for it to finish. Safe to call more
// than once, and before Start.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if r.started.Load() {
		<-r.done
	}
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			snap, err := r.svc.Snapshot(ctx, r.userID)
			if err != nil {
				// Transient store failure: skip this tick, the
				// next one retries.
				continue
			}
			r.onTick(snap)
		}
	}
}
