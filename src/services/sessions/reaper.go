package sessions

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer is the part of a Store the reaper uses.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper deletes expired sessions on a cron schedule. It is storage hygiene
// only: validation checks ExpiresAt whether or not a record was reaped.
type Reaper struct {
	store   Expirer
	cron    *cron.Cron
	now     func() time.Time
	timeout time.Duration
	onReap  func(n int64)
}

type ReaperOption func(*Reaper)

// WithReapHook is called after every sweep that removed sessions.
func WithReapHook(fn func(n int64)) ReaperOption {
	return func(r *Reaper) { r.onReap = fn }
}

// NewReaper schedules a sweep on spec (standard cron or "@every 5m").
func NewReaper(store Expirer, spec string, opts ...ReaperOption) (*Reaper, error) {
	r := &Reaper{
		store:   store,
		cron:    cron.New(),
		now:     time.Now,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.cron.AddFunc(spec, r.sweep); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reaper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		log.Printf("⚠️ [SessionReaper] Sweep failed: %v", err)
	}
}

// RunOnce performs a single sweep and returns the number of sessions removed.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("🧹 [SessionReaper] Reaped %d expired sessions", n)
		if r.onReap != nil {
			r.onReap(n)
		}
	}
	return n, nil
}

// Start runs the schedule in its own goroutine.
func (r *Reaper) Start() {
	r.cron.Start()
	log.Println("✅ Session reaper started")
}

// Stop halts the schedule; the returned context is done once a running sweep finishes.
func (r *Reaper) Stop() context.Context {
	return r.cron.Stop()
}
