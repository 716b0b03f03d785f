package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"saucebot/internal/logging"
	"saucebot/internal/notifications"
)

// CachePurger is the store operation the scheduler drives.
type CachePurger interface {
	CachePurge(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeScheduler periodically drops cache entries older than the TTL.
type PurgeScheduler struct {
	store    CachePurger
	notifier notifications.Service
	logger   *slog.Logger
	ttl      time.Duration
	interval time.Duration

	mu      sync.Mutex
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPurgeScheduler creates a scheduler that purges entries older than
// ttl on every interval tick.
func NewPurgeScheduler(store CachePurger, notifier notifications.Service, logger *slog.Logger, ttl, interval time.Duration) *PurgeScheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &PurgeScheduler{
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "cache-purge"),
		ttl:      ttl,
		interval: interval,
	}
}

// Start launches the purge loop. The first purge runs immediately.
func (p *PurgeScheduler) Start(ctx context.Context) error {
	if p == nil {
		return errors.New("purge scheduler unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("purge scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.ctx = runCtx
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go p.loop()
	return nil
}

// Stop halts the loop and waits for an in-flight purge to finish.
func (p *PurgeScheduler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *PurgeScheduler) loop() {
	defer p.wg.Done()

	p.purge()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.purge()
		}
	}
}

func (p *PurgeScheduler) purge() {
	ctx := p.ctx
	if ctx == nil {
		return
	}
	removed, err := p.store.CachePurge(ctx, time.Now().Add(-p.ttl))
	if err != nil {
		p.logger.Error("cache purge failed", logging.Error(err))
		if p.notifier != nil {
			_ = p.notifier.NotifyError(ctx, err, "cache purge")
		}
		return
	}
	p.logger.Info("purged expired cache entries", logging.Int64("removed", removed))
	if removed > 0 && p.notifier != nil {
		_ = p.notifier.NotifyCachePurged(ctx, removed)
	}
}
