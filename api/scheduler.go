/*
scheduler.go - Automated retention scheduler

PURPOSE:
  Periodically deletes shift requests, final schedules and attendance older
  than the retention window (18 months by default).

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Purges once immediately on start
  - Each run logs the number of rows removed

CONFIGURATION:
  - CheckInterval:   How often to purge (default: 24 hours)
  - RetentionMonths: Months of data kept (default: 18)
  - Enabled:         Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRetentionScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Purge endpoint (manual purge)
  - roster/service.go: PurgeOlderThan
*/
package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warp/shift-engine/roster"
	"go.uber.org/zap"
)

// RetentionScheduler purges old roster data on a ticker.
type RetentionScheduler struct {
	Service         *roster.Service
	Log             *zap.Logger
	CheckInterval   time.Duration
	RetentionMonths int
	Enabled         bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	runs   atomic.Int64
}

// NewRetentionScheduler creates a new scheduler.
func NewRetentionScheduler(svc *roster.Service, log *zap.Logger) *RetentionScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RetentionScheduler{
		Service:         svc,
		Log:             log.Named("retention"),
		CheckInterval:   24 * time.Hour,
		RetentionMonths: roster.DefaultRetentionMonths,
		Enabled:         true,
	}
}

// Start begins the scheduler.
func (rs *RetentionScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	rs.Log.Info("started",
		zap.Duration("interval", rs.CheckInterval),
		zap.Int("retention_months", rs.RetentionMonths),
	)
}

// Stop stops the scheduler and waits for a running purge to finish.
func (rs *RetentionScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Log.Info("stopped")
	}
}

// Runs returns how many purges have completed.
func (rs *RetentionScheduler) Runs() int64 {
	return rs.runs.Load()
}

func (rs *RetentionScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.purge()

	for {
		select {
		case <-rs.ticker.C:
			rs.purge()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RetentionScheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := rs.Service.PurgeOlderThan(ctx, rs.RetentionMonths)
	if err != nil {
		rs.Log.Error("purge failed", zap.Error(err))
	} else {
		rs.Log.Info("purge complete", zap.Int64("removed", removed))
	}
	rs.runs.Add(1)
}
