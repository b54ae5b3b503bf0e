package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"go.uber.org/zap"
)

// RefreshScheduler warms today's snapshot at startup and again once per day
// at a fixed UTC hour. Failures never stop the scheduler.
type RefreshScheduler struct {
	resolver SnapshotResolver
	hour     int
	logger   *zap.Logger
	now      func() time.Time

	startMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRefreshScheduler creates a scheduler firing daily at hour (0-23, UTC)
func NewRefreshScheduler(resolver SnapshotResolver, hour int, logger *zap.Logger) *RefreshScheduler {
	if hour < 0 || hour > 23 {
		hour = 1
	}
	return &RefreshScheduler{
		resolver: resolver,
		hour:     hour,
		logger:   logger,
		now:      time.Now,
	}
}

// Start performs the warm-up refresh and launches the daily loop
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.started {
		return fmt.Errorf("refresh scheduler already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.Refresh(ctx)

	s.wg.Add(1)
	go s.loop(ctx)

	s.started = true
	s.logger.Info("Refresh scheduler started", zap.Int("hourUTC", s.hour))
	return nil
}

// Stop cancels the loop and waits for it to exit
func (s *RefreshScheduler) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if !s.started {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.started = false
	s.logger.Info("Refresh scheduler stopped")
}

// Refresh resolves today's snapshot once
func (s *RefreshScheduler) Refresh(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Snapshot refresh panicked", zap.Any("panic", r))
		}
	}()

	today := model.DateOf(s.now())
	snapshot, tier := s.resolver.ResolveSnapshot(ctx, today, "")
	s.logger.Info("Refreshed rate snapshot",
		zap.String("date", today),
		zap.String("snapshotDate", snapshot.Day()),
		zap.String("tier", string(tier)),
	)
}

func (s *RefreshScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		wait := nextRun(s.now(), s.hour).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Refresh(ctx)
		}
	}
}

// nextRun returns the first instant strictly after now at hour:00 UTC
func nextRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
