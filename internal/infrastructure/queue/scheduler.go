package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// AccountLister lists every account id eligible for interest.
type AccountLister interface {
	ListAccountIDs(ctx context.Context) ([]int64, error)
}

// Scheduler enqueues every account for interest once per interval.
type Scheduler struct {
	lister     AccountLister
	dispatcher *Dispatcher
	interval   time.Duration
	log        zerolog.Logger
}

func NewScheduler(lister AccountLister, dispatcher *Dispatcher, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{lister: lister, dispatcher: dispatcher, interval: interval, log: log}
}

// RunOnce enqueues every account and returns how many were queued.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.lister.ListAccountIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("interest run: %w", err)
	}
	if err := s.dispatcher.EnqueueBatch(ctx, ids); err != nil {
		return 0, fmt.Errorf("interest run: %w", err)
	}
	s.log.Info().Int("accounts", len(ids)).Msg("interest run queued")
	return len(ids), nil
}

// Run calls RunOnce every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("scheduled interest run failed")
			}
		}
	}
}
