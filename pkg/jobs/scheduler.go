package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler enqueues a job of the given type on a fixed interval. A tick is skipped when the queue
// is still full from earlier ticks.
type Scheduler struct {
	queue    *Queue
	jobType  string
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// NewScheduler builds a scheduler feeding queue.
func NewScheduler(queue *Queue, jobType string, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{queue: queue, jobType: jobType, interval: interval, logger: logger, done: make(chan struct{})}
}

// Run ticks until ctx is cancelled. When runNow is true the first job is enqueued immediately.
func (s *Scheduler) Run(ctx context.Context, runNow bool) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	if runNow {
		s.tick()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// Done is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) tick() {
	err := s.queue.TryEnqueue(Job{Type: s.jobType})
	switch {
	case errors.Is(err, ErrQueueFull):
		s.logger.Warn("scheduled job skipped, queue busy", zap.String("type", s.jobType))
	case err != nil:
		s.logger.Error("scheduled job not enqueued", zap.String("type", s.jobType), zap.Error(err))
	}
}
