package invest

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Scheduler triggers the accrual pass once at startup and then on a
// periodic timer. Passes are serialized: if the timer fires while a
// pass is still in flight the tick is skipped, so two passes can never
// race on the same snapshot within one process.
type Scheduler struct {
	service  *Service
	interval time.Duration
	running  atomic.Bool
}

// NewScheduler creates a scheduler for the given service and interval
func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	return &Scheduler{service: service, interval: interval}
}

// Start runs the scheduler until ctx is cancelled. It blocks, so run it
// in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce executes a single pass unless one is already in flight
func (s *Scheduler) runOnce() {
	if !s.running.CompareAndSwap(false, true) {
		log.Print("accrual: previous pass still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	result, err := s.service.RunAccrualPassNow()
	if err != nil {
		log.Printf("accrual: pass failed: %v", err)
		return
	}
	if result.Updated > 0 || result.Settled > 0 {
		log.Printf("accrual: pass complete, %d updated, %d settled", result.Updated, result.Settled)
	}
}
