package backend

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the due-plan executor on a cron schedule.
type Scheduler struct {
	backend *Backend
	cron    *cron.Cron
}

// NewScheduler builds a scheduler over the backend using the configured
// cron spec (descriptors like "@every 1m" are accepted).
func NewScheduler(b *Backend) (*Scheduler, error) {
	s := &Scheduler{
		backend: b,
		cron:    cron.New(),
	}
	_, err := s.cron.AddFunc(b.cfg.PlanCronSpec, s.tick)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	res, err := s.backend.executeDuePlans(context.Background())
	if err != nil {
		s.backend.log.Errorw("due-plan run failed", "error", err)
		return
	}
	if res.Executed > 0 {
		s.backend.log.Infow("executed due plans", "count", res.Executed)
	}
}

// Start begins cron scheduling in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
