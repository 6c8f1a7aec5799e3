// Package poller drives import task progress updates. One polling loop
// exists per task id; each loop fetches the task through the task store,
// waits a fixed interval, and stops on its own when the task reaches a
// terminal status, disappears, or keeps failing.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/logger"
	"wolfquant/internal/store"
)

// Poller starts and tracks per-task polling loops.
type Poller struct {
	mu         sync.Mutex
	tasks      *store.TaskStore
	interval   time.Duration
	maxRetries int
	log        *zap.SugaredLogger
	active     map[string]*Handle
}

// Handle controls one polling loop. Stop cancels it; Done is closed when
// the loop has fully exited; Err reports why it stopped, nil for a clean
// terminal-status or stop-requested exit.
type Handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Stop requests cancellation. Safe to call more than once.
func (h *Handle) Stop() { h.cancel() }

// Done is closed when the loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the loop's exit error. Valid after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) fail(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// New creates a poller over the task store.
func New(tasks *store.TaskStore, interval time.Duration, maxRetries int) *Poller {
	return &Poller{
		tasks:      tasks,
		interval:   interval,
		maxRetries: maxRetries,
		log:        logger.Get(),
		active:     make(map[string]*Handle),
	}
}

// Start launches a polling loop for the task id, fetching once immediately
// and then at the configured interval. Starting an id that is already
// being polled returns the existing handle instead of a second loop.
func (p *Poller) Start(ctx context.Context, id string) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.active[id]; ok {
		return h
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{id: id, cancel: cancel, done: make(chan struct{})}
	p.active[id] = h

	go p.run(loopCtx, h)
	return h
}

// StopAll cancels every active loop.
func (p *Poller) StopAll() {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.active))
	for _, h := range p.active {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	for _, h := range handles {
		h.Stop()
		<-h.Done()
	}
}

// Active reports whether a loop exists for the task id.
func (p *Poller) Active(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[id]
	return ok
}

func (p *Poller) run(ctx context.Context, h *Handle) {
	defer func() {
		p.mu.Lock()
		delete(p.active, h.id)
		p.mu.Unlock()
		h.cancel()
		close(h.done)
	}()

	failures := 0
	for {
		task, err := p.tasks.Fetch(ctx, h.id)
		switch {
		case err == nil:
			failures = 0
			if task.Status.IsTerminal() {
				p.log.Infow("task reached terminal status", "task_id", h.id, "status", task.Status)
				return
			}

		case ctx.Err() != nil:
			return

		case apperrors.Code(err) == apperrors.ErrTaskNotFound.Code:
			p.log.Warnw("task vanished, stopping poll", "task_id", h.id)
			return

		default:
			failures++
			p.log.Warnw("task poll failed", "task_id", h.id, "attempt", failures, "error", err)
			if failures > p.maxRetries {
				h.fail(err)
				p.log.Errorw("giving up polling task", "task_id", h.id, "error", err)
				return
			}
			// Failed fetches back off exponentially instead of hammering
			// a struggling backend at the base interval.
			if !sleep(ctx, backoff(p.interval, failures)) {
				return
			}
			continue
		}

		if !sleep(ctx, p.interval) {
			return
		}
	}
}

// backoff doubles the interval per consecutive failure, capped at 8x.
func backoff(base time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures && d < 8*base; i++ {
		d *= 2
	}
	if d > 8*base {
		d = 8 * base
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
