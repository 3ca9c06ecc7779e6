package simulator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Runner drives an Engine in real time: a dispatch ticker every TickInterval
// and one completion timer per dispatched message.
type Runner struct {
	engine *Engine
	logger *slog.Logger

	tickInterval       time.Duration
	processingDuration time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	timers  map[MessageID]*time.Timer
	wg      sync.WaitGroup
}

// NewRunner creates a runner using the engine's timing settings
func NewRunner(engine *Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := engine.Config()
	return &Runner{
		engine:             engine,
		logger:             logger.With("component", "runner"),
		tickInterval:       cfg.TickInterval,
		processingDuration: cfg.ProcessingDuration,
		timers:             make(map[MessageID]*time.Timer),
	}
}

// Start begins dispatching until ctx is cancelled or Stop is called
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("runner is already running")
	}
	r.running = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.dispatchLoop(runCtx)

	r.logger.Info("Message processor started",
		"tick_interval", r.tickInterval,
		"processing_duration", r.processingDuration,
	)

	return nil
}

// Stop halts the ticker and cancels outstanding completion timers
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()

	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("Message processor stopped")
}

// Running reports whether the dispatch loop is active
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) dispatchLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.tick(now)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) tick(now time.Time) {
	res := r.engine.Tick(now)
	if res.Dispatched == nil {
		return
	}
	r.scheduleCompletion(res.Dispatched.ID)
}

func (r *Runner) scheduleCompletion(id MessageID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	// The previous attempt of a retried message no longer needs its timer.
	if prev, ok := r.timers[id]; ok {
		prev.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(r.processingDuration, func() {
		r.mu.Lock()
		if r.timers[id] == timer {
			delete(r.timers, id)
		}
		r.mu.Unlock()

		// A message cleared or force-failed meanwhile is simply not due anymore.
		completed := r.engine.CompleteDue(time.Now())
		r.logger.Debug("Completion timer fired",
			"message_id", string(id),
			"completed", len(completed),
		)
	})
	r.timers[id] = timer
}
