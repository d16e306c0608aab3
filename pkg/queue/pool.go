package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// QueueHealth reports one named queue's depth and worker activity.
type QueueHealth struct {
	Queue        string
	DLQCount     int
	Depth        int
	ActiveCount  int
	WorkerStats  []WorkerHealth
}

// Pool manages the worker goroutines for every configured queue.
// Handlers are registered per queue name before Start; a queue with no
// registered handler is skipped (it may simply not apply to this process,
// e.g. a command-line tool that only drains DLQs).
type Pool struct {
	store    *Store
	cfg      config.QueueConfig
	handlers map[string]Handler
	workers  map[string][]*worker

	stopCh          chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	started         bool
	orphanRecovered int
	mu              sync.Mutex
}

// NewPool builds a pool bound to cfg's per-queue concurrency, attempts,
// and backoff settings.
func NewPool(store *Store, cfg config.QueueConfig) *Pool {
	return &Pool{
		store:    store,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		workers:  make(map[string][]*worker),
		stopCh:   make(chan struct{}),
	}
}

// Register binds a handler to a named queue. Must be called before Start.
func (p *Pool) Register(queueName string, handler Handler) {
	p.handlers[queueName] = handler
}

// Start spawns the configured number of worker goroutines per registered
// queue, plus a background orphan-recovery scan. Safe to call once.
func (p *Pool) Start(ctx context.Context) error {
	if p.started {
		return nil
	}
	p.started = true

	for queueName, handler := range p.handlers {
		def, ok := p.cfg.Queues[queueName]
		if !ok {
			return fmt.Errorf("queue %q has a registered handler but no config entry", queueName)
		}
		workers := make([]*worker, 0, def.Concurrency)
		for i := 0; i < def.Concurrency; i++ {
			w := newWorker(fmt.Sprintf("%s-%d", queueName, i), queueName, p.store, handler, def.PollInterval, def.BackoffBase, def.VisibilityTimeo)
			workers = append(workers, w)
			w.start(ctx)
		}
		p.workers[queueName] = workers
		slog.Info("started queue workers", "queue", queueName, "concurrency", def.Concurrency)
	}

	p.wg.Add(1)
	go p.runOrphanScan(ctx)

	return nil
}

// Stop signals every worker and the orphan scanner to finish their
// current job and exit, waiting up to cfg.GracefulShutdownTimeout for
// in-flight work to drain.
func (p *Pool) Stop() {
	done := make(chan struct{})
	go func() {
		for _, ws := range p.workers {
			for _, w := range ws {
				w.stop()
			}
		}
		p.stopOnce.Do(func() { close(p.stopCh) })
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.cfg.GracefulShutdownTimeout):
		slog.Warn("graceful shutdown timed out, some workers may still be in flight")
	}
}

func (p *Pool) runOrphanScan(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			for queueName := range p.handlers {
				n, err := p.store.RecoverOrphans(ctx, queueName, p.cfg.OrphanThreshold)
				if err != nil {
					slog.Error("orphan recovery failed", "queue", queueName, "error", err)
					continue
				}
				if n > 0 {
					p.mu.Lock()
					p.orphanRecovered += n
					p.mu.Unlock()
					slog.Warn("recovered orphaned jobs", "queue", queueName, "count", n)
				}
			}
		}
	}
}

// Health reports per-queue depth, DLQ backlog, and worker activity for
// every registered queue.
func (p *Pool) Health(ctx context.Context) ([]QueueHealth, error) {
	out := make([]QueueHealth, 0, len(p.handlers))
	for queueName := range p.handlers {
		dlqCount, err := p.store.CountByType(ctx, queueName)
		if err != nil {
			return nil, err
		}
		depth, err := p.store.Depth(ctx, queueName)
		if err != nil {
			return nil, err
		}
		active, err := p.store.ActiveCount(ctx, queueName)
		if err != nil {
			return nil, err
		}
		stats := make([]WorkerHealth, 0, len(p.workers[queueName]))
		for _, w := range p.workers[queueName] {
			stats = append(stats, w.health())
		}
		out = append(out, QueueHealth{
			Queue:       queueName,
			DLQCount:    dlqCount,
			Depth:       depth,
			ActiveCount: active,
			WorkerStats: stats,
		})
	}
	return out, nil
}
