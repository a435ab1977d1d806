package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when submitting to a pool that is not running.
	ErrNotStarted = errors.New("jobs: pool not started")
	// ErrFull is returned when the buffer has no room left.
	ErrFull = errors.New("jobs: pool buffer full")
)

// Task is a unit of background work.
type Task struct {
	Key      string
	Kind     string
	Run      func(context.Context) error
	Attempt  int
	Enqueued time.Time
}

// Config configures worker pool behaviour.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Pool runs submitted tasks on a fixed set of goroutines and retries failed
// ones after a delay.
type Pool struct {
	name string
	cfg  Config
	log  *zap.Logger

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPool builds a pool. Start must be called before tasks are accepted.
func NewPool(name string, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{
		name:  name,
		cfg:   cfg,
		log:   cfg.Logger.With(zap.String("pool", name)),
		tasks: make(chan Task, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	p.log.Info("pool started", zap.Int("workers", p.cfg.Workers))
}

// Stop cancels the workers and waits for them. Tasks still buffered are
// dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()
	p.wg.Wait()
	p.log.Info("pool stopped", zap.Int("dropped", len(p.tasks)))
}

// Submit queues task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return ErrNotStarted
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrFull
	}
}

// Pending returns the number of buffered tasks.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

func (p *Pool) run(task Task) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	err := task.Run(ctx)
	cancel()
	if err == nil {
		return
	}

	task.Attempt++
	fields := []zap.Field{zap.String("key", task.Key), zap.String("kind", task.Kind), zap.Int("attempt", task.Attempt), zap.Error(err)}
	if task.Attempt > p.cfg.MaxRetries {
		p.log.Error("task exceeded retries", fields...)
		return
	}
	p.log.Warn("task failed, retrying", fields...)

	go func(t Task) {
		timer := time.NewTimer(p.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-p.ctx.Done():
		case <-timer.C:
			if err := p.Submit(t); err != nil {
				p.log.Error("failed to requeue task", zap.String("key", t.Key), zap.Error(err))
			}
		}
	}(task)
}
