package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrSchedulerStopped = errors.New("scheduler is not running")

type task struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
}

type call struct {
	fn   func(ctx context.Context) error
	done chan error
}

// Scheduler выполняет периодические задачи и внешние вызовы в одной горутине.
// Тики одной задачи не накапливаются: пока задача ждёт исполнения или исполняется, новые тики отбрасываются.
type Scheduler struct {
	tasks []task
	calls chan call

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		calls:   make(chan call),
		stopped: make(chan struct{}),
	}
}

// Every регистрирует периодическую задачу; вызывать до Run.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) {
	s.tasks = append(s.tasks, task{name: name, interval: interval, run: fn})
}

// Do выполняет fn в цикле планировщика и ждёт результата.
func (s *Scheduler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	c := call{fn: fn, done: make(chan error, 1)}
	select {
	case s.calls <- c:
	case <-s.stopped:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run крутит цикл до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler is already running")
	}
	s.running = true
	s.mu.Unlock()
	defer close(s.stopped)

	// pending[i] поднят, пока тик задачи ждёт исполнения или исполняется.
	pending := make([]atomic.Bool, len(s.tasks))
	merged := make(chan int)
	tickCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for i, t := range s.tasks {
		wg.Add(1)
		go func(i int, interval time.Duration) {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-tickCtx.Done():
					return
				case <-ticker.C:
					if !pending[i].CompareAndSwap(false, true) {
						continue
					}
					select {
					case merged <- i:
					case <-tickCtx.Done():
						return
					}
				}
			}
		}(i, t.interval)
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case i := <-merged:
			if ctx.Err() != nil {
				return nil
			}
			s.tasks[i].run(ctx)
			pending[i].Store(false)
		case c := <-s.calls:
			c.done <- c.fn(ctx)
		}
	}
}
