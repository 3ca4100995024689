package statewise

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task is one unit of work handed to an Executor
type Task struct {
	Name  string
	Async bool
	// Timeout bounds asynchronous tasks only. A synchronous task always runs
	// to completion on the calling goroutine.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Executor runs actions and asynchronous listeners on a bounded pool of
// workers. One executor may be shared by any number of machines.
type Executor struct {
	sem     *semaphore.Weighted
	workers int
	logger  logrus.FieldLogger
}

// NewExecutor creates an executor running at most workers asynchronous
// tasks at a time
func NewExecutor(workers int, logger logrus.FieldLogger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Executor{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		logger:  logger,
	}
}

var (
	defaultExecutors = sync.OnceValues(func() (*Executor, *Executor) {
		cfg, err := LoadConfig(context.Background())
		if err != nil {
			logrus.WithError(err).Warn("statewise: invalid environment configuration, using defaults")
			cfg = DefaultConfig()
		}
		return NewExecutor(cfg.ActionWorkers, nil), NewExecutor(cfg.ListenerWorkers, nil)
	})
)

// DefaultExecutor returns the process-wide action executor, sized from the
// environment on first use
func DefaultExecutor() *Executor {
	action, _ := defaultExecutors()
	return action
}

// DefaultListenerExecutor returns the process-wide executor for
// asynchronous listeners
func DefaultListenerExecutor() *Executor {
	_, listener := defaultExecutors()
	return listener
}

// Workers returns the pool size
func (e *Executor) Workers() int {
	return e.workers
}

// RunStep runs the tasks of one protocol step. Synchronous tasks run in
// order on the calling goroutine; asynchronous tasks run on the pool in
// parallel. The step returns once every started task has finished, with the
// first error encountered. A failing synchronous task prevents the tasks
// after it from starting.
func (e *Executor) RunStep(ctx context.Context, tasks []Task) error {
	var (
		group *errgroup.Group
		gctx  = ctx
	)
	var syncErr error
	for _, task := range tasks {
		if !task.Async {
			if syncErr = e.run(ctx, task); syncErr != nil {
				break
			}
			continue
		}
		if group == nil {
			group, gctx = errgroup.WithContext(ctx)
		}
		task := task
		group.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.sem.Release(1)
			return e.run(gctx, task)
		})
	}
	if group == nil {
		return syncErr
	}
	asyncErr := group.Wait()
	if syncErr != nil {
		return syncErr
	}
	return asyncErr
}

// Submit schedules task on the pool without waiting for it. Failures are
// logged. The task keeps ctx's values but not its cancellation.
func (e *Executor) Submit(ctx context.Context, task Task) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer e.sem.Release(1)
		if err := e.run(ctx, task); err != nil {
			e.logger.WithError(err).WithField("task", task.Name).Warn("asynchronous task failed")
		}
	}()
}

// run executes task, converting panics into errors and enforcing the
// timeout of asynchronous tasks
func (e *Executor) run(ctx context.Context, task Task) error {
	if !task.Async || task.Timeout <= 0 {
		return invoke(ctx, task)
	}

	tctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- invoke(tctx, task)
	}()
	select {
	case err := <-done:
		if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return NewTimeoutError(task.Name, task.Timeout)
		}
		return err
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return NewTimeoutError(task.Name, task.Timeout)
		}
		return tctx.Err()
	}
}

func invoke(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(task.Name, r)
		}
	}()
	return task.Run(ctx)
}

// recovered turns a recovered panic value into an error carrying a stack
func recovered(name string, r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrapf(err, "%s panicked", name)
	}
	return errors.Errorf("%s panicked: %v", name, r)
}
