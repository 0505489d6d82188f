/*
Package batch coordinates concurrent downloads under a parallelism bound.
*/
package batch

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dlfast/dlfast/aria2"
	"github.com/dlfast/dlfast/opt"
	"github.com/dlfast/dlfast/runner"
)

// ProcessRunner supervises a single child process until it exits.
type ProcessRunner interface {
	Run(ctx context.Context, args []string, out, errOut io.Writer, onLine func(string)) error
}

// FilenameResolver resolves the output filename for a URL. It must always
// return a non-empty name.
type FilenameResolver interface {
	Resolve(ctx context.Context, rawURL string) string
}

// Presenter renders task state. It observes; it never influences
// scheduling.
type Presenter interface {
	TaskStarted(i int, name string)
	TaskProgress(i int, completed, total int64)
	TaskSettled(i int, status Status)
	Close()
}

// Config wires an Orchestrator.
type Config struct {
	Options   *opt.Options
	Runner    ProcessRunner
	Resolver  FilenameResolver
	Presenter Presenter
	Logger    zerolog.Logger

	// Out and ErrOut receive the child's streams in passthrough mode.
	Out    io.Writer
	ErrOut io.Writer
}

// Orchestrator runs one task per URL, admitting at most Parallel tasks at a
// time.
type Orchestrator struct {
	opts      *opt.Options
	runner    ProcessRunner
	resolver  FilenameResolver
	presenter Presenter
	logger    zerolog.Logger
	out       io.Writer
	errOut    io.Writer
}

// New generates an Orchestrator based on Config.
func New(c Config) *Orchestrator {
	return &Orchestrator{
		opts:      c.Options,
		runner:    c.Runner,
		resolver:  c.Resolver,
		presenter: c.Presenter,
		logger:    c.Logger,
		out:       c.Out,
		errOut:    c.ErrOut,
	}
}

// Captured reports whether child output is captured instead of passed
// through. Only a single non-quiet download shows the child's own output.
func (o *Orchestrator) Captured() bool {
	return len(o.opts.URLs) > 1 || o.opts.Quiet
}

// Run executes one task per URL and blocks until every task has reached a
// terminal state, even when ctx is cancelled mid-flight. It never fails as
// a whole; the outcome list carries the per-URL results in input order.
func (o *Orchestrator) Run(ctx context.Context, dir string) []Outcome {
	tasks := make([]*Task, len(o.opts.URLs))
	for i, u := range o.opts.URLs {
		tasks[i] = newTask(u, dir)
	}

	captured := o.Captured()
	sem := semaphore.NewWeighted(int64(o.opts.Parallel))
	var eg errgroup.Group

	for i, task := range tasks {
		// Admission follows input order: the semaphore is acquired here,
		// not inside the goroutine. A cancelled context stops admission.
		if err := sem.Acquire(ctx, 1); err != nil {
			task.settle(StatusCancelled, runner.ErrCancelled)
			o.presenter.TaskSettled(i, StatusCancelled)
			continue
		}

		i, task := i, task
		eg.Go(func() error {
			defer sem.Release(1)
			return o.runTask(ctx, i, task, captured)
		})
	}

	if err := eg.Wait(); err != nil {
		o.logger.Debug().Err(err).Msg("batch settled with failures")
	}

	o.presenter.Close()

	outcomes := make([]Outcome, len(tasks))
	for i, task := range tasks {
		status, err := task.state()
		outcomes[i] = Outcome{URL: task.Request.URL, Status: status, Err: err}
	}
	return outcomes
}

func (o *Orchestrator) runTask(ctx context.Context, i int, task *Task, captured bool) error {
	if ctx.Err() != nil {
		task.settle(StatusCancelled, runner.ErrCancelled)
		o.presenter.TaskSettled(i, StatusCancelled)
		return nil
	}

	task.run()

	name := o.resolver.Resolve(ctx, task.Request.URL)
	task.Request.Filename = name
	o.presenter.TaskStarted(i, name)

	args := aria2.BuildArgs(task.Request.Dir, name, task.Request.URL, o.opts)

	var onLine func(string)
	if captured {
		onLine = func(line string) {
			if p, ok := aria2.ParseProgress(line); ok {
				o.presenter.TaskProgress(i, p.Completed, p.Total)
			}
		}
	}

	err := o.runner.Run(ctx, args, o.out, o.errOut, onLine)

	switch {
	case err == nil:
		task.settle(StatusSucceeded, nil)
		o.logger.Debug().Str("url", task.Request.URL).Str("file", name).Msg("download succeeded")
	case errors.Is(err, runner.ErrCancelled):
		task.settle(StatusCancelled, err)
	default:
		task.settle(StatusFailed, err)
		o.logger.Error().Str("url", task.Request.URL).Err(err).Msg("download failed")
	}

	o.presenter.TaskSettled(i, task.Status())
	return err
}
