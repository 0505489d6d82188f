/*
Package runner owns the lifecycle of one child download process.
*/
package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/dlfast/dlfast/aria2"
)

// ErrCancelled reports that the child was stopped by cancellation rather
// than failing on its own.
var ErrCancelled = errors.New("cancelled")

var errSignalled = errors.New("aria2c terminated by signal")

const defaultGrace = 5 * time.Second

const maxLineSize = 1 << 20

// Runner spawns the download binary, one child per Run call.
type Runner struct {
	binary string
	grace  time.Duration
}

// New returns a Runner for the given binary path. grace bounds how long a
// cancelled child may take to shut down before it is killed.
func New(binary string, grace time.Duration) *Runner {
	if grace <= 0 {
		grace = defaultGrace
	}
	return &Runner{binary: binary, grace: grace}
}

// Run spawns the child and blocks until it has exited. When onLine is nil,
// the child's streams are attached directly to out and errOut (passthrough
// mode); otherwise stdout is scanned line by line into onLine and stderr is
// discarded (captured mode).
//
// The cancel hook is installed before the child starts and the child is
// reaped on every path: cancelling ctx sends an interrupt to the child's
// process group, and a child still alive after the grace period is killed.
func (r *Runner) Run(ctx context.Context, args []string, out, errOut io.Writer, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return interruptProcessGroup(cmd) }
	cmd.WaitDelay = r.grace

	if onLine == nil {
		cmd.Stdout = out
		cmd.Stderr = errOut
		return r.classify(ctx, cmd.Run())
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		onLine(scanner.Text())
	}

	return r.classify(ctx, cmd.Wait())
}

// classify turns the child's exit state into a terminal error. A successful
// exit wins even when cancellation raced with it.
func (r *Runner) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ErrCancelled
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return aria2.ExitError(code)
		}
		return errSignalled
	}

	return err
}
