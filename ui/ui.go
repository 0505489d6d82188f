/*
Package ui renders download progress and the batch summary.
*/
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/dlfast/dlfast/batch"
)

// New selects the presenter for a run: a spinner board for batches, nothing
// for quiet mode or for a single download whose child output is passed
// through untouched.
func New(w io.Writer, taskCount int, quiet bool) batch.Presenter {
	if quiet || taskCount == 1 {
		return Silent{}
	}
	return newBoard(w, taskCount)
}

// Silent discards all presentation.
type Silent struct{}

// TaskStarted implements batch.Presenter.
func (Silent) TaskStarted(int, string) {}

// TaskProgress implements batch.Presenter.
func (Silent) TaskProgress(int, int64, int64) {}

// TaskSettled implements batch.Presenter.
func (Silent) TaskSettled(int, batch.Status) {}

// Close implements batch.Presenter.
func (Silent) Close() {}

// board renders one status line per task: a spinner while the task runs and
// a fixed glyph once it settles.
type board struct {
	progress *mpb.Progress

	mu       sync.Mutex
	bars     []*mpb.Bar
	statuses []batch.Status
}

func newBoard(w io.Writer, taskCount int) *board {
	return &board{
		progress: mpb.New(mpb.WithOutput(w), mpb.WithWidth(16)),
		bars:     make([]*mpb.Bar, taskCount),
		statuses: make([]batch.Status, taskCount),
	}
}

func (b *board) TaskStarted(i int, name string) {
	bar := b.progress.New(0,
		mpb.SpinnerStyle(),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return b.glyph(i) }),
			decor.Name(" "+name),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f"),
		),
	)

	b.mu.Lock()
	b.bars[i] = bar
	b.statuses[i] = batch.StatusRunning
	b.mu.Unlock()
}

func (b *board) TaskProgress(i int, completed, total int64) {
	bar := b.bar(i)
	if bar == nil {
		return
	}

	if total > 0 {
		bar.SetTotal(total, false)
	}
	bar.SetCurrent(completed)
}

func (b *board) TaskSettled(i int, status batch.Status) {
	b.mu.Lock()
	b.statuses[i] = status
	bar := b.bars[i]
	b.mu.Unlock()

	if bar == nil {
		return
	}

	if status == batch.StatusSucceeded {
		// complete the bar at its current position
		bar.SetTotal(-1, true)
		return
	}
	bar.Abort(false)
}

func (b *board) Close() {
	b.progress.Wait()
}

func (b *board) bar(i int) *mpb.Bar {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bars[i]
}

func (b *board) glyph(i int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.statuses[i] {
	case batch.StatusSucceeded:
		return "✓"
	case batch.StatusFailed:
		return "✗"
	case batch.StatusCancelled:
		return "-"
	default:
		return " "
	}
}

// Summary prints the per-URL outcome list after a batch settles.
func Summary(w io.Writer, outcomes []batch.Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case batch.StatusSucceeded:
			fmt.Fprintf(w, "✓ %s\n", o.URL)
		case batch.StatusCancelled:
			fmt.Fprintf(w, "- %s: cancelled\n", o.URL)
		default:
			fmt.Fprintf(w, "✗ %s: %s\n", o.URL, o.Err)
		}
	}
}
