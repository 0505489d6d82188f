/*
Package interruptor deals with Ctrl+C interruption.
*/
package interruptor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Listen returns a context cancelled by the first SIGINT or SIGTERM. A
// second signal while shutdown is in progress exits immediately with the
// conventional interrupt code. The returned stop function releases the
// signal registration; call it once the batch has settled.
func Listen(ctx context.Context, w io.Writer) (context.Context, func()) {
	return listen(ctx, w, func() { os.Exit(130) })
}

func listen(ctx context.Context, w io.Writer, exitFn func()) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	ch := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
		case <-done:
			return
		}

		fmt.Fprintln(w, "\rinterrupt received, stopping downloads...")
		cancel()

		select {
		case <-ch:
			fmt.Fprintln(w, "\rsecond interrupt, exiting immediately")
			exitFn()
		case <-done:
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			cancel()
		})
	}

	return ctx, stop
}
