package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/dlfast/dlfast/aria2"
	"github.com/dlfast/dlfast/bandwidth"
	"github.com/dlfast/dlfast/batch"
	"github.com/dlfast/dlfast/interruptor"
	"github.com/dlfast/dlfast/logging"
	"github.com/dlfast/dlfast/opt"
	"github.com/dlfast/dlfast/resolver"
	"github.com/dlfast/dlfast/runner"
	"github.com/dlfast/dlfast/ui"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitInterrupt = 130
)

// shutdownGrace bounds how long a cancelled aria2c may take to finalize its
// control file before it is killed.
const shutdownGrace = 5 * time.Second

func main() {
	os.Exit(execute(os.Stdout, os.Stderr, os.Args))
}

func execute(out, errOut io.Writer, args []string) int {
	// .env is optional; flags and the real environment still apply
	_ = godotenv.Load()

	code := exitOK
	app := &cli.App{
		Name:            "dlfast",
		Version:         "1.0",
		Usage:           "fast downloads powered by aria2c",
		ArgsUsage:       "URL [URL...]",
		Flags:           opt.Flags(),
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Action: func(c *cli.Context) error {
			opts, err := opt.FromContext(c)
			if err != nil {
				return err
			}
			code = run(c.Context, out, errOut, opts)
			return nil
		},
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return exitFailure
	}

	return code
}

func run(ctx context.Context, out, errOut io.Writer, opts *opt.Options) int {
	logger := logging.New(errOut, opts.Quiet)

	binary, err := aria2.LookPath()
	if err != nil {
		logger.Error().Msg(err.Error())
		return exitFailure
	}

	dir, err := opts.SetupDestination()
	if err != nil {
		logger.Error().Err(err).Msg("destination is not usable")
		return exitFailure
	}

	ctx, stop := interruptor.Listen(ctx, errOut)
	defer stop()

	ev := logger.Info().Str("dir", dir)
	if opts.MaxSpeed != "" {
		// validated at parse time, so this cannot fail here
		if limit, err := bandwidth.Parse(opts.MaxSpeed); err == nil {
			ev = ev.Str("max_speed", bandwidth.Format(limit)+"/s")
		}
	}
	if len(opts.URLs) == 1 {
		ev.Msg("starting download")
	} else {
		ev.Int("count", len(opts.URLs)).Msg("starting batch download")
	}

	orch := batch.New(batch.Config{
		Options:   opts,
		Runner:    runner.New(binary, shutdownGrace),
		Resolver:  resolver.New(time.Duration(opts.ConnectTimeout)*time.Second, opts.UserAgent),
		Presenter: ui.New(errOut, len(opts.URLs), opts.Quiet),
		Logger:    logger,
		Out:       out,
		ErrOut:    errOut,
	})

	outcomes := orch.Run(ctx, dir)
	stop()

	return report(logger, out, outcomes, opts.Quiet)
}

func report(logger zerolog.Logger, out io.Writer, outcomes []batch.Outcome, quiet bool) int {
	var failed, cancelled int
	for _, o := range outcomes {
		switch o.Status {
		case batch.StatusFailed:
			failed++
		case batch.StatusCancelled:
			cancelled++
		}
	}

	if !quiet && len(outcomes) > 1 {
		ui.Summary(out, outcomes)
	}

	switch {
	case cancelled > 0:
		logger.Warn().Msg("downloads cancelled")
		return exitInterrupt
	case failed > 0:
		logger.Error().Int("failed", failed).Int("total", len(outcomes)).Msg("some downloads failed")
		return exitFailure
	default:
		if len(outcomes) == 1 {
			logger.Info().Msg("download completed successfully")
		} else {
			logger.Info().Msg("all downloads completed successfully")
		}
		return exitOK
	}
}
