/*
Package opt deals with CLI options.
*/
package opt

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/dlfast/dlfast/bandwidth"
)

var (
	errNoURLs      = errors.New("at least one URL is required")
	errEmptyURL    = errors.New("URL cannot be empty")
	errParallelism = errors.New("--parallel must be at least 1")
)

// Options has the options required for dlfast.
type Options struct {
	URLs           []string
	Destination    string
	MaxSpeed       string
	Timeout        int
	ConnectTimeout int
	MaxTries       int
	RetryWait      int
	UserAgent      string
	Parallel       int
	Quiet          bool
}

// Flags returns the CLI flag set. Every flag can also be set through the
// corresponding DLFAST_* environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "destination",
			Aliases: []string{"d"},
			Usage:   "target `directory` for downloads (default: current directory)",
			EnvVars: []string{"DLFAST_DESTINATION"},
		},
		&cli.IntFlag{
			Name:    "parallel",
			Value:   2,
			Usage:   "`number` of parallel downloads in batch mode",
			EnvVars: []string{"DLFAST_PARALLEL"},
		},
		&cli.StringFlag{
			Name:    "max-speed",
			Usage:   "maximum download `speed` (e.g. 1M, 500K)",
			EnvVars: []string{"DLFAST_MAX_SPEED"},
		},
		&cli.IntFlag{
			Name:    "timeout",
			Value:   60,
			Usage:   "download timeout in `seconds`",
			EnvVars: []string{"DLFAST_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "connect-timeout",
			Value:   30,
			Usage:   "connection timeout in `seconds`",
			EnvVars: []string{"DLFAST_CONNECT_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "max-tries",
			Value:   5,
			Usage:   "maximum retry `attempts`",
			EnvVars: []string{"DLFAST_MAX_TRIES"},
		},
		&cli.IntFlag{
			Name:    "retry-wait",
			Value:   10,
			Usage:   "wait time between retries in `seconds`",
			EnvVars: []string{"DLFAST_RETRY_WAIT"},
		},
		&cli.StringFlag{
			Name:    "user-agent",
			Usage:   "custom User-Agent `string`",
			EnvVars: []string{"DLFAST_USER_AGENT"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "suppress progress display",
			EnvVars: []string{"DLFAST_QUIET"},
		},
	}
}

// FromContext builds validated Options from the parsed CLI context.
func FromContext(c *cli.Context) (*Options, error) {
	opts := &Options{
		URLs:           c.Args().Slice(),
		Destination:    c.String("destination"),
		MaxSpeed:       c.String("max-speed"),
		Timeout:        c.Int("timeout"),
		ConnectTimeout: c.Int("connect-timeout"),
		MaxTries:       c.Int("max-tries"),
		RetryWait:      c.Int("retry-wait"),
		UserAgent:      c.String("user-agent"),
		Parallel:       c.Int("parallel"),
		Quiet:          c.Bool("quiet"),
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

func (o *Options) validate() error {
	if len(o.URLs) == 0 {
		return errNoURLs
	}

	for _, u := range o.URLs {
		if err := ValidateURL(u); err != nil {
			return err
		}
	}

	if o.Parallel < 1 {
		return errParallelism
	}

	if o.MaxSpeed != "" {
		if _, err := bandwidth.Parse(o.MaxSpeed); err != nil {
			return fmt.Errorf("invalid --max-speed: %w", err)
		}
	}

	return nil
}

// ValidateURL checks that rawURL is an absolute http, https, or ftp URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https", "ftp":
	default:
		return fmt.Errorf("unsupported URL scheme %q (supported: http, https, ftp)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL %q must contain a host", rawURL)
	}

	return nil
}

// SetupDestination resolves the destination directory, creating it when
// missing, and verifies it is writable.
func (o *Options) SetupDestination() (string, error) {
	dir := o.Destination
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}

	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return "", fmt.Errorf("destination must be a directory: %s", dir)
		}
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating directory %q: %w", dir, err)
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	probe := filepath.Join(abs, ".dlfast-write-check")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return "", fmt.Errorf("directory %q is not writable: %w", abs, err)
	}
	os.Remove(probe)

	return abs, nil
}
