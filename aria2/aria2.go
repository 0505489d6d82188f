/*
Package aria2 knows how to drive the aria2c binary.
*/
package aria2

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlfast/dlfast/opt"
)

// Binary is the external download accelerator dlfast wraps.
const Binary = "aria2c"

// Tuned defaults applied to every download.
const (
	maxConnectionsPerServer = 8
	splitCount              = 32
)

// ErrNotFound is reported at startup when aria2c is not installed.
var ErrNotFound = errors.New("aria2c not found in PATH, please install aria2")

// LookPath resolves the aria2c binary on the search path.
func LookPath() (string, error) {
	path, err := exec.LookPath(Binary)
	if err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// BuildArgs translates a resolved download into the aria2c argument list.
// Optional values are omitted so that aria2c's own defaults apply.
func BuildArgs(dir string, filename string, rawURL string, opts *opt.Options) []string {
	args := []string{
		"--dir=" + dir,
		"--out=" + filename,
		"--continue=true",
		fmt.Sprintf("--max-connection-per-server=%d", maxConnectionsPerServer),
		fmt.Sprintf("--split=%d", splitCount),
		"--min-split-size=1M",
		"--file-allocation=falloc",
		fmt.Sprintf("--max-tries=%d", opts.MaxTries),
		fmt.Sprintf("--retry-wait=%d", opts.RetryWait),
		fmt.Sprintf("--connect-timeout=%d", opts.ConnectTimeout),
		fmt.Sprintf("--timeout=%d", opts.Timeout),
		"--max-file-not-found=3",
		"--summary-interval=1",
		"--console-log-level=warn",
		"--auto-file-renaming=false",
		"--allow-overwrite=true",
		"--conditional-get=true",
		"--check-integrity=true",
		"--disk-cache=128M",
		"--async-dns=true",
		"--http-accept-gzip=true",
		"--remote-time=true",
		"--human-readable=false",
	}

	if opts.MaxSpeed != "" {
		args = append(args, "--max-download-limit="+opts.MaxSpeed)
	}

	if opts.UserAgent != "" {
		args = append(args, "--user-agent="+opts.UserAgent)
	}

	return append(args, rawURL)
}

// ExitError maps an aria2c exit code to a descriptive error. Code 0 maps to
// nil.
func ExitError(code int) error {
	switch code {
	case 0:
		return nil
	case 3:
		return errors.New("file not found or access denied")
	case 9:
		return errors.New("not enough disk space available")
	case 28:
		return errors.New("network timeout or connection refused")
	default:
		return fmt.Errorf("aria2c failed with exit code %d", code)
	}
}

// Progress is one sample of aria2c's console readout.
type Progress struct {
	Completed int64
	Total     int64
}

// e.g. "[#988e33 182452224B/251658240B(72%) CN:8 DL:10485760B ETA:6s]"
var progressLine = regexp.MustCompile(`^\[#[0-9a-zA-Z]+ (\d+)B?/(\d+)B?(?:\(\d+%\))?`)

// ParseProgress extracts downloaded and total byte counts from a console
// readout line. Lines that are not readouts report ok=false.
func ParseProgress(line string) (Progress, bool) {
	m := progressLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Progress{}, false
	}

	completed, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Progress{}, false
	}

	total, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Progress{}, false
	}

	return Progress{Completed: completed, Total: total}, true
}
