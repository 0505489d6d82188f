/*
Package bandwidth deals with aria2c-style transfer rate strings.
*/
package bandwidth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmpty  = errors.New("bandwidth: rate must not be empty")
	errFormat = errors.New(`bandwidth: rate must be digits with an optional K/M/G suffix (e.g. "500K", "1M")`)
)

const (
	kibi = 1 << 10
	mebi = 1 << 20
	gibi = 1 << 30
)

// Parse parses a rate string such as "500K", "1M", "2G", or "1048576" and
// returns the rate in bytes per second. Suffixes are binary, as aria2c
// interprets them.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}

	unit := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		unit = kibi
		s = s[:len(s)-1]
	case 'm', 'M':
		unit = mebi
		s = s[:len(s)-1]
	case 'g', 'G':
		unit = gibi
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, errFormat
	}

	return n * unit, nil
}

// Format formats a rate in bytes per second back into a human readable
// string with a binary suffix.
func Format(n int64) string {
	switch {
	case n >= gibi && n%gibi == 0:
		return fmt.Sprintf("%dG", n/gibi)
	case n >= mebi && n%mebi == 0:
		return fmt.Sprintf("%dM", n/mebi)
	case n >= kibi && n%kibi == 0:
		return fmt.Sprintf("%dK", n/kibi)
	default:
		return strconv.FormatInt(n, 10)
	}
}
