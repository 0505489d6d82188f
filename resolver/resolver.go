/*
Package resolver derives output filenames for download URLs.
*/
package resolver

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxRedirects     = 10
	defaultUserAgent = "dlfast/1.0"
)

var errTooManyRedirects = errors.New("resolver: too many redirects")

var dangerousChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Windows reserved device names cannot be used as filenames.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Resolver resolves filenames with a header-only probe request.
type Resolver struct {
	client    *http.Client
	userAgent string
}

// New generates Resolver with the given probe timeout and User-Agent.
func New(timeout time.Duration, userAgent string) *Resolver {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Resolve returns the output filename for rawURL. It never fails: any probe
// error falls back to URL-based resolution, which always produces a
// non-empty name.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	name, err := r.probe(ctx, rawURL)
	if err != nil || name == "" {
		return FromURL(rawURL)
	}
	return name
}

func (r *Resolver) probe(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	name := filenameFromHeader(resp.Header.Get("Content-Disposition"))
	if name == "" {
		return "", nil
	}
	return Sanitize(name), nil
}

// filenameFromHeader extracts the filename attribute from a
// Content-Disposition header. mime.ParseMediaType decodes the RFC 5987
// "filename*" form as well.
func filenameFromHeader(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// FromURL infers the filename from the last path segment of rawURL.
func FromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackName()
	}

	segments := strings.Split(u.Path, "/")
	name := segments[len(segments)-1]

	if name == "" || name == "." {
		if host := u.Hostname(); host != "" {
			return Sanitize("download_from_" + host + "_" + shortID())
		}
		return fallbackName()
	}

	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	return Sanitize(name)
}

// Sanitize replaces characters unsafe in filenames and guarantees a
// non-empty, non-reserved result.
func Sanitize(name string) string {
	name = dangerousChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")

	if name == "" || isReserved(name) {
		return fallbackName()
	}

	return name
}

func isReserved(name string) bool {
	_, ok := reservedNames[strings.ToUpper(name)]
	return ok
}

func fallbackName() string {
	return "download_" + shortID()
}

func shortID() string {
	u, err := uuid.NewRandom()
	if err != nil {
		panic(err)
	}
	return u.String()[:8]
}
