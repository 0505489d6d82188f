package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dlfast/dlfast/batch"
)

// installFakeBinary puts a shell stub named aria2c on PATH and returns the
// destination directory for the run.
func installFakeBinary(t *testing.T, script string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aria2c"), []byte(script), 0755); err != nil {
		t.Fatalf("err %s", err)
	}
	t.Setenv("PATH", dir)

	return t.TempDir()
}

func TestMain_execute_MissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{"dlfast", "http://example.com/foo.png"})

	if code != exitFailure {
		t.Errorf(`unexpected exit code: expected: %d actual: %d`, exitFailure, code)
	}
	if !strings.Contains(errOut.String(), "aria2c not found") {
		t.Errorf(`unexpected output: actual: %q`, errOut.String())
	}
}

func TestMain_execute_InvalidOptions(t *testing.T) {
	cases := map[string]struct {
		args []string
	}{
		"no URLs":    {args: []string{"dlfast"}},
		"bad scheme": {args: []string{"dlfast", "ssh://example.com/f"}},
		"bad speed":  {args: []string{"dlfast", "--max-speed", "fast", "http://example.com/f"}},
	}

	for n, c := range cases {
		c := c
		t.Run(n, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := execute(&out, &errOut, c.args)

			if code != exitFailure {
				t.Errorf(`unexpected exit code: expected: %d actual: %d`, exitFailure, code)
			}
			if !strings.Contains(errOut.String(), "error:") {
				t.Errorf(`unexpected output: actual: %q`, errOut.String())
			}
		})
	}
}

func TestMain_execute_SingleDownload(t *testing.T) {
	dest := installFakeBinary(t, "#!/bin/sh\necho downloading\nexit 0\n")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{"dlfast", "-d", dest, ts.URL + "/foo.png"})

	if code != exitOK {
		t.Fatalf(`unexpected exit code: expected: %d actual: %d stderr: %q`, exitOK, code, errOut.String())
	}

	// single download passes the child's output through
	if !strings.Contains(out.String(), "downloading") {
		t.Errorf(`unexpected output: actual: %q`, out.String())
	}
}

func TestMain_execute_SingleFailure(t *testing.T) {
	dest := installFakeBinary(t, "#!/bin/sh\nexit 3\n")

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{"dlfast", "-d", dest, "http://127.0.0.1:1/foo.png"})

	if code != exitFailure {
		t.Errorf(`unexpected exit code: expected: %d actual: %d`, exitFailure, code)
	}
	if !strings.Contains(errOut.String(), "file not found or access denied") {
		t.Errorf(`unexpected output: actual: %q`, errOut.String())
	}
}

func TestMain_execute_Batch(t *testing.T) {
	dest := installFakeBinary(t, "#!/bin/sh\nexit 0\n")

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{
		"dlfast", "-d", dest, "--parallel", "2",
		"http://127.0.0.1:1/a.zip", "http://127.0.0.1:1/b.zip",
	})

	if code != exitOK {
		t.Fatalf(`unexpected exit code: expected: %d actual: %d stderr: %q`, exitOK, code, errOut.String())
	}

	for _, expected := range []string{"✓ http://127.0.0.1:1/a.zip", "✓ http://127.0.0.1:1/b.zip"} {
		if !strings.Contains(out.String(), expected) {
			t.Errorf(`summary is missing %q: actual: %q`, expected, out.String())
		}
	}
}

func TestMain_execute_BatchPartialFailure(t *testing.T) {
	// the stub fails for the URL it is told to fail for
	dest := installFakeBinary(t, `#!/bin/sh
for arg in "$@"; do :; done
case "$arg" in
  *bad.zip) exit 7 ;;
esac
exit 0
`)

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{
		"dlfast", "-d", dest,
		"http://127.0.0.1:1/good.zip", "http://127.0.0.1:1/bad.zip",
	})

	if code != exitFailure {
		t.Errorf(`unexpected exit code: expected: %d actual: %d`, exitFailure, code)
	}
	if !strings.Contains(out.String(), "✓ http://127.0.0.1:1/good.zip") {
		t.Errorf(`unexpected summary: actual: %q`, out.String())
	}
	if !strings.Contains(out.String(), "✗ http://127.0.0.1:1/bad.zip") {
		t.Errorf(`unexpected summary: actual: %q`, out.String())
	}
}

func TestMain_execute_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{"dlfast", "--version"})

	if code != exitOK {
		t.Fatalf(`unexpected exit code: expected: %d actual: %d`, exitOK, code)
	}
	if !strings.Contains(out.String(), "1.0") {
		t.Errorf(`unexpected output: actual: %q`, out.String())
	}
}

func TestMain_execute_MaxSpeedLogged(t *testing.T) {
	dest := installFakeBinary(t, "#!/bin/sh\nexit 0\n")

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{
		"dlfast", "-d", dest, "--max-speed", "500K", "http://127.0.0.1:1/foo.png",
	})

	if code != exitOK {
		t.Fatalf(`unexpected exit code: expected: %d actual: %d stderr: %q`, exitOK, code, errOut.String())
	}

	// the startup log surfaces the normalized rate limit
	if !strings.Contains(errOut.String(), "500K/s") {
		t.Errorf(`unexpected output: actual: %q`, errOut.String())
	}
}

func TestMain_report(t *testing.T) {
	succeeded := batch.Outcome{URL: "http://example.com/a.zip", Status: batch.StatusSucceeded}
	failed := batch.Outcome{URL: "http://example.com/b.zip", Status: batch.StatusFailed, Err: errors.New("aria2c failed with exit code 3")}
	cancelled := batch.Outcome{URL: "http://example.com/c.zip", Status: batch.StatusCancelled}

	cases := map[string]struct {
		outcomes []batch.Outcome
		expected int
	}{
		"all succeeded":          {outcomes: []batch.Outcome{succeeded, succeeded}, expected: exitOK},
		"failed":                 {outcomes: []batch.Outcome{succeeded, failed}, expected: exitFailure},
		"cancelled":              {outcomes: []batch.Outcome{cancelled}, expected: exitInterrupt},
		"cancelled beats failed": {outcomes: []batch.Outcome{failed, cancelled}, expected: exitInterrupt},
		"single success":         {outcomes: []batch.Outcome{succeeded}, expected: exitOK},
	}

	for n, c := range cases {
		c := c
		t.Run(n, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			actual := report(zerolog.Nop(), &out, c.outcomes, false)
			if actual != c.expected {
				t.Errorf(`unexpected exit code: expected: %d actual: %d`, c.expected, actual)
			}
		})
	}
}

func TestMain_execute_Quiet(t *testing.T) {
	dest := installFakeBinary(t, "#!/bin/sh\nexit 0\n")

	var out, errOut bytes.Buffer
	code := execute(&out, &errOut, []string{"dlfast", "-q", "-d", dest, "http://127.0.0.1:1/foo.png"})

	if code != exitOK {
		t.Fatalf(`unexpected exit code: expected: %d actual: %d stderr: %q`, exitOK, code, errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf(`unexpected stdout in quiet mode: actual: %q`, out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf(`unexpected stderr in quiet mode: actual: %q`, errOut.String())
	}
}
