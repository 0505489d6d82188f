package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogging_New(t *testing.T) {
	t.Parallel()

	var w bytes.Buffer
	logger := New(&w, false)

	logger.Info().Msg("starting download")

	if !strings.Contains(w.String(), "starting download") {
		t.Errorf(`unexpected output: actual: %q`, w.String())
	}
}

func TestLogging_New_Quiet(t *testing.T) {
	t.Parallel()

	var w bytes.Buffer
	logger := New(&w, true)

	logger.Info().Msg("suppressed")
	if w.Len() != 0 {
		t.Errorf(`unexpected output in quiet mode: actual: %q`, w.String())
	}

	logger.Error().Msg("surfaced")
	if !strings.Contains(w.String(), "surfaced") {
		t.Errorf(`unexpected output: actual: %q`, w.String())
	}
}
