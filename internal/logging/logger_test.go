package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug().Msg("hidden detail")
	logger.Info().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Errorf("debug message logged without verbose:\n%s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("info message missing:\n%s", out)
	}

	buf.Reset()
	verbose := New(&buf, true)
	verbose.Debug().Str("file", "package.json").Msg("hidden detail")
	if !strings.Contains(buf.String(), "hidden detail") || !strings.Contains(buf.String(), "package.json") {
		t.Errorf("debug message missing in verbose mode:\n%s", buf.String())
	}
}

func TestNewDisablesColourForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Warn().Msg("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI escapes, got %q", buf.String())
	}
}
