package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

func captureLogs(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetSink(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetSink(os.Stderr)
		SetLevel(Notice)
	})
	return &buf
}

func TestLoggerFormat(t *testing.T) {
	buf := captureLogs(t, Debug)

	New("tracer").Noticef("rendered %d passes", 3)

	out := buf.String()
	for _, want := range []string{"[tracer]", "[NOTICE]", "rendered 3 passes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %q, got %q", want, out)
		}
	}
}

func TestSetLevelFilters(t *testing.T) {
	tests := []struct {
		level      Level
		debugShown bool
		infoShown  bool
		warnShown  bool
	}{
		{Debug, true, true, true},
		{Info, false, true, true},
		{Notice, false, false, true},
		{Error, false, false, false},
	}

	for _, tt := range tests {
		buf := captureLogs(t, tt.level)
		logger := New("levels")

		logger.Debug("debug-line")
		logger.Info("info-line")
		logger.Warning("warn-line")

		out := buf.String()
		if strings.Contains(out, "debug-line") != tt.debugShown {
			t.Errorf("Level %d: debug shown = %v, expected %v", tt.level, !tt.debugShown, tt.debugShown)
		}
		if strings.Contains(out, "info-line") != tt.infoShown {
			t.Errorf("Level %d: info shown = %v, expected %v", tt.level, !tt.infoShown, tt.infoShown)
		}
		if strings.Contains(out, "warn-line") != tt.warnShown {
			t.Errorf("Level %d: warning shown = %v, expected %v", tt.level, !tt.warnShown, tt.warnShown)
		}
	}
}

func TestSetSinkKeepsLevel(t *testing.T) {
	captureLogs(t, Debug)

	var buf bytes.Buffer
	SetSink(&buf)
	New("sink").Debug("still-debug")

	if !strings.Contains(buf.String(), "still-debug") {
		t.Errorf("Expected debug level to survive a sink change, got %q", buf.String())
	}
}

func TestPrinter(t *testing.T) {
	buf := captureLogs(t, Info)

	var printer core.Logger = Printer{Logger: New("renderer")}
	printer.Printf("Pass %d completed\n", 2)

	out := buf.String()
	if !strings.Contains(out, "[INFO]") || !strings.Contains(out, "Pass 2 completed") {
		t.Errorf("Expected an info record, got %q", out)
	}
	if strings.Contains(out, "completed\n\n") {
		t.Errorf("Expected the trailing newline to be trimmed, got %q", out)
	}
}
