package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferedReporter(every int) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewReporter(logger, every), &buf
}

func logLines(buf *bytes.Buffer) int {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

func TestReporter_LogsOnInterval(t *testing.T) {
	r, buf := newBufferedReporter(10)

	for tick := uint64(1); tick <= 35; tick++ {
		r.Observe(testSnapshot(tick))
	}

	// Ticks 10, 20, 30.
	assert.Equal(t, 3, logLines(buf))
	assert.Contains(t, buf.String(), "loop state")
	assert.Contains(t, buf.String(), "position=91.5")
}

func TestReporter_ZeroIntervalDisables(t *testing.T) {
	r, buf := newBufferedReporter(0)

	for tick := uint64(1); tick <= 100; tick++ {
		r.Observe(testSnapshot(tick))
	}

	assert.Equal(t, 0, logLines(buf))
}

func TestReporter_NegativeIntervalDisables(t *testing.T) {
	r, buf := newBufferedReporter(-5)

	r.Observe(testSnapshot(1))

	assert.Equal(t, 0, logLines(buf))
}
