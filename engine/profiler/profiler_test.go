package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var buf bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(1500*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	for range 89 {
		clock.advance(16 * time.Millisecond)
		_, reported := p.Tick()
		require.False(t, reported)
	}

	clock.advance(76 * time.Millisecond)
	r, reported := p.Tick(slog.Int("submitted", 90))
	require.True(t, reported)
	assert.Equal(t, 90, r.Frames)
	assert.Equal(t, 1500*time.Millisecond, r.Elapsed)
	assert.InDelta(t, 60.0, r.FPS, 1e-9)
	assert.Contains(t, buf.String(), "fps=60")
	assert.Contains(t, buf.String(), "submitted=90")

	clock.advance(16 * time.Millisecond)
	_, reported = p.Tick()
	assert.False(t, reported, "counters reset after a report")
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, NewProfiler().updateInterval)
	assert.Equal(t, 1500*time.Millisecond, NewProfiler(WithInterval(0)).updateInterval)
}
