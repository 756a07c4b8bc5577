package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmptySummary(t *testing.T) {
	f := New(4)
	s := f.Summary()
	require.Equal(t, Summary{}, s)
}

func TestSummaryBeforeWindowFills(t *testing.T) {
	f := New(4)
	f.Add(10 * time.Millisecond)
	f.Add(20 * time.Millisecond)

	s := f.Summary()
	require.EqualValues(t, 2, s.Frames)
	require.Equal(t, 15*time.Millisecond, s.Mean)
	require.Equal(t, 10*time.Millisecond, s.Min)
	require.Equal(t, 20*time.Millisecond, s.Max)
	require.InDelta(t, 66.67, s.FPS, 0.01)
}

func TestWindowKeepsMostRecent(t *testing.T) {
	f := New(3)
	f.Add(100 * time.Millisecond)
	f.Add(10 * time.Millisecond)
	f.Add(10 * time.Millisecond)
	f.Add(10 * time.Millisecond)

	s := f.Summary()
	require.EqualValues(t, 4, s.Frames)
	require.Equal(t, 10*time.Millisecond, s.Max)
	require.Equal(t, 10*time.Millisecond, s.Mean)
	require.InDelta(t, 100, s.FPS, 0.001)
}

func TestTickMeasuresBetweenCalls(t *testing.T) {
	clock := []time.Duration{time.Second, time.Second + 16*time.Millisecond, time.Second + 40*time.Millisecond}
	f := New(8)
	f.now = func() time.Duration {
		d := clock[0]
		clock = clock[1:]
		return d
	}

	f.Tick()
	require.EqualValues(t, 1, f.Count())
	require.Equal(t, time.Duration(0), f.Summary().Mean)

	f.Tick()
	f.Tick()
	require.EqualValues(t, 3, f.Count())

	s := f.Summary()
	require.EqualValues(t, 3, s.Frames)
	require.Equal(t, 16*time.Millisecond, s.Min)
	require.Equal(t, 24*time.Millisecond, s.Max)
	require.Equal(t, 20*time.Millisecond, s.Mean)
}

func TestTickAtClockZero(t *testing.T) {
	clock := []time.Duration{0, 10 * time.Millisecond}
	f := New(8)
	f.now = func() time.Duration {
		d := clock[0]
		clock = clock[1:]
		return d
	}

	f.Tick()
	f.Tick()

	s := f.Summary()
	require.EqualValues(t, 2, s.Frames)
	require.Equal(t, 10*time.Millisecond, s.Mean)
}

func TestNonPositiveWindowUsesDefault(t *testing.T) {
	f := New(0)
	require.Len(t, f.window, DefaultWindow)
}

func TestLogValue(t *testing.T) {
	s := Summary{Frames: 3, Mean: 20 * time.Millisecond, Min: 10 * time.Millisecond, Max: 30 * time.Millisecond, FPS: 49.96}
	attrs := s.LogValue().Group()
	require.Len(t, attrs, 5)
	require.Equal(t, "frames", attrs[0].Key)
	require.Equal(t, "50", attrs[4].Value.String())
}
