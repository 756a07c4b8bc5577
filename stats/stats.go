// Package stats keeps frame timing over a rolling window.
package stats

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

const DefaultWindow = 240

// Frames records the duration between consecutive Tick calls. Only the most
// recent window durations are kept for the summary; Count covers every frame,
// so after n Ticks it is n while there are n-1 durations.
type Frames struct {
	window  []time.Duration
	next    int
	filled  bool
	count   uint64
	started bool
	last    time.Duration
	now     func() time.Duration
}

func New(window int) *Frames {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Frames{
		window: make([]time.Duration, window),
		now:    hrtime.Now,
	}
}

// Tick marks the end of a frame. Every call counts as a frame; the first
// has no predecessor, so it adds no duration sample.
func (f *Frames) Tick() {
	now := f.now()
	if f.started {
		f.Add(now - f.last)
	} else {
		f.started = true
		f.count++
	}
	f.last = now
}

func (f *Frames) Add(d time.Duration) {
	f.window[f.next] = d
	f.next++
	if f.next == len(f.window) {
		f.next = 0
		f.filled = true
	}
	f.count++
}

func (f *Frames) Count() uint64 {
	return f.count
}

type Summary struct {
	Frames uint64
	Mean   time.Duration
	Min    time.Duration
	Max    time.Duration
	FPS    float64
}

func (f *Frames) Summary() Summary {
	samples := f.window[:f.next]
	if f.filled {
		samples = f.window
	}

	s := Summary{Frames: f.count}
	if len(samples) == 0 {
		return s
	}

	var total time.Duration
	s.Min = samples[0]
	for _, d := range samples {
		total += d
		if d < s.Min {
			s.Min = d
		}
		if d > s.Max {
			s.Max = d
		}
	}

	s.Mean = total / time.Duration(len(samples))
	if s.Mean > 0 {
		s.FPS = float64(time.Second) / float64(s.Mean)
	}

	return s
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames", s.Frames),
		slog.Duration("mean", s.Mean),
		slog.Duration("min", s.Min),
		slog.Duration("max", s.Max),
		slog.String("fps", formatFPS(s.FPS)),
	)
}

func formatFPS(fps float64) string {
	return slog.Float64Value(float64(int64(fps*10+0.5)) / 10).String()
}
