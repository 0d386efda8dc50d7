package render

import (
	"context"
	"sort"
	"time"

	"github.com/Tutortoise/ascii-vtuber/timeutil"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultFPS = 30

	PacingFixed    = "fixed"
	PacingMeasured = "measured"
)

// Pacer blocks between frames. Wait returns ctx.Err() early when ctx is
// cancelled mid-sleep.
type Pacer interface {
	Wait(ctx context.Context, frameStart time.Time) error
}

// FixedPacer sleeps the same delay after every frame regardless of how long
// the frame took.
type FixedPacer struct {
	Delay time.Duration
	Clock timeutil.Clock
}

func (p FixedPacer) Wait(ctx context.Context, _ time.Time) error {
	return p.Clock.SleepContext(ctx, p.Delay)
}

// MeasuredPacer sleeps whatever remains of Target after the frame's own
// work. Frames that overrun do not sleep.
type MeasuredPacer struct {
	Target time.Duration
	Clock  timeutil.Clock
}

func (p MeasuredPacer) Wait(ctx context.Context, frameStart time.Time) error {
	return p.Clock.SleepContext(ctx, p.Target-p.Clock.Since(frameStart))
}

func NewPacer(mode string, fps int, clock timeutil.Clock) (Pacer, error) {
	if fps <= 0 {
		return nil, errors.Errorf("fps must be positive, got %d", fps)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	period := time.Second / time.Duration(fps)
	switch mode {
	case "", PacingFixed:
		return FixedPacer{Delay: period, Clock: clock}, nil
	case PacingMeasured:
		return MeasuredPacer{Target: period, Clock: clock}, nil
	default:
		return nil, errors.Errorf("unknown pacing mode %q", mode)
	}
}

// FrameStats accumulates frame times in milliseconds.
type FrameStats struct {
	samples []float64
}

func (s *FrameStats) Add(d time.Duration) {
	s.samples = append(s.samples, float64(d)/float64(time.Millisecond))
}

func (s *FrameStats) Len() int { return len(s.samples) }

type FrameSummary struct {
	Frames int
	MeanMS float64
	StdMS  float64
	P95MS  float64
	MaxMS  float64
}

func (s *FrameStats) Summary() FrameSummary {
	if len(s.samples) == 0 {
		return FrameSummary{}
	}
	sorted := append([]float64(nil), s.samples...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return FrameSummary{
		Frames: len(sorted),
		MeanMS: mean,
		StdMS:  std,
		P95MS:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		MaxMS:  sorted[len(sorted)-1],
	}
}

func (s *FrameStats) Reset() {
	s.samples = s.samples[:0]
}
