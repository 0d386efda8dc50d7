package capture

import (
	"context"
	"math"
	"time"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/Tutortoise/ascii-vtuber/timeutil"
)

const (
	syntheticGray   = 128
	syntheticBright = 235
)

type SyntheticOptions struct {
	// Spot draws a bright disc that orbits the frame centre.
	Spot bool
	// Interval paces NextFrame like a camera. Zero means no pacing.
	Interval time.Duration
	Clock    timeutil.Clock
}

// Synthetic generates mid-gray frames without any hardware.
type Synthetic struct {
	format Format
	opts   SyntheticOptions
	seq    uint64
	last   time.Time
}

func NewSynthetic(want Format, opts SyntheticOptions) *Synthetic {
	w, h := want.Width, want.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	w &^= 1
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Synthetic{format: YUYVFormat(w, h), opts: opts}
}

func (s *Synthetic) Format() Format { return s.format }

func (s *Synthetic) NextFrame(ctx context.Context) (models.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return models.RawFrame{}, err
	}
	if s.opts.Interval > 0 && !s.last.IsZero() {
		if err := s.opts.Clock.SleepContext(ctx, s.opts.Interval-s.opts.Clock.Since(s.last)); err != nil {
			return models.RawFrame{}, err
		}
	}
	s.last = s.opts.Clock.Now()
	s.seq++

	f := s.format
	buf := make([]byte, f.FrameSize)
	for i := 0; i < len(buf); i++ {
		buf[i] = syntheticGray
	}
	if s.opts.Spot {
		cx, cy := s.SpotCenter(s.seq)
		drawSpot(buf, f, cx, cy, f.Height/10)
	}
	return models.RawFrame{
		Width:  f.Width,
		Height: f.Height,
		Stride: f.Stride,
		Data:   buf,
		Seq:    s.seq,
	}, nil
}

// SpotCenter returns the pixel position of the bright disc in frame seq.
func (s *Synthetic) SpotCenter(seq uint64) (int, int) {
	f := s.format
	t := float64(seq) * 0.05
	cx := float64(f.Width)/2 + float64(f.Width)/4*math.Sin(t)
	cy := float64(f.Height)/2 + float64(f.Height)/4*math.Sin(2*t)
	return int(cx), int(cy)
}

// drawSpot raises luma inside the disc and leaves chroma neutral.
func drawSpot(buf []byte, f Format, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		if y < 0 || y >= f.Height {
			continue
		}
		row := buf[y*f.Stride:]
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || x >= f.Width {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			// Luma sits at byte offsets 0 and 2 of each 4-byte pair.
			row[(x/2)*4+(x%2)*2] = syntheticBright
		}
	}
}

func (s *Synthetic) Close() error { return nil }
