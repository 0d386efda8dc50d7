package render

import (
	"context"
	"sync"
	"time"

	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/Tutortoise/ascii-vtuber/timeutil"
	"github.com/pkg/errors"
)

// PoseSource supplies the most recent head pose, if any has arrived.
type PoseSource interface {
	Latest() (models.MotionRecord, bool)
}

type Options struct {
	Mesh   *Mesh
	Camera Camera
	Offset Vec3
	Pacer  Pacer
	Clock  timeutil.Clock
	Shade  bool
	// StatsEvery logs a frame-time summary every N frames. Zero disables it.
	StatsEvery int
	// MaxFrames stops Run after N frames. Zero runs until cancelled.
	MaxFrames int
}

// Renderer draws one frame per iteration: size check, clear, transform,
// rasterize, flush, pace.
type Renderer struct {
	term  *Terminal
	poses PoseSource
	opts  Options

	fb    *FrameBuffer
	state RenderState
	stats FrameStats
	frame int

	mu    sync.Mutex
	shade bool
	epoch time.Time
}

func NewRenderer(term *Terminal, poses PoseSource, opts Options) *Renderer {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.Pacer == nil {
		opts.Pacer = FixedPacer{Delay: time.Second / DefaultFPS, Clock: opts.Clock}
	}
	if opts.Mesh == nil {
		opts.Mesh = Torus(1.0, 0.4, 48, 24)
	}
	if opts.Offset == (Vec3{}) {
		opts.Offset = DefaultOffset
	}
	if opts.Camera == (Camera{}) {
		opts.Camera = DefaultCamera()
	}
	return &Renderer{
		term:  term,
		poses: poses,
		opts:  opts,
		fb:    NewFrameBuffer(0, 0),
		shade: opts.Shade,
		epoch: opts.Clock.Now(),
	}
}

// ToggleShade flips between the fixed marker and shaded glyphs and returns
// the new setting.
func (r *Renderer) ToggleShade() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shade = !r.shade
	return r.shade
}

// ResetRotation restarts the idle auto-rotation from angle zero.
func (r *Renderer) ResetRotation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch = r.opts.Clock.Now()
}

func (r *Renderer) settings() (GlyphFunc, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	glyph := FixedGlyph
	if r.shade {
		glyph = ShadedGlyph
	}
	return glyph, r.opts.Clock.Since(r.epoch)
}

// FrameBuffer exposes the last rendered frame.
func (r *Renderer) FrameBuffer() *FrameBuffer { return r.fb }

// RenderFrame draws and flushes a single frame and returns the number of
// cells written.
func (r *Renderer) RenderFrame() (int, error) {
	cols, rows := r.term.SizeOrDefault()
	if cols != r.state.Cols || rows != r.state.Rows {
		r.state = NewRenderState(cols, rows, r.opts.Camera)
		r.fb.Resize(cols, rows)
	}
	r.fb.Reset()

	glyph, elapsed := r.settings()
	var pose *models.MotionRecord
	if rec, ok := r.poses.Latest(); ok {
		pose = &rec
	}
	model := ModelMatrix(pose, elapsed, r.opts.Offset)
	plotted := Rasterize(r.fb, r.state, r.opts.Mesh, model, glyph)

	if err := r.term.Flush(r.fb); err != nil {
		return plotted, err
	}
	return plotted, nil
}

// Run renders until ctx is cancelled or MaxFrames is reached. A failed
// terminal write ends the loop.
func (r *Renderer) Run(ctx context.Context) error {
	log := logger.Entry(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := r.opts.Clock.Now()
		if _, err := r.RenderFrame(); err != nil {
			return errors.Wrap(err, "render frame")
		}
		r.stats.Add(r.opts.Clock.Since(start))
		r.frame++

		if n := r.opts.StatsEvery; n > 0 && r.frame%n == 0 {
			s := r.stats.Summary()
			log.WithField("frames", s.Frames).
				WithField("mean_ms", s.MeanMS).
				WithField("std_ms", s.StdMS).
				WithField("p95_ms", s.P95MS).
				WithField("max_ms", s.MaxMS).
				Info("frame times")
			r.stats.Reset()
		}
		if r.opts.MaxFrames > 0 && r.frame >= r.opts.MaxFrames {
			return nil
		}
		if err := r.opts.Pacer.Wait(ctx, start); err != nil {
			return err
		}
	}
}
