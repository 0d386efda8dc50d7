// Package tracker runs the capture, inference and send loop, one frame at a
// time on a single goroutine.
package tracker

import (
	"context"
	"time"

	"github.com/Tutortoise/ascii-vtuber/capture"
	"github.com/Tutortoise/ascii-vtuber/detections"
	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/Tutortoise/ascii-vtuber/pose"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sender delivers one motion record. Failures are not fatal to the loop.
type Sender interface {
	Send(ctx context.Context, rec models.MotionRecord) error
}

type Tracker struct {
	source    capture.Source
	processor *detections.Processor
	sender    Sender
	mapper    *pose.Mapper
	metrics   *Metrics
	gate      *MotionGate
	preview   *Preview
	maxFrames uint64
	debug     bool

	fsm     *fsm.FSM
	frames  uint64
	lastEst models.PoseEstimate
}

type Option func(t *Tracker) error

func New(source capture.Source, processor *detections.Processor, sender Sender, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		source:    source,
		processor: processor,
		sender:    sender,
		mapper:    pose.NewMapper(pose.DefaultConfig()),
		gate:      NewMotionGate(0),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.metrics == nil {
		t.metrics = NewMetrics("")
	}
	return t, nil
}

func WithMapper(m *pose.Mapper) Option {
	return func(t *Tracker) error {
		t.mapper = m
		return nil
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) error {
		t.metrics = m
		return nil
	}
}

func WithMotionGate(minDist int) Option {
	return func(t *Tracker) error {
		if minDist < 0 {
			return errors.Errorf("motion gate distance %d is negative", minDist)
		}
		t.gate = NewMotionGate(minDist)
		return nil
	}
}

func WithPreview(p *Preview) Option {
	return func(t *Tracker) error {
		if p != nil && p.Out == nil {
			return errors.New("preview needs an output")
		}
		t.preview = p
		return nil
	}
}

// WithMaxFrames stops Run after n frames. Zero means no limit.
func WithMaxFrames(n int) Option {
	return func(t *Tracker) error {
		t.maxFrames = uint64(n)
		return nil
	}
}

// WithDebug logs per-frame timings.
func WithDebug(debug bool) Option {
	return func(t *Tracker) error {
		t.debug = debug
		return nil
	}
}

func (t *Tracker) Metrics() *Metrics { return t.metrics }

// State is the current state machine state.
func (t *Tracker) State() string {
	if t.fsm == nil {
		return StateSearching
	}
	return t.fsm.Current()
}

// Run processes frames until ctx is cancelled, the frame limit is reached
// or a stage fails. Capture and inference failures end the run; send
// failures are only counted.
func (t *Tracker) Run(ctx context.Context) error {
	if t.fsm == nil {
		t.fsm = newFSM(ctx, t.metrics)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.maxFrames > 0 && t.frames >= t.maxFrames {
			return nil
		}
		if err := t.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one frame through every stage.
func (t *Tracker) Step(ctx context.Context) error {
	if t.fsm == nil {
		t.fsm = newFSM(ctx, t.metrics)
	}
	log := logger.Entry(ctx)
	timings := &models.ProcessingTimings{}
	startTotal := time.Now()

	captureStart := time.Now()
	frame, err := t.source.NextFrame(ctx)
	timings.Capture = time.Since(captureStart)
	if err != nil {
		return errors.Wrap(err, "capture")
	}
	t.frames++
	timings.Frame = frame.Seq

	convertStart := time.Now()
	img := detections.ConvertYUYV(frame)
	timings.Convert = time.Since(convertStart)

	if t.preview.due(t.frames) {
		if err := t.preview.Draw(detections.ToNRGBA(img)); err != nil {
			log.WithError(err).Warn("preview draw")
		}
	}

	est, gated, err := t.estimate(ctx, img, timings)
	if err != nil {
		return errors.Wrap(err, "estimate")
	}
	t.metrics.observe(est, timings, gated)

	if est.Found {
		t.pushEvent(ctx, EventFound)
		if rec, ok := t.mapper.Map(est, img.Width, img.Height); ok {
			sendStart := time.Now()
			err := t.sender.Send(ctx, rec)
			timings.Send = time.Since(sendStart)
			t.metrics.recordSend(rec, err)
		}
	} else {
		t.pushEvent(ctx, EventMissed)
		t.mapper.Reset()
	}

	timings.Total = time.Since(startTotal)
	if t.debug {
		logTimings(log, est, timings)
	}
	return nil
}

func (t *Tracker) estimate(ctx context.Context, img models.ConvertedImage, timings *models.ProcessingTimings) (models.PoseEstimate, bool, error) {
	if t.gate.Enabled() {
		unchanged, dist, err := t.gate.Unchanged(detections.ToNRGBA(img))
		if err != nil {
			logger.Entry(ctx).WithError(err).Warn("motion gate")
		} else if unchanged {
			logger.Entry(ctx).WithField("distance", dist).Trace("frame unchanged, reusing estimate")
			return t.lastEst, true, nil
		}
	}

	est, err := t.processor.Estimate(ctx, img, timings)
	if err != nil {
		return models.PoseEstimate{}, false, err
	}
	t.lastEst = est
	return est, false, nil
}

func logTimings(log *logrus.Entry, est models.PoseEstimate, t *models.ProcessingTimings) {
	log.WithFields(logrus.Fields{
		"frame":      t.Frame,
		"found":      est.Found,
		"confidence": est.Confidence,
		"capture":    t.Capture,
		"convert":    t.Convert,
		"preprocess": t.Preprocess,
		"inference":  t.Inference,
		"decode":     t.Decode,
		"send":       t.Send,
		"total":      t.Total,
	}).Debug("processing times")
}
