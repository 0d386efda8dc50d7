package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tutortoise/ascii-vtuber/capture"
	"github.com/Tutortoise/ascii-vtuber/config"
	"github.com/Tutortoise/ascii-vtuber/detections"
	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/motion"
	"github.com/Tutortoise/ascii-vtuber/pose"
	"github.com/Tutortoise/ascii-vtuber/render"
	"github.com/Tutortoise/ascii-vtuber/tracker"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.New()

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.WithError(err).Error("tracker stopped")
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}
	var cfg config.Tracker
	fs := flag.NewFlagSet("tracker", flag.ExitOnError)
	cfg.Register(fs)
	fs.Parse(args)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "flags")
	}

	log = logger.New(os.Stderr, cfg.Debug)
	runID := uuid.NewString()
	entry := log.WithField("run_id", runID)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithLogEntry(ctx, entry)

	src, err := capture.Open(cfg.SourceRef(), capture.YUYVFormat(cfg.Width, cfg.Height))
	if err != nil {
		return err
	}
	defer src.Close()
	entry.WithField("source", cfg.SourceRef()).
		WithField("format", src.Format().String()).
		Info("capture opened")

	release, err := detections.InitRuntime(cfg.ORTLib)
	if err != nil {
		return err
	}
	defer release()

	session, err := detections.LoadModel(detections.ModelOptions{
		Path:    cfg.Model,
		Batch:   cfg.Batch,
		Threads: cfg.Threads,
	})
	if err != nil {
		return err
	}
	defer session.Destroy()
	entry.WithField("model", cfg.Model).
		WithField("input", session.InputShape().String()).
		Info("model loaded")

	strategy, err := detections.NewBatchStrategy(cfg.BatchStrategy, session.InputShape().N())
	if err != nil {
		return err
	}
	proc, err := detections.NewProcessor(session, strategy, float32(cfg.Threshold))
	if err != nil {
		return err
	}

	sender, err := motion.NewSender(cfg.Addr)
	if err != nil {
		return err
	}
	defer sender.Close()

	metrics := tracker.NewMetrics(runID)
	opts := []tracker.Option{
		tracker.WithMetrics(metrics),
		tracker.WithMapper(pose.NewMapper(pose.Config{
			MaxYaw:    cfg.MaxYaw(),
			MaxPitch:  cfg.MaxPitch(),
			Mirror:    cfg.Mirror,
			Smoothing: cfg.Smoothing,
		})),
		tracker.WithMotionGate(cfg.MotionGate),
		tracker.WithMaxFrames(cfg.Frames),
		tracker.WithDebug(cfg.Debug),
	}
	if cfg.Preview > 0 {
		term := render.NewTerminal(os.Stdout, int(os.Stdout.Fd()))
		opts = append(opts, tracker.WithPreview(&tracker.Preview{
			Every: cfg.Preview,
			Out:   os.Stdout,
			Size:  term.SizeOrDefault,
		}))
	}
	tr, err := tracker.New(src, proc, sender, opts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return tracker.ServeMonitoring(gctx, cfg.MetricsAddr, metrics)
		})
	}
	g.Go(func() error {
		defer cancel()
		return tr.Run(gctx)
	})

	err = g.Wait()
	s := metrics.Snapshot()
	entry.WithField("frames", s.Frames).
		WithField("found", s.Found).
		WithField("sent", s.Sent).
		WithField("send_errors", s.SendErrors).
		Info("tracker exiting")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
