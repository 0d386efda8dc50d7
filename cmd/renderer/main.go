package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tutortoise/ascii-vtuber/config"
	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/motion"
	"github.com/Tutortoise/ascii-vtuber/render"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.New()

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.WithError(err).Error("renderer stopped")
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}
	var cfg config.Renderer
	fs := flag.NewFlagSet("renderer", flag.ExitOnError)
	cfg.Register(fs)
	fs.Parse(args)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "flags")
	}

	log = logger.New(os.Stderr, cfg.Debug)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithLogEntry(ctx, logrus.NewEntry(log))

	mesh, err := render.LoadAsset(cfg.Asset)
	if err != nil {
		return err
	}
	pacer, err := render.NewPacer(cfg.Pacing, cfg.FPS, nil)
	if err != nil {
		return err
	}
	cam := render.DefaultCamera()
	cam.CellAspect = float32(cfg.CellAspect)

	cache := motion.NewLastKnown(nil)
	term := render.NewTerminal(os.Stdout, int(os.Stdout.Fd()))
	r := render.NewRenderer(term, cache, render.Options{
		Mesh:       mesh,
		Camera:     cam,
		Offset:     render.DefaultOffset,
		Pacer:      pacer,
		Shade:      cfg.Shade,
		StatsEvery: cfg.StatsEvery,
	})

	restore, err := term.HideCursor()
	defer restore()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Replay != "" {
		g.Go(func() error {
			_, err := motion.Replay(gctx, motion.ReplayConfig{
				Path:     cfg.Replay,
				Cache:    cache,
				Realtime: true,
			})
			return err
		})
	} else {
		listener := motion.NewUDPListener(motion.ListenerConfig{
			Address:     cfg.Listen,
			Cache:       cache,
			LogInterval: time.Minute,
		})
		g.Go(func() error {
			return listener.Start(gctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return r.Run(gctx)
	})
	if cfg.Keys {
		if t := openKeys(gctx); t != nil {
			// Close restores echo and line mode, so it must finish before
			// run returns.
			defer func() {
				if err := t.Close(); err != nil {
					log.WithError(err).Warn("restore tty")
				}
			}()
			go scanKeys(gctx, t, keyMap(cancel, r, cache))
		}
	}

	err = g.Wait()
	restore()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
