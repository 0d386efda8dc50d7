package config

import (
	"flag"

	"github.com/pkg/errors"
)

type Renderer struct {
	Listen     string
	Asset      string
	FPS        int
	Pacing     string
	Shade      bool
	CellAspect float64
	Replay     string
	StatsEvery int
	Keys       bool
	Debug      bool
}

func (r *Renderer) Register(fs *flag.FlagSet) {
	fs.StringVar(&r.Listen, "listen", "127.0.0.1:4000", "motion record listen address")
	fs.StringVar(&r.Asset, "asset", "builtin:torus", "mesh: builtin:torus, builtin:cube or a .cbor file")
	fs.IntVar(&r.FPS, "fps", 30, "target frames per second")
	fs.StringVar(&r.Pacing, "pacing", "fixed", "frame pacing: fixed or measured")
	fs.BoolVar(&r.Shade, "shade", false, "shade vertices instead of a fixed marker")
	fs.Float64Var(&r.CellAspect, "cell-aspect", 1, "aspect correction for non-square character cells")
	fs.StringVar(&r.Replay, "replay", "", "replay motion datagrams from a pcap file instead of listening")
	fs.IntVar(&r.StatsEvery, "stats-every", 0, "log frame-time statistics every N frames")
	fs.BoolVar(&r.Keys, "keys", true, "read q/s/r key commands from the tty")
	fs.BoolVar(&r.Debug, "debug", envBool(EnvDebug, false), "debug logging")
}

func (r *Renderer) Validate() error {
	switch {
	case r.FPS <= 0:
		return errors.Errorf("fps must be positive, got %d", r.FPS)
	case r.Pacing != "fixed" && r.Pacing != "measured":
		return errors.Errorf("unknown pacing %q", r.Pacing)
	case r.CellAspect <= 0:
		return errors.Errorf("cell aspect must be positive, got %v", r.CellAspect)
	case r.StatsEvery < 0:
		return errors.New("stats-every must not be negative")
	case r.Listen == "" && r.Replay == "":
		return errors.New("one of -listen or -replay is required")
	case r.Asset == "":
		return errors.New("-asset is required")
	}
	return nil
}
