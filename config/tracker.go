package config

import (
	"flag"
	"math"
	"strings"

	"github.com/pkg/errors"
)

type Tracker struct {
	Source        string
	Device        string
	Width         int
	Height        int
	Model         string
	ORTLib        string
	Batch         int
	BatchStrategy string
	Threads       int
	Threshold     float64
	Addr          string
	MaxYawDeg     float64
	MaxPitchDeg   float64
	Smoothing     float64
	Mirror        bool
	MetricsAddr   string
	Preview       int
	MotionGate    int
	Frames        int
	Debug         bool
}

// Register binds every tracker flag on fs.
func (t *Tracker) Register(fs *flag.FlagSet) {
	fs.StringVar(&t.Source, "source", "v4l2", "frame source: v4l2, file:<path> or synthetic[:spot]")
	fs.StringVar(&t.Device, "device", "", "V4L2 device path, empty scans /dev/video0-9")
	fs.IntVar(&t.Width, "width", 640, "requested capture width")
	fs.IntVar(&t.Height, "height", 480, "requested capture height")
	fs.StringVar(&t.Model, "model", envString(EnvModel, "models/headpose.onnx"), "ONNX model path")
	fs.StringVar(&t.ORTLib, "ort-lib", envString(EnvORTLib, ""), "onnxruntime shared library path")
	fs.IntVar(&t.Batch, "batch", 1, "batch size when the model leaves it dynamic")
	fs.StringVar(&t.BatchStrategy, "batch-strategy", "replicate", "how batch slots are filled: replicate or ring")
	fs.IntVar(&t.Threads, "threads", 0, "onnxruntime intra-op threads, 0 uses every CPU")
	fs.Float64Var(&t.Threshold, "threshold", 0.5, "minimum activation for a detection")
	fs.StringVar(&t.Addr, "addr", "127.0.0.1:4000", "motion record destination")
	fs.Float64Var(&t.MaxYawDeg, "max-yaw", 45, "yaw in degrees at the image edge")
	fs.Float64Var(&t.MaxPitchDeg, "max-pitch", 30, "pitch in degrees at the image edge")
	fs.Float64Var(&t.Smoothing, "smoothing", 0, "weight kept from the previous pose, 0 disables")
	fs.BoolVar(&t.Mirror, "mirror", false, "flip yaw for front-facing cameras")
	fs.StringVar(&t.MetricsAddr, "metrics-addr", "", "serve /metrics and /pose on this address")
	fs.IntVar(&t.Preview, "preview", 0, "draw the frame as ansi art every N frames")
	fs.IntVar(&t.MotionGate, "motion-gate", 0, "reuse the last estimate when the perceptual hash distance is below this")
	fs.IntVar(&t.Frames, "frames", 0, "stop after N frames, 0 runs forever")
	fs.BoolVar(&t.Debug, "debug", envBool(EnvDebug, false), "debug logging and per-frame timings")
}

func (t *Tracker) Validate() error {
	switch {
	case t.Width <= 0 || t.Height <= 0:
		return errors.Errorf("invalid capture size %dx%d", t.Width, t.Height)
	case t.Width%2 != 0:
		return errors.Errorf("capture width %d must be even", t.Width)
	case t.Batch < 1:
		return errors.Errorf("batch must be at least 1, got %d", t.Batch)
	case t.BatchStrategy != "replicate" && t.BatchStrategy != "ring":
		return errors.Errorf("unknown batch strategy %q", t.BatchStrategy)
	case t.Threshold < 0 || t.Threshold > 1:
		return errors.Errorf("threshold %v outside [0,1]", t.Threshold)
	case t.Smoothing < 0 || t.Smoothing >= 1:
		return errors.Errorf("smoothing %v outside [0,1)", t.Smoothing)
	case t.MaxYawDeg < 0 || t.MaxYawDeg > 180 || t.MaxPitchDeg < 0 || t.MaxPitchDeg > 180:
		return errors.Errorf("max angles must be within [0,180] degrees")
	case t.Preview < 0 || t.MotionGate < 0 || t.Frames < 0 || t.Threads < 0:
		return errors.New("counts must not be negative")
	case t.Addr == "":
		return errors.New("-addr is required")
	}
	if !strings.HasPrefix(t.Source, "file:") && !strings.HasPrefix(t.Source, "synthetic") && t.Source != "v4l2" {
		return errors.Errorf("unknown source %q", t.Source)
	}
	return nil
}

func (t *Tracker) MaxYaw() float64   { return t.MaxYawDeg * math.Pi / 180 }
func (t *Tracker) MaxPitch() float64 { return t.MaxPitchDeg * math.Pi / 180 }

// SourceRef folds -device into a v4l2 source.
func (t *Tracker) SourceRef() string {
	if t.Source == "v4l2" && t.Device != "" {
		return "v4l2:" + t.Device
	}
	return t.Source
}
