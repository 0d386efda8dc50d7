// Package pose turns an image-space PoseEstimate into head rotation angles.
package pose

import (
	"math"

	"github.com/Tutortoise/ascii-vtuber/models"
)

const (
	DefaultMaxYaw   = math.Pi / 4
	DefaultMaxPitch = math.Pi / 6
)

type Config struct {
	// MaxYaw and MaxPitch are the angles, in radians, reached when the
	// estimate sits on the image edge.
	MaxYaw   float64
	MaxPitch float64
	// Mirror flips yaw for front-facing cameras.
	Mirror bool
	// Smoothing is the weight kept from the previous output, in [0,1).
	// Zero disables smoothing.
	Smoothing float64
}

func DefaultConfig() Config {
	return Config{MaxYaw: DefaultMaxYaw, MaxPitch: DefaultMaxPitch}
}

// Mapper is stateful only through smoothing; it is not safe for concurrent use.
type Mapper struct {
	cfg    Config
	prev   models.MotionRecord
	primed bool
}

func NewMapper(cfg Config) *Mapper {
	cfg.Smoothing = clamp(cfg.Smoothing, 0, 0.99)
	return &Mapper{cfg: cfg}
}

// Map converts est into a MotionRecord. It returns false when est was not
// found, in which case nothing should be sent.
func (m *Mapper) Map(est models.PoseEstimate, imageW, imageH int) (models.MotionRecord, bool) {
	if !est.Found || imageW <= 0 || imageH <= 0 {
		return models.MotionRecord{}, false
	}
	nx := clamp(2*float64(est.X)/float64(imageW)-1, -1, 1)
	ny := clamp(2*float64(est.Y)/float64(imageH)-1, -1, 1)

	yaw := nx * m.cfg.MaxYaw
	if m.cfg.Mirror {
		yaw = -yaw
	}
	rec := models.MotionRecord{
		Pitch: float32(ny * m.cfg.MaxPitch),
		Yaw:   float32(yaw),
	}

	if m.primed && m.cfg.Smoothing > 0 {
		a := float32(1 - m.cfg.Smoothing)
		rec.Pitch = m.prev.Pitch + a*(rec.Pitch-m.prev.Pitch)
		rec.Yaw = m.prev.Yaw + a*(rec.Yaw-m.prev.Yaw)
	}
	m.prev = rec
	m.primed = true
	return rec, true
}

// Reset drops smoothing history so the next estimate is taken as-is.
func (m *Mapper) Reset() {
	m.primed = false
	m.prev = models.MotionRecord{}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
