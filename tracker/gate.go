package tracker

import (
	"image"

	"github.com/corona10/goimagehash"
	"github.com/pkg/errors"
)

// gateHashDim is the perceptual hash side length; 8 gives a 64-bit hash.
const gateHashDim = 8

// MotionGate reports frames that look the same as the last frame that went
// through inference.
type MotionGate struct {
	minDist int
	last    *goimagehash.ExtImageHash
}

// NewMotionGate returns a gate that treats frames closer than minDist as
// unchanged. A minDist of zero passes every frame.
func NewMotionGate(minDist int) *MotionGate {
	return &MotionGate{minDist: minDist}
}

func (g *MotionGate) Enabled() bool { return g.minDist > 0 }

// Unchanged reports whether img can reuse the previous estimate. When it
// returns false, img becomes the new reference.
func (g *MotionGate) Unchanged(img image.Image) (bool, int, error) {
	if g.minDist <= 0 {
		return false, 0, nil
	}
	hash, err := goimagehash.ExtPerceptionHash(img, gateHashDim, gateHashDim)
	if err != nil {
		return false, 0, errors.Wrap(err, "ExtPerceptionHash")
	}
	if g.last == nil {
		g.last = hash
		return false, 0, nil
	}
	distance, err := g.last.Distance(hash)
	if err != nil {
		return false, 0, errors.Wrap(err, "ExtPerceptionHash Distance")
	}
	if distance < g.minDist {
		return true, distance, nil
	}
	g.last = hash
	return false, distance, nil
}
