package models

import (
	"fmt"
	"time"
)

// RawFrame is one captured YUYV 4:2:2 frame. Stride is the byte length of a
// row and is at least Width*2.
type RawFrame struct {
	Width  int
	Height int
	Stride int
	Data   []byte
	Seq    uint64
}

// ConvertedImage is a Width×Height×3 RGB buffer derived from one RawFrame.
type ConvertedImage struct {
	Width  int
	Height int
	Pix    []byte
}

// Shape is a 4-dimensional tensor shape in N, C, H, W order.
type Shape [4]int

func (s Shape) N() int { return s[0] }
func (s Shape) C() int { return s[1] }
func (s Shape) H() int { return s[2] }
func (s Shape) W() int { return s[3] }

func (s Shape) Elements() int {
	return s[0] * s[1] * s[2] * s[3]
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", s[0], s[1], s[2], s[3])
}

// InputTensor holds values in [0,1], channel-major within each batch entry.
type InputTensor struct {
	Shape Shape
	Data  []float32
}

// ActivationGrid is the raw network output. Only batch 0, channel 0 is decoded.
type ActivationGrid struct {
	Shape Shape
	Data  []float32
}

// At returns the value at batch n, channel c, row y, column x.
func (g *ActivationGrid) At(n, c, y, x int) float32 {
	s := g.Shape
	return g.Data[((n*s.C()+c)*s.H()+y)*s.W()+x]
}

// PoseEstimate is the decoded image-space position. Found is false when the
// strongest activation fell below the confidence threshold.
type PoseEstimate struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Confidence float32 `json:"confidence"`
	Found      bool    `json:"found"`
}

// MotionRecord is the only payload crossing the tracker/renderer boundary.
// Angles are in radians.
type MotionRecord struct {
	Pitch float32 `json:"pitch"`
	Yaw   float32 `json:"yaw"`
	Roll  float32 `json:"roll"`
}

type ProcessingTimings struct {
	Frame      uint64
	Capture    time.Duration
	Convert    time.Duration
	Preprocess time.Duration
	Inference  time.Duration
	Decode     time.Duration
	Send       time.Duration
	Total      time.Duration
}
