package detections

import (
	"fmt"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/disintegration/imaging"
)

// Assembler turns converted frames into network input tensors of one fixed
// shape. It is not safe for concurrent use when the strategy keeps history.
type Assembler struct {
	shape    models.Shape
	strategy BatchStrategy
	frame    []float32
}

func NewAssembler(shape models.Shape, strategy BatchStrategy) (*Assembler, error) {
	if shape.C() != InputChannels {
		return nil, fmt.Errorf("input tensor needs %d channels, got shape %s", InputChannels, shape)
	}
	if shape.N() < 1 || shape.H() < 1 || shape.W() < 1 {
		return nil, fmt.Errorf("invalid input tensor shape %s", shape)
	}
	if strategy == nil {
		strategy = Replicate{}
	}
	return &Assembler{
		shape:    shape,
		strategy: strategy,
		frame:    make([]float32, shape.C()*shape.H()*shape.W()),
	}, nil
}

func (a *Assembler) Shape() models.Shape { return a.shape }

// Assemble resizes img with a triangle filter to the network resolution,
// scales bytes to [0,1], reorders to CHW and fills the batch. A source whose
// buffer does not match its dimensions is a caller bug and panics.
func (a *Assembler) Assemble(img models.ConvertedImage) *models.InputTensor {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) != img.Width*img.Height*3 {
		panic(fmt.Sprintf("detections: malformed image %dx%d with %d bytes", img.Width, img.Height, len(img.Pix)))
	}

	resized := imaging.Resize(ToNRGBA(img), a.shape.W(), a.shape.H(), imaging.Linear)
	fillCHW(a.frame, resized, a.shape.W(), a.shape.H())

	data := make([]float32, a.shape.Elements())
	a.strategy.Fill(data, a.frame, a.shape.N())
	return &models.InputTensor{Shape: a.shape, Data: data}
}
