package detections

import (
	"context"
	"time"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/pkg/errors"
)

// Engine executes the fixed network on one input tensor.
type Engine interface {
	InputShape() models.Shape
	Infer(ctx context.Context, tensor *models.InputTensor) (*models.ActivationGrid, error)
	Destroy()
}

// Processor runs preprocessing, inference and decoding strictly in sequence.
type Processor struct {
	Assembler *Assembler
	Engine    Engine
	Decoder   *Decoder
}

func NewProcessor(engine Engine, strategy BatchStrategy, threshold float32) (*Processor, error) {
	assembler, err := NewAssembler(engine.InputShape(), strategy)
	if err != nil {
		return nil, errors.Wrap(err, "NewAssembler")
	}
	return &Processor{
		Assembler: assembler,
		Engine:    engine,
		Decoder:   NewDecoder(threshold),
	}, nil
}

// Estimate assembles img into a tensor, runs inference and decodes the result
// in img's coordinate space. timings may be nil.
func (p *Processor) Estimate(ctx context.Context, img models.ConvertedImage, timings *models.ProcessingTimings) (models.PoseEstimate, error) {
	if timings == nil {
		timings = &models.ProcessingTimings{}
	}

	prepStart := time.Now()
	tensor := p.Assembler.Assemble(img)
	timings.Preprocess = time.Since(prepStart)

	inferStart := time.Now()
	grid, err := p.Engine.Infer(ctx, tensor)
	timings.Inference = time.Since(inferStart)
	if err != nil {
		return models.PoseEstimate{}, err
	}

	decodeStart := time.Now()
	est, err := p.Decoder.Decode(grid, img.Width, img.Height)
	timings.Decode = time.Since(decodeStart)
	if err != nil {
		return models.PoseEstimate{}, err
	}
	return est, nil
}

// ProcessFrame converts frame and estimates the pose in one call.
func (p *Processor) ProcessFrame(ctx context.Context, frame models.RawFrame, timings *models.ProcessingTimings) (models.ConvertedImage, models.PoseEstimate, error) {
	if timings == nil {
		timings = &models.ProcessingTimings{}
	}
	convStart := time.Now()
	img := ConvertYUYV(frame)
	timings.Convert = time.Since(convStart)

	est, err := p.Estimate(ctx, img, timings)
	return img, est, err
}
