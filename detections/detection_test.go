package detections

import (
	"context"
	"errors"
	"testing"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

type stubEngine struct {
	shape  models.Shape
	grid   *models.ActivationGrid
	err    error
	inputs []*models.InputTensor
}

func (s *stubEngine) InputShape() models.Shape { return s.shape }

func (s *stubEngine) Infer(_ context.Context, tensor *models.InputTensor) (*models.ActivationGrid, error) {
	s.inputs = append(s.inputs, tensor)
	if s.err != nil {
		return nil, s.err
	}
	return s.grid, nil
}

func (s *stubEngine) Destroy() {}

func TestEndToEndGrayFrameNotFound(t *testing.T) {
	engine := &stubEngine{
		shape: models.Shape{2, 3, InputHeight, InputWidth},
		grid:  newGrid(1, 1, 8, 8),
	}
	p, err := NewProcessor(engine, Replicate{}, ConfThreshold)
	require.NoError(t, err)

	frame := yuyvFrame(640, 480, 128, 128, 128)
	var timings models.ProcessingTimings
	img, est, err := p.ProcessFrame(context.Background(), frame, &timings)
	require.NoError(t, err)

	require.Equal(t, 640, img.Width)
	require.Equal(t, 480, img.Height)
	for _, b := range img.Pix {
		require.Equal(t, byte(128), b)
	}

	require.Len(t, engine.inputs, 1)
	tensor := engine.inputs[0]
	require.Equal(t, engine.shape, tensor.Shape)
	first := tensor.Data[0]
	require.InDelta(t, 128.0/255.0, first, 1e-6)
	for _, v := range tensor.Data {
		require.Equal(t, first, v)
	}

	require.False(t, est.Found)
}

func TestEstimateFound(t *testing.T) {
	grid := newGrid(1, 1, 4, 4)
	set(grid, 0, 0, 3, 0, 0.95)
	engine := &stubEngine{shape: models.Shape{1, 3, InputHeight, InputWidth}, grid: grid}
	p, err := NewProcessor(engine, nil, ConfThreshold)
	require.NoError(t, err)

	est, err := p.Estimate(context.Background(), solidImage(640, 480, 10, 20, 30), nil)
	require.NoError(t, err)
	require.True(t, est.Found)
	require.Equal(t, 80, est.X)
	require.Equal(t, 420, est.Y)
}

func TestEstimateInferenceFault(t *testing.T) {
	engine := &stubEngine{
		shape: models.Shape{1, 3, InputHeight, InputWidth},
		err:   faults.Wrap(faults.InferenceFault, errors.New("boom"), "model inference"),
	}
	p, err := NewProcessor(engine, nil, ConfThreshold)
	require.NoError(t, err)

	_, err = p.Estimate(context.Background(), solidImage(8, 8, 0, 0, 0), nil)
	require.True(t, faults.Is(err, faults.InferenceFault))
	require.Len(t, engine.inputs, 1, "inference faults are not retried")
}

func TestCheckInputDims(t *testing.T) {
	testCases := []struct {
		desc  string
		dims  ort.Shape
		batch int
		want  models.Shape
		fault bool
	}{
		{desc: "fixed", dims: ort.Shape{1, 3, 32, 32}, batch: 1, want: models.Shape{1, 3, 32, 32}},
		{desc: "fixed batch from model", dims: ort.Shape{4, 3, 32, 32}, batch: 1, want: models.Shape{4, 3, 32, 32}},
		{desc: "dynamic batch", dims: ort.Shape{-1, 3, 32, 32}, batch: 3, want: models.Shape{3, 3, 32, 32}},
		{desc: "batch mismatch", dims: ort.Shape{4, 3, 32, 32}, batch: 2, fault: true},
		{desc: "wrong resolution", dims: ort.Shape{1, 3, 64, 64}, batch: 1, fault: true},
		{desc: "wrong channels", dims: ort.Shape{1, 1, 32, 32}, batch: 1, fault: true},
		{desc: "wrong rank", dims: ort.Shape{1, 3, 32}, batch: 1, fault: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got, err := checkInputDims(tC.dims, tC.batch)
			if tC.fault {
				require.True(t, faults.Is(err, faults.ModelLoadFault), "err = %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tC.want, got)
		})
	}
}

func TestCheckOutputDims(t *testing.T) {
	got, err := checkOutputDims(ort.Shape{-1, 1, 8, 8}, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1, 8, 8}, got)

	_, err = checkOutputDims(ort.Shape{1, 5, 8400}, 1)
	require.True(t, faults.Is(err, faults.ModelLoadFault))

	_, err = checkOutputDims(ort.Shape{1, 1, -1, 8}, 1)
	require.True(t, faults.Is(err, faults.ModelLoadFault))
}

func TestGridFromOutput(t *testing.T) {
	grid, err := gridFromOutput([]float32{0, 1, 2, 3}, []int64{1, 1, 2, 2})
	require.NoError(t, err)
	require.Equal(t, models.Shape{1, 1, 2, 2}, grid.Shape)
	require.Equal(t, []float32{0, 1, 2, 3}, grid.Data)

	grid, err = gridFromOutput([]float32{0, 1, 2, 3, 4, 5, 6, 7}, []int64{1, 1, 2, 2, 2})
	require.NoError(t, err)
	require.Equal(t, []float32{0, 2, 4, 6}, grid.Data)

	_, err = gridFromOutput([]float32{0, 1}, []int64{1, 1, 2, 2})
	require.True(t, faults.Is(err, faults.InferenceFault))
}

func TestLoadModelMissingArtifact(t *testing.T) {
	_, err := LoadModel(ModelOptions{Path: t.TempDir() + "/missing.onnx"})
	require.True(t, faults.Is(err, faults.ModelLoadFault))
}
