package detections

import (
	"context"
	"os"
	"runtime"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
	ort "github.com/yalue/onnxruntime_go"
)

// InitRuntime loads the onnxruntime shared library. The returned func
// releases the environment.
func InitRuntime(libPath string) (func(), error) {
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, faults.Wrap(faults.ModelLoadFault, err, "initialize onnxruntime")
	}
	return func() { _ = ort.DestroyEnvironment() }, nil
}

type ModelOptions struct {
	Path string
	// Batch is used when the model leaves its batch dimension dynamic.
	Batch   int
	Threads int
}

// ModelSession owns one onnxruntime session and its fixed input and output
// tensors. It is single-owner; Destroy releases everything.
type ModelSession struct {
	Session    *ort.AdvancedSession
	Input      *ort.Tensor[float32]
	Output     *ort.Tensor[float32]
	inputShape models.Shape
	outDims    []int64
}

var _ Engine = &ModelSession{}

// LoadModel inspects the artifact at opts.Path, checks it against the
// [N,3,InputHeight,InputWidth] input contract and opens a session.
func LoadModel(opts ModelOptions) (*ModelSession, error) {
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, faults.Wrap(faults.ModelLoadFault, err, "model artifact")
	}
	inputs, outputs, err := ort.GetInputOutputInfo(opts.Path)
	if err != nil {
		return nil, faults.Wrap(faults.ModelLoadFault, err, "read model inputs and outputs")
	}
	if len(inputs) < 1 || len(outputs) < 1 {
		return nil, faults.New(faults.ModelLoadFault, "model has %d inputs and %d outputs", len(inputs), len(outputs))
	}

	inShape, err := checkInputDims(inputs[0].Dimensions, opts.Batch)
	if err != nil {
		return nil, err
	}
	outDims, err := checkOutputDims(outputs[0].Dimensions, inShape.N())
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, faults.Wrap(faults.ModelLoadFault, err, "create session options")
	}
	defer options.Destroy()

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options.SetIntraOpNumThreads(threads)
	options.SetInterOpNumThreads(1)

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(inShape.N()), int64(inShape.C()), int64(inShape.H()), int64(inShape.W())))
	if err != nil {
		return nil, faults.Wrap(faults.ModelLoadFault, err, "create input tensor")
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outDims...))
	if err != nil {
		inputTensor.Destroy()
		return nil, faults.Wrap(faults.ModelLoadFault, err, "create output tensor")
	}

	session, err := ort.NewAdvancedSession(
		opts.Path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, faults.Wrap(faults.ModelLoadFault, err, "create session")
	}

	return &ModelSession{
		Session:    session,
		Input:      inputTensor,
		Output:     outputTensor,
		inputShape: inShape,
		outDims:    outDims,
	}, nil
}

func checkInputDims(dims ort.Shape, batch int) (models.Shape, error) {
	if len(dims) != 4 {
		return models.Shape{}, faults.New(faults.ModelLoadFault, "model input has %d dims, want 4", len(dims))
	}
	if batch <= 0 {
		batch = DefaultBatch
	}
	n := int(dims[0])
	switch {
	case n <= 0:
		n = batch
	case n != batch && batch != DefaultBatch:
		return models.Shape{}, faults.New(faults.ModelLoadFault, "model batch is %d, configured %d", n, batch)
	}
	want := [3]int64{InputChannels, InputHeight, InputWidth}
	for i, w := range want {
		if d := dims[i+1]; d > 0 && d != w {
			return models.Shape{}, faults.New(faults.ModelLoadFault, "model input shape %v, want [N,%d,%d,%d]",
				dims, InputChannels, InputHeight, InputWidth)
		}
	}
	return models.Shape{n, InputChannels, InputHeight, InputWidth}, nil
}

func checkOutputDims(dims ort.Shape, batch int) ([]int64, error) {
	if len(dims) < 4 {
		return nil, faults.New(faults.ModelLoadFault, "model output has %d dims, want at least 4", len(dims))
	}
	out := make([]int64, len(dims))
	copy(out, dims)
	if out[0] <= 0 {
		out[0] = int64(batch)
	}
	for i, d := range out {
		if d <= 0 {
			return nil, faults.New(faults.ModelLoadFault, "model output dim %d is dynamic (%v)", i, dims)
		}
	}
	return out, nil
}

func (m *ModelSession) InputShape() models.Shape { return m.inputShape }

// Infer runs one inference call. Failures are InferenceFaults and are not retried.
func (m *ModelSession) Infer(ctx context.Context, tensor *models.InputTensor) (*models.ActivationGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tensor.Shape != m.inputShape || len(tensor.Data) != m.inputShape.Elements() {
		return nil, faults.New(faults.InferenceFault, "input tensor %s, session expects %s", tensor.Shape, m.inputShape)
	}
	copy(m.Input.GetData(), tensor.Data)

	if err := m.Session.Run(); err != nil {
		return nil, faults.Wrap(faults.InferenceFault, err, "model inference")
	}
	return gridFromOutput(m.Output.GetData(), m.outDims)
}

// gridFromOutput copies the first four dims of the output. Trailing dims
// beyond the decode grid are sampled at index 0.
func gridFromOutput(data []float32, dims []int64) (*models.ActivationGrid, error) {
	shape := models.Shape{int(dims[0]), int(dims[1]), int(dims[2]), int(dims[3])}
	inner := 1
	for _, d := range dims[4:] {
		inner *= int(d)
	}
	if len(data) < shape.Elements()*inner {
		return nil, faults.New(faults.InferenceFault, "output holds %d values, shape %v needs %d",
			len(data), dims, shape.Elements()*inner)
	}
	grid := &models.ActivationGrid{Shape: shape, Data: make([]float32, shape.Elements())}
	if inner == 1 {
		copy(grid.Data, data)
		return grid, nil
	}
	for i := range grid.Data {
		grid.Data[i] = data[i*inner]
	}
	return grid, nil
}

func (m *ModelSession) Destroy() {
	if m.Session != nil {
		m.Session.Destroy()
	}
	if m.Input != nil {
		m.Input.Destroy()
	}
	if m.Output != nil {
		m.Output.Destroy()
	}
}
