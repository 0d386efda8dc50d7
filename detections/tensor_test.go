package detections

import (
	"testing"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, r, g, b byte) models.ConvertedImage {
	img := models.ConvertedImage{Width: w, Height: h, Pix: make([]byte, w*h*3)}
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
	}
	return img
}

func TestAssembleShapeAndChannelOrder(t *testing.T) {
	shape := models.Shape{2, 3, InputHeight, InputWidth}
	a, err := NewAssembler(shape, Replicate{})
	require.NoError(t, err)

	tensor := a.Assemble(solidImage(100, 60, 255, 0, 51))
	require.Equal(t, shape, tensor.Shape)
	require.Len(t, tensor.Data, shape.Elements())

	plane := InputHeight * InputWidth
	for n := 0; n < 2; n++ {
		base := n * 3 * plane
		for i := 0; i < plane; i++ {
			require.Equal(t, float32(1), tensor.Data[base+i])
			require.Equal(t, float32(0), tensor.Data[base+plane+i])
			require.InDelta(t, 0.2, tensor.Data[base+2*plane+i], 1e-6)
		}
	}
}

func TestAssembleGradientKeepsLayout(t *testing.T) {
	// A left-to-right red ramp must stay a ramp along x in channel 0.
	img := models.ConvertedImage{Width: 64, Height: 64, Pix: make([]byte, 64*64*3)}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Pix[(y*64+x)*3] = byte(x * 4)
		}
	}
	a, err := NewAssembler(models.Shape{1, 3, InputHeight, InputWidth}, nil)
	require.NoError(t, err)
	tensor := a.Assemble(img)

	row := tensor.Data[5*InputWidth : 6*InputWidth]
	for x := 1; x < InputWidth; x++ {
		require.Greater(t, row[x], row[x-1])
	}
}

func TestAssembleMalformedPanics(t *testing.T) {
	a, err := NewAssembler(models.Shape{1, 3, InputHeight, InputWidth}, nil)
	require.NoError(t, err)
	require.Panics(t, func() {
		a.Assemble(models.ConvertedImage{Width: 10, Height: 10, Pix: make([]byte, 10)})
	})
}

func TestNewAssemblerRejectsShape(t *testing.T) {
	_, err := NewAssembler(models.Shape{1, 1, 32, 32}, nil)
	require.Error(t, err)
	_, err = NewAssembler(models.Shape{0, 3, 32, 32}, nil)
	require.Error(t, err)
}

func TestReplicateFill(t *testing.T) {
	dst := make([]float32, 6)
	Replicate{}.Fill(dst, []float32{1, 2}, 3)
	require.Equal(t, []float32{1, 2, 1, 2, 1, 2}, dst)
}

func TestRingBufferFill(t *testing.T) {
	r := NewRingBuffer(3)
	dst := make([]float32, 6)

	steps := []struct {
		frame []float32
		want  []float32
	}{
		{frame: []float32{1, 1}, want: []float32{1, 1, 1, 1, 1, 1}},
		{frame: []float32{2, 2}, want: []float32{1, 1, 1, 1, 2, 2}},
		{frame: []float32{3, 3}, want: []float32{1, 1, 2, 2, 3, 3}},
		{frame: []float32{4, 4}, want: []float32{2, 2, 3, 3, 4, 4}},
		{frame: []float32{5, 5}, want: []float32{3, 3, 4, 4, 5, 5}},
	}
	for _, s := range steps {
		r.Fill(dst, s.frame, 3)
		require.Equal(t, s.want, dst)
	}
}

func TestRingBufferCopiesFrame(t *testing.T) {
	r := NewRingBuffer(2)
	frame := []float32{7}
	dst := make([]float32, 2)
	r.Fill(dst, frame, 2)
	frame[0] = 9
	r.Fill(dst, frame, 2)
	require.Equal(t, []float32{7, 9}, dst)
}

func TestNewBatchStrategy(t *testing.T) {
	s, err := NewBatchStrategy("", 4)
	require.NoError(t, err)
	require.Equal(t, StrategyReplicate, s.Name())

	s, err = NewBatchStrategy(StrategyRing, 4)
	require.NoError(t, err)
	require.Equal(t, StrategyRing, s.Name())

	_, err = NewBatchStrategy("temporal", 4)
	require.Error(t, err)
}
