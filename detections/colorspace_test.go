package detections

import (
	"math/rand"
	"testing"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/stretchr/testify/require"
)

func yuyvFrame(w, h int, y, u, v byte) models.RawFrame {
	data := make([]byte, w*h*2)
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = y, u, y, v
	}
	return models.RawFrame{Width: w, Height: h, Stride: w * 2, Data: data}
}

func TestConvertGrayIsIdentity(t *testing.T) {
	for y := 0; y < 256; y++ {
		img := ConvertYUYV(yuyvFrame(2, 1, byte(y), 128, 128))
		require.Equal(t, []byte{byte(y), byte(y), byte(y), byte(y), byte(y), byte(y)}, img.Pix, "Y=%d", y)
	}
}

func TestConvertKnownValues(t *testing.T) {
	testCases := []struct {
		desc    string
		y, u, v byte
		want    [3]byte
	}{
		{desc: "red", y: 81, u: 90, v: 240, want: [3]byte{238, 14, 14}},
		{desc: "clamp high", y: 255, u: 255, v: 255, want: [3]byte{255, 121, 255}},
		{desc: "clamp low", y: 0, u: 0, v: 0, want: [3]byte{0, 135, 0}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			img := ConvertYUYV(yuyvFrame(2, 1, tC.y, tC.u, tC.v))
			require.Equal(t, tC.want[:], img.Pix[:3])
			require.Equal(t, tC.want[:], img.Pix[3:])
		})
	}
}

func TestConvertPairSharesChroma(t *testing.T) {
	frame := models.RawFrame{Width: 2, Height: 1, Data: []byte{10, 128, 200, 128}}
	img := ConvertYUYV(frame)
	require.Equal(t, []byte{10, 10, 10, 200, 200, 200}, img.Pix)
}

func TestConvertHonorsStride(t *testing.T) {
	frame := models.RawFrame{
		Width:  2,
		Height: 2,
		Stride: 6,
		Data: []byte{
			50, 128, 60, 128, 0xee, 0xee,
			70, 128, 80, 128,
		},
	}
	img := ConvertYUYV(frame)
	require.Equal(t, []byte{50, 50, 50, 60, 60, 60, 70, 70, 70, 80, 80, 80}, img.Pix)
}

func TestConvertRandomGroupsInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const w, h = 64, 8
	data := make([]byte, w*h*2)
	rng.Read(data)
	img := ConvertYUYV(models.RawFrame{Width: w, Height: h, Data: data})
	require.Len(t, img.Pix, w*h*3)
	for i := 0; i < len(data); i += 4 {
		r, g, b := yuvToRGB(data[i], data[i+1], data[i+3])
		o := i / 4 * 6
		require.Equal(t, []byte{r, g, b}, img.Pix[o:o+3])
	}
}

func TestConvertMalformedPanics(t *testing.T) {
	require.Panics(t, func() {
		ConvertYUYV(models.RawFrame{Width: 4, Height: 2, Data: make([]byte, 10)})
	})
	require.Panics(t, func() {
		ConvertYUYV(models.RawFrame{Width: 3, Height: 1, Data: make([]byte, 6)})
	})
}
