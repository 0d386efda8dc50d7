package detections

import (
	"fmt"
	"math"

	"github.com/Tutortoise/ascii-vtuber/models"
)

// ConvertYUYV converts a packed 4:2:2 frame to RGB. Each 4-byte group
// (Y0, U, Y1, V) yields two pixels sharing the chroma pair. It panics if the
// frame buffer is smaller than its declared geometry.
func ConvertYUYV(frame models.RawFrame) models.ConvertedImage {
	w, h := frame.Width, frame.Height
	stride := frame.Stride
	if stride == 0 {
		stride = w * 2
	}
	if w <= 0 || h <= 0 || w%2 != 0 || stride < w*2 || len(frame.Data) < stride*(h-1)+w*2 {
		panic(fmt.Sprintf("detections: malformed YUYV frame %dx%d stride %d len %d", w, h, stride, len(frame.Data)))
	}

	out := models.ConvertedImage{
		Width:  w,
		Height: h,
		Pix:    make([]byte, w*h*3),
	}
	for y := 0; y < h; y++ {
		src := frame.Data[y*stride : y*stride+w*2]
		dst := out.Pix[y*w*3 : (y+1)*w*3]
		for i, o := 0, 0; i+3 < len(src); i, o = i+4, o+6 {
			y0, u, y1, v := src[i], src[i+1], src[i+2], src[i+3]
			dst[o], dst[o+1], dst[o+2] = yuvToRGB(y0, u, v)
			dst[o+3], dst[o+4], dst[o+5] = yuvToRGB(y1, u, v)
		}
	}
	return out
}

func yuvToRGB(y, u, v byte) (r, g, b byte) {
	yf := float64(y)
	uf := float64(u) - 128
	vf := float64(v) - 128
	r = clampByte(yf + 1.402*vf)
	g = clampByte(yf - 0.344*uf - 0.714*vf)
	b = clampByte(yf + 1.772*uf)
	return r, g, b
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(math.Round(v))
}
