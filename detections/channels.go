package detections

import (
	"image"

	"github.com/Tutortoise/ascii-vtuber/models"
)

// ToNRGBA wraps the converted RGB buffer as an opaque *image.NRGBA so the
// imaging and hashing libraries can consume it.
func ToNRGBA(img models.ConvertedImage) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i, o := 0, 0; i+2 < len(img.Pix); i, o = i+3, o+4 {
		out.Pix[o] = img.Pix[i]
		out.Pix[o+1] = img.Pix[i+1]
		out.Pix[o+2] = img.Pix[i+2]
		out.Pix[o+3] = 0xff
	}
	return out
}

// fillCHW normalizes pic into buffer, reordering height×width×channel into
// channel×height×width. buffer must hold 3*width*height values.
func fillCHW(buffer []float32, pic *image.NRGBA, width, height int) {
	channelSize := width * height
	for y := 0; y < height; y++ {
		row := pic.Pix[y*pic.Stride:]
		offset := y * width
		for x := 0; x < width; x++ {
			i := offset + x
			p := row[x*4 : x*4+3]
			buffer[i] = float32(p[0]) / 255.0
			buffer[channelSize+i] = float32(p[1]) / 255.0
			buffer[channelSize*2+i] = float32(p[2]) / 255.0
		}
	}
}
