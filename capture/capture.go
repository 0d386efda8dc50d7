// Package capture produces raw YUYV 4:2:2 frames, one blocking call at a time.
package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tutortoise/ascii-vtuber/models"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// PixelFormatYUYV is the V4L2 fourcc for packed Y0 U Y1 V.
var PixelFormatYUYV = fourcc('Y', 'U', 'Y', 'V')

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Format is the negotiated frame geometry. Downstream code must size buffers
// from the granted Format, not the requested one.
type Format struct {
	Width       int
	Height      int
	Stride      int
	FrameSize   int
	PixelFormat uint32
}

// YUYVFormat returns a tightly packed YUYV format of the given size.
func YUYVFormat(width, height int) Format {
	return Format{
		Width:       width,
		Height:      height,
		Stride:      width * 2,
		FrameSize:   width * height * 2,
		PixelFormat: PixelFormatYUYV,
	}
}

func (f Format) String() string {
	b := []byte{byte(f.PixelFormat), byte(f.PixelFormat >> 8), byte(f.PixelFormat >> 16), byte(f.PixelFormat >> 24)}
	return fmt.Sprintf("%dx%d %s stride=%d size=%d", f.Width, f.Height, strings.TrimSpace(string(b)), f.Stride, f.FrameSize)
}

// Source yields raw frames. NextFrame blocks until a frame is available; any
// error it returns is fatal to the caller.
type Source interface {
	NextFrame(ctx context.Context) (models.RawFrame, error)
	Format() Format
	Close() error
}

// Open builds a Source from a reference: "v4l2" or "v4l2:<device>",
// "file:<path>" (looping raw dump) or "synthetic" / "synthetic:spot".
func Open(ref string, want Format) (Source, error) {
	kind, arg, _ := strings.Cut(ref, ":")
	switch kind {
	case "", "v4l2":
		return OpenDevice(arg, want)
	case "file":
		if arg == "" {
			return nil, fmt.Errorf("capture source %q needs a path", ref)
		}
		return OpenFile(arg, want, true)
	case "synthetic":
		return NewSynthetic(want, SyntheticOptions{Spot: arg == "spot"}), nil
	default:
		return nil, fmt.Errorf("unknown capture source %q", ref)
	}
}
