package tracker

import (
	"image"
	"image/color"
	"io"

	"github.com/eliukblau/pixterm/pkg/ansimage"
	"github.com/pkg/errors"
)

// Preview draws frames as ANSI art scaled to the terminal.
type Preview struct {
	Every int
	Out   io.Writer
	// Size returns the terminal size in cells.
	Size func() (cols, rows int)
}

func (p *Preview) due(frame uint64) bool {
	return p != nil && p.Every > 0 && frame%uint64(p.Every) == 0
}

func (p *Preview) Draw(img image.Image) error {
	cols, rows := 80, 24
	if p.Size != nil {
		cols, rows = p.Size()
	}
	// Dithered output uses 4x8 pixel blocks per cell; height comes first.
	ansi, err := ansimage.NewScaledFromImage(img, 8*rows, 4*cols, color.Black, ansimage.ScaleModeFit, ansimage.DitheringWithChars)
	if err != nil {
		return errors.Wrap(err, "ansimage.NewScaledFromImage")
	}
	_, err = io.WriteString(p.Out, "\033[H\033[2J"+ansi.Render())
	return errors.Wrap(err, "write preview")
}
