package detections

import (
	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
)

// Decoder reduces an activation grid to a single image-space coordinate.
type Decoder struct {
	Threshold float32
}

func NewDecoder(threshold float32) *Decoder {
	return &Decoder{Threshold: threshold}
}

// Decode scans batch 0, channel 0 in row-major order. The first maximum wins
// ties; NaN cells never win. The winning cell centre is scaled to the image.
func (d *Decoder) Decode(grid *models.ActivationGrid, imageWidth, imageHeight int) (models.PoseEstimate, error) {
	if grid == nil {
		return models.PoseEstimate{}, faults.New(faults.InferenceFault, "nil activation grid")
	}
	s := grid.Shape
	if s.N() < 1 || s.C() < 1 || s.H() < 1 || s.W() < 1 {
		return models.PoseEstimate{}, faults.New(faults.InferenceFault, "empty activation grid %s", s)
	}
	if len(grid.Data) < s.Elements() {
		return models.PoseEstimate{}, faults.New(faults.InferenceFault,
			"activation grid %s holds %d values, want %d", s, len(grid.Data), s.Elements())
	}

	gh, gw := s.H(), s.W()
	plane := grid.Data[:gh*gw]
	best, bestRow, bestCol := float32(0), -1, -1
	for i, v := range plane {
		if v != v {
			continue
		}
		if bestRow < 0 || v > best {
			best, bestRow, bestCol = v, i/gw, i%gw
		}
	}
	if bestRow < 0 || best < d.Threshold {
		return models.PoseEstimate{Confidence: best}, nil
	}

	x := (float64(bestCol) + 0.5) / float64(gw) * float64(imageWidth)
	y := (float64(bestRow) + 0.5) / float64(gh) * float64(imageHeight)
	return models.PoseEstimate{
		X:          int(x),
		Y:          int(y),
		Confidence: best,
		Found:      true,
	}, nil
}
