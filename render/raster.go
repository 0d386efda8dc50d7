package render

import "math"

const (
	// Marker is the glyph used when shading is off.
	Marker = '#'
	Blank  = ' '
)

// shadeRamp runs from least to most lit.
const shadeRamp = ".,-~:;=!*#$@"

// lightDir points from the surface toward the light.
var lightDir = Normalize(V3(-1, 1, 1))

// FrameBuffer is a Width×Height grid of glyphs with a per-cell depth.
type FrameBuffer struct {
	Width  int
	Height int
	Depth  []float32
	Glyphs []byte
}

func NewFrameBuffer(width, height int) *FrameBuffer {
	fb := &FrameBuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates for a new viewport and clears it.
func (fb *FrameBuffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	fb.Width, fb.Height = width, height
	fb.Depth = make([]float32, width*height)
	fb.Glyphs = make([]byte, width*height)
	fb.Reset()
}

// Reset sets every cell to blank at infinite depth.
func (fb *FrameBuffer) Reset() {
	inf := float32(math.Inf(1))
	for i := range fb.Depth {
		fb.Depth[i] = inf
		fb.Glyphs[i] = Blank
	}
}

// Plot writes glyph at (x, y) if the cell is in bounds and z is strictly
// nearer than what the cell holds.
func (fb *FrameBuffer) Plot(x, y int, z float32, glyph byte) bool {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return false
	}
	i := y*fb.Width + x
	if !(z < fb.Depth[i]) {
		return false
	}
	fb.Depth[i] = z
	fb.Glyphs[i] = glyph
	return true
}

// Row returns the glyphs of row y.
func (fb *FrameBuffer) Row(y int) []byte {
	return fb.Glyphs[y*fb.Width : (y+1)*fb.Width]
}

// GlyphFunc picks a glyph from a vertex normal already rotated into world
// space.
type GlyphFunc func(normal Vec3) byte

func FixedGlyph(Vec3) byte { return Marker }

// ShadedGlyph maps Lambert intensity against a fixed light onto shadeRamp.
// A zero normal gets the darkest glyph.
func ShadedGlyph(normal Vec3) byte {
	d := Dot(Normalize(normal), lightDir)
	if d <= 0 {
		return shadeRamp[0]
	}
	i := int(d * float32(len(shadeRamp)))
	if i >= len(shadeRamp) {
		i = len(shadeRamp) - 1
	}
	return shadeRamp[i]
}

// Rasterize projects every vertex of mesh and plots it into fb. It returns
// the number of cell writes. Except for exact depth ties, the final buffer
// does not depend on vertex order.
func Rasterize(fb *FrameBuffer, st RenderState, mesh *Mesh, model Mat4, glyph GlyphFunc) int {
	if glyph == nil {
		glyph = FixedGlyph
	}
	mvp := st.MVP(model)
	plotted := 0
	for _, v := range mesh.Vertices {
		p, ok := st.Project(mvp, v.Position)
		if !ok {
			continue
		}
		n := Mat4MulV4(model, v.Normal.Dir()).XYZ()
		if fb.Plot(p.X, p.Y, p.Depth, glyph(n)) {
			plotted++
		}
	}
	return plotted
}
