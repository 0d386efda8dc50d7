package render

import (
	"math"
	"os"
	"strings"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/fxamacker/cbor/v2"
)

const builtinPrefix = "builtin:"

type Vertex struct {
	Position Vec3
	Normal   Vec3
}

// Mesh is a point cloud; only vertices are drawn.
type Mesh struct {
	Name     string
	Vertices []Vertex
}

type assetFile struct {
	Name     string        `cbor:"name"`
	Vertices []assetVertex `cbor:"vertices"`
}

type assetVertex struct {
	Position []float32 `cbor:"position"`
	Normal   []float32 `cbor:"normal"`
}

// LoadAsset resolves "builtin:torus", "builtin:cube" or a CBOR asset path.
func LoadAsset(ref string) (*Mesh, error) {
	if name, ok := strings.CutPrefix(ref, builtinPrefix); ok {
		switch name {
		case "torus":
			return Torus(1.0, 0.4, 48, 24), nil
		case "cube":
			return Cube(10), nil
		default:
			return nil, faults.New(faults.AssetFault, "unknown builtin asset %q", name)
		}
	}
	b, err := os.ReadFile(ref)
	if err != nil {
		return nil, faults.Wrap(faults.AssetFault, err, "read asset")
	}
	return DecodeAsset(b)
}

// DecodeAsset parses a CBOR asset. Every vertex must carry a 3-component
// position and normal.
func DecodeAsset(b []byte) (*Mesh, error) {
	var f assetFile
	if err := cbor.Unmarshal(b, &f); err != nil {
		return nil, faults.Wrap(faults.AssetFault, err, "decode asset")
	}
	if len(f.Vertices) == 0 {
		return nil, faults.New(faults.AssetFault, "asset %q has no vertices", f.Name)
	}
	m := &Mesh{Name: f.Name, Vertices: make([]Vertex, len(f.Vertices))}
	for i, v := range f.Vertices {
		if len(v.Position) != 3 {
			return nil, faults.New(faults.AssetFault, "vertex %d: position has %d components", i, len(v.Position))
		}
		if len(v.Normal) != 3 {
			return nil, faults.New(faults.AssetFault, "vertex %d: normal has %d components", i, len(v.Normal))
		}
		m.Vertices[i] = Vertex{
			Position: V3(v.Position[0], v.Position[1], v.Position[2]),
			Normal:   V3(v.Normal[0], v.Normal[1], v.Normal[2]),
		}
	}
	return m, nil
}

func EncodeAsset(m *Mesh) ([]byte, error) {
	f := assetFile{Name: m.Name, Vertices: make([]assetVertex, len(m.Vertices))}
	for i, v := range m.Vertices {
		f.Vertices[i] = assetVertex{
			Position: []float32{v.Position.X, v.Position.Y, v.Position.Z},
			Normal:   []float32{v.Normal.X, v.Normal.Y, v.Normal.Z},
		}
	}
	return cbor.Marshal(f)
}

// Torus samples a torus around the Y axis.
func Torus(major, minor float32, segU, segV int) *Mesh {
	if segU < 3 {
		segU = 3
	}
	if segV < 3 {
		segV = 3
	}
	verts := make([]Vertex, 0, segU*segV)
	for u := 0; u < segU; u++ {
		theta := 2 * math.Pi * float64(u) / float64(segU)
		st, ct := math.Sincos(theta)
		for v := 0; v < segV; v++ {
			phi := 2 * math.Pi * float64(v) / float64(segV)
			sp, cp := math.Sincos(phi)

			r := float64(major) + float64(minor)*cp
			verts = append(verts, Vertex{
				Position: V3(float32(r*ct), float32(float64(minor)*sp), float32(r*st)),
				Normal:   V3(float32(cp*ct), float32(sp), float32(cp*st)),
			})
		}
	}
	return &Mesh{Name: "torus", Vertices: verts}
}

// Cube samples an n×n grid on each face of the unit cube centred at the
// origin, with face normals.
func Cube(n int) *Mesh {
	if n < 2 {
		n = 2
	}
	faces := []struct{ normal, u, v Vec3 }{
		{V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{V3(-1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{V3(0, 1, 0), V3(1, 0, 0), V3(0, 0, 1)},
		{V3(0, -1, 0), V3(1, 0, 0), V3(0, 0, 1)},
		{V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{V3(0, 0, -1), V3(1, 0, 0), V3(0, 1, 0)},
	}
	verts := make([]Vertex, 0, 6*n*n)
	for _, f := range faces {
		for i := 0; i < n; i++ {
			a := float32(i)/float32(n-1) - 0.5
			for j := 0; j < n; j++ {
				b := float32(j)/float32(n-1) - 0.5
				p := f.normal.Mul(0.5).Add(f.u.Mul(a)).Add(f.v.Mul(b))
				verts = append(verts, Vertex{Position: p, Normal: f.normal})
			}
		}
	}
	return &Mesh{Name: "cube", Vertices: verts}
}
