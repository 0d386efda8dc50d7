package render

import (
	"math"
	"time"

	"github.com/Tutortoise/ascii-vtuber/models"
)

const (
	DefaultFOVY = math.Pi / 2
	DefaultNear = 0.1
	DefaultFar  = 100

	// wEpsilon rejects points on or behind the camera plane.
	wEpsilon = 1e-6
	maxCoord = 1 << 20

	autoSpinY = 1.0 // rad/s
	autoSpinX = 0.5 // rad/s
)

// DefaultOffset pushes the model away from the camera.
var DefaultOffset = Vec3{0, 0, -2}

type Camera struct {
	FOVY   float32
	Near   float32
	Far    float32
	Eye    Vec3
	Target Vec3
	Up     Vec3
	// CellAspect scales the viewport aspect to account for character cells
	// not being square. 1 leaves cols/rows unchanged.
	CellAspect float32
}

func DefaultCamera() Camera {
	return Camera{
		FOVY:       DefaultFOVY,
		Near:       DefaultNear,
		Far:        DefaultFar,
		Eye:        V3(0, 0, 5),
		Up:         V3(0, 1, 0),
		CellAspect: 1,
	}
}

// RenderState holds the per-viewport matrices. It is rebuilt whenever the
// terminal size changes.
type RenderState struct {
	Cols       int
	Rows       int
	Camera     Camera
	Projection Mat4
	View       Mat4
}

func NewRenderState(cols, rows int, cam Camera) RenderState {
	if cam.CellAspect <= 0 {
		cam.CellAspect = 1
	}
	aspect := float32(1)
	if cols > 0 && rows > 0 {
		aspect = float32(cols) / float32(rows) * cam.CellAspect
	}
	return RenderState{
		Cols:       cols,
		Rows:       rows,
		Camera:     cam,
		Projection: Mat4Perspective(cam.FOVY, aspect, cam.Near, cam.Far),
		View:       Mat4LookAt(cam.Eye, cam.Target, cam.Up),
	}
}

// MVP returns Projection·View·model.
func (s RenderState) MVP(model Mat4) Mat4 {
	return Chain(s.Projection, s.View, model)
}

// ModelMatrix places the mesh at offset and orients it from pose. Without a
// pose the mesh spins about X and Y driven by the elapsed time t.
func ModelMatrix(pose *models.MotionRecord, t time.Duration, offset Vec3) Mat4 {
	if pose == nil {
		sec := float32(t.Seconds())
		return Chain(
			Mat4Translate(offset),
			Mat4RotateY(sec*autoSpinY),
			Mat4RotateX(sec*autoSpinX),
		)
	}
	return Chain(
		Mat4Translate(offset),
		Mat4RotateY(pose.Yaw),
		Mat4RotateX(pose.Pitch),
		Mat4RotateZ(pose.Roll),
	)
}

// ScreenPoint is a projected vertex. X and Y are cell coordinates and may lie
// outside the viewport; Depth is NDC z, smaller is nearer.
type ScreenPoint struct {
	X     int
	Y     int
	Depth float32
}

// Project maps p through mvp to the viewport. It reports false for points
// whose clip w is not safely positive.
func (s RenderState) Project(mvp Mat4, p Vec3) (ScreenPoint, bool) {
	clip := Mat4MulV4(mvp, p.Point())
	if !(clip.W > wEpsilon) || math.IsInf(float64(clip.W), 0) {
		return ScreenPoint{}, false
	}
	inv := 1 / clip.W
	ndc := Vec3{clip.X * inv, clip.Y * inv, clip.Z * inv}
	sx := (ndc.X + 1) / 2 * float32(s.Cols)
	sy := (1 - ndc.Y) / 2 * float32(s.Rows)
	if !inRange(sx) || !inRange(sy) || !finite(ndc.Z) {
		return ScreenPoint{}, false
	}
	return ScreenPoint{
		X:     int(math.Floor(float64(sx))),
		Y:     int(math.Floor(float64(sy))),
		Depth: ndc.Z,
	}, true
}

// inRange keeps float to int conversion well defined.
func inRange(v float32) bool {
	return finite(v) && v > -maxCoord && v < maxCoord
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
