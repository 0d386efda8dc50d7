package render

import (
	"math"
	"testing"
	"time"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/stretchr/testify/require"
)

func TestProjectOriginToCentre(t *testing.T) {
	st := NewRenderState(80, 24, DefaultCamera())
	p, ok := st.Project(st.MVP(Mat4Identity()), V3(0, 0, 0))
	require.True(t, ok)
	require.Equal(t, 40, p.X)
	require.Equal(t, 12, p.Y)
	require.Greater(t, p.Depth, float32(-1))
	require.Less(t, p.Depth, float32(1))
}

func TestProjectAxes(t *testing.T) {
	st := NewRenderState(80, 24, DefaultCamera())
	mvp := st.MVP(Mat4Identity())

	up, ok := st.Project(mvp, V3(0, 1, 0))
	require.True(t, ok)
	require.Less(t, up.Y, 12, "+Y is up on screen")

	right, ok := st.Project(mvp, V3(1, 0, 0))
	require.True(t, ok)
	require.Greater(t, right.X, 40)
}

func TestProjectNearerHasSmallerDepth(t *testing.T) {
	st := NewRenderState(80, 24, DefaultCamera())
	mvp := st.MVP(Mat4Identity())
	far, ok := st.Project(mvp, V3(0, 0, -1))
	require.True(t, ok)
	near, ok := st.Project(mvp, V3(0, 0, 1))
	require.True(t, ok)
	require.Less(t, near.Depth, far.Depth)
}

func TestProjectSkipsDegenerateW(t *testing.T) {
	st := NewRenderState(80, 24, DefaultCamera())
	mvp := st.MVP(Mat4Identity())

	_, ok := st.Project(mvp, V3(0, 0, 5))
	require.False(t, ok, "point on the camera plane")
	_, ok = st.Project(mvp, V3(0, 0, 9))
	require.False(t, ok, "point behind the camera")
	_, ok = st.Project(mvp, V3(float32(math.NaN()), 0, 0))
	require.False(t, ok)
}

func TestProjectOffscreenIsReported(t *testing.T) {
	st := NewRenderState(80, 24, DefaultCamera())
	p, ok := st.Project(st.MVP(Mat4Identity()), V3(100, 0, 0))
	require.True(t, ok)
	require.GreaterOrEqual(t, p.X, 80)
}

func TestCellAspect(t *testing.T) {
	cam := DefaultCamera()
	square := NewRenderState(80, 40, cam)
	cam.CellAspect = 0.5
	tall := NewRenderState(80, 40, cam)
	require.InDelta(t, square.Projection[0]*2, tall.Projection[0], 1e-5)

	cam.CellAspect = 0
	require.Equal(t, square.Projection, NewRenderState(80, 40, cam).Projection)
}

func TestModelMatrix(t *testing.T) {
	offset := DefaultOffset

	require.Equal(t, Mat4Translate(offset), ModelMatrix(nil, 0, offset))

	zero := ModelMatrix(&models.MotionRecord{}, 5*time.Second, offset)
	for i := range zero {
		require.InDelta(t, Mat4Translate(offset)[i], zero[i], 1e-6)
	}

	yaw := ModelMatrix(&models.MotionRecord{Yaw: math.Pi / 2}, 0, offset)
	requireVec3(t, V3(0, 0, -3), Mat4MulV4(yaw, V3(1, 0, 0).Point()).XYZ())

	spun := ModelMatrix(nil, time.Second, offset)
	require.NotEqual(t, Mat4Translate(offset), spun)
}
