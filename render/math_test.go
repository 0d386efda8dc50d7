package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireVec3(t *testing.T, want, got Vec3) {
	t.Helper()
	require.InDelta(t, want.X, got.X, 1e-5, "x")
	require.InDelta(t, want.Y, got.Y, 1e-5, "y")
	require.InDelta(t, want.Z, got.Z, 1e-5, "z")
}

func TestMat4MulIdentity(t *testing.T) {
	b := Mat4Translate(V3(1, 2, 3))
	require.Equal(t, b, Mat4Mul(Mat4Identity(), b))
	require.Equal(t, b, Mat4Mul(b, Mat4Identity()))
	require.Equal(t, Mat4Identity(), Chain())
}

func TestTranslateAppliesToPointsOnly(t *testing.T) {
	m := Mat4Translate(V3(1, 2, 3))
	requireVec3(t, V3(2, 3, 4), Mat4MulV4(m, V3(1, 1, 1).Point()).XYZ())
	requireVec3(t, V3(1, 1, 1), Mat4MulV4(m, V3(1, 1, 1).Dir()).XYZ())
}

func TestRotations(t *testing.T) {
	q := float32(math.Pi / 2)
	requireVec3(t, V3(0, 0, -1), Mat4MulV4(Mat4RotateY(q), V3(1, 0, 0).Dir()).XYZ())
	requireVec3(t, V3(0, 0, 1), Mat4MulV4(Mat4RotateX(q), V3(0, 1, 0).Dir()).XYZ())
	requireVec3(t, V3(0, 1, 0), Mat4MulV4(Mat4RotateZ(q), V3(1, 0, 0).Dir()).XYZ())
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	m := Mat4LookAt(V3(0, 0, 5), V3(0, 0, 0), V3(0, 1, 0))
	requireVec3(t, V3(0, 0, 0), Mat4MulV4(m, V3(0, 0, 5).Point()).XYZ())
	requireVec3(t, V3(0, 0, -5), Mat4MulV4(m, V3(0, 0, 0).Point()).XYZ())
}

func TestNormalize(t *testing.T) {
	require.Equal(t, Vec3{}, Normalize(Vec3{}))
	require.InDelta(t, 1, Len(Normalize(V3(3, 4, 12))), 1e-6)
	requireVec3(t, V3(0, 0, 1), Cross(V3(1, 0, 0), V3(0, 1, 0)))
}
