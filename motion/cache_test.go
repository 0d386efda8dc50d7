package motion

import (
	"testing"
	"time"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/Tutortoise/ascii-vtuber/timeutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLastKnown(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clock := timeutil.NewMockClock(start)
	c := NewLastKnown(clock)

	_, ok := c.Latest()
	require.False(t, ok)
	_, ok = c.Snapshot()
	require.False(t, ok)

	require.Equal(t, uint64(1), c.Store(models.MotionRecord{Yaw: 0.1}))
	clock.Advance(time.Second)
	require.Equal(t, uint64(2), c.Store(models.MotionRecord{Yaw: 0.2}))
	clock.Advance(250 * time.Millisecond)

	rec, ok := c.Latest()
	require.True(t, ok)
	require.Equal(t, float32(0.2), rec.Yaw)

	snap, ok := c.Snapshot()
	require.True(t, ok)
	want := Snapshot{
		Record:   models.MotionRecord{Yaw: 0.2},
		Seq:      2,
		Received: start.Add(time.Second),
		Age:      250 * time.Millisecond,
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}

	c.Reset()
	_, ok = c.Latest()
	require.False(t, ok)
}
