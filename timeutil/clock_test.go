package timeutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMockClockSleepAdvances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Sleep(40 * time.Millisecond)
	c.Sleep(-time.Second)
	c.Advance(10 * time.Millisecond)

	require.Equal(t, 50*time.Millisecond, c.Since(start))
	require.Equal(t, []time.Duration{40 * time.Millisecond, -time.Second}, c.Sleeps())
}

func TestRealClockSleepNonPositive(t *testing.T) {
	var c Clock = RealClock{}
	start := time.Now()
	c.Sleep(0)
	c.Sleep(-time.Hour)
	require.Less(t, c.Since(start), time.Second)
}

func TestRealClockSleepContextCancelled(t *testing.T) {
	var c Clock = RealClock{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := c.SleepContext(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRealClockSleepContextElapses(t *testing.T) {
	require.NoError(t, RealClock{}.SleepContext(context.Background(), time.Millisecond))
}

func TestMockClockSleepContext(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	require.NoError(t, c.SleepContext(context.Background(), 20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.SleepContext(ctx, time.Second), context.Canceled)
	require.Equal(t, []time.Duration{20 * time.Millisecond}, c.Sleeps())
	require.Equal(t, 20*time.Millisecond, c.Since(start))
}
