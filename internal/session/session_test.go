package session

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	require.False(t, s.DisableExclusionTree)
	require.Greater(t, s.GenerationLengthMax, s.GenerationLengthMin)
}

func TestCohortPinning(t *testing.T) {
	c := NewGenerationCohort(100, 10, 4)
	c.Pin(5)
	c.Pin(5)
	require.True(t, c.IsPinned(5))
	require.Len(t, c.SourceInputs, 1)

	c.Unpin(5)
	require.False(t, c.IsPinned(5))
}

func TestRunCohortRespectsLimit(t *testing.T) {
	c := NewGenerationCohort(1, 20, 3)
	var active, maxActive int32

	err := RunCohort(context.Background(), c, 20, func(ctx context.Context, i int) error {
		n := atomic.AddInt32(&active, 1)
		for {
			cur := atomic.LoadInt32(&maxActive)
			if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
		return nil
	})
	require.NoError(t, err)
	require.LessOrEqual(t, maxActive, int32(3))
}

func TestDeltaDebugControllerAdvance(t *testing.T) {
	d := NewDeltaDebugController(1, 2, 4)
	ok := d.Advance(DDReduced, 8)
	require.True(t, ok)
	require.Equal(t, int64(4), d.WindowBegin)

	ok = d.Advance(DDReduced, 8)
	require.False(t, ok)
}
