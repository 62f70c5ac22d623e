package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxmesh/internal/config"
)

func TestRunSmallWorld(t *testing.T) {
	cfg := config.Default()
	cfg.Chunk.Size = 8
	cfg.Meshing.DispatchInterval = "1ms"
	cfg.World = config.WorldConfig{Seed: 5, Radius: 1, Height: 3}
	require.NoError(t, cfg.Validate())

	a, err := newApp(cfg)
	require.NoError(t, err)
	require.NoError(t, a.run(200, 64, true, NewFPSLimiter(500)))

	st := a.sched.Stats()
	assert.Equal(t, 27, st.Tracked)
	assert.Positive(t, st.QueuedTotal)
	assert.Zero(t, st.FailedTotal)
}

func TestFPSLimiterTarget(t *testing.T) {
	assert.Equal(t, time.Duration(0), NewFPSLimiter(0).Target())
	assert.Equal(t, 10*time.Millisecond, NewFPSLimiter(100).Target())

	l := NewFPSLimiter(0)
	start := time.Now()
	l.Wait()
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}
