package main

import (
	"fmt"
	"time"

	"voxmesh/internal/profiling"
	"voxmesh/internal/world"
)

// frameLoop drives one simulated frame at a time: publish freshly generated
// chunks, move the viewer, then run the meshing pipeline.
type frameLoop struct {
	app       *app
	queue     []*world.Chunk
	spawnRate int
	limiter   *FPSLimiter
	lastTime  time.Time
}

func newFrameLoop(a *app, generated []*world.Chunk, spawnRate int, limiter *FPSLimiter) *frameLoop {
	return &frameLoop{
		app:       a,
		queue:     generated,
		spawnRate: max(spawnRate, 1),
		limiter:   limiter,
		lastTime:  time.Now(),
	}
}

func (f *frameLoop) tick(frame int) error {
	profiling.ResetFrame()
	now := time.Now()
	dt := now.Sub(f.lastTime)
	f.lastTime = now

	n := min(f.spawnRate, len(f.queue))
	for _, ch := range f.queue[:n] {
		if _, err := f.app.level.SpawnChunk(ch); err != nil {
			return err
		}
	}
	f.queue = f.queue[n:]

	// The viewer drifts along +X, one chunk every 60 frames.
	r := f.app.cfg.World.Radius
	if r > 0 {
		f.app.sched.SetViewer(world.ChunkCoord{X: frame/60%(2*r+1) - r})
	}

	start := time.Now()
	_, applied := f.app.level.Update(dt)
	f.report(frame, applied, time.Since(start))

	f.limiter.Wait()
	return nil
}

func (f *frameLoop) report(frame, applied int, processing time.Duration) {
	if target := f.limiter.Target(); target > 0 && processing > target {
		fmt.Printf("Frame processing too slow: %.2fms (target: %.2fms)\n",
			float64(processing.Nanoseconds())/1000000.0,
			float64(target.Nanoseconds())/1000000.0)
	}
	if applied > 0 || frame%120 == 0 {
		mesh := profiling.SumWithPrefix("meshing.")
		fmt.Printf("frame %d: applied=%d pending=%d meshing=%.2fms top=[%s]\n",
			frame, applied, f.app.sched.PendingLen(),
			float64(mesh.Nanoseconds())/1000000.0, profiling.TopN(3))
	}
}
