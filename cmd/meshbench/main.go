package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xlab/closer"

	"voxmesh/internal/config"
	"voxmesh/internal/level"
	"voxmesh/internal/meshing"
	"voxmesh/internal/metrics"
	"voxmesh/internal/registry"
	"voxmesh/internal/render"
	"voxmesh/internal/scheduler"
	"voxmesh/internal/world"
	"voxmesh/internal/worldgen"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	frames := flag.Int("frames", 600, "number of frames to run")
	fps := flag.Int("fps", 60, "frame rate cap, 0 for unlimited")
	spawnRate := flag.Int("spawn-rate", 16, "generated chunks published per frame")
	explode := flag.Bool("explode", true, "carve an explosion halfway through the run")
	hold := flag.Bool("hold", false, "keep serving metrics after the run until interrupted")
	flag.Parse()

	defer closer.Close()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			closer.Fatalln(err)
		}
		cfg = *loaded
	}

	app, err := newApp(cfg)
	if err != nil {
		closer.Fatalln(err)
	}
	if err := app.run(*frames, *spawnRate, *explode, NewFPSLimiter(*fps)); err != nil {
		closer.Fatalln(err)
	}
	if *hold && cfg.Metrics.Addr != "" {
		closer.Hold()
	}
}

type app struct {
	cfg   config.Config
	level *level.Level
	sched *scheduler.Scheduler
	sink  *render.Store
	gen   *worldgen.Generator
}

func newApp(cfg config.Config) (*app, error) {
	reg := registry.Default()
	store := world.NewChunkStore(cfg.Chunk.Size)
	sink := render.NewStore()
	mats := render.NewMaterials()
	if err := mats.Load(render.Material{Name: "chunks", Layers: reg.TextureNames()}); err != nil {
		return nil, err
	}

	m, err := serveMetrics(cfg.Metrics.Addr)
	if err != nil {
		return nil, err
	}

	pool := meshing.NewWorkerPool(cfg.WorkerCount(), cfg.Meshing.QueueSize)
	closer.Bind(pool.Shutdown)

	sched := scheduler.New(store, reg, pool, sink, mats,
		scheduler.WithDispatchInterval(cfg.DispatchInterval()),
		scheduler.WithApplyBudget(cfg.Meshing.ApplyBudget),
		scheduler.WithLOD(cfg.LOD.Distance, cfg.LOD.Levels),
		scheduler.WithMetrics(m),
	)
	return &app{
		cfg:   cfg,
		level: level.New(store, sched),
		sched: sched,
		sink:  sink,
		gen:   worldgen.NewGenerator(cfg.World.Seed, cfg.Chunk.Size),
	}, nil
}

// serveMetrics starts the /metrics endpoint when addr is set. Without an
// address the returned collectors are nil, which records nothing.
func serveMetrics(addr string) (*metrics.Meshing, error) {
	if addr == "" {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()
	closer.Bind(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return m, nil
}

func (a *app) run(frames, spawnRate int, explode bool, limiter *FPSLimiter) error {
	r := a.cfg.World.Radius
	lo := world.ChunkCoord{X: -r, Y: 0, Z: -r}
	hi := world.ChunkCoord{X: r, Y: a.cfg.World.Height - 1, Z: r}

	// Reserve the region first so the scheduler sees every chunk as generating.
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				a.level.SpawnPlaceholder(world.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
	genStart := time.Now()
	chunks, err := a.gen.GenerateRegion(context.Background(), lo, hi, a.cfg.WorkerCount())
	if err != nil {
		return err
	}
	log.Printf("generated %d chunks in %v", len(chunks), time.Since(genStart))

	frameLoop := newFrameLoop(a, chunks, spawnRate, limiter)
	for i := 0; i < frames; i++ {
		if explode && i == frames/2 {
			a.explode()
		}
		if err := frameLoop.tick(i); err != nil {
			return err
		}
	}

	st := a.sched.Stats()
	fmt.Printf("tracked=%d applied=%d needs_mesh=%d pending=%d meshes=%d vertices=%d\n",
		st.Tracked, st.Applied, st.NeedsMesh, st.Pending, a.sink.Len(), a.sink.VertexCount())
	fmt.Printf("queued=%d applied_total=%d removed=%d discarded=%d deferred=%d failed=%d\n",
		st.QueuedTotal, st.AppliedTotal, st.RemovedTotal, st.DiscardedTotal, st.DeferredTotal, st.FailedTotal)
	return nil
}

// explode carves a crater into the terrain surface at the origin column.
func (a *app) explode() {
	center := world.BlockCoord{X: 0, Y: a.gen.HeightAt(0, 0), Z: 0}
	removed := a.level.Explode(center, 6)
	log.Printf("explosion at %v removed %d blocks", center, removed)
}
