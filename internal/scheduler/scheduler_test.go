package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxmesh/internal/meshing"
	"voxmesh/internal/registry"
	"voxmesh/internal/render"
	"voxmesh/internal/world"
)

// heldExecutor queues tasks without running them until the test says so.
type heldExecutor struct {
	tasks []*meshing.Task
	ran   int
	limit int // max unrun tasks, 0 for unlimited
	fail  bool
}

func (h *heldExecutor) Submit(job meshing.Job) (*meshing.Task, bool) {
	if h.limit > 0 && len(h.tasks)-h.ran >= h.limit {
		return nil, false
	}
	if h.fail {
		job.Build = func() *meshing.MeshData { panic("build failed") }
	}
	t := meshing.NewTask(job)
	h.tasks = append(h.tasks, t)
	return t, true
}

func (h *heldExecutor) runAll() {
	for ; h.ran < len(h.tasks); h.ran++ {
		h.tasks[h.ran].Run()
	}
}

type fixture struct {
	store *world.ChunkStore
	exec  *heldExecutor
	sink  *render.Store
	mats  *render.Materials
	sched *Scheduler
}

func newFixture(t *testing.T, size int, opts ...Option) *fixture {
	t.Helper()
	reg := registry.Default()
	f := &fixture{
		store: world.NewChunkStore(size),
		exec:  &heldExecutor{},
		sink:  render.NewStore(),
		mats:  render.NewMaterials(),
	}
	require.NoError(t, f.mats.Load(render.Material{Name: "chunks", Layers: reg.TextureNames()}))
	f.sched = New(f.store, reg, f.exec, f.sink, f.mats, opts...)
	return f
}

// fill inserts empty Full chunks over the inclusive box lo..hi where no chunk exists.
func (f *fixture) fill(t *testing.T, lo, hi world.ChunkCoord) {
	t.Helper()
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				c := world.ChunkCoord{X: x, Y: y, Z: z}
				if !f.store.HasChunk(c) {
					require.NoError(t, f.store.InsertFull(world.NewChunk(c, f.store.ChunkSize())))
				}
			}
		}
	}
}

// spawn publishes a chunk holding one stone block, tracks it and marks it.
func (f *fixture) spawn(t *testing.T, coord world.ChunkCoord) uuid.UUID {
	t.Helper()
	ch := world.NewChunk(coord, f.store.ChunkSize())
	ch.SetLocal(0, 0, 0, world.Basic(registry.BlockStone))
	require.NoError(t, f.store.InsertFull(ch))
	id := f.sched.Track(coord)
	f.sched.MarkNeedsMesh(coord)
	return id
}

func (f *fixture) state(coord world.ChunkCoord) State {
	s, _ := f.sched.State(coord)
	return s
}

var origin = world.ChunkCoord{}

func surrounded(t *testing.T, f *fixture) {
	f.fill(t, world.ChunkCoord{X: -1, Y: -1, Z: -1}, world.ChunkCoord{X: 1, Y: 1, Z: 1})
}

func TestTickGating(t *testing.T) {
	f := newFixture(t, 2, WithDispatchInterval(250*time.Millisecond))
	f.spawn(t, origin)
	surrounded(t, f)

	assert.False(t, f.sched.Tick(100*time.Millisecond))
	assert.False(t, f.sched.Tick(100*time.Millisecond))
	assert.Empty(t, f.exec.tasks)
	assert.Equal(t, NeedsMesh, f.state(origin))

	assert.True(t, f.sched.Tick(100*time.Millisecond))
	assert.Len(t, f.exec.tasks, 1)
	assert.Equal(t, MeshPending, f.state(origin))

	// 50ms carried over from the previous period.
	assert.False(t, f.sched.Tick(150*time.Millisecond))
	assert.True(t, f.sched.Tick(50*time.Millisecond))
}

func TestNeighborGating(t *testing.T) {
	f := newFixture(t, 2)
	f.spawn(t, origin)
	for _, d := range world.Directions[:5] {
		require.NoError(t, f.store.InsertFull(world.NewChunk(origin.Offset(d), 2)))
	}

	assert.Equal(t, 0, f.sched.Dispatch())
	assert.Equal(t, NeedsMesh, f.state(origin))

	last := origin.Offset(world.Directions[5])
	f.store.InsertPlaceholder(last)
	assert.Equal(t, 0, f.sched.Dispatch())
	assert.Equal(t, 2, f.sched.Stats().DeferredTotal)

	require.NoError(t, f.store.InsertFull(world.NewChunk(last, 2)))
	assert.Equal(t, 1, f.sched.Dispatch())
	assert.Equal(t, MeshPending, f.state(origin))
}

func TestAtMostOneInFlight(t *testing.T) {
	f := newFixture(t, 2)
	f.spawn(t, origin)
	surrounded(t, f)

	require.Equal(t, 1, f.sched.Dispatch())
	f.sched.MarkNeedsMesh(origin)
	assert.Equal(t, MeshPending, f.state(origin))
	assert.Equal(t, 0, f.sched.Dispatch())
	assert.Len(t, f.exec.tasks, 1)

	f.exec.runAll()
	assert.Equal(t, 1, f.sched.Poll())
	// The request made while pending is picked up now.
	assert.Equal(t, NeedsMesh, f.state(origin))
	assert.Equal(t, 1, f.sched.Dispatch())
	assert.Len(t, f.exec.tasks, 2)
}

func TestApplyBudget(t *testing.T) {
	f := newFixture(t, 2, WithApplyBudget(2))
	for x := 1; x <= 5; x++ {
		f.spawn(t, world.ChunkCoord{X: x, Y: 1, Z: 1})
	}
	f.fill(t, world.ChunkCoord{}, world.ChunkCoord{X: 6, Y: 2, Z: 2})

	require.Equal(t, 5, f.sched.Dispatch())
	f.exec.runAll()

	assert.Equal(t, 2, f.sched.Poll())
	assert.Equal(t, 2, f.sink.Len())
	assert.Equal(t, 3, f.sched.PendingLen())
	assert.Equal(t, 2, f.sched.Poll())
	assert.Equal(t, 1, f.sched.Poll())
	assert.Equal(t, 0, f.sched.Poll())

	assert.Equal(t, 5, f.sink.Len())
	st := f.sched.Stats()
	assert.Equal(t, 5, st.Applied)
	assert.Equal(t, 5, st.AppliedTotal)
}

func TestDispatchNearestFirst(t *testing.T) {
	f := newFixture(t, 2)
	f.exec.limit = 1
	for x := 1; x <= 5; x++ {
		f.spawn(t, world.ChunkCoord{X: x, Y: 1, Z: 1})
	}
	f.fill(t, world.ChunkCoord{}, world.ChunkCoord{X: 6, Y: 2, Z: 2})
	f.sched.SetViewer(world.ChunkCoord{X: 5, Y: 1, Z: 1})

	assert.Equal(t, 1, f.sched.Dispatch())
	assert.Equal(t, 5, f.exec.tasks[0].Coord.X)
	// Saturated executor leaves the rest waiting.
	assert.Equal(t, 4, f.sched.Stats().NeedsMesh)
}

func TestStaleTaskDiscarded(t *testing.T) {
	f := newFixture(t, 2, WithApplyBudget(1))
	f.fill(t, world.ChunkCoord{X: -1, Y: -1, Z: -1}, world.ChunkCoord{X: 2, Y: 1, Z: 1})
	gone := origin
	kept := world.ChunkCoord{X: 1}
	f.spawn(t, gone)
	f.spawn(t, kept)

	require.Equal(t, 2, f.sched.Dispatch())
	assert.True(t, f.sched.Untrack(gone))
	f.exec.runAll()

	// The stale result does not use up the budget of one.
	assert.Equal(t, 1, f.sched.Poll())
	assert.Equal(t, 0, f.sched.PendingLen())
	assert.Equal(t, 1, f.sink.Len())
	assert.Equal(t, 1, f.sched.Stats().DiscardedTotal)
}

func TestRespawnedEntityIgnoresOldTask(t *testing.T) {
	f := newFixture(t, 2)
	surrounded(t, f)
	old := f.spawn(t, origin)
	require.Equal(t, 1, f.sched.Dispatch())

	f.sched.Untrack(origin)
	fresh := f.sched.Track(origin)
	require.NotEqual(t, old, fresh)
	f.exec.runAll()

	assert.Equal(t, 0, f.sched.Poll())
	assert.False(t, f.sink.Has(fresh))
	assert.Equal(t, NoMeshNeeded, f.state(origin))
}

func TestEmptyResultRemovesMesh(t *testing.T) {
	f := newFixture(t, 2)
	surrounded(t, f)
	id := f.spawn(t, origin)

	f.sched.Dispatch()
	f.exec.runAll()
	require.Equal(t, 1, f.sched.Poll())
	require.True(t, f.sink.Has(id))

	affected, err := f.store.SetBlock(world.BlockCoord{}, world.Empty)
	require.NoError(t, err)
	for _, c := range affected {
		f.sched.MarkNeedsMesh(c)
	}
	require.Equal(t, 1, f.sched.Dispatch())
	f.exec.runAll()
	assert.Equal(t, 1, f.sched.Poll())
	assert.False(t, f.sink.Has(id))
	assert.Equal(t, MeshApplied, f.state(origin))
	assert.Equal(t, 1, f.sched.Stats().RemovedTotal)
}

func TestUpdateReplacesMesh(t *testing.T) {
	f := newFixture(t, 2)
	surrounded(t, f)
	id := f.spawn(t, origin)

	for i := 0; i < 2; i++ {
		f.sched.MarkNeedsMesh(origin)
		f.sched.Dispatch()
		f.exec.runAll()
		require.Equal(t, 1, f.sched.Poll())
	}
	m, ok := f.sink.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint64(2), m.Version)
	assert.Equal(t, 6, m.Data.QuadCount())
	assert.Equal(t, "chunks", m.Material.Name)
}

func TestPollWithoutMaterial(t *testing.T) {
	f := newFixture(t, 2)
	surrounded(t, f)
	f.spawn(t, origin)
	f.mats.Unload()

	f.sched.Dispatch()
	f.exec.runAll()
	assert.Equal(t, 0, f.sched.Poll())
	assert.Equal(t, 1, f.sched.PendingLen())
	assert.Equal(t, MeshPending, f.state(origin))

	require.NoError(t, f.mats.Load(render.Material{Name: "chunks", Layers: []string{"missing.png"}}))
	assert.Equal(t, 1, f.sched.Poll())
	assert.Equal(t, 1, f.sink.Len())
}

func TestUnfinishedTasksStayPending(t *testing.T) {
	f := newFixture(t, 2)
	surrounded(t, f)
	f.spawn(t, origin)

	f.sched.Dispatch()
	assert.Equal(t, 0, f.sched.Poll())
	assert.Equal(t, 1, f.sched.PendingLen())
	f.exec.runAll()
	assert.Equal(t, 1, f.sched.Poll())
}

func TestFailedTaskIsRetried(t *testing.T) {
	f := newFixture(t, 2)
	surrounded(t, f)
	f.spawn(t, origin)
	f.exec.fail = true

	f.sched.Dispatch()
	f.exec.runAll()
	assert.Equal(t, 0, f.sched.Poll())
	assert.Equal(t, NeedsMesh, f.state(origin))
	assert.Equal(t, 1, f.sched.Stats().FailedTotal)

	f.exec.fail = false
	f.sched.Dispatch()
	f.exec.runAll()
	assert.Equal(t, 1, f.sched.Poll())
}

func TestLODDispatch(t *testing.T) {
	f := newFixture(t, 4, WithLOD(2, 3))
	f.spawn(t, origin)
	require.NoError(t, f.store.InsertFull(world.NewFilledChunk(origin, 4, world.Basic(registry.BlockStone))))
	f.sched.SetViewer(world.ChunkCoord{X: 10})

	// level min(10/2, 3) = 3 is clamped to factor 4 = level 2 for size 4.
	assert.Equal(t, 2, f.sched.LevelFor(origin))
	// No neighbors exist; reduced detail does not wait for them.
	require.Equal(t, 1, f.sched.Dispatch())
	assert.Equal(t, 2, f.exec.tasks[0].Level)
	f.exec.runAll()
	require.Equal(t, 1, f.sched.Poll())

	id, _ := f.sched.Entity(origin)
	m, ok := f.sink.Get(id)
	require.True(t, ok)
	assert.Equal(t, float32(4), m.Data.Scale)

	// Moving the viewer close changes the level and re-marks the chunk.
	f.sched.SetViewer(origin)
	assert.Equal(t, NeedsMesh, f.state(origin))
	assert.Equal(t, 0, f.sched.Dispatch(), "full detail waits for neighbors")
}

func TestWorkerPoolIntegration(t *testing.T) {
	reg := registry.Default()
	store := world.NewChunkStore(4)
	sink := render.NewStore()
	mats := render.NewMaterials()
	require.NoError(t, mats.Load(render.Material{Name: "chunks", Layers: reg.TextureNames()}))
	pool := meshing.NewWorkerPool(2, 64)
	defer pool.Shutdown()
	sched := New(store, reg, pool, sink, mats)

	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				c := world.ChunkCoord{X: x, Y: y, Z: z}
				require.NoError(t, store.InsertFull(world.NewFilledChunk(c, 4, world.Basic(registry.BlockDirt))))
			}
		}
	}
	coords := origin.Neighbors()
	for _, c := range append(coords[:], origin) {
		sched.Track(c)
		sched.MarkNeedsMesh(c)
	}

	// Only the center has all six neighbors.
	require.Equal(t, 1, sched.Dispatch())
	require.Eventually(t, func() bool { return sched.Poll() == 1 }, 5*time.Second, time.Millisecond)
	// A solid chunk inside solid neighbors has no faces.
	id, _ := sched.Entity(origin)
	assert.False(t, sink.Has(id))
	assert.Equal(t, MeshApplied, func() State { s, _ := sched.State(origin); return s }())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "needs_mesh", NeedsMesh.String())
	assert.Equal(t, "unknown", State(42).String())
}
