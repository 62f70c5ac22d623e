package scheduler

import (
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"voxmesh/internal/meshing"
	"voxmesh/internal/metrics"
	"voxmesh/internal/profiling"
	"voxmesh/internal/render"
	"voxmesh/internal/world"
)

const (
	DefaultDispatchInterval = 250 * time.Millisecond
	DefaultApplyBudget      = 1000
)

// State is where a chunk is in its meshing cycle.
type State uint8

const (
	NoMeshNeeded State = iota
	NeedsMesh
	MeshPending
	MeshApplied
)

func (s State) String() string {
	switch s {
	case NoMeshNeeded:
		return "no_mesh_needed"
	case NeedsMesh:
		return "needs_mesh"
	case MeshPending:
		return "mesh_pending"
	case MeshApplied:
		return "mesh_applied"
	default:
		return "unknown"
	}
}

// Executor runs mesh jobs off the main loop. Submit must not block; it
// returns false when the job cannot be accepted right now.
type Executor interface {
	Submit(job meshing.Job) (*meshing.Task, bool)
}

// MeshSink receives finished geometry keyed by chunk entity.
type MeshSink interface {
	Create(entity uuid.UUID, coord world.ChunkCoord, data *meshing.MeshData, mat render.Material) error
	Update(entity uuid.UUID, data *meshing.MeshData) error
	Remove(entity uuid.UUID) bool
	Has(entity uuid.UUID) bool
}

// MaterialSource reports the chunk material once it is loaded.
type MaterialSource interface {
	ChunkMaterial() (render.Material, bool)
}

// ChunkSource is the read side of the chunk store.
type ChunkSource interface {
	ChunkSize() int
	Full(coord world.ChunkCoord) (*world.Chunk, bool)
	Neighbors(coord world.ChunkCoord) ([6]*world.Chunk, int)
}

type entry struct {
	entity uuid.UUID
	state  State
	remesh bool // NeedsMesh arrived while a task was in flight
	level  int  // LOD level of the last dispatched task
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	Tracked   int
	NeedsMesh int
	Pending   int
	Applied   int

	QueuedTotal    int
	AppliedTotal   int
	RemovedTotal   int
	DiscardedTotal int
	DeferredTotal  int
	FailedTotal    int
}

// Scheduler drives chunk meshing from the main loop: Tick dispatches
// NeedsMesh chunks on a repeating timer, Poll applies finished tasks within
// a per-call budget. It never waits on a task.
//
// A Scheduler is not safe for concurrent use; call it from the main loop.
type Scheduler struct {
	chunks    ChunkSource
	reg       meshing.BlockRegistry
	exec      Executor
	sink      MeshSink
	materials MaterialSource
	metrics   *metrics.Meshing

	entries map[world.ChunkCoord]*entry
	pending []*meshing.Task

	interval time.Duration
	elapsed  time.Duration
	budget   int

	lodDistance int
	lodLevels   int
	viewer      world.ChunkCoord
	hasViewer   bool

	stats Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithDispatchInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.SetDispatchInterval(d) }
}

func WithApplyBudget(n int) Option {
	return func(s *Scheduler) { s.SetApplyBudget(n) }
}

func WithMetrics(m *metrics.Meshing) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLOD enables reduced-resolution meshing for chunks at least distance
// chunks away from the viewer, up to levels halvings.
func WithLOD(distance, levels int) Option {
	return func(s *Scheduler) {
		s.lodDistance = max(distance, 0)
		s.lodLevels = max(levels, 0)
	}
}

func New(chunks ChunkSource, reg meshing.BlockRegistry, exec Executor, sink MeshSink, materials MaterialSource, opts ...Option) *Scheduler {
	s := &Scheduler{
		chunks:    chunks,
		reg:       reg,
		exec:      exec,
		sink:      sink,
		materials: materials,
		entries:   make(map[world.ChunkCoord]*entry),
		interval:  DefaultDispatchInterval,
		budget:    DefaultApplyBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDispatchInterval changes the dispatch cadence. Non-positive values are ignored.
func (s *Scheduler) SetDispatchInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetApplyBudget changes how many finished meshes one Poll applies.
// Non-positive values are ignored.
func (s *Scheduler) SetApplyBudget(n int) {
	if n > 0 {
		s.budget = n
	}
}

// Track registers a chunk entity at coord and returns its id. Tracking an
// already tracked coord returns the existing id.
func (s *Scheduler) Track(coord world.ChunkCoord) uuid.UUID {
	if e, ok := s.entries[coord]; ok {
		return e.entity
	}
	e := &entry{entity: uuid.New()}
	s.entries[coord] = e
	return e.entity
}

// Untrack despawns the chunk entity at coord and removes its mesh. A task
// still in flight for it is discarded when it completes.
func (s *Scheduler) Untrack(coord world.ChunkCoord) bool {
	e, ok := s.entries[coord]
	if !ok {
		return false
	}
	delete(s.entries, coord)
	s.sink.Remove(e.entity)
	return true
}

// Entity returns the entity id tracked at coord.
func (s *Scheduler) Entity(coord world.ChunkCoord) (uuid.UUID, bool) {
	e, ok := s.entries[coord]
	if !ok {
		return uuid.Nil, false
	}
	return e.entity, true
}

// State returns the meshing state of coord. Untracked coords report
// NoMeshNeeded and false.
func (s *Scheduler) State(coord world.ChunkCoord) (State, bool) {
	e, ok := s.entries[coord]
	if !ok {
		return NoMeshNeeded, false
	}
	return e.state, true
}

// MarkNeedsMesh requests a (re)mesh of coord. While a task is in flight the
// request is remembered and dispatched after that task is applied, so a
// chunk never has two tasks at once. Untracked coords are ignored.
func (s *Scheduler) MarkNeedsMesh(coord world.ChunkCoord) bool {
	e, ok := s.entries[coord]
	if !ok {
		return false
	}
	if e.state == MeshPending {
		e.remesh = true
	} else {
		e.state = NeedsMesh
	}
	return true
}

// Tick advances the dispatch timer by dt and dispatches when it fires.
// It fires at most once per call; the overshoot carries over.
func (s *Scheduler) Tick(dt time.Duration) bool {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return false
	}
	s.elapsed %= s.interval
	s.Dispatch()
	return true
}

// Dispatch submits a task for every NeedsMesh chunk whose neighborhood is
// ready, nearest to the viewer first. It returns the number queued.
func (s *Scheduler) Dispatch() int {
	defer profiling.Track("scheduler.Dispatch")()
	start := time.Now()

	coords := make([]world.ChunkCoord, 0)
	for c, e := range s.entries {
		if e.state == NeedsMesh {
			coords = append(coords, c)
		}
	}
	sort.Slice(coords, func(i, j int) bool {
		if s.hasViewer {
			di, dj := coords[i].Chebyshev(s.viewer), coords[j].Chebyshev(s.viewer)
			if di != dj {
				return di < dj
			}
		}
		return coords[i].Less(coords[j])
	})

	queued, deferred := 0, 0
	for _, coord := range coords {
		e := s.entries[coord]
		chunk, ok := s.chunks.Full(coord)
		if !ok {
			deferred++
			continue
		}
		level := s.levelFor(coord)
		neighbors, ready := s.chunks.Neighbors(coord)
		if level == 0 && ready < len(neighbors) {
			deferred++
			continue
		}

		task, ok := s.exec.Submit(buildJob(s.reg, coord, e.entity, level, chunk, neighbors))
		if !ok {
			break // executor saturated; retry next tick
		}
		e.state = MeshPending
		e.remesh = false
		e.level = level
		s.pending = append(s.pending, task)
		queued++
	}

	s.stats.QueuedTotal += queued
	s.stats.DeferredTotal += deferred
	s.metrics.Queued(queued)
	s.metrics.Deferred(deferred)
	if queued > 0 {
		log.Printf("queued mesh generation for %d chunks in %v", queued, time.Since(start))
	}
	return queued
}

func buildJob(reg meshing.BlockRegistry, coord world.ChunkCoord, entity uuid.UUID, level int, chunk *world.Chunk, neighbors [6]*world.Chunk) meshing.Job {
	return meshing.Job{
		Coord:  coord,
		Entity: entity,
		Level:  level,
		Build: func() *meshing.MeshData {
			if level > 0 {
				return meshing.MeshChunkLOD(reg, chunk, &neighbors, level)
			}
			return meshing.MeshChunk(reg, chunk, &neighbors)
		},
	}
}

// Poll applies up to the apply budget of finished tasks in submission
// order. Tasks for despawned chunks are dropped without counting against
// the budget. Unfinished tasks, and finished ones past the budget, stay
// queued for the next call. Poll does nothing until the chunk material is
// loaded.
func (s *Scheduler) Poll() int {
	defer profiling.Track("scheduler.Poll")()
	if len(s.pending) == 0 {
		return 0
	}
	mat, ok := s.materials.ChunkMaterial()
	if !ok {
		log.Printf("polling mesh queue before chunk material is loaded")
		return 0
	}
	start := time.Now()

	applied := 0
	remaining := s.pending[:0]
	for i, task := range s.pending {
		if applied >= s.budget {
			remaining = append(remaining, s.pending[i:]...)
			break
		}
		data, done := task.Poll()
		if !done {
			remaining = append(remaining, task)
			continue
		}
		e, ok := s.entries[task.Coord]
		if !ok || e.entity != task.Entity {
			s.stats.DiscardedTotal++
			s.metrics.Discarded()
			continue
		}
		if err := task.Err(); err != nil {
			log.Printf("mesh task for chunk %v failed: %v", task.Coord, err)
			s.stats.FailedTotal++
			s.metrics.Failed()
			e.state = NeedsMesh
			e.remesh = false
			continue
		}

		s.apply(task, e, data, mat)
		applied++
	}
	clear(s.pending[len(remaining):])
	s.pending = remaining

	if applied > 0 {
		log.Printf("spawned %d chunk meshes in %v", applied, time.Since(start))
	}
	return applied
}

func (s *Scheduler) apply(task *meshing.Task, e *entry, data *meshing.MeshData, mat render.Material) {
	if data.IsEmpty() {
		s.sink.Remove(e.entity)
		s.stats.RemovedTotal++
		s.metrics.Removed(task.Elapsed())
	} else {
		var err error
		if s.sink.Has(e.entity) {
			err = s.sink.Update(e.entity, data)
		} else {
			err = s.sink.Create(e.entity, task.Coord, data, mat)
		}
		if err != nil {
			log.Printf("apply mesh for chunk %v: %v", task.Coord, err)
		}
		s.stats.AppliedTotal++
		s.metrics.Applied(task.Elapsed())
	}

	e.state = MeshApplied
	if e.remesh {
		e.state = NeedsMesh
		e.remesh = false
	}
}

// SetViewer moves the LOD reference point. Chunks whose level changes are
// marked for remeshing.
func (s *Scheduler) SetViewer(coord world.ChunkCoord) {
	s.viewer = coord
	s.hasViewer = true
	if s.lodDistance <= 0 || s.lodLevels <= 0 {
		return
	}
	for c, e := range s.entries {
		if e.state == NoMeshNeeded || e.state == NeedsMesh {
			continue
		}
		if s.levelFor(c) != e.level {
			s.MarkNeedsMesh(c)
		}
	}
}

// LevelFor returns the LOD level coord would be meshed at.
func (s *Scheduler) LevelFor(coord world.ChunkCoord) int {
	return s.levelFor(coord)
}

func (s *Scheduler) levelFor(coord world.ChunkCoord) int {
	if !s.hasViewer || s.lodDistance <= 0 || s.lodLevels <= 0 {
		return 0
	}
	level := min(coord.Chebyshev(s.viewer)/s.lodDistance, s.lodLevels)
	maxFactor := meshing.MaxLODFactor(s.chunks.ChunkSize())
	for level > 0 && 1<<level > maxFactor {
		level--
	}
	return level
}

// PendingLen returns the number of tasks not yet applied or discarded.
func (s *Scheduler) PendingLen() int { return len(s.pending) }

func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.Tracked = len(s.entries)
	for _, e := range s.entries {
		switch e.state {
		case NeedsMesh:
			st.NeedsMesh++
		case MeshPending:
			st.Pending++
		case MeshApplied:
			st.Applied++
		}
	}
	return st
}
