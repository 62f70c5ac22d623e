package level

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"voxmesh/internal/scheduler"
	"voxmesh/internal/world"
)

// Level ties the chunk store to the meshing scheduler. Every mutation goes
// through it so affected chunks are re-marked before the next dispatch.
type Level struct {
	store *world.ChunkStore
	sched *scheduler.Scheduler
}

func New(store *world.ChunkStore, sched *scheduler.Scheduler) *Level {
	return &Level{store: store, sched: sched}
}

func (l *Level) Store() *world.ChunkStore        { return l.store }
func (l *Level) Scheduler() *scheduler.Scheduler { return l.sched }

// SpawnPlaceholder reserves coord for a chunk that is still generating and
// returns its entity. Placeholders are never meshed.
func (l *Level) SpawnPlaceholder(coord world.ChunkCoord) uuid.UUID {
	l.store.InsertPlaceholder(coord)
	return l.sched.Track(coord)
}

// SpawnChunk publishes a generated chunk. The chunk and its six neighbors
// are marked for meshing, so neighbors waiting on it get retried.
func (l *Level) SpawnChunk(chunk *world.Chunk) (uuid.UUID, error) {
	if chunk == nil {
		return uuid.Nil, fmt.Errorf("spawn chunk: %w", world.ErrNilChunk)
	}
	if err := l.store.InsertFull(chunk); err != nil {
		return uuid.Nil, fmt.Errorf("spawn chunk %v: %w", chunk.Coord, err)
	}
	id := l.sched.Track(chunk.Coord)
	l.sched.MarkNeedsMesh(chunk.Coord)
	for _, nb := range chunk.Coord.Neighbors() {
		l.sched.MarkNeedsMesh(nb)
	}
	return id, nil
}

// DespawnChunk drops the chunk data and its entity.
func (l *Level) DespawnChunk(coord world.ChunkCoord) bool {
	removed := l.store.Remove(coord)
	untracked := l.sched.Untrack(coord)
	return removed || untracked
}

func (l *Level) Block(pos world.BlockCoord) world.Block {
	return l.store.Get(pos)
}

// SetBlock edits one block and invalidates the chunks it touches.
func (l *Level) SetBlock(pos world.BlockCoord, b world.Block) error {
	affected, err := l.store.SetBlock(pos, b)
	if err != nil {
		return fmt.Errorf("set block %v: %w", pos, err)
	}
	l.invalidate(affected)
	return nil
}

// BatchSetBlocks applies edits together and invalidates every touched chunk
// once. Edits outside loaded chunks are skipped.
func (l *Level) BatchSetBlocks(changes []world.BlockChange) []world.ChunkCoord {
	affected := l.store.BatchSetBlocks(changes)
	l.invalidate(affected)
	return affected
}

// Explode clears every block within radius of center and returns the
// number of blocks removed.
func (l *Level) Explode(center world.BlockCoord, radius float64) int {
	if radius <= 0 {
		return 0
	}
	size := int(math.Ceil(radius))
	var changes []world.BlockChange
	for x := -size; x <= size; x++ {
		for y := -size; y <= size; y++ {
			for z := -size; z <= size; z++ {
				if x*x+y*y+z*z > size*size {
					continue
				}
				pos := center.Add(world.BlockCoord{X: x, Y: y, Z: z})
				if l.store.Get(pos).IsEmpty() {
					continue
				}
				changes = append(changes, world.BlockChange{Pos: pos, Block: world.Empty})
			}
		}
	}
	l.BatchSetBlocks(changes)
	return len(changes)
}

func (l *Level) invalidate(coords []world.ChunkCoord) {
	for _, c := range coords {
		l.sched.MarkNeedsMesh(c)
	}
}

// Update runs one frame of the meshing pipeline: advance the dispatch timer
// and apply finished meshes.
func (l *Level) Update(dt time.Duration) (dispatched bool, applied int) {
	dispatched = l.sched.Tick(dt)
	applied = l.sched.Poll()
	return dispatched, applied
}
