package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"voxmesh/internal/profiling"
)

var (
	ErrChunkNotFound     = errors.New("chunk not found")
	ErrChunkNotFull      = errors.New("chunk not generated yet")
	ErrNilChunk          = errors.New("nil chunk")
	ErrChunkSizeMismatch = errors.New("chunk size does not match store")
)

// SlotKind tells whether a stored chunk is generated.
type SlotKind uint8

const (
	// SlotPlaceholder marks a coordinate that is known but not generated yet.
	SlotPlaceholder SlotKind = iota
	// SlotFull holds a complete block grid.
	SlotFull
)

// Slot is the stored state at a chunk coordinate.
type Slot struct {
	Kind  SlotKind
	Chunk *Chunk // nil for placeholders
}

// BlockChange is one entry of a batched edit.
type BlockChange struct {
	Pos   BlockCoord
	Block Block
}

// ChunkStore manages the storage and retrieval of chunks.
//
// Chunks stored as Full are immutable snapshots. Readers (including meshing
// workers) may keep a *Chunk for as long as they like; edits clone the
// grid, modify the copy and swap it in.
type ChunkStore struct {
	chunks   map[ChunkCoord]Slot
	mu       sync.RWMutex
	size     int
	modCount uint64 // Increases on any chunk add/remove/edit
}

// NewChunkStore creates a new chunk store for chunks of the given edge length.
func NewChunkStore(size int) *ChunkStore {
	if size <= 0 || size > MaxChunkSize {
		size = DefaultChunkSize
	}
	return &ChunkStore{
		chunks: make(map[ChunkCoord]Slot),
		size:   size,
	}
}

// ChunkSize returns the edge length of every chunk in the store.
func (cs *ChunkStore) ChunkSize() int { return cs.size }

// GetChunk returns the slot at coord.
func (cs *ChunkStore) GetChunk(coord ChunkCoord) (Slot, bool) {
	cs.mu.RLock()
	s, ok := cs.chunks[coord]
	cs.mu.RUnlock()
	return s, ok
}

// Full returns the chunk snapshot at coord if it is generated.
func (cs *ChunkStore) Full(coord ChunkCoord) (*Chunk, bool) {
	cs.mu.RLock()
	s, ok := cs.chunks[coord]
	cs.mu.RUnlock()
	if !ok || s.Kind != SlotFull {
		return nil, false
	}
	return s.Chunk, true
}

// Neighbors returns the snapshots of the six axis neighbors that are Full,
// indexed by Direction, along with how many were found.
func (cs *ChunkStore) Neighbors(coord ChunkCoord) ([6]*Chunk, int) {
	var out [6]*Chunk
	n := 0
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, d := range Directions {
		if s, ok := cs.chunks[coord.Offset(d)]; ok && s.Kind == SlotFull {
			out[d] = s.Chunk
			n++
		}
	}
	return out, n
}

// HasChunk checks if a slot exists at coord in any state.
func (cs *ChunkStore) HasChunk(coord ChunkCoord) bool {
	cs.mu.RLock()
	_, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	return exists
}

// InsertPlaceholder records coord as known but ungenerated. An existing Full
// chunk is left alone and false is returned.
func (cs *ChunkStore) InsertPlaceholder(coord ChunkCoord) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if s, ok := cs.chunks[coord]; ok && s.Kind == SlotFull {
		return false
	}
	cs.chunks[coord] = Slot{Kind: SlotPlaceholder}
	cs.modCount++
	return true
}

// InsertFull publishes a generated chunk, replacing any placeholder or older
// snapshot at its coordinate. The chunk must not be modified afterwards.
func (cs *ChunkStore) InsertFull(chunk *Chunk) error {
	if chunk == nil {
		return ErrNilChunk
	}
	if chunk.Size() != cs.size {
		return fmt.Errorf("%w: got %d, want %d", ErrChunkSizeMismatch, chunk.Size(), cs.size)
	}
	cs.mu.Lock()
	cs.chunks[chunk.Coord] = Slot{Kind: SlotFull, Chunk: chunk}
	cs.modCount++
	cs.mu.Unlock()
	return nil
}

// Remove drops the slot at coord.
func (cs *ChunkStore) Remove(coord ChunkCoord) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; !ok {
		return false
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return true
}

// Get returns the block at the specified world coordinates.
func (cs *ChunkStore) Get(pos BlockCoord) Block {
	cc, idx := pos.Split(cs.size)
	chunk, ok := cs.Full(cc)
	if !ok {
		return Empty
	}
	return chunk.Get(idx)
}

// SetBlock writes one block and returns every chunk whose mesh is affected:
// the edited chunk plus each existing neighbor sharing the touched boundary.
func (cs *ChunkStore) SetBlock(pos BlockCoord, b Block) ([]ChunkCoord, error) {
	cc, idx := pos.Split(cs.size)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	s, ok := cs.chunks[cc]
	if !ok {
		return nil, ErrChunkNotFound
	}
	if s.Kind != SlotFull {
		return nil, ErrChunkNotFull
	}
	if s.Chunk.Get(idx) == b {
		return nil, nil
	}
	next := s.Chunk.Clone()
	next.Set(idx, b)
	cs.chunks[cc] = Slot{Kind: SlotFull, Chunk: next}
	cs.modCount++

	affected := []ChunkCoord{cc}
	for _, d := range cs.boundaryDirections(idx) {
		nb := cc.Offset(d)
		if _, ok := cs.chunks[nb]; ok {
			affected = append(affected, nb)
		}
	}
	return affected, nil
}

// BatchSetBlocks applies many edits, cloning each touched chunk once.
// Edits that land in missing or ungenerated chunks are skipped. The
// returned coordinates are deduplicated and sorted.
func (cs *ChunkStore) BatchSetBlocks(changes []BlockChange) []ChunkCoord {
	defer profiling.Track("world.BatchSetBlocks")()
	if len(changes) == 0 {
		return nil
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	edited := make(map[ChunkCoord]*Chunk)
	affected := make(map[ChunkCoord]struct{})
	for _, ch := range changes {
		cc, idx := ch.Pos.Split(cs.size)
		next, ok := edited[cc]
		if !ok {
			s, exists := cs.chunks[cc]
			if !exists || s.Kind != SlotFull {
				continue
			}
			if s.Chunk.Get(idx) == ch.Block {
				continue
			}
			next = s.Chunk.Clone()
			edited[cc] = next
		}
		if next.Get(idx) == ch.Block {
			continue
		}
		next.Set(idx, ch.Block)
		affected[cc] = struct{}{}
		for _, d := range cs.boundaryDirections(idx) {
			nb := cc.Offset(d)
			if _, ok := cs.chunks[nb]; ok {
				affected[nb] = struct{}{}
			}
		}
	}
	for cc, next := range edited {
		cs.chunks[cc] = Slot{Kind: SlotFull, Chunk: next}
		cs.modCount++
	}

	out := make([]ChunkCoord, 0, len(affected))
	for cc := range affected {
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// boundaryDirections lists the directions in which idx touches the chunk edge.
func (cs *ChunkStore) boundaryDirections(idx ChunkIdx) []Direction {
	last := uint8(cs.size - 1)
	var dirs []Direction
	if idx.X == 0 {
		dirs = append(dirs, NegX)
	} else if idx.X == last {
		dirs = append(dirs, PosX)
	}
	if idx.Y == 0 {
		dirs = append(dirs, NegY)
	} else if idx.Y == last {
		dirs = append(dirs, PosY)
	}
	if idx.Z == 0 {
		dirs = append(dirs, NegZ)
	} else if idx.Z == last {
		dirs = append(dirs, PosZ)
	}
	return dirs
}

// Coords returns every stored coordinate, sorted.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for cc := range cs.chunks {
		out = append(out, cc)
	}
	cs.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Len returns the number of stored slots.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}
