package world

import "github.com/go-gl/mathgl/mgl32"

// DefaultChunkSize is the chunk edge length used when none is configured.
const DefaultChunkSize = 32

// MaxChunkSize keeps local coordinates packable into a uint8.
const MaxChunkSize = 128

// Chunk is a cubic grid of blocks.
//
// A chunk handed to a ChunkStore becomes a shared snapshot: the store never
// mutates it again, edits go through Clone. Callers building a chunk (world
// generation, tests) may use Set freely until the chunk is inserted.
type Chunk struct {
	Coord  ChunkCoord
	size   int
	blocks []Block
}

// NewChunk creates an empty chunk at coord with the given edge length.
func NewChunk(coord ChunkCoord, size int) *Chunk {
	if size <= 0 || size > MaxChunkSize {
		size = DefaultChunkSize
	}
	return &Chunk{
		Coord:  coord,
		size:   size,
		blocks: make([]Block, size*size*size),
	}
}

// NewFilledChunk creates a chunk with every cell set to b.
func NewFilledChunk(coord ChunkCoord, size int, b Block) *Chunk {
	c := NewChunk(coord, size)
	for i := range c.blocks {
		c.blocks[i] = b
	}
	return c
}

// Size returns the edge length.
func (c *Chunk) Size() int { return c.size }

// Len returns the number of cells.
func (c *Chunk) Len() int { return len(c.blocks) }

// Get returns the block at idx. idx must be in range.
func (c *Chunk) Get(idx ChunkIdx) Block {
	return c.blocks[idx.Index(c.size)]
}

// GetIndex returns the block at flat index i.
func (c *Chunk) GetIndex(i int) Block {
	return c.blocks[i]
}

// At returns the block at local coordinates, reporting false when they fall
// outside the chunk.
func (c *Chunk) At(x, y, z int) (Block, bool) {
	if !c.InBounds(x, y, z) {
		return Empty, false
	}
	return c.blocks[x*c.size*c.size+y*c.size+z], true
}

// InBounds reports whether local coordinates address a cell of c.
func (c *Chunk) InBounds(x, y, z int) bool {
	return x >= 0 && x < c.size && y >= 0 && y < c.size && z >= 0 && z < c.size
}

// Set writes a block. Only valid before the chunk is published to a store.
func (c *Chunk) Set(idx ChunkIdx, b Block) {
	c.blocks[idx.Index(c.size)] = b
}

// SetLocal is Set with plain ints; out-of-range writes are ignored.
func (c *Chunk) SetLocal(x, y, z int, b Block) {
	if !c.InBounds(x, y, z) {
		return
	}
	c.blocks[x*c.size*c.size+y*c.size+z] = b
}

// Clone returns a deep copy that can be edited without affecting c.
func (c *Chunk) Clone() *Chunk {
	blocks := make([]Block, len(c.blocks))
	copy(blocks, c.blocks)
	return &Chunk{Coord: c.Coord, size: c.size, blocks: blocks}
}

// With returns a copy of c with idx set to b. c itself is unchanged.
func (c *Chunk) With(idx ChunkIdx, b Block) *Chunk {
	out := c.Clone()
	out.Set(idx, b)
	return out
}

// IsEmpty reports whether every cell is Empty.
func (c *Chunk) IsEmpty() bool {
	for _, b := range c.blocks {
		if !b.IsEmpty() {
			return false
		}
	}
	return true
}

// Origin returns the world-space position of local (0,0,0).
func (c *Chunk) Origin() mgl32.Vec3 {
	return c.Coord.Vec3Scaled(c.size)
}

// CountNonEmpty returns the number of non-empty cells.
func (c *Chunk) CountNonEmpty() int {
	n := 0
	for _, b := range c.blocks {
		if !b.IsEmpty() {
			n++
		}
	}
	return n
}
