package world

import "github.com/go-gl/mathgl/mgl32"

// ChunkCoord is the position of a chunk in the chunk grid.
type ChunkCoord struct {
	X, Y, Z int
}

// Offset returns the coordinate of the neighbor in direction d.
func (c ChunkCoord) Offset(d Direction) ChunkCoord {
	dx, dy, dz := d.Offset()
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Neighbors returns the six axis neighbors indexed by Direction.
func (c ChunkCoord) Neighbors() [6]ChunkCoord {
	var out [6]ChunkCoord
	for _, d := range Directions {
		out[d] = c.Offset(d)
	}
	return out
}

// Chebyshev returns the max per-axis distance between two chunk coordinates.
func (c ChunkCoord) Chebyshev(o ChunkCoord) int {
	return max(absInt(c.X-o.X), absInt(c.Y-o.Y), absInt(c.Z-o.Z))
}

// Less orders coordinates by X, then Y, then Z.
func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// Vec3Scaled returns the world-space corner of the chunk for the given edge length.
func (c ChunkCoord) Vec3Scaled(size int) mgl32.Vec3 {
	s := float32(size)
	return mgl32.Vec3{float32(c.X) * s, float32(c.Y) * s, float32(c.Z) * s}
}

// BlockCoord is a world-space block position.
type BlockCoord struct {
	X, Y, Z int
}

func (b BlockCoord) Add(o BlockCoord) BlockCoord {
	return BlockCoord{X: b.X + o.X, Y: b.Y + o.Y, Z: b.Z + o.Z}
}

// Split converts a world block position into its chunk coordinate and local index.
func (b BlockCoord) Split(size int) (ChunkCoord, ChunkIdx) {
	cc := ChunkCoord{X: floorDiv(b.X, size), Y: floorDiv(b.Y, size), Z: floorDiv(b.Z, size)}
	idx := ChunkIdx{X: uint8(mod(b.X, size)), Y: uint8(mod(b.Y, size)), Z: uint8(mod(b.Z, size))}
	return cc, idx
}

// ChunkIdx is a packed chunk-local block coordinate.
type ChunkIdx struct {
	X, Y, Z uint8
}

func NewChunkIdx(x, y, z int) ChunkIdx {
	return ChunkIdx{X: uint8(x), Y: uint8(y), Z: uint8(z)}
}

// Index flattens idx for a chunk of the given edge length.
func (i ChunkIdx) Index(size int) int {
	return int(i.X)*size*size + int(i.Y)*size + int(i.Z)
}

// IdxFromIndex is the inverse of ChunkIdx.Index.
func IdxFromIndex(i, size int) ChunkIdx {
	return ChunkIdx{
		X: uint8(i / (size * size)),
		Y: uint8((i / size) % size),
		Z: uint8(i % size),
	}
}

func (i ChunkIdx) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(i.X), float32(i.Y), float32(i.Z)}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
