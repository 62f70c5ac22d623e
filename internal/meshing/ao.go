package meshing

import "voxmesh/internal/world"

// aoLevels maps the number of occluding neighbors (3 - n) to a light factor.
var aoLevels = [4]float32{0.5, 0.7, 0.9, 1.0}

// NeighborsToAO computes the shading level of a face corner from its two
// edge neighbors and its diagonal corner neighbor.
// Two solid edges are always the darkest level, whatever the corner holds.
// See https://0fps.net/2013/07/03/ambient-occlusion-for-minecraft-like-worlds/
func NeighborsToAO(side1, side2, corner bool) float32 {
	if side1 && side2 {
		return aoLevels[0]
	}
	n := 0
	for _, s := range [3]bool{side1, side2, corner} {
		if s {
			n++
		}
	}
	return aoLevels[3-n]
}

// cornerAO samples the neighbors of a face corner inside the chunk.
// side1 steps along x and y, side2 along y and z, the corner along all three.
// Samples outside the chunk count as empty; neighbor chunks are not consulted.
func cornerAO(chunk *world.Chunk, idx world.ChunkIdx, c aoCorner) float32 {
	x, y, z := int(idx.X), int(idx.Y), int(idx.Z)
	dx, dy, dz := step(c[0]), step(c[1]), step(c[2])
	side1 := solidAt(chunk, x+dx, y+dy, z)
	side2 := solidAt(chunk, x, y+dy, z+dz)
	corner := solidAt(chunk, x+dx, y+dy, z+dz)
	return NeighborsToAO(side1, side2, corner)
}

// aoCorner selects the positive (true) or negative side per axis.
type aoCorner [3]bool

func step(positive bool) int {
	if positive {
		return 1
	}
	return -1
}

func solidAt(chunk *world.Chunk, x, y, z int) bool {
	b, ok := chunk.At(x, y, z)
	return ok && b.IsBasic()
}
