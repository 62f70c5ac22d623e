package meshing

import (
	"voxmesh/internal/profiling"
	"voxmesh/internal/world"
)

// MaxLODFactor returns the largest power-of-two downsampling factor that
// still leaves at least one coarse cell per axis.
func MaxLODFactor(size int) int {
	f := 1
	for f*2 <= size && size%(f*2) == 0 {
		f *= 2
	}
	return f
}

// LODFactor converts a level into a downsampling factor for chunks of the
// given size, clamping to MaxLODFactor.
func LODFactor(level, size int) int {
	if level <= 0 {
		return 1
	}
	f := 1 << min(level, 16)
	return min(f, MaxLODFactor(size))
}

// Downsample builds a coarse chunk where each cell stands for a factor^3
// block of the source. A coarse cell is solid when at least half of its
// source cells are basic blocks; it takes the most common id, ties going
// to the lowest id.
func Downsample(chunk *world.Chunk, factor int) *world.Chunk {
	if chunk == nil {
		return nil
	}
	size := chunk.Size()
	if factor <= 1 || size%factor != 0 {
		return chunk
	}
	coarseSize := size / factor
	out := world.NewChunk(chunk.Coord, coarseSize)
	volume := factor * factor * factor
	counts := make(map[world.BlockID]int, 8)

	for cx := 0; cx < coarseSize; cx++ {
		for cy := 0; cy < coarseSize; cy++ {
			for cz := 0; cz < coarseSize; cz++ {
				clear(counts)
				solid := 0
				for x := cx * factor; x < (cx+1)*factor; x++ {
					for y := cy * factor; y < (cy+1)*factor; y++ {
						for z := cz * factor; z < (cz+1)*factor; z++ {
							b, _ := chunk.At(x, y, z)
							if b.IsBasic() {
								counts[b.ID]++
								solid++
							}
						}
					}
				}
				if solid*2 < volume {
					continue
				}
				out.SetLocal(cx, cy, cz, world.Basic(dominant(counts)))
			}
		}
	}
	return out
}

func dominant(counts map[world.BlockID]int) world.BlockID {
	var best world.BlockID
	bestN := -1
	for id, n := range counts {
		if n > bestN || (n == bestN && id < best) {
			best, bestN = id, n
		}
	}
	return best
}

// MeshChunkLOD meshes chunk at reduced resolution. Level 0 is MeshChunk.
// Neighbor snapshots are optional: missing ones leave that side exposed.
// The resulting MeshData has Scale equal to the downsampling factor and the
// same Origin as the full-resolution mesh.
func MeshChunkLOD(reg BlockRegistry, chunk *world.Chunk, neighbors *[6]*world.Chunk, level int) *MeshData {
	factor := LODFactor(level, chunk.Size())
	if factor == 1 {
		return MeshChunk(reg, chunk, neighbors)
	}
	defer profiling.Track("meshing.MeshChunkLOD")()

	var coarse [6]*world.Chunk
	if neighbors != nil {
		for i, nb := range neighbors {
			if nb != nil && nb.Size() == chunk.Size() {
				coarse[i] = Downsample(nb, factor)
			}
		}
	}
	data := NewMeshData(chunk.Origin(), float32(factor))
	meshInto(reg, Downsample(chunk, factor), &coarse, data)
	return data
}
