package meshing

import (
	"voxmesh/internal/profiling"
	"voxmesh/internal/world"
)

// MeshChunk builds the full-resolution mesh of chunk.
//
// neighbors holds the adjacent snapshots indexed by world.Direction. A nil
// entry (or one with a different edge length) leaves that side exposed, so
// boundary faces are emitted. Entity blocks are skipped; their owners draw
// them. The result depends only on the inputs: meshing the same snapshots
// twice yields identical buffers.
func MeshChunk(reg BlockRegistry, chunk *world.Chunk, neighbors *[6]*world.Chunk) *MeshData {
	defer profiling.Track("meshing.MeshChunk")()
	data := NewMeshData(chunk.Origin(), 1)
	meshInto(reg, chunk, neighbors, data)
	return data
}

// meshInto emits faces for every basic block of chunk, placing block (x,y,z)
// at (x,y,z)*data.Scale relative to data.Origin.
func meshInto(reg BlockRegistry, chunk *world.Chunk, neighbors *[6]*world.Chunk, data *MeshData) {
	if chunk == nil {
		return
	}
	size := chunk.Size()
	for i := 0; i < chunk.Len(); i++ {
		b := chunk.GetIndex(i)
		if !b.IsBasic() {
			continue
		}
		idx := world.IdxFromIndex(i, size)
		mesh := reg.GetBlockMesh(b.ID)
		origin := idx.Vec3().Mul(data.Scale)
		for _, face := range faceOrder {
			nb, ok := neighborBlock(chunk, neighbors, idx, face)
			if !ok || ShouldMeshFace(reg, mesh, face, nb) {
				emitFace(data, chunk, idx, mesh, face, origin)
			}
		}
	}
}

// neighborBlock returns the block adjacent to idx across face. Cells past the
// chunk edge are read from the matching neighbor snapshot; ok is false when
// that snapshot is unavailable.
func neighborBlock(chunk *world.Chunk, neighbors *[6]*world.Chunk, idx world.ChunkIdx, face world.Direction) (world.Block, bool) {
	dx, dy, dz := face.Offset()
	x, y, z := int(idx.X)+dx, int(idx.Y)+dy, int(idx.Z)+dz
	if b, ok := chunk.At(x, y, z); ok {
		return b, true
	}
	if neighbors == nil {
		return world.Empty, false
	}
	nb := neighbors[face]
	size := chunk.Size()
	if nb == nil || nb.Size() != size {
		return world.Empty, false
	}
	return nb.At(wrap(x, size), wrap(y, size), wrap(z, size))
}

// wrap maps a coordinate one step outside [0,size) onto the opposite edge.
func wrap(v, size int) int {
	switch {
	case v < 0:
		return size - 1
	case v >= size:
		return 0
	}
	return v
}
