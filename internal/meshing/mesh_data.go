package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxmesh/internal/registry"
	"voxmesh/internal/world"
)

// BlockRegistry is the read-only block lookup the mesher needs.
type BlockRegistry interface {
	GetBlockMesh(id world.BlockID) registry.BlockMesh
	IsTransparent(b world.Block, face world.Direction) bool
}

// MeshData accumulates the buffers for one chunk mesh.
//
// Positions, Normals, UVs, AO and Layers are parallel per-vertex slices;
// every quad contributes four entries to each and six Indices. The texture
// layer is constant across a quad and repeated for its four corners.
// Positions are relative to Origin, the chunk's world-space corner.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	AO        []float32
	Layers    []int32
	Indices   []uint32

	Origin mgl32.Vec3
	Scale  float32
}

// NewMeshData returns an empty accumulator.
func NewMeshData(origin mgl32.Vec3, scale float32) *MeshData {
	return &MeshData{Origin: origin, Scale: scale}
}

// IsEmpty reports whether no geometry was emitted.
func (m *MeshData) IsEmpty() bool {
	return m == nil || len(m.Positions) == 0
}

// VertexCount returns the number of vertices.
func (m *MeshData) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Positions)
}

// QuadCount returns the number of emitted faces.
func (m *MeshData) QuadCount() int { return len(m.Positions) / 4 }

// Quad returns the four corner positions of quad q.
func (m *MeshData) Quad(q int) [4]mgl32.Vec3 {
	var out [4]mgl32.Vec3
	copy(out[:], m.Positions[q*4:q*4+4])
	return out
}
