package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxmesh/internal/registry"
	"voxmesh/internal/world"
)

// faceTemplate is one face of the unit cube. Corners are listed so that the
// fan 0-1-2, 2-3-0 winds counter-clockwise seen from outside.
type faceTemplate struct {
	corners [4]mgl32.Vec3
	uvs     [4]mgl32.Vec2
	ao      [4]aoCorner
}

const (
	lo = false
	hi = true
)

var cubeFaces = [6]faceTemplate{
	world.PosX: {
		corners: [4]mgl32.Vec3{{1, 1, 1}, {1, 0, 1}, {1, 0, 0}, {1, 1, 0}},
		uvs:     [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
		ao:      [4]aoCorner{{hi, hi, hi}, {hi, lo, hi}, {hi, lo, lo}, {hi, hi, lo}},
	},
	world.PosY: {
		corners: [4]mgl32.Vec3{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
		uvs:     [4]mgl32.Vec2{{1, 1}, {1, 0}, {0, 0}, {0, 1}},
		ao:      [4]aoCorner{{lo, hi, lo}, {lo, hi, hi}, {hi, hi, hi}, {hi, hi, lo}},
	},
	world.PosZ: {
		corners: [4]mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
		uvs:     [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		ao:      [4]aoCorner{{lo, lo, hi}, {hi, lo, hi}, {hi, hi, hi}, {lo, hi, hi}},
	},
	world.NegX: {
		corners: [4]mgl32.Vec3{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
		uvs:     [4]mgl32.Vec2{{1, 1}, {1, 0}, {0, 0}, {0, 1}},
		ao:      [4]aoCorner{{lo, lo, hi}, {lo, hi, hi}, {lo, hi, lo}, {lo, lo, lo}},
	},
	world.NegY: {
		corners: [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		uvs:     [4]mgl32.Vec2{{1, 1}, {0, 1}, {0, 0}, {1, 0}},
		ao:      [4]aoCorner{{lo, lo, lo}, {hi, lo, lo}, {hi, lo, hi}, {lo, lo, hi}},
	},
	world.NegZ: {
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
		uvs:     [4]mgl32.Vec2{{1, 1}, {1, 0}, {0, 0}, {0, 1}},
		ao:      [4]aoCorner{{lo, lo, lo}, {lo, hi, lo}, {hi, hi, lo}, {hi, lo, lo}},
	},
}

// Slabs sample the same four corners on every face.
// TODO: scale slab AO strength by slab height.
var slabAO = [4]aoCorner{{lo, lo, lo}, {hi, lo, lo}, {hi, lo, hi}, {lo, lo, hi}}

// faceOrder is the order faces are tested per block; it fixes vertex order.
var faceOrder = [6]world.Direction{world.PosZ, world.NegZ, world.PosY, world.NegY, world.PosX, world.NegX}

// ShouldMeshFace decides whether the face of a block of style mesh pointing
// at face needs geometry, given the block on the other side.
// Full cubes draw a face when the neighbor's touching face is transparent.
// A bottom slab always draws its top since it sits below the cell boundary.
func ShouldMeshFace(reg BlockRegistry, mesh registry.BlockMesh, face world.Direction, neighbor world.Block) bool {
	if mesh.Style == registry.StyleBottomSlab && face == world.PosY {
		return true
	}
	return reg.IsTransparent(neighbor, face.Opposite())
}

// emitFace appends one quad for the block at idx.
func emitFace(data *MeshData, chunk *world.Chunk, idx world.ChunkIdx, mesh registry.BlockMesh, face world.Direction, origin mgl32.Vec3) {
	base := uint32(len(data.Positions))
	data.Indices = append(data.Indices, base, base+1, base+2, base+2, base+3, base)

	tpl := &cubeFaces[face]
	corners := tpl.ao
	height := float32(1)
	slab := mesh.Style == registry.StyleBottomSlab
	if slab {
		corners = slabAO
		height = mesh.Height
	}
	s := data.Scale
	normal := face.Normal()
	layer := int32(mesh.Layer(face))

	for k := 0; k < 4; k++ {
		c := tpl.corners[k]
		data.Positions = append(data.Positions, origin.Add(mgl32.Vec3{c.X() * s, c.Y() * height * s, c.Z() * s}))

		uv := tpl.uvs[k]
		if slab && face.Axis() != 1 {
			uv[1] *= height
		}
		data.UVs = append(data.UVs, uv)
		data.Normals = append(data.Normals, normal)
		data.Layers = append(data.Layers, layer)
		data.AO = append(data.AO, cornerAO(chunk, idx, corners[k]))
	}
}
