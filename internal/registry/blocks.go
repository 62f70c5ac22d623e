package registry

import (
	"fmt"

	"voxmesh/internal/world"
)

// MeshStyle selects the geometry template used for a block.
type MeshStyle uint8

const (
	StyleUniform MeshStyle = iota
	StyleMultiTexture
	StyleBottomSlab
)

func (s MeshStyle) String() string {
	switch s {
	case StyleUniform:
		return "uniform"
	case StyleMultiTexture:
		return "multi_texture"
	case StyleBottomSlab:
		return "bottom_slab"
	default:
		return "unknown"
	}
}

// BlockMesh describes how a block is drawn: one texture layer for every
// face, one layer per face, or a bottom slab of a given height with one
// layer per face.
type BlockMesh struct {
	Style  MeshStyle
	Layers [6]uint32 // indexed by world.Direction; Uniform uses slot 0
	Height float32   // slab height as a fraction of a block, 1 otherwise
}

func Uniform(layer uint32) BlockMesh {
	return BlockMesh{Style: StyleUniform, Layers: [6]uint32{layer}, Height: 1}
}

func MultiTexture(layers [6]uint32) BlockMesh {
	return BlockMesh{Style: StyleMultiTexture, Layers: layers, Height: 1}
}

func BottomSlab(height float32, layers [6]uint32) BlockMesh {
	return BlockMesh{Style: StyleBottomSlab, Layers: layers, Height: height}
}

// Layer returns the texture layer drawn on the given face.
func (m BlockMesh) Layer(face world.Direction) uint32 {
	if m.Style == StyleUniform {
		return m.Layers[0]
	}
	return m.Layers[face.Index()]
}

// BlockDefinition defines the properties of a block type.
// Textures are referenced by name; the registry assigns texture layers in
// registration order. A non-zero SlabHeight makes the block a bottom slab.
type BlockDefinition struct {
	ID            world.BlockID
	Name          string
	TextureTop    string
	TextureSide   string
	TextureBot    string
	IsTransparent bool
	SlabHeight    float32

	Mesh BlockMesh // filled in by Register
}

// Registry maps block ids to their definitions.
// It is read-only once it has been handed to the mesher.
type Registry struct {
	blocks       map[world.BlockID]*BlockDefinition
	names        map[string]world.BlockID
	textureNames []string
	textureMap   map[string]int
	missing      BlockMesh
}

// New returns an empty registry. Texture layer 0 is reserved for the
// missing-texture fallback.
func New() *Registry {
	r := &Registry{
		blocks:     make(map[world.BlockID]*BlockDefinition),
		names:      make(map[string]world.BlockID),
		textureMap: make(map[string]int),
	}
	r.registerTexture("missing.png")
	r.missing = Uniform(0)
	return r
}

// RegisterBlock adds def, resolving its textures into layers.
func (r *Registry) RegisterBlock(def BlockDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("register block %d: name must be set", def.ID)
	}
	if _, dup := r.blocks[def.ID]; dup {
		return fmt.Errorf("register block %q: id %d already registered", def.Name, def.ID)
	}
	if _, dup := r.names[def.Name]; dup {
		return fmt.Errorf("register block %q: name already registered", def.Name)
	}
	if def.SlabHeight < 0 || def.SlabHeight > 1 {
		return fmt.Errorf("register block %q: slab height %v out of range", def.Name, def.SlabHeight)
	}

	side := def.TextureSide
	top := firstNonEmpty(def.TextureTop, side)
	bot := firstNonEmpty(def.TextureBot, side)
	side = firstNonEmpty(side, top)

	var layers [6]uint32
	for _, d := range world.Directions {
		name := side
		switch d {
		case world.PosY:
			name = top
		case world.NegY:
			name = bot
		}
		layers[d] = uint32(r.registerTexture(name))
	}

	switch {
	case def.SlabHeight > 0 && def.SlabHeight < 1:
		def.Mesh = BottomSlab(def.SlabHeight, layers)
	case top == side && bot == side:
		def.Mesh = Uniform(layers[world.PosX])
	default:
		def.Mesh = MultiTexture(layers)
	}

	stored := def
	r.blocks[def.ID] = &stored
	r.names[def.Name] = def.ID
	return nil
}

// MustRegister is RegisterBlock for static tables.
func (r *Registry) MustRegister(defs ...BlockDefinition) *Registry {
	for _, def := range defs {
		if err := r.RegisterBlock(def); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) registerTexture(name string) int {
	if name == "" {
		return 0
	}
	if idx, exists := r.textureMap[name]; exists {
		return idx
	}
	idx := len(r.textureNames)
	r.textureMap[name] = idx
	r.textureNames = append(r.textureNames, name)
	return idx
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id world.BlockID) (*BlockDefinition, bool) {
	def, ok := r.blocks[id]
	return def, ok
}

// ByName resolves a block name to its id.
func (r *Registry) ByName(name string) (world.BlockID, bool) {
	id, ok := r.names[name]
	return id, ok
}

// TextureNames lists texture files in layer order.
func (r *Registry) TextureNames() []string {
	out := make([]string, len(r.textureNames))
	copy(out, r.textureNames)
	return out
}

// GetBlockMesh returns the visual style of id. Unknown ids get a uniform
// cube using the missing texture.
func (r *Registry) GetBlockMesh(id world.BlockID) BlockMesh {
	if def, ok := r.blocks[id]; ok {
		return def.Mesh
	}
	return r.missing
}

// IsTransparent reports whether face of block b lets the block behind it
// show through. Empty and entity cells are transparent, as are unknown ids.
// Bottom slabs are only opaque on their bottom face.
func (r *Registry) IsTransparent(b world.Block, face world.Direction) bool {
	if b.Kind != world.KindBasic {
		return true
	}
	def, ok := r.blocks[b.ID]
	if !ok || def.IsTransparent {
		return true
	}
	if def.Mesh.Style == StyleBottomSlab {
		return face != world.NegY
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
