package render

import (
	"fmt"
	"sync"
)

// Material is the shared chunk material: a texture array whose layers are
// the registry's texture names in order.
type Material struct {
	Name   string
	Layers []string
}

// Materials holds the chunk material once it has finished loading.
type Materials struct {
	mu     sync.RWMutex
	chunk  Material
	loaded bool
}

func NewMaterials() *Materials {
	return &Materials{}
}

// Load publishes the chunk material. A material without layers is rejected.
func (m *Materials) Load(mat Material) error {
	if len(mat.Layers) == 0 {
		return fmt.Errorf("load material %q: no texture layers", mat.Name)
	}
	m.mu.Lock()
	m.chunk = mat
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// Unload forgets the material, e.g. while textures are reloaded.
func (m *Materials) Unload() {
	m.mu.Lock()
	m.chunk = Material{}
	m.loaded = false
	m.mu.Unlock()
}

// ChunkMaterial returns the chunk material and whether it is loaded.
func (m *Materials) ChunkMaterial() (Material, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chunk, m.loaded
}
