package render

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"voxmesh/internal/meshing"
	"voxmesh/internal/world"
)

var (
	ErrMeshExists   = errors.New("render: mesh already exists")
	ErrMeshNotFound = errors.New("render: mesh not found")
)

// ChunkMesh is the render-side copy of a chunk's geometry.
type ChunkMesh struct {
	Entity   uuid.UUID
	Coord    world.ChunkCoord
	Material Material
	Data     *meshing.MeshData
	Version  uint64 // bumped on every Update
}

// Store keeps one mesh per chunk entity. It stands in for GPU buffers:
// Update swaps the buffers of an existing entry instead of reallocating it.
type Store struct {
	mu     sync.RWMutex
	meshes map[uuid.UUID]*ChunkMesh

	vertices int
}

func NewStore() *Store {
	return &Store{meshes: make(map[uuid.UUID]*ChunkMesh)}
}

// Create attaches a new mesh to entity.
func (s *Store) Create(entity uuid.UUID, coord world.ChunkCoord, data *meshing.MeshData, mat Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meshes[entity]; ok {
		return ErrMeshExists
	}
	s.meshes[entity] = &ChunkMesh{Entity: entity, Coord: coord, Material: mat, Data: data, Version: 1}
	s.vertices += data.VertexCount()
	return nil
}

// Update replaces the geometry of an existing mesh in place.
func (s *Store) Update(entity uuid.UUID, data *meshing.MeshData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meshes[entity]
	if !ok {
		return ErrMeshNotFound
	}
	s.vertices += data.VertexCount() - m.Data.VertexCount()
	m.Data = data
	m.Version++
	return nil
}

// Remove drops the mesh of entity. It reports whether one existed.
func (s *Store) Remove(entity uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meshes[entity]
	if !ok {
		return false
	}
	s.vertices -= m.Data.VertexCount()
	delete(s.meshes, entity)
	return true
}

func (s *Store) Has(entity uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.meshes[entity]
	return ok
}

// Get returns a copy of the mesh header; Data is shared and must not be modified.
func (s *Store) Get(entity uuid.UUID) (ChunkMesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[entity]
	if !ok {
		return ChunkMesh{}, false
	}
	return *m, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

// VertexCount returns the total number of vertices held.
func (s *Store) VertexCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vertices
}

// Coords lists the chunks that currently have a mesh.
func (s *Store) Coords() []world.ChunkCoord {
	s.mu.RLock()
	out := make([]world.ChunkCoord, 0, len(s.meshes))
	for _, m := range s.meshes {
		out = append(out, m.Coord)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
