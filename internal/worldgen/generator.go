package worldgen

import (
	"context"
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"golang.org/x/sync/errgroup"

	"voxmesh/internal/profiling"
	"voxmesh/internal/registry"
	"voxmesh/internal/world"
)

// Generator handles terrain generation logic.
// It only reads its noise tables after construction, so one Generator can
// populate chunks from several goroutines.
type Generator struct {
	noise      *perlin.Perlin
	size       int
	scale      float64
	baseHeight int
	amp        float64
	sandLevel  int
	dirtDepth  int
}

// NewGenerator creates a new generator with default settings.
func NewGenerator(seed int64, chunkSize int) *Generator {
	return &Generator{
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		size:       chunkSize,
		scale:      1.0 / 48.0,
		baseHeight: 16,
		amp:        12,
		sandLevel:  12,
		dirtDepth:  3,
	}
}

// surfaceAt returns the terrain surface height at world X,Z. The fraction
// above the last full block decides where slabs go.
func (g *Generator) surfaceAt(worldX, worldZ int) float64 {
	n := g.noise.Noise2D(float64(worldX)*g.scale, float64(worldZ)*g.scale)
	return math.Max(float64(g.baseHeight)+n*g.amp, 0)
}

// HeightAt computes world surface height (block Y) at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	return int(math.Floor(g.surfaceAt(worldX, worldZ)))
}

// PopulateChunk builds the chunk at coord from the noise heightmap.
func (g *Generator) PopulateChunk(coord world.ChunkCoord) *world.Chunk {
	defer profiling.Track("worldgen.PopulateChunk")()
	c := world.NewChunk(coord, g.size)
	baseX, baseY, baseZ := coord.X*g.size, coord.Y*g.size, coord.Z*g.size
	for lx := 0; lx < g.size; lx++ {
		for lz := 0; lz < g.size; lz++ {
			surface := g.surfaceAt(baseX+lx, baseZ+lz)
			height := int(math.Floor(surface))
			for ly := 0; ly < g.size; ly++ {
				y := baseY + ly
				if b, ok := g.blockAt(y, height, surface); ok {
					c.SetLocal(lx, ly, lz, b)
				}
			}
		}
	}
	return c
}

func (g *Generator) blockAt(y, height int, surface float64) (world.Block, bool) {
	switch {
	case y < 0:
		return world.Empty, false
	case y < height-g.dirtDepth:
		return world.Basic(registry.BlockStone), true
	case y < height:
		return world.Basic(registry.BlockDirt), true
	case y == height && height <= g.sandLevel:
		return world.Basic(registry.BlockSand), true
	case y == height:
		return world.Basic(registry.BlockGrass), true
	case y == height+1 && surface-float64(height) >= 0.85 && height > g.sandLevel:
		return world.Basic(registry.BlockStoneSlab), true
	}
	return world.Empty, false
}

// GenerateRegion populates every chunk in the inclusive box lo..hi using up
// to workers goroutines. Chunks are returned in X, Y, Z order.
func (g *Generator) GenerateRegion(ctx context.Context, lo, hi world.ChunkCoord, workers int) ([]*world.Chunk, error) {
	if hi.X < lo.X || hi.Y < lo.Y || hi.Z < lo.Z {
		return nil, fmt.Errorf("generate region %v..%v: empty box", lo, hi)
	}
	var coords []world.ChunkCoord
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				coords = append(coords, world.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}

	out := make([]*world.Chunk, len(coords))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(workers, 1))
	for i, c := range coords {
		i, c := i, c
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = g.PopulateChunk(c)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generate region: %w", err)
	}
	return out, nil
}
