package registry

import "voxmesh/internal/world"

// Built-in block ids.
const (
	BlockStone world.BlockID = iota + 1
	BlockDirt
	BlockGrass
	BlockSand
	BlockGlass
	BlockLog
	BlockStoneSlab
	BlockPlanks
)

// Default returns a registry with the built-in block set.
func Default() *Registry {
	return New().MustRegister(
		BlockDefinition{ID: BlockStone, Name: "stone", TextureSide: "stone.png"},
		BlockDefinition{ID: BlockDirt, Name: "dirt", TextureSide: "dirt.png"},
		BlockDefinition{
			ID:          BlockGrass,
			Name:        "grass",
			TextureTop:  "grass_top.png",
			TextureSide: "grass_side.png",
			TextureBot:  "dirt.png",
		},
		BlockDefinition{ID: BlockSand, Name: "sand", TextureSide: "sand.png"},
		BlockDefinition{ID: BlockGlass, Name: "glass", TextureSide: "glass.png", IsTransparent: true},
		BlockDefinition{
			ID:          BlockLog,
			Name:        "log",
			TextureTop:  "log_top.png",
			TextureSide: "log_side.png",
			TextureBot:  "log_top.png",
		},
		BlockDefinition{
			ID:          BlockStoneSlab,
			Name:        "stone_slab",
			TextureTop:  "stone_slab_top.png",
			TextureSide: "stone_slab_side.png",
			TextureBot:  "stone_slab_top.png",
			SlabHeight:  0.5,
		},
		BlockDefinition{ID: BlockPlanks, Name: "planks", TextureSide: "planks.png"},
	)
}
