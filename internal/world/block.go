package world

import "fmt"

// BlockID identifies a block type in the registry.
type BlockID uint16

// EntityRef points at an entity that owns a block cell (chests, doors, ...).
type EntityRef uint64

// BlockKind tags which variant a Block holds.
type BlockKind uint8

const (
	KindEmpty BlockKind = iota
	KindBasic
	KindEntity
)

// Block is a single voxel cell: Empty, Basic(id) or Entity(ref).
type Block struct {
	Kind   BlockKind
	ID     BlockID
	Entity EntityRef
}

// Empty is the air block.
var Empty = Block{}

// Basic returns a plain registry-backed block.
func Basic(id BlockID) Block {
	return Block{Kind: KindBasic, ID: id}
}

// EntityBlock returns a block cell owned by an entity.
func EntityBlock(ref EntityRef) Block {
	return Block{Kind: KindEntity, Entity: ref}
}

func (b Block) IsEmpty() bool { return b.Kind == KindEmpty }
func (b Block) IsBasic() bool { return b.Kind == KindBasic }

func (b Block) String() string {
	switch b.Kind {
	case KindBasic:
		return fmt.Sprintf("Basic(%d)", b.ID)
	case KindEntity:
		return fmt.Sprintf("Entity(%d)", b.Entity)
	default:
		return "Empty"
	}
}
