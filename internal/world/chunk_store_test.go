package world

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func newTestStore(t *testing.T, size int, coords ...ChunkCoord) *ChunkStore {
	t.Helper()
	cs := NewChunkStore(size)
	for _, c := range coords {
		if err := cs.InsertFull(NewChunk(c, size)); err != nil {
			t.Fatal(err)
		}
	}
	return cs
}

func TestSlots(t *testing.T) {
	cs := NewChunkStore(4)
	c := ChunkCoord{X: 2}
	if !cs.InsertPlaceholder(c) {
		t.Fatal("placeholder insert failed")
	}
	if _, ok := cs.Full(c); ok {
		t.Fatal("placeholder reported as full")
	}
	if err := cs.InsertFull(NewChunk(c, 4)); err != nil {
		t.Fatal(err)
	}
	if cs.InsertPlaceholder(c) {
		t.Fatal("placeholder must not replace a full chunk")
	}
	if s, _ := cs.GetChunk(c); s.Kind != SlotFull || s.Chunk == nil {
		t.Fatalf("slot = %+v", s)
	}
	if err := cs.InsertFull(NewChunk(c, 8)); !errors.Is(err, ErrChunkSizeMismatch) {
		t.Fatalf("mismatched chunk size: err = %v", err)
	}
	if err := cs.InsertFull(nil); !errors.Is(err, ErrNilChunk) {
		t.Fatalf("nil chunk: err = %v", err)
	}
	if !cs.Remove(c) || cs.HasChunk(c) || cs.Remove(c) {
		t.Fatal("remove failed")
	}
}

func TestNeighborsCountsFullOnly(t *testing.T) {
	origin := ChunkCoord{}
	cs := newTestStore(t, 2, origin.Offset(PosX), origin.Offset(NegY))
	cs.InsertPlaceholder(origin.Offset(PosZ))

	nbs, n := cs.Neighbors(origin)
	if n != 2 {
		t.Fatalf("ready neighbors = %d, want 2", n)
	}
	if nbs[PosX] == nil || nbs[NegY] == nil || nbs[PosZ] != nil {
		t.Fatalf("neighbors = %v", nbs)
	}
}

func TestSetBlockCopyOnWrite(t *testing.T) {
	cs := newTestStore(t, 4, ChunkCoord{})
	before, _ := cs.Full(ChunkCoord{})

	affected, err := cs.SetBlock(BlockCoord{1, 1, 1}, Basic(2))
	if err != nil {
		t.Fatal(err)
	}
	after, _ := cs.Full(ChunkCoord{})
	if before == after {
		t.Fatal("edit must publish a new snapshot")
	}
	if before.Get(NewChunkIdx(1, 1, 1)) != Empty {
		t.Fatal("old snapshot was mutated")
	}
	if cs.Get(BlockCoord{1, 1, 1}) != Basic(2) {
		t.Fatal("edit not visible")
	}
	if !reflect.DeepEqual(affected, []ChunkCoord{{}}) {
		t.Fatalf("interior edit affected %v", affected)
	}

	// No-op edits leave the snapshot alone.
	mod := cs.GetModCount()
	affected, err = cs.SetBlock(BlockCoord{1, 1, 1}, Basic(2))
	if err != nil || affected != nil || cs.GetModCount() != mod {
		t.Fatalf("no-op edit: %v %v", affected, err)
	}
}

func TestSetBlockBoundaryInvalidation(t *testing.T) {
	origin := ChunkCoord{}
	cs := newTestStore(t, 4, origin, origin.Offset(NegX), origin.Offset(PosY))

	affected, err := cs.SetBlock(BlockCoord{0, 1, 2}, Basic(1))
	if err != nil {
		t.Fatal(err)
	}
	want := []ChunkCoord{origin, origin.Offset(NegX)}
	if !reflect.DeepEqual(affected, want) {
		t.Fatalf("affected = %v, want %v", affected, want)
	}

	// Corner cell touches three faces; only existing neighbors are returned.
	affected, _ = cs.SetBlock(BlockCoord{0, 3, 0}, Basic(1))
	want = []ChunkCoord{origin, origin.Offset(NegX), origin.Offset(PosY)}
	if !reflect.DeepEqual(affected, want) {
		t.Fatalf("corner affected = %v, want %v", affected, want)
	}
}

func TestSetBlockErrors(t *testing.T) {
	cs := NewChunkStore(4)
	if _, err := cs.SetBlock(BlockCoord{}, Basic(1)); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("err = %v", err)
	}
	cs.InsertPlaceholder(ChunkCoord{})
	if _, err := cs.SetBlock(BlockCoord{}, Basic(1)); !errors.Is(err, ErrChunkNotFull) {
		t.Fatalf("err = %v", err)
	}
	if cs.Get(BlockCoord{}) != Empty {
		t.Fatal("placeholder reads should be empty")
	}
}

func TestBatchSetBlocks(t *testing.T) {
	origin := ChunkCoord{}
	east := origin.Offset(PosX)
	cs := newTestStore(t, 4, origin, east)
	before, _ := cs.Full(origin)

	affected := cs.BatchSetBlocks([]BlockChange{
		{Pos: BlockCoord{1, 1, 1}, Block: Basic(1)},
		{Pos: BlockCoord{2, 1, 1}, Block: Basic(1)},
		{Pos: BlockCoord{3, 1, 1}, Block: Basic(1)}, // east boundary
		{Pos: BlockCoord{5, 1, 1}, Block: Basic(2)},
		{Pos: BlockCoord{-10, 0, 0}, Block: Basic(2)}, // not loaded
	})
	if !reflect.DeepEqual(affected, []ChunkCoord{origin, east}) {
		t.Fatalf("affected = %v", affected)
	}
	after, _ := cs.Full(origin)
	if after.CountNonEmpty() != 3 || before.CountNonEmpty() != 0 {
		t.Fatal("batch must publish one new snapshot and leave the old one intact")
	}
	if cs.Get(BlockCoord{5, 1, 1}) != Basic(2) {
		t.Fatal("second chunk edit missing")
	}
	if cs.BatchSetBlocks(nil) != nil {
		t.Fatal("empty batch should affect nothing")
	}
}

func TestConcurrentReadsDuringEdits(t *testing.T) {
	cs := newTestStore(t, 8, ChunkCoord{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if ch, ok := cs.Full(ChunkCoord{}); ok {
					_ = ch.CountNonEmpty()
				}
			}
		}()
	}
	for i := 0; i < 64; i++ {
		if _, err := cs.SetBlock(BlockCoord{i % 8, i / 8, 0}, Basic(1)); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	if ch, _ := cs.Full(ChunkCoord{}); ch.CountNonEmpty() != 64 {
		t.Fatalf("CountNonEmpty = %d, want 64", ch.CountNonEmpty())
	}
	if got := cs.Coords(); len(got) != 1 || cs.Len() != 1 {
		t.Fatalf("coords = %v", got)
	}
}
