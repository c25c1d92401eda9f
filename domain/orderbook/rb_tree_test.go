package orderbook

import "testing"

func TestRBTreeInsertFindDelete(t *testing.T) {
	tree := newRBTree()
	pl1 := tree.GetOrCreate(100)
	if pl1 == nil {
		t.Fatal("GetOrCreate failed")
	}
	if pl2 := tree.Find(100); pl2 != pl1 {
		t.Error("Find did not return same PriceLevel")
	}

	tree.GetOrCreate(200)
	if tree.BestMin().Price != 100 {
		t.Error("expected min=100")
	}
	if tree.BestMax().Price != 200 {
		t.Error("expected max=200")
	}

	if !tree.Delete(100) {
		t.Error("Delete failed")
	}
	if tree.Find(100) != nil {
		t.Error("expected level 100 to be gone")
	}
}

func TestDeleteNonExistentLevel(t *testing.T) {
	tree := newRBTree()
	if tree.Delete(123) {
		t.Error("expected false when deleting non-existent level")
	}
}

func TestEmptyTreeMinMax(t *testing.T) {
	tree := newRBTree()
	if tree.BestMin() != nil || tree.BestMax() != nil {
		t.Error("expected nil for min/max on empty tree")
	}
}

func TestGetOrCreateDuplicateLevel(t *testing.T) {
	tree := newRBTree()
	pl1 := tree.GetOrCreate(150)
	pl2 := tree.GetOrCreate(150)
	if pl1 != pl2 {
		t.Error("GetOrCreate should return the same level for a duplicate price")
	}
}

func TestWalkOrder(t *testing.T) {
	tree := newRBTree()
	for _, p := range []int64{107, 93, 101, 99, 105, 95, 103, 97} {
		tree.GetOrCreate(p)
	}

	var asc []int64
	tree.walkAsc(func(lvl *PriceLevel) bool {
		asc = append(asc, lvl.Price)
		return true
	})
	for i := 1; i < len(asc); i++ {
		if asc[i-1] >= asc[i] {
			t.Fatalf("ascending walk out of order: %v", asc)
		}
	}

	var desc []int64
	tree.walkDesc(func(lvl *PriceLevel) bool {
		desc = append(desc, lvl.Price)
		return true
	})
	for i := 1; i < len(desc); i++ {
		if desc[i-1] <= desc[i] {
			t.Fatalf("descending walk out of order: %v", desc)
		}
	}

	if len(asc) != 8 || tree.Size() != 8 {
		t.Fatalf("expected 8 levels, got %d walked, size %d", len(asc), tree.Size())
	}
}

func TestDeleteRebalances(t *testing.T) {
	tree := newRBTree()
	for p := int64(1); p <= 64; p++ {
		tree.GetOrCreate(p)
	}
	for p := int64(1); p <= 64; p += 2 {
		if !tree.Delete(p) {
			t.Fatalf("delete %d failed", p)
		}
	}
	if tree.Size() != 32 {
		t.Fatalf("expected 32 levels left, got %d", tree.Size())
	}
	if tree.BestMin().Price != 2 || tree.BestMax().Price != 64 {
		t.Errorf("unexpected min/max after deletes: %d/%d",
			tree.BestMin().Price, tree.BestMax().Price)
	}
}
