package atomsim

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func contains(ids []ParticleID, id ParticleID) bool {
	for _, other := range ids {
		if other == id {
			return true
		}
	}
	return false
}

func TestSpatialIndex_EmptyQuery(t *testing.T) {
	si := NewSpatialIndex(4)
	got := si.QueryRange(r2.Vec{X: 10, Y: 10}, 100)
	if got == nil {
		t.Error("Expected an empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("Expected no results, got %v", got)
	}
}

func TestSpatialIndex_CellSize(t *testing.T) {
	si := NewSpatialIndex(4)
	if si.CellSize() != 6 {
		t.Errorf("Expected cell size 6, got %g", si.CellSize())
	}
	if got := si.CellOf(r2.Vec{X: -0.5, Y: 6}); got != (CellKey{X: -1, Y: 1}) {
		t.Errorf("Unexpected cell for negative coordinate: %+v", got)
	}
}

func TestSpatialIndex_InsertRemove(t *testing.T) {
	si := NewSpatialIndex(1)
	pos := r2.Vec{X: 2, Y: 2}
	si.Insert(1, pos)
	si.Insert(1, pos)
	if si.Len() != 1 {
		t.Errorf("Duplicate insert must be ignored, got len %d", si.Len())
	}
	if !si.Contains(1, pos) {
		t.Error("Expected ID 1 to be indexed")
	}

	si.Remove(1, pos)
	si.Remove(1, pos)
	si.Remove(7, pos)
	if si.Len() != 0 {
		t.Errorf("Expected empty index, got len %d", si.Len())
	}
}

func TestSpatialIndex_QueryContainsSelfAfterUpdate(t *testing.T) {
	si := NewSpatialIndex(1)
	positions := []r2.Vec{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 10, Y: 10}}
	for i, p := range positions {
		si.Insert(ParticleID(i+1), p)
	}

	moves := []r2.Vec{{X: 3.2, Y: -7.9}, {X: 0.6, Y: 0.4}, {X: 1000, Y: 1000}, {X: -0.01, Y: 0}}
	for _, to := range moves {
		from := positions[0]
		si.Update(1, from, to)
		positions[0] = to
		got := si.QueryRange(to, Epsilon)
		if !contains(got, 1) {
			t.Errorf("QueryRange(%v, eps) = %v, missing ID 1", to, got)
		}
	}
	if si.Len() != 3 {
		t.Errorf("Expected 3 indexed IDs, got %d", si.Len())
	}
}

func TestSpatialIndex_UpdateUnknownIsIgnored(t *testing.T) {
	si := NewSpatialIndex(1)
	si.Update(5, r2.Vec{}, r2.Vec{X: 50, Y: 50})
	if si.Len() != 0 {
		t.Errorf("Update of unknown ID must not insert, got len %d", si.Len())
	}
}

func TestSpatialIndex_QueryIsSupersetAndSorted(t *testing.T) {
	si := NewSpatialIndex(2)
	store := NewEntityStore(0)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			id := store.Insert(NewParticle(Hydrogen, r2.Vec{X: float64(x), Y: float64(y)}))
			si.Insert(id, r2.Vec{X: float64(x), Y: float64(y)})
		}
	}

	center := r2.Vec{X: 10, Y: 10}
	radius := 3.0
	got := si.QueryRange(center, radius)

	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("QueryRange result not sorted: %v", got)
		}
	}
	for _, p := range store.All() {
		if r2.Norm(r2.Sub(p.Position, center)) <= radius && !contains(got, p.ID) {
			t.Errorf("Particle %d at %v within radius but missing from query", p.ID, p.Position)
		}
	}
}

func TestSpatialIndex_Rebuild(t *testing.T) {
	store := NewEntityStore(0)
	si := NewSpatialIndex(1)
	for i := 0; i < 10; i++ {
		pos := r2.Vec{X: float64(i) * 3, Y: 0}
		id := store.Insert(NewParticle(Helium, pos))
		si.Insert(id, pos)
	}

	si.Rebuild(10, store)
	if si.CellSize() != 15 {
		t.Errorf("Expected cell size 15, got %g", si.CellSize())
	}
	if si.Len() != store.Len() {
		t.Errorf("Expected %d indexed IDs, got %d", store.Len(), si.Len())
	}
	for _, p := range store.All() {
		if !si.Contains(p.ID, p.Position) {
			t.Errorf("Particle %d missing after rebuild", p.ID)
		}
	}
}
