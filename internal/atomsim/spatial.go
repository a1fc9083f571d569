package atomsim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// CellSizeFactor relates the hash cell edge to the neighbor radius.
const CellSizeFactor = 1.5

// CellKey addresses one bucket of the spatial hash.
type CellKey struct {
	X, Y int64
}

// SpatialIndex is a uniform hash grid over particle positions. It is a
// cache over the entity store: unknown IDs are ignored rather than
// reported, and callers must re-check exact distances on query results.
type SpatialIndex struct {
	cellSize    float64
	invCellSize float64
	cells       map[CellKey]map[ParticleID]struct{}
	count       int
}

// NewSpatialIndex builds an empty index for the given neighbor radius.
func NewSpatialIndex(neighborRadius float64) *SpatialIndex {
	si := &SpatialIndex{cells: make(map[CellKey]map[ParticleID]struct{})}
	si.setRadius(neighborRadius)
	return si
}

func (si *SpatialIndex) setRadius(neighborRadius float64) {
	if neighborRadius <= 0 {
		neighborRadius = Epsilon
	}
	si.cellSize = neighborRadius * CellSizeFactor
	si.invCellSize = 1.0 / si.cellSize
}

// CellSize returns the edge length of one cell.
func (si *SpatialIndex) CellSize() float64 {
	return si.cellSize
}

// Len returns the number of indexed IDs.
func (si *SpatialIndex) Len() int {
	return si.count
}

// CellOf returns floor(position / cellSize).
func (si *SpatialIndex) CellOf(position r2.Vec) CellKey {
	return CellKey{
		X: int64(math.Floor(position.X * si.invCellSize)),
		Y: int64(math.Floor(position.Y * si.invCellSize)),
	}
}

// Insert adds id at position.
func (si *SpatialIndex) Insert(id ParticleID, position r2.Vec) {
	key := si.CellOf(position)
	bucket, ok := si.cells[key]
	if !ok {
		bucket = make(map[ParticleID]struct{})
		si.cells[key] = bucket
	}
	if _, dup := bucket[id]; dup {
		return
	}
	bucket[id] = struct{}{}
	si.count++
}

// Remove drops id from the cell position hashes to.
func (si *SpatialIndex) Remove(id ParticleID, position r2.Vec) {
	key := si.CellOf(position)
	bucket, ok := si.cells[key]
	if !ok {
		return
	}
	if _, present := bucket[id]; !present {
		return
	}
	delete(bucket, id)
	si.count--
	if len(bucket) == 0 {
		delete(si.cells, key)
	}
}

// Update moves id between cells when its position crossed a cell border.
func (si *SpatialIndex) Update(id ParticleID, oldPosition, newPosition r2.Vec) {
	from := si.CellOf(oldPosition)
	to := si.CellOf(newPosition)
	if from == to {
		return
	}
	bucket, ok := si.cells[from]
	if !ok {
		return
	}
	if _, present := bucket[id]; !present {
		return
	}
	si.Remove(id, oldPosition)
	si.Insert(id, newPosition)
}

// Contains reports whether id is indexed in the cell position hashes to.
func (si *SpatialIndex) Contains(id ParticleID, position r2.Vec) bool {
	_, ok := si.cells[si.CellOf(position)][id]
	return ok
}

// QueryRange returns, in ascending ID order, every ID in the cells that
// overlap the square of half-width radius around center. The result is a
// superset of the particles within radius.
func (si *SpatialIndex) QueryRange(center r2.Vec, radius float64) []ParticleID {
	if radius <= 0 {
		radius = Epsilon
	}
	lo := si.CellOf(r2.Vec{X: center.X - radius, Y: center.Y - radius})
	hi := si.CellOf(r2.Vec{X: center.X + radius, Y: center.Y + radius})

	out := make([]ParticleID, 0)
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			for id := range si.cells[CellKey{X: cx, Y: cy}] {
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rebuild re-hashes every particle of the store using a new neighbor radius.
func (si *SpatialIndex) Rebuild(neighborRadius float64, store *EntityStore) {
	si.setRadius(neighborRadius)
	si.cells = make(map[CellKey]map[ParticleID]struct{})
	si.count = 0
	store.Each(func(p *Particle) {
		si.Insert(p.ID, p.Position)
	})
}
