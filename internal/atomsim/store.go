package atomsim

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// EntityStore owns every live particle. Particles live in a dense slice and
// are addressed by ID through a slot map; removal moves the last particle
// into the freed slot. A second map indexes IDs by exact position.
//
// EntityStore is not safe for concurrent mutation. Concurrent readers are
// fine as long as no writer runs, which is how the simulator's parallel
// phases use it.
type EntityStore struct {
	particles  []Particle
	slots      map[ParticleID]int
	byPosition map[r2.Vec][]ParticleID
	nextID     ParticleID
	capacity   int
}

// NewEntityStore creates an empty store. A capacity of 0 means unlimited.
func NewEntityStore(capacity int) *EntityStore {
	return &EntityStore{
		particles:  make([]Particle, 0),
		slots:      make(map[ParticleID]int),
		byPosition: make(map[r2.Vec][]ParticleID),
		nextID:     1,
		capacity:   capacity,
	}
}

// Len returns the number of live particles.
func (s *EntityStore) Len() int {
	return len(s.particles)
}

// NextID is the ID the next insert will receive.
func (s *EntityStore) NextID() ParticleID {
	return s.nextID
}

// Available returns how many more particles fit, or -1 when unlimited.
func (s *EntityStore) Available() int {
	if s.capacity <= 0 {
		return -1
	}
	return s.capacity - len(s.particles)
}

// Reserve grows the backing storage for n more particles so that a bulk
// insert does not rehash repeatedly.
func (s *EntityStore) Reserve(n int) {
	if n <= 0 {
		return
	}
	if cap(s.particles)-len(s.particles) < n {
		grown := make([]Particle, len(s.particles), len(s.particles)+n)
		copy(grown, s.particles)
		s.particles = grown
	}
	if len(s.slots) == 0 {
		s.slots = make(map[ParticleID]int, n)
		s.byPosition = make(map[r2.Vec][]ParticleID, n)
	}
}

// Insert stores p under a fresh ID and returns it. The ID and derived
// fields carried by p are ignored.
func (s *EntityStore) Insert(p Particle) ParticleID {
	p.ID = s.nextID
	s.nextID++
	p.recompute()
	s.slots[p.ID] = len(s.particles)
	s.particles = append(s.particles, p)
	s.byPosition[p.Position] = append(s.byPosition[p.Position], p.ID)
	return p.ID
}

// restore inserts a particle under its existing ID; used when loading state.
func (s *EntityStore) restore(p Particle) {
	p.recompute()
	s.slots[p.ID] = len(s.particles)
	s.particles = append(s.particles, p)
	s.byPosition[p.Position] = append(s.byPosition[p.Position], p.ID)
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
}

// Contains reports whether id is live.
func (s *EntityStore) Contains(id ParticleID) bool {
	_, ok := s.slots[id]
	return ok
}

// Get returns a copy of the particle.
func (s *EntityStore) Get(id ParticleID) (Particle, error) {
	slot, ok := s.slots[id]
	if !ok {
		return Particle{}, notFound(id)
	}
	return s.particles[slot], nil
}

// Update runs fn against the stored particle. Derived fields are recomputed
// afterwards; ID and position changes made by fn are discarded, use Relocate
// to move a particle.
func (s *EntityStore) Update(id ParticleID, fn func(*Particle)) error {
	slot, ok := s.slots[id]
	if !ok {
		return notFound(id)
	}
	p := &s.particles[slot]
	pos := p.Position
	fn(p)
	p.ID = id
	p.Position = pos
	p.recompute()
	return nil
}

// Remove deletes the particle and its position index entry.
func (s *EntityStore) Remove(id ParticleID) (Particle, error) {
	slot, ok := s.slots[id]
	if !ok {
		return Particle{}, notFound(id)
	}
	removed := s.particles[slot]
	s.unindexPosition(id, removed.Position)

	last := len(s.particles) - 1
	if slot != last {
		s.particles[slot] = s.particles[last]
		s.slots[s.particles[slot].ID] = slot
	}
	s.particles[last] = Particle{}
	s.particles = s.particles[:last]
	delete(s.slots, id)
	return removed, nil
}

// Relocate moves the particle and updates the position index. The spatial
// index is not touched; callers sync it explicitly.
func (s *EntityStore) Relocate(id ParticleID, position r2.Vec) error {
	slot, ok := s.slots[id]
	if !ok {
		return notFound(id)
	}
	old := s.particles[slot].Position
	if old == position {
		return nil
	}
	s.unindexPosition(id, old)
	s.particles[slot].Position = position
	s.byPosition[position] = append(s.byPosition[position], id)
	return nil
}

// At returns the IDs of particles sitting exactly at position.
func (s *EntityStore) At(position r2.Vec) []ParticleID {
	ids := s.byPosition[position]
	out := make([]ParticleID, len(ids))
	copy(out, ids)
	return out
}

// AddElectron adds one electron; ErrElectronOverflow at the maximum.
func (s *EntityStore) AddElectron(id ParticleID) error {
	var err error
	if uerr := s.Update(id, func(p *Particle) { err = p.AddElectron() }); uerr != nil {
		return uerr
	}
	return err
}

// RemoveElectron removes one electron; ErrNoElectrons if there is none.
func (s *EntityStore) RemoveElectron(id ParticleID) error {
	var err error
	if uerr := s.Update(id, func(p *Particle) { err = p.RemoveElectron() }); uerr != nil {
		return uerr
	}
	return err
}

// SetComposition replaces the particle's composition.
func (s *EntityStore) SetComposition(id ParticleID, c Composition) error {
	return s.Update(id, func(p *Particle) { p.SetComposition(c) })
}

// IDs returns every live ID in ascending order.
func (s *EntityStore) IDs() []ParticleID {
	ids := make([]ParticleID, 0, len(s.particles))
	for i := range s.particles {
		ids = append(ids, s.particles[i].ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every particle in slot order. fn must not mutate the store.
func (s *EntityStore) Each(fn func(p *Particle)) {
	for i := range s.particles {
		fn(&s.particles[i])
	}
}

// All returns copies of every particle in ascending ID order.
func (s *EntityStore) All() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *EntityStore) slotOf(id ParticleID) (int, bool) {
	slot, ok := s.slots[id]
	return slot, ok
}

func (s *EntityStore) unindexPosition(id ParticleID, position r2.Vec) {
	ids := s.byPosition[position]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.byPosition, position)
		return
	}
	s.byPosition[position] = ids
}
