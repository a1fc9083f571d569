package atomsim

import (
	"encoding/json"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// RenderItem is everything a renderer needs to draw one particle.
type RenderItem struct {
	ID       ParticleID     `json:"id"`
	Position r2.Vec         `json:"position"`
	Color    colorful.Color `json:"color"`
	Radius   float64        `json:"radius"`
}

type renderItemJSON struct {
	ID       ParticleID `json:"id"`
	Position r2.Vec     `json:"position"`
	Color    string     `json:"color"`
	Radius   float64    `json:"radius"`
}

// MarshalJSON writes the color as a hex string.
func (it RenderItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(renderItemJSON{ID: it.ID, Position: it.Position, Color: it.Color.Hex(), Radius: it.Radius})
}

func (it *RenderItem) UnmarshalJSON(data []byte) error {
	var rj renderItemJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	*it = RenderItem{ID: rj.ID, Position: rj.Position, Radius: rj.Radius}
	if rj.Color != "" {
		c, err := colorful.Hex(rj.Color)
		if err != nil {
			return err
		}
		it.Color = c
	}
	return nil
}

var (
	cationTint    = colorful.Color{R: 1, G: 0.25, B: 0.2}
	anionTint     = colorful.Color{R: 0.2, G: 0.4, B: 1}
	degenerateTag = colorful.Color{R: 1, G: 0, B: 1}
)

// displayColor tints the base color toward red for cations and blue for
// anions; each unit of charge blends a further 15%, up to 60%.
func displayColor(p Particle) colorful.Color {
	if p.Degenerate {
		return degenerateTag
	}
	q := p.charge
	if q == 0 {
		return p.Color
	}
	t := math.Min(0.15*math.Abs(float64(q)), 0.6)
	tint := cationTint
	if q < 0 {
		tint = anionTint
	}
	return p.Color.BlendLab(tint, t).Clamped()
}

func buildRender(store *EntityStore) []RenderItem {
	particles := store.All()
	items := make([]RenderItem, len(particles))
	for i, p := range particles {
		items[i] = RenderItem{
			ID:       p.ID,
			Position: p.Position,
			Color:    displayColor(p),
			Radius:   p.radius,
		}
	}
	return items
}

// Snapshot returns the render items in ascending ID order. It is not frozen
// at the last completed step: particles added, removed or edited since then
// are visible, because the cache is rebuilt lazily from the live store.
// Calling it twice without anything changing in between yields identical
// results.
func (s *Simulator) Snapshot() []RenderItem {
	items, _, _ := s.snapshot()
	return items
}

// RenderFrame returns the snapshot encoded as a binary frame.
func (s *Simulator) RenderFrame() ([]byte, error) {
	items, step, simTime := s.snapshot()
	return EncodeFrame(step, simTime, items)
}

func (s *Simulator) snapshot() ([]RenderItem, int64, float64) {
	s.mu.RLock()
	if !s.renderStale {
		out := make([]RenderItem, len(s.render))
		copy(out, s.render)
		step, simTime := s.steps, s.time
		s.mu.RUnlock()
		return out, step, simTime
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.renderStale {
		s.render = buildRender(s.store)
		s.renderStale = false
	}
	out := make([]RenderItem, len(s.render))
	copy(out, s.render)
	return out, s.steps, s.time
}
