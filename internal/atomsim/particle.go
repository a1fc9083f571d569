package atomsim

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// Physical constants, SI units.
const (
	CoulombConstant       = 8.9875517923e9
	ElementaryCharge      = 1.602176634e-19
	GravitationalConstant = 6.67430e-11
	ProtonMass            = 1.67262192e-27
	NeutronMass           = 1.67492750e-27
	ElectronMass          = 9.1093837e-31

	// Epsilon guards divisions by a vanishing distance.
	Epsilon = 1e-10
)

// ErrNoElectrons is returned when removing an electron from a bare nucleus.
var ErrNoElectrons = errors.New("particle has no electrons")

// ErrElectronOverflow is returned when adding an electron to a particle
// already holding math.MaxUint32 of them.
var ErrElectronOverflow = errors.New("particle electron count at maximum")

// ParticleID identifies a particle for the lifetime of a simulator.
// IDs are handed out in increasing order and never reused.
type ParticleID uint64

// Particle is a simulated atom. Mass, charge and radius are derived from the
// composition and are recomputed by every mutator that touches it, so they
// are only reachable through accessor methods.
type Particle struct {
	ID          ParticleID
	Element     ElementKind
	Position    r2.Vec
	Velocity    r2.Vec
	Color       colorful.Color
	Temperature float64
	// Degenerate is set once a NaN/Inf has been clamped away for this particle.
	Degenerate bool

	comp   Composition
	mass   float64
	charge int64
	radius float64
}

// NewParticle creates a particle with the element's default composition and color.
func NewParticle(kind ElementKind, position r2.Vec) Particle {
	el := kind.Lookup()
	p := Particle{
		Element:  el.Kind,
		Position: position,
		Color:    el.Color,
	}
	p.SetComposition(el.Composition)
	return p
}

// NewCustomParticle creates a Custom particle with an explicit composition and color.
func NewCustomParticle(position r2.Vec, comp Composition, color colorful.Color) Particle {
	p := Particle{
		Element:  Custom,
		Position: position,
		Color:    color,
	}
	p.SetComposition(comp)
	return p
}

func (p *Particle) recompute() {
	p.charge = int64(p.comp.Protons) - int64(p.comp.Electrons)
	p.mass = float64(p.comp.Protons)*ProtonMass +
		float64(p.comp.Neutrons)*NeutronMass +
		float64(p.comp.Electrons)*ElectronMass
	p.radius = 0.1 * math.Cbrt(float64(p.comp.Protons+p.comp.Neutrons))
}

func (p Particle) Composition() Composition { return p.comp }
func (p Particle) Protons() uint32          { return p.comp.Protons }
func (p Particle) Neutrons() uint32         { return p.comp.Neutrons }
func (p Particle) Electrons() uint32        { return p.comp.Electrons }

// Charge is protons minus electrons, in elementary charges.
func (p Particle) Charge() int64 { return p.charge }

// Mass in kilograms.
func (p Particle) Mass() float64 { return p.mass }

// Radius in simulation units: 0.1 * nucleons^(1/3).
func (p Particle) Radius() float64 { return p.radius }

// Ionized reports whether the electron count differs from the proton count.
func (p Particle) Ionized() bool { return p.comp.Electrons != p.comp.Protons }

// Affinity is the electron affinity used by electron transfer (protons/radius).
func (p Particle) Affinity() float64 {
	if p.radius == 0 {
		return 0
	}
	return float64(p.comp.Protons) / p.radius
}

// SetComposition replaces the composition and recomputes derived fields.
func (p *Particle) SetComposition(c Composition) {
	p.comp = c
	p.recompute()
}

func (p *Particle) AddElectron() error {
	if p.comp.Electrons == math.MaxUint32 {
		return ErrElectronOverflow
	}
	p.comp.Electrons++
	p.recompute()
	return nil
}

func (p *Particle) RemoveElectron() error {
	if p.comp.Electrons == 0 {
		return ErrNoElectrons
	}
	p.comp.Electrons--
	p.recompute()
	return nil
}

type particleJSON struct {
	ID          ParticleID  `json:"id"`
	Element     ElementKind `json:"element"`
	Position    r2.Vec      `json:"position"`
	Velocity    r2.Vec      `json:"velocity"`
	Color       string      `json:"color"`
	Temperature float64     `json:"temperature"`
	Degenerate  bool        `json:"degenerate,omitempty"`
	Composition Composition `json:"composition"`
	Charge      int64       `json:"charge"`
	Mass        float64     `json:"mass"`
	Radius      float64     `json:"radius"`
}

func (p Particle) MarshalJSON() ([]byte, error) {
	return json.Marshal(particleJSON{
		ID:          p.ID,
		Element:     p.Element,
		Position:    p.Position,
		Velocity:    p.Velocity,
		Color:       p.Color.Hex(),
		Temperature: p.Temperature,
		Degenerate:  p.Degenerate,
		Composition: p.comp,
		Charge:      p.charge,
		Mass:        p.mass,
		Radius:      p.radius,
	})
}

// UnmarshalJSON ignores the serialized derived fields and recomputes them
// from the composition.
func (p *Particle) UnmarshalJSON(data []byte) error {
	var pj particleJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	color := pj.Element.Lookup().Color
	if pj.Color != "" {
		c, err := colorful.Hex(pj.Color)
		if err != nil {
			return err
		}
		color = c
	}
	*p = Particle{
		ID:          pj.ID,
		Element:     pj.Element,
		Position:    pj.Position,
		Velocity:    pj.Velocity,
		Color:       color,
		Temperature: pj.Temperature,
		Degenerate:  pj.Degenerate,
	}
	p.SetComposition(pj.Composition)
	return nil
}
