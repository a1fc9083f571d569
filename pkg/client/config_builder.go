package client

import (
	"github.com/daniacca/atomsim/internal/atomsim"
	"github.com/lucasb-eyer/go-colorful"
)

// ConfigBuilder provides a fluent API for building simulation configurations.
// It starts from the stock defaults; every method overrides one aspect.
type ConfigBuilder struct {
	cfg atomsim.Config
}

// NewConfig creates a builder seeded with atomsim.DefaultConfig.
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: atomsim.DefaultConfig()}
}

// Size sets the simulation domain to [0,width]x[0,height].
func (cb *ConfigBuilder) Size(width, height float64) *ConfigBuilder {
	cb.cfg.Width, cb.cfg.Height = width, height
	return cb
}

// TimeStep sets the dt used by Tick and by the server's auto-run loop.
func (cb *ConfigBuilder) TimeStep(dt float64) *ConfigBuilder {
	cb.cfg.TimeStep = dt
	return cb
}

// Coulomb sets the electrostatic strength multiplier. Zero disables the force.
func (cb *ConfigBuilder) Coulomb(strength float64) *ConfigBuilder {
	cb.cfg.CoulombStrength = strength
	cb.cfg.EnableCoulomb = strength != 0
	return cb
}

// Gravity sets the gravity strength multiplier. Zero disables the force.
func (cb *ConfigBuilder) Gravity(strength float64) *ConfigBuilder {
	cb.cfg.GravityStrength = strength
	cb.cfg.EnableGravity = strength != 0
	return cb
}

// LennardJones sets the short-range repulsion depth. Zero disables the force.
func (cb *ConfigBuilder) LennardJones(epsilon float64) *ConfigBuilder {
	cb.cfg.LJEpsilon = epsilon
	cb.cfg.EnableLennardJones = epsilon != 0
	return cb
}

// Boundary sets the inward wall force. Zero disables the walls.
func (cb *ConfigBuilder) Boundary(force float64) *ConfigBuilder {
	cb.cfg.BoundaryForce = force
	cb.cfg.EnableBoundary = force != 0
	return cb
}

// Damping sets the per-step velocity retention factor in [0,1]; 1 means
// no damping.
func (cb *ConfigBuilder) Damping(factor float64) *ConfigBuilder {
	cb.cfg.DampingFactor = factor
	return cb
}

// Density sets the probability that seeding places an atom in a unit cell.
func (cb *ConfigBuilder) Density(density float64) *ConfigBuilder {
	cb.cfg.AtomDensity = density
	return cb
}

// Noise enables perlin-modulated seeding at the given spatial frequency.
func (cb *ConfigBuilder) Noise(scale float64) *ConfigBuilder {
	cb.cfg.NoiseScale = scale
	return cb
}

func (cb *ConfigBuilder) Temperature(kelvin float64) *ConfigBuilder {
	cb.cfg.Temperature = kelvin
	return cb
}

// Element sets the seeding probability of one element. Probabilities are
// normalized when seeding, so they need not sum to 1.
func (cb *ConfigBuilder) Element(kind atomsim.ElementKind, prob float64) *ConfigBuilder {
	switch kind {
	case atomsim.Hydrogen:
		cb.cfg.HydrogenProb = prob
	case atomsim.Helium:
		cb.cfg.HeliumProb = prob
	case atomsim.Lithium:
		cb.cfg.LithiumProb = prob
	case atomsim.Carbon:
		cb.cfg.CarbonProb = prob
	case atomsim.Oxygen:
		cb.cfg.OxygenProb = prob
	case atomsim.Iron:
		cb.cfg.IronProb = prob
	case atomsim.Uranium:
		cb.cfg.UraniumProb = prob
	}
	return cb
}

// Only seeds exclusively the given elements, with equal probability.
func (cb *ConfigBuilder) Only(kinds ...atomsim.ElementKind) *ConfigBuilder {
	for _, el := range atomsim.Elements() {
		cb.Element(el.Kind, 0)
	}
	for _, kind := range kinds {
		cb.Element(kind, 1)
	}
	return cb
}

// Fusion sets the hydrogen fusion probability per contact. Zero disables it.
func (cb *ConfigBuilder) Fusion(prob float64) *ConfigBuilder {
	cb.cfg.FusionProbability = prob
	cb.cfg.EnableFusion = prob > 0
	return cb
}

// FusionImpulse sets the velocity kick released by a fusion and its reach.
func (cb *ConfigBuilder) FusionImpulse(strength, radius float64) *ConfigBuilder {
	cb.cfg.FusionImpulse = strength
	cb.cfg.FusionImpulseRadius = radius
	return cb
}

// ElectronTransfer sets the electron transfer probability per contact.
// Zero disables it.
func (cb *ConfigBuilder) ElectronTransfer(prob float64) *ConfigBuilder {
	cb.cfg.TransferProbability = prob
	cb.cfg.EnableElectronTransfer = prob > 0
	return cb
}

func (cb *ConfigBuilder) NeighborRadius(r float64) *ConfigBuilder {
	cb.cfg.NeighborRadius = r
	return cb
}

// MaxSpeed caps particle speed; zero removes the cap.
func (cb *ConfigBuilder) MaxSpeed(speed float64) *ConfigBuilder {
	cb.cfg.MaxSpeed = speed
	return cb
}

// MaxParticles bounds the population; zero means unlimited.
func (cb *ConfigBuilder) MaxParticles(n int) *ConfigBuilder {
	cb.cfg.MaxParticles = n
	return cb
}

func (cb *ConfigBuilder) Workers(n int) *ConfigBuilder {
	cb.cfg.Workers = n
	return cb
}

func (cb *ConfigBuilder) Seed(seed uint64) *ConfigBuilder {
	cb.cfg.Seed = seed
	return cb
}

// Build validates and returns the configuration.
func (cb *ConfigBuilder) Build() (atomsim.Config, error) {
	if err := atomsim.ValidateConfig(cb.cfg); err != nil {
		return atomsim.Config{}, err
	}
	return cb.cfg, nil
}

// AtomsBuilder collects atoms for a bulk insert.
type AtomsBuilder struct {
	atoms []atomSpec
}

type atomSpec struct {
	Element     string               `json:"element,omitempty"`
	X           float64              `json:"x"`
	Y           float64              `json:"y"`
	Color       string               `json:"color,omitempty"`
	Composition *atomsim.Composition `json:"composition,omitempty"`
}

func NewAtoms() *AtomsBuilder {
	return &AtomsBuilder{atoms: make([]atomSpec, 0)}
}

// Add appends an element atom at (x, y).
func (ab *AtomsBuilder) Add(kind atomsim.ElementKind, x, y float64) *AtomsBuilder {
	ab.atoms = append(ab.atoms, atomSpec{Element: kind.String(), X: x, Y: y})
	return ab
}

// Custom appends a particle with an explicit composition and color.
func (ab *AtomsBuilder) Custom(x, y float64, comp atomsim.Composition, color colorful.Color) *AtomsBuilder {
	c := comp
	ab.atoms = append(ab.atoms, atomSpec{X: x, Y: y, Color: color.Hex(), Composition: &c})
	return ab
}

// Len returns the number of atoms collected so far.
func (ab *AtomsBuilder) Len() int {
	return len(ab.atoms)
}
