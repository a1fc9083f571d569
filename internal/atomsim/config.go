package atomsim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a simulation. Field names follow the
// snake_case keys used in config files and over the HTTP API.
type Config struct {
	Width           float64 `json:"width" yaml:"width"`
	Height          float64 `json:"height" yaml:"height"`
	TimeStep        float64 `json:"time_step" yaml:"time_step"`
	CoulombStrength float64 `json:"coulomb_strength" yaml:"coulomb_strength"`
	GravityStrength float64 `json:"gravity_strength" yaml:"gravity_strength"`
	// DampingFactor scales velocity once per step; 1 disables damping.
	DampingFactor float64 `json:"damping_factor" yaml:"damping_factor"`
	AtomDensity   float64 `json:"atom_density" yaml:"atom_density"`
	Temperature   float64 `json:"temperature" yaml:"temperature"`

	HydrogenProb float64 `json:"hydrogen_prob" yaml:"hydrogen_prob"`
	HeliumProb   float64 `json:"helium_prob" yaml:"helium_prob"`
	LithiumProb  float64 `json:"lithium_prob" yaml:"lithium_prob"`
	CarbonProb   float64 `json:"carbon_prob" yaml:"carbon_prob"`
	OxygenProb   float64 `json:"oxygen_prob" yaml:"oxygen_prob"`
	IronProb     float64 `json:"iron_prob" yaml:"iron_prob"`
	UraniumProb  float64 `json:"uranium_prob" yaml:"uranium_prob"`

	EnableCoulomb          bool `json:"enable_coulomb" yaml:"enable_coulomb"`
	EnableGravity          bool `json:"enable_gravity" yaml:"enable_gravity"`
	EnableLennardJones     bool `json:"enable_lennard_jones" yaml:"enable_lennard_jones"`
	EnableBoundary         bool `json:"enable_boundary" yaml:"enable_boundary"`
	EnableFusion           bool `json:"enable_fusion" yaml:"enable_fusion"`
	EnableElectronTransfer bool `json:"enable_electron_transfer" yaml:"enable_electron_transfer"`

	NeighborRadius      float64 `json:"neighbor_radius" yaml:"neighbor_radius"`
	LJEpsilon           float64 `json:"lj_epsilon" yaml:"lj_epsilon"`
	BoundaryForce       float64 `json:"boundary_force" yaml:"boundary_force"`
	FusionProbability   float64 `json:"fusion_probability" yaml:"fusion_probability"`
	TransferProbability float64 `json:"transfer_probability" yaml:"transfer_probability"`
	FusionImpulseRadius float64 `json:"fusion_impulse_radius" yaml:"fusion_impulse_radius"`
	FusionImpulse       float64 `json:"fusion_impulse" yaml:"fusion_impulse"`
	// MaxSpeed caps particle speed after integration; 0 disables the cap.
	MaxSpeed float64 `json:"max_speed" yaml:"max_speed"`
	// MaxParticles bounds the store; 0 means unlimited.
	MaxParticles int `json:"max_particles" yaml:"max_particles"`
	// Workers is the fork-join width of the parallel phases; 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
	// NoiseScale enables perlin modulation of the seeding density when > 0.
	NoiseScale float64 `json:"noise_scale" yaml:"noise_scale"`

	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the stock parameter set.
func DefaultConfig() Config {
	return Config{
		Width:           1024,
		Height:          1024,
		TimeStep:        0.016,
		CoulombStrength: 1.0,
		GravityStrength: 1.0e-6,
		DampingFactor:   0.99,
		AtomDensity:     0.3,
		Temperature:     300,

		HydrogenProb: 0.4,
		HeliumProb:   0.2,
		CarbonProb:   0.15,
		OxygenProb:   0.15,
		IronProb:     0.1,

		EnableCoulomb:          true,
		EnableGravity:          true,
		EnableLennardJones:     true,
		EnableBoundary:         true,
		EnableFusion:           true,
		EnableElectronTransfer: true,

		NeighborRadius:      4.0,
		LJEpsilon:           1.0e-3,
		BoundaryForce:       1.0e-25,
		FusionProbability:   0.01,
		TransferProbability: 0.05,
		FusionImpulseRadius: 5.0,
		FusionImpulse:       10.0,
		MaxSpeed:            100.0,

		Seed: 1,
	}
}

// Bounds is the simulation domain [0,width]x[0,height].
func (c Config) Bounds() r2.Box {
	return r2.Box{Min: r2.Vec{}, Max: r2.Vec{X: c.Width, Y: c.Height}}
}

// ElementWeight pairs an element with its normalized seeding probability.
type ElementWeight struct {
	Kind   ElementKind
	Weight float64
}

// ElementWeights returns the seeding distribution normalized to sum to 1.
// Elements with zero probability are left out.
func (c Config) ElementWeights() []ElementWeight {
	raw := []ElementWeight{
		{Hydrogen, c.HydrogenProb},
		{Helium, c.HeliumProb},
		{Lithium, c.LithiumProb},
		{Carbon, c.CarbonProb},
		{Oxygen, c.OxygenProb},
		{Iron, c.IronProb},
		{Uranium, c.UraniumProb},
	}
	total := 0.0
	for _, w := range raw {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	out := make([]ElementWeight, 0, len(raw))
	if total == 0 {
		return out
	}
	for _, w := range raw {
		if w.Weight > 0 {
			out = append(out, ElementWeight{Kind: w.Kind, Weight: w.Weight / total})
		}
	}
	return out
}

// LoadConfig reads a configuration file on top of DefaultConfig. Files
// ending in .json are decoded as JSON, anything else as YAML.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := ParseConfig(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a configuration document.
func ParseConfig(data []byte, isJSON bool) (Config, error) {
	cfg := DefaultConfig()
	if isJSON {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
