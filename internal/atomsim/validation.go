package atomsim

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed: unknown error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) Addf(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

func (e *ValidationError) orNil() error {
	if e.HasIssues() {
		return e
	}
	return nil
}

// ValidateConfig checks ranges of every configuration field.
func ValidateConfig(cfg Config) error {
	err := &ValidationError{}

	if !(cfg.Width > 0) || !(cfg.Height > 0) {
		err.Addf("width and height must be positive, got %gx%g", cfg.Width, cfg.Height)
	} else if cfg.Width > MaxDomainSide || cfg.Height > MaxDomainSide {
		err.Addf("width and height must not exceed %g, got %gx%g", float64(MaxDomainSide), cfg.Width, cfg.Height)
	}
	if cfg.TimeStep <= 0 {
		err.Addf("time_step must be positive, got %g", cfg.TimeStep)
	}
	if cfg.DampingFactor < 0 || cfg.DampingFactor > 1 {
		err.Addf("damping_factor must be within [0,1], got %g", cfg.DampingFactor)
	}
	if cfg.AtomDensity < 0 || cfg.AtomDensity > 1 {
		err.Addf("atom_density must be within [0,1], got %g", cfg.AtomDensity)
	}
	if cfg.NeighborRadius <= 0 {
		err.Addf("neighbor_radius must be positive, got %g", cfg.NeighborRadius)
	}

	for _, f := range []struct {
		name string
		v    float64
	}{
		{"hydrogen_prob", cfg.HydrogenProb},
		{"helium_prob", cfg.HeliumProb},
		{"lithium_prob", cfg.LithiumProb},
		{"carbon_prob", cfg.CarbonProb},
		{"oxygen_prob", cfg.OxygenProb},
		{"iron_prob", cfg.IronProb},
		{"uranium_prob", cfg.UraniumProb},
	} {
		if f.v < 0 {
			err.Addf("%s must not be negative, got %g", f.name, f.v)
		}
	}
	if cfg.AtomDensity > 0 && len(cfg.ElementWeights()) == 0 {
		err.Add("at least one element probability must be positive when atom_density > 0")
	}
	if cfg.FusionProbability < 0 || cfg.FusionProbability > 1 {
		err.Addf("fusion_probability must be within [0,1], got %g", cfg.FusionProbability)
	}
	if cfg.TransferProbability < 0 || cfg.TransferProbability > 1 {
		err.Addf("transfer_probability must be within [0,1], got %g", cfg.TransferProbability)
	}
	if cfg.FusionImpulseRadius < 0 {
		err.Addf("fusion_impulse_radius must not be negative, got %g", cfg.FusionImpulseRadius)
	}
	if cfg.MaxSpeed < 0 {
		err.Addf("max_speed must not be negative, got %g", cfg.MaxSpeed)
	}
	if cfg.MaxParticles < 0 {
		err.Addf("max_particles must not be negative, got %d", cfg.MaxParticles)
	}
	if cfg.Workers < 0 {
		err.Addf("workers must not be negative, got %d", cfg.Workers)
	}

	return err.orNil()
}

// validatePositions rejects non-finite coordinates, which cannot be hashed
// or indexed.
func validatePositions(positions []r2.Vec, err *ValidationError) {
	for i, p := range positions {
		if !finite(p) {
			err.Addf("position at index %d is not finite: (%g, %g)", i, p.X, p.Y)
		}
	}
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
