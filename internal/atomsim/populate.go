package atomsim

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
)

// MaxDomainSide bounds width and height.
const MaxDomainSide = 1_000_000

// maxPopulateCells bounds the unit cells one PopulateRegion call visits.
const maxPopulateCells = 1 << 24

// Populate seeds the whole domain with random atoms and returns how many
// were added. See PopulateRegion.
func (s *Simulator) Populate() (int, error) {
	cfg := s.Config()
	return s.PopulateRegion(cfg.Bounds())
}

// PopulateRegion visits every unit cell of region and places an atom in it
// with probability atom_density, at a random point inside the cell. The
// element is drawn from the configured element probabilities. With
// noise_scale > 0 the density is modulated by 2D perlin noise, which
// produces clusters instead of a uniform gas.
//
// The batch is inserted all-or-nothing: when it does not fit under
// max_particles a *CapacityError is returned and nothing is added. The
// expected count, cells times atom_density, is checked before any atom is
// drawn, and regions above 2^24 cells are rejected with a *ValidationError.
func (s *Simulator) PopulateRegion(region r2.Box) (int, error) {
	s.mu.Lock()
	cfg := s.cfg
	weights := cfg.ElementWeights()
	if cfg.AtomDensity <= 0 || len(weights) == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	x0, y0 := math.Floor(region.Min.X), math.Floor(region.Min.Y)
	x1, y1 := math.Ceil(region.Max.X), math.Ceil(region.Max.Y)
	cells := math.Max(0, x1-x0) * math.Max(0, y1-y0)
	if !(cells <= maxPopulateCells) {
		s.mu.Unlock()
		return 0, &ValidationError{Issues: []string{
			fmt.Sprintf("populate region of %g cells exceeds %d", cells, maxPopulateCells),
		}}
	}
	expected := int(cells * cfg.AtomDensity)
	if err := s.checkCapacity(expected); err != nil {
		s.mu.Unlock()
		return 0, err
	}

	var noise *perlin.Perlin
	if cfg.NoiseScale > 0 {
		noise = perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, int64(cfg.Seed))
	}

	batch := make([]Particle, 0, expected)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			density := cfg.AtomDensity
			if noise != nil {
				n := noise.Noise2D(x*cfg.NoiseScale, y*cfg.NoiseScale)
				density *= math.Max(0, 1+n)
			}
			if s.rng.Float64() >= density {
				continue
			}
			pos := r2.Vec{X: x + s.rng.Float64(), Y: y + s.rng.Float64()}
			if pos.X < region.Min.X || pos.X > region.Max.X || pos.Y < region.Min.Y || pos.Y > region.Max.Y {
				continue
			}
			batch = append(batch, NewParticle(pickElement(weights, s.rng.Float64()), pos))
		}
	}
	s.mu.Unlock()

	ids, err := s.insertBatch(batch)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	s.logger.Infof("populated %d atoms: density=%g noise_scale=%g", len(ids), cfg.AtomDensity, cfg.NoiseScale)
	s.mu.RUnlock()
	return len(ids), nil
}

// pickElement maps u in [0,1) onto the cumulative weight distribution.
func pickElement(weights []ElementWeight, u float64) ElementKind {
	acc := 0.0
	for _, w := range weights {
		acc += w.Weight
		if u < acc {
			return w.Kind
		}
	}
	return weights[len(weights)-1].Kind
}
