package main

import (
	"github.com/daniacca/atomsim/internal/atomsim"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

var berylliumColor = colorful.Color{R: 0.76, G: 1, B: 0}

// AlphaCaptureRule merges two helium atoms into a beryllium-8 atom, which
// the element table does not know and is therefore created as Custom.
type AlphaCaptureRule struct {
	rate float64
}

func NewAlphaCaptureRule() atomsim.ReactionRule {
	return &AlphaCaptureRule{rate: 0.002}
}

func (r *AlphaCaptureRule) ID() string    { return "alpha_capture" }
func (r *AlphaCaptureRule) Name() string  { return "Helium alpha capture" }
func (r *AlphaCaptureRule) Rate() float64 { return r.rate }

func (r *AlphaCaptureRule) Matches(a, b atomsim.Particle) bool {
	return a.Element == atomsim.Helium && b.Element == atomsim.Helium
}

func (r *AlphaCaptureRule) Apply(a, b atomsim.Particle, _ atomsim.ReactionContext) atomsim.ReactionEffect {
	mid := r2.Scale(0.5, r2.Add(a.Position, b.Position))
	comp := atomsim.Composition{
		Protons:   a.Protons() + b.Protons(),
		Neutrons:  a.Neutrons() + b.Neutrons(),
		Electrons: a.Electrons() + b.Electrons(),
	}
	be := atomsim.NewCustomParticle(mid, comp, berylliumColor)
	be.Velocity = r2.Scale(0.5, r2.Add(a.Velocity, b.Velocity))
	be.Temperature = (a.Temperature + b.Temperature) / 2

	return atomsim.ReactionEffect{
		Consumed: []atomsim.ParticleID{a.ID, b.ID},
		Created:  []atomsim.Particle{be},
	}
}
