package main

import "github.com/daniacca/atomsim/internal/atomsim"

// RecombinationRule neutralizes a cation/anion pair in contact by moving
// one electron from the anion to the cation.
type RecombinationRule struct {
	rate float64
}

func NewRecombinationRule() atomsim.ReactionRule {
	return &RecombinationRule{rate: 0.5}
}

func (r *RecombinationRule) ID() string    { return "recombination" }
func (r *RecombinationRule) Name() string  { return "Ion recombination" }
func (r *RecombinationRule) Rate() float64 { return r.rate }

func (r *RecombinationRule) Matches(a, b atomsim.Particle) bool {
	return (a.Charge() > 0 && b.Charge() < 0) || (a.Charge() < 0 && b.Charge() > 0)
}

func (r *RecombinationRule) Apply(a, b atomsim.Particle, _ atomsim.ReactionContext) atomsim.ReactionEffect {
	cation, anion := a, b
	if a.Charge() < 0 {
		cation, anion = b, a
	}
	if err := anion.RemoveElectron(); err != nil {
		return atomsim.ReactionEffect{}
	}
	if err := cation.AddElectron(); err != nil {
		return atomsim.ReactionEffect{}
	}
	return atomsim.ReactionEffect{Updated: []atomsim.Particle{cation, anion}}
}
