package atomsim

import "gonum.org/v1/gonum/spatial/r2"

// ReactionContext is handed to every rule application.
type ReactionContext struct {
	Step   int64
	Time   float64
	Random func() float64
}

// Impulse pushes every particle within Radius of Center away from it.
// The velocity change falls off linearly from Strength at the center to
// zero at the edge.
type Impulse struct {
	Center   r2.Vec  `json:"center"`
	Radius   float64 `json:"radius"`
	Strength float64 `json:"strength"`
}

// ReactionEffect describes what a reaction does to the store. Effects are
// collected for the whole pass before any of them is applied.
type ReactionEffect struct {
	Consumed []ParticleID `json:"consumed,omitempty"`
	// Updated carries particles whose composition changed; only the
	// composition is written back.
	Updated []Particle `json:"updated,omitempty"`
	// Created particles get their IDs assigned when the effect is applied.
	Created []Particle `json:"created,omitempty"`
	Impulse *Impulse   `json:"impulse,omitempty"`
}

// Empty reports whether the effect changes nothing.
func (e ReactionEffect) Empty() bool {
	return len(e.Consumed) == 0 && len(e.Updated) == 0 && len(e.Created) == 0 && e.Impulse == nil
}

// ReactionRule is a stochastic pair reaction.
type ReactionRule interface {
	ID() string
	Name() string

	// Rate is the probability (0..1) that the rule fires for a matching pair.
	Rate() float64

	// Matches reports whether the rule is interested in the pair at all.
	Matches(a, b Particle) bool

	// Apply computes the effect of the reaction. a and b come from the
	// snapshot taken at the start of the pass. Returning an empty effect
	// means nothing happened.
	Apply(a, b Particle, ctx ReactionContext) ReactionEffect
}

// AppliedReaction records one reaction that fired during a pass.
type AppliedReaction struct {
	Rule   ReactionRule
	A, B   Particle
	Effect ReactionEffect
}
