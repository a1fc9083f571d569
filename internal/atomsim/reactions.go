package atomsim

import (
	"slices"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// contactFactor scales the summed radii into the reaction contact distance.
const contactFactor = 0.5

// FusionRule fuses two hydrogen atoms into one helium atom.
type FusionRule struct {
	Probability   float64
	ImpulseRadius float64
	ImpulseSize   float64
}

func (FusionRule) ID() string      { return "fusion" }
func (FusionRule) Name() string    { return "Hydrogen fusion" }
func (r FusionRule) Rate() float64 { return r.Probability }

func (FusionRule) Matches(a, b Particle) bool {
	return a.Element == Hydrogen && b.Element == Hydrogen &&
		a.comp.Protons == 1 && b.comp.Protons == 1
}

// Apply replaces both atoms with a helium atom at their midpoint moving with
// their mass-weighted velocity, and releases an impulse around it. The
// helium keeps the electrons of both reactants so net charge is unchanged.
func (r FusionRule) Apply(a, b Particle, _ ReactionContext) ReactionEffect {
	mid := r2.Scale(0.5, r2.Add(a.Position, b.Position))
	he := NewParticle(Helium, mid)
	comp := he.comp
	comp.Electrons = a.comp.Electrons + b.comp.Electrons
	he.SetComposition(comp)
	if total := a.mass + b.mass; total > 0 {
		momentum := r2.Add(r2.Scale(a.mass, a.Velocity), r2.Scale(b.mass, b.Velocity))
		he.Velocity = r2.Scale(1/total, momentum)
	}
	he.Temperature = (a.Temperature + b.Temperature) / 2

	eff := ReactionEffect{
		Consumed: []ParticleID{a.ID, b.ID},
		Created:  []Particle{he},
	}
	if r.ImpulseRadius > 0 && r.ImpulseSize != 0 {
		eff.Impulse = &Impulse{Center: mid, Radius: r.ImpulseRadius, Strength: r.ImpulseSize}
	}
	return eff
}

// ElectronTransferRule moves one electron toward the atom with the higher
// electron affinity.
type ElectronTransferRule struct {
	Probability float64
}

func (ElectronTransferRule) ID() string      { return "electron_transfer" }
func (ElectronTransferRule) Name() string    { return "Electron transfer" }
func (r ElectronTransferRule) Rate() float64 { return r.Probability }

func (ElectronTransferRule) Matches(a, b Particle) bool {
	return a.comp.Electrons > 0 || b.comp.Electrons > 0
}

// Apply does nothing on an affinity tie, when the donor has no electrons or
// when the gainer cannot take another.
func (ElectronTransferRule) Apply(a, b Particle, _ ReactionContext) ReactionEffect {
	affA, affB := a.Affinity(), b.Affinity()
	if affA == affB {
		return ReactionEffect{}
	}
	gainer, donor := a, b
	if affB > affA {
		gainer, donor = b, a
	}
	if err := donor.RemoveElectron(); err != nil {
		return ReactionEffect{}
	}
	if err := gainer.AddElectron(); err != nil {
		return ReactionEffect{}
	}
	return ReactionEffect{Updated: []Particle{gainer, donor}}
}

// ReactionEngine runs the reaction rules over particles in contact.
type ReactionEngine struct {
	mu    sync.RWMutex
	rules []ReactionRule
}

// NewReactionEngine builds the engine with the rules enabled in cfg.
func NewReactionEngine(cfg Config) *ReactionEngine {
	e := &ReactionEngine{rules: make([]ReactionRule, 0, 2)}
	if cfg.EnableFusion {
		e.rules = append(e.rules, FusionRule{
			Probability:   cfg.FusionProbability,
			ImpulseRadius: cfg.FusionImpulseRadius,
			ImpulseSize:   cfg.FusionImpulse,
		})
	}
	if cfg.EnableElectronTransfer {
		e.rules = append(e.rules, ElectronTransferRule{Probability: cfg.TransferProbability})
	}
	return e
}

// WithRules appends rules, tried after the built-in ones.
func (e *ReactionEngine) WithRules(rules ...ReactionRule) *ReactionEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rules...)
	return e
}

// Rules returns a copy of the active rules in evaluation order.
func (e *ReactionEngine) Rules() []ReactionRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.rules)
}

// Run performs one reaction pass. Pairs are evaluated against a snapshot
// taken before anything is applied, in ascending ID order, and a particle
// takes part in at most one reaction per pass. All effects are then applied
// to the store and the index together.
func (e *ReactionEngine) Run(store *EntityStore, index *SpatialIndex, ctx ReactionContext) []AppliedReaction {
	return e.RunWithContacts(store, index, ctx, nil)
}

// RunWithContacts is Run with extra candidate pairs: prior maps a particle
// ID to the higher IDs it touched at the start of the step. Those pairs
// react even when integration has since moved them apart.
func (e *ReactionEngine) RunWithContacts(store *EntityStore, index *SpatialIndex, ctx ReactionContext, prior map[ParticleID][]ParticleID) []AppliedReaction {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()
	if len(rules) == 0 || store.Len() < 2 {
		return nil
	}

	snapshot := store.All()
	bySnapshot := make(map[ParticleID]int, len(snapshot))
	maxRadius := 0.0
	for i, p := range snapshot {
		bySnapshot[p.ID] = i
		if p.radius > maxRadius {
			maxRadius = p.radius
		}
	}

	touched := make(map[ParticleID]struct{})
	applied := make([]AppliedReaction, 0)

	for _, a := range snapshot {
		if _, done := touched[a.ID]; done {
			continue
		}
		reach := contactFactor * (a.radius + maxRadius)
		candidates := index.QueryRange(a.Position, reach)
		earlier := prior[a.ID]
		if len(earlier) > 0 {
			candidates = append(candidates, earlier...)
			slices.Sort(candidates)
			candidates = slices.Compact(candidates)
		}
		for _, id := range candidates {
			if id <= a.ID {
				continue
			}
			if _, done := touched[id]; done {
				continue
			}
			bi, ok := bySnapshot[id]
			if !ok {
				continue
			}
			b := snapshot[bi]
			inContact := r2.Norm(r2.Sub(b.Position, a.Position)) < contactFactor*(a.radius+b.radius)
			if !inContact && !slices.Contains(earlier, id) {
				continue
			}

			eff, rule := react(rules, a, b, ctx)
			if rule == nil {
				continue
			}
			touched[a.ID] = struct{}{}
			touched[b.ID] = struct{}{}
			applied = append(applied, AppliedReaction{Rule: rule, A: a, B: b, Effect: eff})
			break
		}
	}

	for i := range applied {
		e.apply(store, index, &applied[i].Effect)
	}
	for _, ar := range applied {
		if ar.Effect.Impulse != nil {
			applyImpulse(store, index, *ar.Effect.Impulse)
		}
	}
	return applied
}

func react(rules []ReactionRule, a, b Particle, ctx ReactionContext) (ReactionEffect, ReactionRule) {
	for _, rule := range rules {
		if !rule.Matches(a, b) {
			continue
		}
		if ctx.Random() >= rule.Rate() {
			continue
		}
		eff := rule.Apply(a, b, ctx)
		if eff.Empty() {
			continue
		}
		return eff, rule
	}
	return ReactionEffect{}, nil
}

func (e *ReactionEngine) apply(store *EntityStore, index *SpatialIndex, eff *ReactionEffect) {
	for _, id := range eff.Consumed {
		removed, err := store.Remove(id)
		if err != nil {
			continue
		}
		index.Remove(id, removed.Position)
	}
	for _, u := range eff.Updated {
		comp := u.comp
		_ = store.Update(u.ID, func(p *Particle) { p.SetComposition(comp) })
	}
	for i := range eff.Created {
		id := store.Insert(eff.Created[i])
		created, _ := store.Get(id)
		eff.Created[i] = created
		index.Insert(id, created.Position)
	}
}

func applyImpulse(store *EntityStore, index *SpatialIndex, imp Impulse) {
	for _, id := range index.QueryRange(imp.Center, imp.Radius) {
		slot, ok := store.slotOf(id)
		if !ok {
			continue
		}
		p := &store.particles[slot]
		delta := r2.Sub(p.Position, imp.Center)
		d := r2.Norm(delta)
		if d < Epsilon || d > imp.Radius {
			continue
		}
		kick := imp.Strength * (1 - d/imp.Radius)
		p.Velocity = r2.Add(p.Velocity, r2.Scale(kick/d, delta))
	}
}
