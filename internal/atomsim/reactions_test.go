package atomsim

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func alwaysFire() float64 { return 0 }

type reactionFixture struct {
	store *EntityStore
	index *SpatialIndex
}

func newReactionFixture() *reactionFixture {
	return &reactionFixture{store: NewEntityStore(0), index: NewSpatialIndex(4)}
}

func (f *reactionFixture) add(p Particle) ParticleID {
	id := f.store.Insert(p)
	f.index.Insert(id, p.Position)
	return id
}

func (f *reactionFixture) totalCharge() int64 {
	var q int64
	f.store.Each(func(p *Particle) { q += p.Charge() })
	return q
}

func TestFusion_TwoHydrogenBecomeHelium(t *testing.T) {
	f := newReactionFixture()
	a := f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
	b := f.add(NewParticle(Hydrogen, r2.Vec{X: 0.01, Y: 0}))

	e := (&ReactionEngine{}).WithRules(FusionRule{Probability: 1})
	applied := e.Run(f.store, f.index, ReactionContext{Step: 1, Random: alwaysFire})

	if len(applied) != 1 {
		t.Fatalf("Expected 1 reaction, got %d", len(applied))
	}
	if applied[0].Rule.ID() != "fusion" {
		t.Errorf("Expected fusion, got %s", applied[0].Rule.ID())
	}
	for _, id := range []ParticleID{a, b} {
		if _, err := f.store.Get(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected hydrogen %d to be consumed, got %v", id, err)
		}
	}
	if f.store.Len() != 1 {
		t.Fatalf("Expected exactly 1 particle, got %d", f.store.Len())
	}

	he := f.store.All()[0]
	if he.Element != Helium {
		t.Errorf("Expected helium, got %v", he.Element)
	}
	if math.Abs(he.Position.X-0.005) > 1e-12 || he.Position.Y != 0 {
		t.Errorf("Expected helium at (0.005, 0), got %v", he.Position)
	}
	if he.ID <= b {
		t.Errorf("Expected a fresh ID above %d, got %d", b, he.ID)
	}
	if created := applied[0].Effect.Created; len(created) != 1 || created[0].ID != he.ID {
		t.Errorf("Expected the effect to report the assigned ID %d, got %+v", he.ID, created)
	}
	if !f.index.Contains(he.ID, he.Position) {
		t.Error("Expected helium to be indexed")
	}
	if f.index.Len() != 1 {
		t.Errorf("Expected consumed atoms to leave the index, got len %d", f.index.Len())
	}
}

func TestFusion_ConservesMomentum(t *testing.T) {
	f := newReactionFixture()
	a := NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0})
	a.Velocity = r2.Vec{X: 2, Y: 0}
	b := NewParticle(Hydrogen, r2.Vec{X: 0.02, Y: 0})
	b.Velocity = r2.Vec{X: -1, Y: 1}
	f.add(a)
	f.add(b)

	(&ReactionEngine{}).WithRules(FusionRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})

	he := f.store.All()[0]
	if math.Abs(he.Velocity.X-0.5) > 1e-9 || math.Abs(he.Velocity.Y-0.5) > 1e-9 {
		t.Errorf("Expected velocity (0.5, 0.5), got %v", he.Velocity)
	}
}

func TestFusion_OutOfContact(t *testing.T) {
	f := newReactionFixture()
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0.15, Y: 0}))

	applied := (&ReactionEngine{}).WithRules(FusionRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 0 {
		t.Errorf("Expected no reaction beyond the contact distance, got %d", len(applied))
	}
	if f.store.Len() != 2 {
		t.Errorf("Expected both atoms to survive, got %d", f.store.Len())
	}
}

func TestReactionEngine_RateRoll(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		roll  float64
		fires bool
	}{
		{"roll below rate", 0.6, 0.5, true},
		{"roll above rate", 0.4, 0.5, false},
		{"roll equal to rate", 0.5, 0.5, false},
		{"zero rate", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReactionFixture()
			f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
			f.add(NewParticle(Hydrogen, r2.Vec{X: 0.01, Y: 0}))

			roll := tt.roll
			applied := (&ReactionEngine{}).WithRules(FusionRule{Probability: tt.rate}).
				Run(f.store, f.index, ReactionContext{Random: func() float64 { return roll }})
			if got := len(applied) == 1; got != tt.fires {
				t.Errorf("fires = %v, want %v", got, tt.fires)
			}
		})
	}
}

func TestReactionEngine_OneReactionPerParticle(t *testing.T) {
	f := newReactionFixture()
	a := f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
	b := f.add(NewParticle(Hydrogen, r2.Vec{X: 0.02, Y: 0}))
	c := f.add(NewParticle(Hydrogen, r2.Vec{X: 0.04, Y: 0}))

	applied := (&ReactionEngine{}).WithRules(FusionRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})

	if len(applied) != 1 {
		t.Fatalf("Expected 1 reaction, got %d", len(applied))
	}
	if applied[0].A.ID != a || applied[0].B.ID != b {
		t.Errorf("Expected the lowest-ID pair (%d, %d) to react, got (%d, %d)", a, b, applied[0].A.ID, applied[0].B.ID)
	}
	if _, err := f.store.Get(c); err != nil {
		t.Errorf("Expected hydrogen %d to survive the pass, got %v", c, err)
	}
	if f.store.Len() != 2 {
		t.Errorf("Expected helium plus one hydrogen, got %d particles", f.store.Len())
	}
}

func TestElectronTransfer_TowardHigherAffinity(t *testing.T) {
	f := newReactionFixture()
	h := f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
	o := f.add(NewParticle(Oxygen, r2.Vec{X: 0.1, Y: 0}))
	before := f.totalCharge()

	applied := (&ReactionEngine{}).WithRules(ElectronTransferRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 1 {
		t.Fatalf("Expected 1 transfer, got %d", len(applied))
	}

	hp, _ := f.store.Get(h)
	op, _ := f.store.Get(o)
	if hp.Charge() != 1 {
		t.Errorf("Expected H+ after donating, got charge %d", hp.Charge())
	}
	if op.Charge() != -1 {
		t.Errorf("Expected O- after gaining, got charge %d", op.Charge())
	}
	if after := f.totalCharge(); after != before {
		t.Errorf("Total charge changed from %d to %d", before, after)
	}
}

func TestElectronTransfer_BareDonor(t *testing.T) {
	f := newReactionFixture()
	f.add(ion(Hydrogen, r2.Vec{X: 0, Y: 0}, 1))
	f.add(NewParticle(Oxygen, r2.Vec{X: 0.1, Y: 0}))

	applied := (&ReactionEngine{}).WithRules(ElectronTransferRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 0 {
		t.Errorf("Expected no transfer from a bare nucleus, got %d", len(applied))
	}
}

func TestElectronTransfer_SaturatedGainer(t *testing.T) {
	f := newReactionFixture()
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
	oxygen := NewParticle(Oxygen, r2.Vec{X: 0.1, Y: 0})
	oxygen.SetComposition(Composition{Protons: 8, Neutrons: 8, Electrons: math.MaxUint32})
	f.add(oxygen)
	before := f.totalCharge()

	applied := (&ReactionEngine{}).WithRules(ElectronTransferRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 0 {
		t.Errorf("Expected no transfer into a saturated shell, got %d", len(applied))
	}
	if f.totalCharge() != before {
		t.Errorf("Charge changed from %d to %d", before, f.totalCharge())
	}
}

func TestElectronTransfer_AffinityTie(t *testing.T) {
	f := newReactionFixture()
	f.add(NewParticle(Carbon, r2.Vec{X: 0, Y: 0}))
	f.add(NewParticle(Carbon, r2.Vec{X: 0.1, Y: 0}))

	applied := (&ReactionEngine{}).WithRules(ElectronTransferRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 0 {
		t.Errorf("Expected no transfer between equal affinities, got %d", len(applied))
	}
}

func TestFusion_ImpulsePushesBystanders(t *testing.T) {
	f := newReactionFixture()
	f.add(NewParticle(Hydrogen, r2.Vec{X: 10, Y: 10}))
	f.add(NewParticle(Hydrogen, r2.Vec{X: 10.02, Y: 10}))
	near := f.add(NewParticle(Carbon, r2.Vec{X: 11.01, Y: 10}))
	far := f.add(NewParticle(Carbon, r2.Vec{X: 20, Y: 10}))

	rule := FusionRule{Probability: 1, ImpulseRadius: 5, ImpulseSize: 10}
	(&ReactionEngine{}).WithRules(rule).Run(f.store, f.index, ReactionContext{Random: alwaysFire})

	np, _ := f.store.Get(near)
	// Distance from the fusion point is 1, so the kick is 10*(1-1/5).
	if math.Abs(np.Velocity.X-8) > 1e-9 || math.Abs(np.Velocity.Y) > 1e-9 {
		t.Errorf("Expected velocity (8, 0), got %v", np.Velocity)
	}
	fp, _ := f.store.Get(far)
	if fp.Velocity != (r2.Vec{}) {
		t.Errorf("Expected no kick outside the impulse radius, got %v", fp.Velocity)
	}
}

// swapRule exchanges nothing but records that it ran; used to check
// rule ordering.
type swapRule struct{ fired *int }

func (swapRule) ID() string                 { return "swap" }
func (swapRule) Name() string               { return "Swap" }
func (swapRule) Rate() float64              { return 1 }
func (swapRule) Matches(a, b Particle) bool { return true }
func (r swapRule) Apply(a, b Particle, _ ReactionContext) ReactionEffect {
	*r.fired++
	return ReactionEffect{Updated: []Particle{a, b}}
}

func TestReactionEngine_RuleOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FusionProbability = 1
	cfg.EnableElectronTransfer = false

	fired := 0
	e := NewReactionEngine(cfg).WithRules(swapRule{fired: &fired})
	if len(e.Rules()) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(e.Rules()))
	}

	f := newReactionFixture()
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0, Y: 0}))
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0.01, Y: 0}))
	applied := e.Run(f.store, f.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 1 || applied[0].Rule.ID() != "fusion" {
		t.Fatalf("Expected fusion to win over the custom rule, got %+v", applied)
	}
	if fired != 0 {
		t.Errorf("Custom rule must not run once fusion fired, ran %d times", fired)
	}

	g := newReactionFixture()
	g.add(NewParticle(Carbon, r2.Vec{X: 0, Y: 0}))
	g.add(NewParticle(Oxygen, r2.Vec{X: 0.1, Y: 0}))
	applied = e.Run(g.store, g.index, ReactionContext{Random: alwaysFire})
	if len(applied) != 1 || applied[0].Rule.ID() != "swap" {
		t.Fatalf("Expected the custom rule to fire, got %+v", applied)
	}
	if fired != 1 {
		t.Errorf("Expected custom rule to run once, ran %d times", fired)
	}
}

func TestReactionEngine_NoRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFusion = false
	cfg.EnableElectronTransfer = false
	e := NewReactionEngine(cfg)

	f := newReactionFixture()
	f.add(NewParticle(Hydrogen, r2.Vec{}))
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0.01}))
	if applied := e.Run(f.store, f.index, ReactionContext{Random: alwaysFire}); len(applied) != 0 {
		t.Errorf("Expected no reactions, got %d", len(applied))
	}
}

func TestFusion_IonsKeepNetCharge(t *testing.T) {
	f := newReactionFixture()
	f.add(ion(Hydrogen, r2.Vec{X: 0, Y: 0}, 1))
	f.add(NewParticle(Hydrogen, r2.Vec{X: 0.01, Y: 0}))
	before := f.totalCharge()

	(&ReactionEngine{}).WithRules(FusionRule{Probability: 1}).
		Run(f.store, f.index, ReactionContext{Random: alwaysFire})

	he := f.store.All()[0]
	if he.Element != Helium || he.Electrons() != 1 {
		t.Errorf("Expected He+ with 1 electron, got %v with %d", he.Element, he.Electrons())
	}
	if after := f.totalCharge(); after != before {
		t.Errorf("Total charge changed from %d to %d", before, after)
	}
}

func TestReactionEngine_StartOfStepContacts(t *testing.T) {
	f := newReactionFixture()
	a := f.add(NewParticle(Hydrogen, r2.Vec{X: -1.6, Y: 0}))
	b := f.add(NewParticle(Hydrogen, r2.Vec{X: 1.61, Y: 0}))
	e := (&ReactionEngine{}).WithRules(FusionRule{Probability: 1})

	if applied := e.Run(f.store, f.index, ReactionContext{Random: alwaysFire}); len(applied) != 0 {
		t.Fatalf("Pair out of contact must not react, got %d reactions", len(applied))
	}

	prior := map[ParticleID][]ParticleID{a: {b}}
	applied := e.RunWithContacts(f.store, f.index, ReactionContext{Random: alwaysFire}, prior)
	if len(applied) != 1 {
		t.Fatalf("Expected the pair that touched at step start to fuse, got %d reactions", len(applied))
	}
	if f.store.Len() != 1 {
		t.Errorf("Expected one helium left, got %d particles", f.store.Len())
	}
	he := applied[0].Effect.Created[0]
	if math.Abs(he.Position.X-0.005) > 1e-9 {
		t.Errorf("Expected helium at the current midpoint, got %v", he.Position)
	}
}
