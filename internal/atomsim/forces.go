package atomsim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ForceModel evaluates the pairwise and boundary forces. It holds only
// parameters; every method is a pure function of its arguments and returns
// the force acting on the first particle.
type ForceModel struct {
	CoulombStrength float64
	GravityStrength float64
	LJEpsilon       float64
	BoundaryForce   float64
	Bounds          r2.Box

	EnableCoulomb      bool
	EnableGravity      bool
	EnableLennardJones bool
	EnableBoundary     bool
}

// NewForceModel derives the force parameters from a configuration.
func NewForceModel(cfg Config) ForceModel {
	return ForceModel{
		CoulombStrength:    cfg.CoulombStrength,
		GravityStrength:    cfg.GravityStrength,
		LJEpsilon:          cfg.LJEpsilon,
		BoundaryForce:      cfg.BoundaryForce,
		Bounds:             cfg.Bounds(),
		EnableCoulomb:      cfg.EnableCoulomb,
		EnableGravity:      cfg.EnableGravity,
		EnableLennardJones: cfg.EnableLennardJones,
		EnableBoundary:     cfg.EnableBoundary,
	}
}

// separation returns the unit vector from a toward b and the distance.
// ok is false when the particles are closer than Epsilon.
func separation(a, b Particle) (dir r2.Vec, d float64, ok bool) {
	delta := r2.Sub(b.Position, a.Position)
	d = r2.Norm(delta)
	if d < Epsilon || math.IsNaN(d) {
		return r2.Vec{}, d, false
	}
	return r2.Scale(1/d, delta), d, true
}

// Coulomb is the electrostatic force on a from b. Like charges repel.
func (fm ForceModel) Coulomb(a, b Particle) r2.Vec {
	dir, d, ok := separation(a, b)
	if !ok || a.charge == 0 || b.charge == 0 {
		return r2.Vec{}
	}
	qq := float64(a.charge) * float64(b.charge) * ElementaryCharge * ElementaryCharge
	f := CoulombConstant * qq / (d * d) * fm.CoulombStrength
	return r2.Scale(-f, dir)
}

// Gravity is the gravitational pull on a toward b.
func (fm ForceModel) Gravity(a, b Particle) r2.Vec {
	dir, d, ok := separation(a, b)
	if !ok {
		return r2.Vec{}
	}
	f := GravitationalConstant * a.mass * b.mass / (d * d) * fm.GravityStrength
	return r2.Scale(f, dir)
}

// LennardJones is the short-range force on a from b, applied only while
// d < 2*(r_a+r_b). Positive magnitudes push a away from b.
func (fm ForceModel) LennardJones(a, b Particle) r2.Vec {
	dir, d, ok := separation(a, b)
	if !ok {
		return r2.Vec{}
	}
	sumR := a.radius + b.radius
	if d >= 2*sumR || sumR == 0 {
		return r2.Vec{}
	}
	sigma := sumR / 2
	sr6 := math.Pow(sigma/d, 6)
	f := 24 * fm.LJEpsilon * (2*sr6*sr6 - sr6) / d
	return r2.Scale(-f, dir)
}

// Pairwise sums the enabled pair forces acting on a from b.
func (fm ForceModel) Pairwise(a, b Particle) r2.Vec {
	var total r2.Vec
	if fm.EnableCoulomb {
		total = r2.Add(total, fm.Coulomb(a, b))
	}
	if fm.EnableGravity {
		total = r2.Add(total, fm.Gravity(a, b))
	}
	if fm.EnableLennardJones {
		total = r2.Add(total, fm.LennardJones(a, b))
	}
	return total
}

// Boundary pushes a particle that is strictly outside the bounds back in,
// with constant magnitude per offending axis. A particle exactly on the
// boundary feels nothing.
func (fm ForceModel) Boundary(p Particle) r2.Vec {
	if !fm.EnableBoundary {
		return r2.Vec{}
	}
	var f r2.Vec
	switch {
	case p.Position.X < fm.Bounds.Min.X:
		f.X = fm.BoundaryForce
	case p.Position.X > fm.Bounds.Max.X:
		f.X = -fm.BoundaryForce
	}
	switch {
	case p.Position.Y < fm.Bounds.Min.Y:
		f.Y = fm.BoundaryForce
	case p.Position.Y > fm.Bounds.Max.Y:
		f.Y = -fm.BoundaryForce
	}
	return f
}

// DampingAcceleration is the velocity loss per unit time for one step:
// v*(1-damping)/dt. Subtracting it over dt scales v by damping.
func DampingAcceleration(velocity r2.Vec, damping, dt float64) r2.Vec {
	if dt == 0 || damping == 1 {
		return r2.Vec{}
	}
	return r2.Scale((1-damping)/dt, velocity)
}
