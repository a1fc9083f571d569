package atomsim

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"
)

// Phase is the stage a step is in.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseForceAccumulation
	PhaseIntegration
	PhaseIndexSync
	PhaseReactionPass
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseForceAccumulation:
		return "force_accumulation"
	case PhaseIntegration:
		return "integration"
	case PhaseIndexSync:
		return "index_sync"
	case PhaseReactionPass:
		return "reaction_pass"
	default:
		return "unknown"
	}
}

// minParallelChunk keeps tiny populations on the calling goroutine.
const minParallelChunk = 256

// Simulator advances a particle population one step at a time.
type Simulator struct {
	mu        sync.RWMutex
	id        SimulationID
	cfg       Config
	store     *EntityStore
	index     *SpatialIndex
	forces    ForceModel
	reactions *ReactionEngine
	rngSrc    *rand.PCGSource
	rng       *rand.Rand
	logger    Logger

	notifications *NotificationManager

	phase      atomic.Int32
	steps      int64
	time       float64
	degenerate int64

	forceBuf []r2.Vec
	oldPos   []r2.Vec
	flagged  []bool
	// contacts[i] lists the higher IDs touching slot i when the step began.
	contacts [][]ParticleID

	// render is rebuilt at the end of every step; mutations made between
	// steps mark it stale and the next Snapshot rebuilds it.
	render      []RenderItem
	renderStale bool

	snapshotDir        string
	snapshotEverySteps int
	lastSnapshotErr    error

	stopCh    chan struct{}
	runDone   chan struct{}
	isRunning bool
}

// NewSimulator validates cfg and builds an empty simulator.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	src := &rand.PCGSource{}
	src.Seed(cfg.Seed)
	s := &Simulator{
		id:        NewSimulationID(),
		cfg:       cfg,
		store:     NewEntityStore(cfg.MaxParticles),
		index:     NewSpatialIndex(cfg.NeighborRadius),
		forces:    NewForceModel(cfg),
		reactions: NewReactionEngine(cfg),
		rngSrc:    src,
		rng:       rand.New(src),
		logger:    NoOpLogger{},
		render:    make([]RenderItem, 0),
		stopCh:    make(chan struct{}),
	}
	return s, nil
}

// ID returns the simulation identifier.
func (s *Simulator) ID() SimulationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// SetID renames the simulation.
func (s *Simulator) SetID(id SimulationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// SetLogger replaces the logger; nil restores the no-op logger.
func (s *Simulator) SetLogger(l Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = withSimulation(l, s.id)
}

// SetNotificationManager routes reaction events to mgr.
func (s *Simulator) SetNotificationManager(mgr *NotificationManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = mgr
}

// SetSnapshotDir sets where SaveState writes.
func (s *Simulator) SetSnapshotDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotDir = dir
}

// SetSnapshotEverySteps enables periodic state snapshots; 0 disables them.
func (s *Simulator) SetSnapshotEverySteps(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotEverySteps = n
}

// Reactions exposes the engine. Its rule list is safe to extend while the
// simulation runs; new rules apply from the next reaction pass.
func (s *Simulator) Reactions() *ReactionEngine {
	return s.reactions
}

// AddRules registers extra reaction rules, tried after the built-in ones.
func (s *Simulator) AddRules(rules ...ReactionRule) {
	s.reactions.WithRules(rules...)
}

// Config returns a copy of the active configuration.
func (s *Simulator) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Phase returns the phase of the step currently running, or PhaseIdle.
func (s *Simulator) Phase() Phase {
	return Phase(s.phase.Load())
}

// Steps returns the number of completed steps.
func (s *Simulator) Steps() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

// Time returns the simulated time in seconds.
func (s *Simulator) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// DegenerateCount returns how many NaN/Inf clamps happened so far.
func (s *Simulator) DegenerateCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degenerate
}

// Len returns the number of live particles.
func (s *Simulator) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Len()
}

func (s *Simulator) checkCapacity(n int) error {
	if avail := s.store.Available(); avail >= 0 && n > avail {
		return &CapacityError{Requested: n, Available: avail}
	}
	return nil
}

func (s *Simulator) insert(p Particle) ParticleID {
	p.Temperature = s.cfg.Temperature
	id := s.store.Insert(p)
	s.index.Insert(id, p.Position)
	s.renderStale = true
	return id
}

// AddParticle creates an atom of the given element at position.
func (s *Simulator) AddParticle(kind ElementKind, position r2.Vec) (ParticleID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verr := &ValidationError{}
	validatePositions([]r2.Vec{position}, verr)
	if verr.HasIssues() {
		return 0, verr
	}
	if err := s.checkCapacity(1); err != nil {
		return 0, err
	}
	return s.insert(NewParticle(kind, position)), nil
}

// AddCustomParticle creates a Custom particle with explicit composition and color.
func (s *Simulator) AddCustomParticle(position r2.Vec, comp Composition, color colorful.Color) (ParticleID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verr := &ValidationError{}
	validatePositions([]r2.Vec{position}, verr)
	if verr.HasIssues() {
		return 0, verr
	}
	if err := s.checkCapacity(1); err != nil {
		return 0, err
	}
	return s.insert(NewCustomParticle(position, comp, color)), nil
}

// AddParticles inserts a batch of element atoms. The batch is validated as
// a whole and either fully inserted or not at all.
func (s *Simulator) AddParticles(positions []r2.Vec, kinds []ElementKind) ([]ParticleID, error) {
	verr := &ValidationError{}
	if len(positions) != len(kinds) {
		verr.Addf("positions and elements differ in length: %d != %d", len(positions), len(kinds))
	}
	validatePositions(positions, verr)
	if verr.HasIssues() {
		return nil, verr
	}
	batch := make([]Particle, len(positions))
	for i := range positions {
		batch[i] = NewParticle(kinds[i], positions[i])
	}
	return s.insertBatch(batch)
}

// AddCustomParticles inserts a batch of Custom particles. Every slice must
// have the same length.
func (s *Simulator) AddCustomParticles(positions []r2.Vec, colors []colorful.Color, comps []Composition) ([]ParticleID, error) {
	verr := &ValidationError{}
	if len(positions) != len(colors) {
		verr.Addf("positions and colors differ in length: %d != %d", len(positions), len(colors))
	}
	if len(positions) != len(comps) {
		verr.Addf("positions and compositions differ in length: %d != %d", len(positions), len(comps))
	}
	validatePositions(positions, verr)
	if verr.HasIssues() {
		return nil, verr
	}
	batch := make([]Particle, len(positions))
	for i := range positions {
		batch[i] = NewCustomParticle(positions[i], comps[i], colors[i])
	}
	return s.insertBatch(batch)
}

func (s *Simulator) insertBatch(batch []Particle) ([]ParticleID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCapacity(len(batch)); err != nil {
		return nil, err
	}
	s.store.Reserve(len(batch))
	ids := make([]ParticleID, 0, len(batch))
	for _, p := range batch {
		ids = append(ids, s.insert(p))
	}
	return ids, nil
}

// Get returns a copy of the particle.
func (s *Simulator) Get(id ParticleID) (Particle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Get(id)
}

// Particles returns copies of all live particles in ascending ID order.
func (s *Simulator) Particles() []Particle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.All()
}

// Remove deletes the particle from the store and the spatial index.
func (s *Simulator) Remove(id ParticleID) (Particle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.store.Remove(id)
	if err != nil {
		return Particle{}, err
	}
	s.index.Remove(id, p.Position)
	s.renderStale = true
	return p, nil
}

// Move relocates a particle and syncs the spatial index in the same call.
func (s *Simulator) Move(id ParticleID, position r2.Vec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !finite(position) {
		return &ValidationError{Issues: []string{fmt.Sprintf("position is not finite: (%g, %g)", position.X, position.Y)}}
	}
	old, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Relocate(id, position); err != nil {
		return err
	}
	s.index.Update(id, old.Position, position)
	s.renderStale = true
	return nil
}

// AddElectron adds one electron to the particle.
func (s *Simulator) AddElectron(id ParticleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutated(s.store.AddElectron(id))
}

// RemoveElectron removes one electron from the particle.
func (s *Simulator) RemoveElectron(id ParticleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutated(s.store.RemoveElectron(id))
}

// SetComposition replaces the particle's composition.
func (s *Simulator) SetComposition(id ParticleID, c Composition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutated(s.store.SetComposition(id, c))
}

func (s *Simulator) mutated(err error) error {
	if err == nil {
		s.renderStale = true
	}
	return err
}

// SetNeighborRadius changes the interaction radius and rebuilds the spatial index.
func (s *Simulator) SetNeighborRadius(r float64) error {
	if r <= 0 {
		return &ValidationError{Issues: []string{fmt.Sprintf("neighbor_radius must be positive, got %g", r)}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.NeighborRadius = r
	s.index.Rebuild(r, s.store)
	return nil
}

// Tick advances the simulation by the configured time step.
func (s *Simulator) Tick() {
	s.Step(s.Config().TimeStep)
}

// Step advances the simulation by dt. The phases run strictly in order;
// each one finishes before the next starts.
func (s *Simulator) Step(dt float64) {
	s.mu.Lock()

	n := s.store.Len()
	s.ensureBuffers(n)

	s.phase.Store(int32(PhaseForceAccumulation))
	s.accumulateForces(n)

	s.phase.Store(int32(PhaseIntegration))
	s.integrate(n, dt)

	s.phase.Store(int32(PhaseIndexSync))
	s.syncIndex(n)

	s.phase.Store(int32(PhaseReactionPass))
	applied := s.reactions.RunWithContacts(s.store, s.index, ReactionContext{
		Step:   s.steps + 1,
		Time:   s.time + dt,
		Random: s.rng.Float64,
	}, s.startContacts(n))

	s.steps++
	s.time += dt
	s.render = buildRender(s.store)
	s.renderStale = false
	s.publish(applied)

	var state *State
	if s.snapshotEverySteps > 0 && s.snapshotDir != "" && s.steps%int64(s.snapshotEverySteps) == 0 {
		st := s.stateLocked()
		state = &st
	}
	dir := s.snapshotDir
	logger := s.logger
	s.phase.Store(int32(PhaseIdle))
	s.mu.Unlock()

	if state != nil {
		if _, err := writeStateFile(dir, *state); err != nil {
			logger.Errorf("periodic snapshot failed: step=%d error=%v", state.Step, err)
			s.mu.Lock()
			s.lastSnapshotErr = err
			s.mu.Unlock()
		}
	}
}

func (s *Simulator) ensureBuffers(n int) {
	if cap(s.forceBuf) < n {
		s.forceBuf = make([]r2.Vec, n)
		s.oldPos = make([]r2.Vec, n)
		s.flagged = make([]bool, n)
	}
	s.forceBuf = s.forceBuf[:n]
	s.oldPos = s.oldPos[:n]
	s.flagged = s.flagged[:n]
	for len(s.contacts) < n {
		s.contacts = append(s.contacts, nil)
	}
}

// startContacts collects the contacts recorded during force accumulation.
// Slots are still valid: nothing is inserted or removed before the
// reaction pass.
func (s *Simulator) startContacts(n int) map[ParticleID][]ParticleID {
	var out map[ParticleID][]ParticleID
	for i := 0; i < n; i++ {
		if len(s.contacts[i]) == 0 {
			continue
		}
		if out == nil {
			out = make(map[ParticleID][]ParticleID)
		}
		out[s.store.particles[i].ID] = s.contacts[i]
	}
	return out
}

// parallel splits [0,n) into contiguous chunks and runs fn on each; it
// returns once every chunk is done.
func (s *Simulator) parallel(n int, fn func(lo, hi int)) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || n < 2*minParallelChunk {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	if chunk < minParallelChunk {
		chunk = minParallelChunk
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// accumulateForces only reads the store and the index and writes each
// particle's own slot of the force and contact buffers.
func (s *Simulator) accumulateForces(n int) {
	radius := s.cfg.NeighborRadius
	particles := s.store.particles
	s.parallel(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := particles[i]
			f := s.forces.Boundary(p)
			contacts := s.contacts[i][:0]
			for _, id := range s.index.QueryRange(p.Position, radius) {
				if id == p.ID {
					continue
				}
				slot, ok := s.store.slotOf(id)
				if !ok {
					continue
				}
				q := particles[slot]
				d := r2.Norm(r2.Sub(q.Position, p.Position))
				if d > radius {
					continue
				}
				if q.ID > p.ID && d < contactFactor*(p.radius+q.radius) {
					contacts = append(contacts, q.ID)
				}
				f = r2.Add(f, s.forces.Pairwise(p, q))
			}
			s.forceBuf[i] = f
			s.contacts[i] = contacts
		}
	})
}

// integrate writes each particle from exactly one worker.
func (s *Simulator) integrate(n int, dt float64) {
	particles := s.store.particles
	damping := s.cfg.DampingFactor
	maxSpeed := s.cfg.MaxSpeed
	s.parallel(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := &particles[i]
			s.oldPos[i] = p.Position
			s.flagged[i] = integrateParticle(p, s.forceBuf[i], damping, maxSpeed, dt)
		}
	})
}

// integrateParticle applies one semi-implicit Euler step. Non-finite values
// are replaced by the last valid ones, or zero velocity when there is none;
// the return value reports whether that happened.
func integrateParticle(p *Particle, force r2.Vec, damping, maxSpeed, dt float64) bool {
	degenerate := false
	if !finite(force) {
		force = r2.Vec{}
		degenerate = true
	}
	if !finite(p.Velocity) {
		p.Velocity = r2.Vec{}
		degenerate = true
	}

	var acc r2.Vec
	if p.mass > 0 {
		acc = r2.Scale(1/p.mass, force)
	}
	acc = r2.Sub(acc, DampingAcceleration(p.Velocity, damping, dt))

	v := r2.Add(p.Velocity, r2.Scale(dt, acc))
	if !finite(v) {
		v = p.Velocity
		degenerate = true
	}
	if maxSpeed > 0 {
		if speed := r2.Norm(v); speed > maxSpeed {
			v = r2.Scale(maxSpeed/speed, v)
		}
	}

	pos := r2.Add(p.Position, r2.Scale(dt, v))
	if !finite(pos) {
		pos = p.Position
		v = p.Velocity
		degenerate = true
	}

	p.Velocity = v
	p.Position = pos
	if degenerate {
		p.Degenerate = true
	}
	return degenerate
}

// syncIndex brings the position index and the spatial hash in line with
// the integrated positions. Single-threaded: both structures are shared.
func (s *Simulator) syncIndex(n int) {
	particles := s.store.particles
	for i := 0; i < n; i++ {
		p := &particles[i]
		if s.flagged[i] {
			s.degenerate++
			s.logger.Warnf("numeric degeneracy clamped: particle=%d step=%d", p.ID, s.steps+1)
		}
		old := s.oldPos[i]
		if old == p.Position {
			continue
		}
		s.store.unindexPosition(p.ID, old)
		s.store.byPosition[p.Position] = append(s.store.byPosition[p.Position], p.ID)
		s.index.Update(p.ID, old, p.Position)
	}
}

func (s *Simulator) publish(applied []AppliedReaction) {
	for _, ar := range applied {
		s.logger.Debugf("reaction fired: rule=%s a=%d b=%d step=%d", ar.Rule.ID(), ar.A.ID, ar.B.ID, s.steps)
		if s.notifications != nil {
			s.notifications.Broadcast(NewReactionEvent(s.id, s.steps, s.time, ar))
		}
	}
}

// Run steps the simulation in a goroutine every interval until Stop is
// called. It can be called again after stopping.
func (s *Simulator) Run(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.runDone = make(chan struct{})
	s.isRunning = true
	stopCh, done := s.stopCh, s.runDone
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			default:
			}
			select {
			case <-ticker.C:
				s.Tick()
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop ends a Run loop and waits for it to exit. The step in flight, if
// any, completes first.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.isRunning = false
	done := s.runDone
	s.mu.Unlock()

	<-done
}

// IsRunning reports whether a Run loop is active.
func (s *Simulator) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
