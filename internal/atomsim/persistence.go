package atomsim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// State is a point-in-time capture of a simulator. Restoring it and stepping
// continues exactly where the original left off, including the random
// stream used by the reaction pass.
type State struct {
	SimulationID SimulationID `json:"simulation_id"`
	Step         int64        `json:"step"`
	Time         float64      `json:"time"`
	NextID       ParticleID   `json:"next_id"`
	Config       Config       `json:"config"`
	RNG          []byte       `json:"rng,omitempty"`
	Particles    []Particle   `json:"particles"`
}

// ValidateState checks a state before it is restored: the configuration
// must validate, IDs must be non-zero, unique and below NextID, and every
// position must be finite.
func ValidateState(st State) error {
	verr := &ValidationError{}
	if err := ValidateConfig(st.Config); err != nil {
		var cfgErr *ValidationError
		if errors.As(err, &cfgErr) {
			verr.Issues = append(verr.Issues, cfgErr.Issues...)
		} else {
			verr.Add(err.Error())
		}
	}
	if st.Step < 0 {
		verr.Addf("step must not be negative, got %d", st.Step)
	}

	seen := make(map[ParticleID]struct{}, len(st.Particles))
	for i, p := range st.Particles {
		if p.ID == 0 {
			verr.Addf("particle at index %d has no ID", i)
			continue
		}
		if _, dup := seen[p.ID]; dup {
			verr.Addf("duplicate particle ID: %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.ID >= st.NextID {
			verr.Addf("particle ID %d is not below next_id %d", p.ID, st.NextID)
		}
		if !finite(p.Position) || !finite(p.Velocity) {
			verr.Addf("particle %d has non-finite position or velocity", p.ID)
		}
	}
	if st.Config.MaxParticles > 0 && len(st.Particles) > st.Config.MaxParticles {
		verr.Addf("%d particles exceed max_particles %d", len(st.Particles), st.Config.MaxParticles)
	}
	return verr.orNil()
}

func EncodeStateJSON(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

func DecodeStateJSON(data []byte) (State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return st, nil
}

// State captures the simulator between steps.
func (s *Simulator) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Simulator) stateLocked() State {
	rngState, err := s.rngSrc.MarshalBinary()
	if err != nil {
		rngState = nil
	}
	return State{
		SimulationID: s.id,
		Step:         s.steps,
		Time:         s.time,
		NextID:       s.store.NextID(),
		Config:       s.cfg,
		RNG:          rngState,
		Particles:    s.store.All(),
	}
}

// StatePath is where a simulation's state lives inside dir.
func StatePath(dir string, id SimulationID) string {
	return filepath.Join(dir, string(id)+".json")
}

// SaveState writes the current state into dir, or into the configured
// snapshot directory when dir is empty, and returns the file path.
func (s *Simulator) SaveState(dir string) (string, error) {
	s.mu.RLock()
	if dir == "" {
		dir = s.snapshotDir
	}
	st := s.stateLocked()
	s.mu.RUnlock()

	if dir == "" {
		return "", fmt.Errorf("no snapshot directory configured")
	}
	return writeStateFile(dir, st)
}

// LastSnapshotError returns the error of the most recent failed periodic
// snapshot, if any.
func (s *Simulator) LastSnapshotError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshotErr
}

// writeStateFile writes through a temp file and a rename so readers never
// see a partial file.
func writeStateFile(dir string, st State) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	data, err := EncodeStateJSON(st)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+string(st.SimulationID)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	path := StatePath(dir, st.SimulationID)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("renaming state file: %w", err)
	}
	return path, nil
}

// LoadStateFile reads and validates a state file.
func LoadStateFile(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("reading state file: %w", err)
	}
	st, err := DecodeStateJSON(data)
	if err != nil {
		return State{}, err
	}
	if err := ValidateState(st); err != nil {
		return State{}, err
	}
	return st, nil
}

// RestoreSimulator rebuilds a simulator from st. Particle IDs and the next
// ID are preserved.
func RestoreSimulator(st State) (*Simulator, error) {
	if err := ValidateState(st); err != nil {
		return nil, err
	}
	s, err := NewSimulator(st.Config)
	if err != nil {
		return nil, err
	}
	if st.SimulationID != "" {
		s.id = st.SimulationID
	}
	s.steps = st.Step
	s.time = st.Time
	if len(st.RNG) > 0 {
		if err := s.rngSrc.UnmarshalBinary(st.RNG); err != nil {
			return nil, fmt.Errorf("restoring random state: %w", err)
		}
	}

	s.store.Reserve(len(st.Particles))
	for _, p := range st.Particles {
		s.store.restore(p)
		s.index.Insert(p.ID, p.Position)
	}
	if st.NextID > s.store.nextID {
		s.store.nextID = st.NextID
	}
	s.renderStale = true
	return s, nil
}
