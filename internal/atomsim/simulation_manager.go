package atomsim

import (
	"fmt"
	"sort"
	"sync"
)

// SimulationManager holds named simulations, each isolated from the others.
type SimulationManager struct {
	mu          sync.RWMutex
	simulations map[SimulationID]*Simulator
}

func NewSimulationManager() *SimulationManager {
	return &SimulationManager{
		simulations: make(map[SimulationID]*Simulator),
	}
}

// CreateSimulation builds a simulator from cfg under id. An empty id gets a
// generated one. It fails if id is taken or cfg does not validate.
func (sm *SimulationManager) CreateSimulation(id SimulationID, cfg Config) (*Simulator, error) {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	if id != "" {
		sim.SetID(id)
	}
	if err := sm.Add(sim); err != nil {
		return nil, err
	}
	return sim, nil
}

// Add registers an existing simulator under its own ID.
func (sm *SimulationManager) Add(sim *Simulator) error {
	id := sim.ID()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.simulations[id]; exists {
		return fmt.Errorf("simulation with id %s already exists", id)
	}
	sm.simulations[id] = sim
	return nil
}

func (sm *SimulationManager) GetSimulation(id SimulationID) (*Simulator, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sim, exists := sm.simulations[id]
	return sim, exists
}

// DeleteSimulation stops the simulation if it is running and forgets it.
func (sm *SimulationManager) DeleteSimulation(id SimulationID) error {
	sm.mu.Lock()
	sim, exists := sm.simulations[id]
	if exists {
		delete(sm.simulations, id)
	}
	sm.mu.Unlock()

	if !exists {
		return fmt.Errorf("simulation with id %s does not exist", id)
	}
	sim.Stop()
	return nil
}

// ListSimulations returns every simulation ID, sorted.
func (sm *SimulationManager) ListSimulations() []SimulationID {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]SimulationID, 0, len(sm.simulations))
	for id := range sm.simulations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StopAll stops every running simulation.
func (sm *SimulationManager) StopAll() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, sim := range sm.simulations {
		sim.Stop()
	}
}
