package atomsim

import "github.com/google/uuid"

// SimulationID names a simulator instance.
type SimulationID string

// NewSimulationID returns a random identifier for an unnamed simulation.
func NewSimulationID() SimulationID {
	return SimulationID(uuid.NewString())
}
