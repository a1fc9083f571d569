package atomsim

import "gonum.org/v1/gonum/floats"

// Statistics aggregates the whole population.
type Statistics struct {
	TotalAtoms     int     `json:"total_atoms"`
	TotalProtons   uint64  `json:"total_protons"`
	TotalNeutrons  uint64  `json:"total_neutrons"`
	TotalElectrons uint64  `json:"total_electrons"`
	TotalCharge    int64   `json:"total_charge"`
	TotalMass      float64 `json:"total_mass"`
	// Per-element atom counts, keyed by element name.
	ByElement  map[string]int `json:"by_element"`
	Ionized    int            `json:"ionized"`
	Degenerate int            `json:"degenerate"`
}

func computeStatistics(store *EntityStore) Statistics {
	st := Statistics{
		TotalAtoms: store.Len(),
		ByElement:  make(map[string]int),
	}
	masses := make([]float64, 0, store.Len())
	store.Each(func(p *Particle) {
		st.TotalProtons += uint64(p.comp.Protons)
		st.TotalNeutrons += uint64(p.comp.Neutrons)
		st.TotalElectrons += uint64(p.comp.Electrons)
		st.TotalCharge += p.charge
		masses = append(masses, p.mass)
		st.ByElement[p.Element.String()]++
		if p.Ionized() {
			st.Ionized++
		}
		if p.Degenerate {
			st.Degenerate++
		}
	})
	st.TotalMass = floats.Sum(masses)
	return st
}

// Statistics recomputes the aggregate over every live particle.
func (s *Simulator) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeStatistics(s.store)
}
