package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/daniacca/atomsim/internal/atomsim"
	"gonum.org/v1/gonum/spatial/r2"
)

// seedAtom is one entry of a seed file.
type seedAtom struct {
	Element string  `json:"element"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func main() {
	var (
		configFile = flag.String("config-file", "", "path to a YAML or JSON simulation config (default: built-in defaults)")
		steps      = flag.Int("steps", 100, "number of steps to run")
		seedFile   = flag.String("seed", "", "path to a JSON file of atoms to insert (optional)")
		populate   = flag.Bool("populate", true, "seed the domain with random atoms")
		stateIn    = flag.String("state", "", "resume from a saved state file instead of building a new simulation")
		stateOut   = flag.String("save-dir", "", "write the final state into this directory (optional)")
		workers    = flag.Int("workers", -1, "override the configured worker count (-1 keeps it)")
		every      = flag.Int("report-every", 0, "print statistics every N steps; 0 prints only the summary")
	)
	flag.Parse()

	sim, err := buildSimulator(*configFile, *stateIn, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *stateIn == "" && *populate {
		if _, err := sim.Populate(); err != nil {
			fmt.Fprintf(os.Stderr, "error populating: %v\n", err)
			os.Exit(1)
		}
	}
	if *seedFile != "" {
		if err := loadSeedAtoms(sim, *seedFile); err != nil {
			fmt.Fprintf(os.Stderr, "error loading seed atoms: %v\n", err)
			os.Exit(1)
		}
	}

	for i := 1; i <= *steps; i++ {
		sim.Tick()
		if *every > 0 && i%*every == 0 {
			st := sim.Statistics()
			fmt.Printf("step=%d atoms=%d charge=%d mass=%.6g\n", sim.Steps(), st.TotalAtoms, st.TotalCharge, st.TotalMass)
		}
	}

	printSummary(*steps, sim)

	if *stateOut != "" {
		path, err := sim.SaveState(*stateOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error saving state: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("State written to %s\n", path)
	}
}

func buildSimulator(configFile, stateFile string, workers int) (*atomsim.Simulator, error) {
	if stateFile != "" {
		st, err := atomsim.LoadStateFile(stateFile)
		if err != nil {
			return nil, err
		}
		if workers >= 0 {
			st.Config.Workers = workers
		}
		return atomsim.RestoreSimulator(st)
	}

	cfg := atomsim.DefaultConfig()
	if configFile != "" {
		loaded, err := atomsim.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if workers >= 0 {
		cfg.Workers = workers
	}
	return atomsim.NewSimulator(cfg)
}

func loadSeedAtoms(sim *atomsim.Simulator, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	var seeds []seedAtom
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parsing seed JSON: %w", err)
	}

	positions := make([]r2.Vec, len(seeds))
	kinds := make([]atomsim.ElementKind, len(seeds))
	for i, s := range seeds {
		kind, err := atomsim.ParseElementKind(s.Element)
		if err != nil {
			return fmt.Errorf("seed %d: %w", i, err)
		}
		positions[i] = r2.Vec{X: s.X, Y: s.Y}
		kinds[i] = kind
	}
	_, err = sim.AddParticles(positions, kinds)
	return err
}

func printSummary(steps int, sim *atomsim.Simulator) {
	st := sim.Statistics()

	fmt.Printf("Simulation finished (id=%s, steps=%d, time=%.4gs)\n", sim.ID(), steps, sim.Time())
	fmt.Printf("Atoms: %d  protons=%d neutrons=%d electrons=%d\n", st.TotalAtoms, st.TotalProtons, st.TotalNeutrons, st.TotalElectrons)
	fmt.Printf("Charge: %d  Mass: %.6g kg  Ionized: %d  Degenerate: %d\n", st.TotalCharge, st.TotalMass, st.Ionized, st.Degenerate)

	names := make([]string, 0, len(st.ByElement))
	for name := range st.ByElement {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Element counts:")
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, st.ByElement[name])
	}
}
