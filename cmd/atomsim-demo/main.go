package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daniacca/atomsim/internal/atomsim"
)

// printLogger sends the simulator's warnings and errors to stderr.
type printLogger struct{}

func (printLogger) Debugf(string, ...any) {}
func (printLogger) Infof(format string, v ...any) {
	fmt.Printf(format+"\n", v...)
}
func (printLogger) Warnf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, "warn: "+format+"\n", v...)
}
func (printLogger) Errorf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", v...)
}

func main() {
	steps := flag.Int("steps", 500, "number of steps to run")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	cfg := atomsim.DefaultConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.AtomDensity = 0.6
	cfg.HydrogenProb, cfg.HeliumProb, cfg.CarbonProb, cfg.OxygenProb, cfg.IronProb = 0.5, 0.3, 0.1, 0.1, 0
	cfg.FusionProbability = 0.05
	cfg.Seed = *seed

	sim, err := atomsim.NewSimulator(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	sim.SetLogger(printLogger{})
	sim.AddRules(NewAlphaCaptureRule(), NewRecombinationRule())

	if _, err := sim.Populate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	before := sim.Statistics()
	for i := 0; i < *steps; i++ {
		sim.Tick()
	}
	after := sim.Statistics()

	fmt.Printf("%-10s %8s %8s\n", "element", "before", "after")
	for _, el := range atomsim.Elements() {
		b, a := before.ByElement[el.Name], after.ByElement[el.Name]
		if a == 0 && b == 0 {
			continue
		}
		fmt.Printf("%-10s %8d %8d\n", el.Name, b, a)
	}
	fmt.Printf("charge %d -> %d, ionized %d -> %d\n", before.TotalCharge, after.TotalCharge, before.Ionized, after.Ionized)
}
