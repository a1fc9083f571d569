package atomsim

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("Default config must validate, got %v", err)
	}
}

func TestValidateConfig_CollectsEveryIssue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 0
	cfg.TimeStep = -1
	cfg.DampingFactor = 1.5
	cfg.FusionProbability = 2
	cfg.HydrogenProb = -0.1

	err := ValidateConfig(cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if len(verr.Issues) != 5 {
		t.Errorf("Expected 5 issues, got %d: %v", len(verr.Issues), verr.Issues)
	}
	for _, want := range []string{"width", "time_step", "damping_factor", "fusion_probability", "hydrogen_prob"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %q", want, err.Error())
		}
	}
}

func TestValidateConfig_DomainBounds(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		wantErr       bool
	}{
		{"default", 1024, 1024, false},
		{"at limit", MaxDomainSide, MaxDomainSide, false},
		{"too wide", 1e9, 10, true},
		{"too tall", 10, MaxDomainSide + 1, true},
		{"nan", math.NaN(), 10, true},
		{"infinite", math.Inf(1), 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Width, cfg.Height = tt.width, tt.height
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig(%gx%g) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfig_DensityNeedsElements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HydrogenProb, cfg.HeliumProb, cfg.CarbonProb, cfg.OxygenProb, cfg.IronProb = 0, 0, 0, 0, 0
	if err := ValidateConfig(cfg); err == nil {
		t.Error("Expected an error when density is positive but no element can be drawn")
	}

	cfg.AtomDensity = 0
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("Expected no error without seeding, got %v", err)
	}
}

func TestElementWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HydrogenProb, cfg.HeliumProb, cfg.CarbonProb, cfg.OxygenProb, cfg.IronProb = 2, 0, 0, 1, 1

	weights := cfg.ElementWeights()
	if len(weights) != 3 {
		t.Fatalf("Expected 3 weights, got %v", weights)
	}
	sum := 0.0
	for _, w := range weights {
		sum += w.Weight
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("Expected weights to sum to 1, got %g", sum)
	}
	if weights[0].Kind != Hydrogen || weights[0].Weight != 0.5 {
		t.Errorf("Expected hydrogen at 0.5, got %+v", weights[0])
	}
}

func TestPickElement(t *testing.T) {
	weights := []ElementWeight{{Hydrogen, 0.5}, {Oxygen, 0.25}, {Iron, 0.25}}
	tests := []struct {
		u    float64
		want ElementKind
	}{
		{0, Hydrogen},
		{0.49, Hydrogen},
		{0.5, Oxygen},
		{0.74, Oxygen},
		{0.75, Iron},
		{0.9999, Iron},
	}
	for _, tt := range tests {
		if got := pickElement(weights, tt.u); got != tt.want {
			t.Errorf("pickElement(%g) = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestParseConfig_YAML(t *testing.T) {
	data := []byte(`
width: 256
height: 128
coulomb_strength: 2.5
enable_gravity: false
fusion_probability: 0.5
seed: 11
`)
	cfg, err := ParseConfig(data, false)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.Width != 256 || cfg.Height != 128 {
		t.Errorf("Unexpected size %gx%g", cfg.Width, cfg.Height)
	}
	if cfg.CoulombStrength != 2.5 || cfg.EnableGravity {
		t.Errorf("Unexpected force settings: %+v", cfg)
	}
	if cfg.FusionProbability != 0.5 || cfg.Seed != 11 {
		t.Errorf("Unexpected reaction settings: %+v", cfg)
	}
	// Keys absent from the document keep their defaults.
	if cfg.TimeStep != DefaultConfig().TimeStep {
		t.Errorf("Expected default time step, got %g", cfg.TimeStep)
	}
}

func TestParseConfig_JSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"width": 64, "max_particles": 1000}`), true)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.Width != 64 || cfg.MaxParticles != 1000 {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	if _, err := ParseConfig([]byte(`width: [`), false); err == nil {
		t.Error("Expected a YAML syntax error")
	}
	_, err := ParseConfig([]byte(`{"damping_factor": 3}`), true)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected *ValidationError, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "sim.yaml")
	if err := os.WriteFile(yamlPath, []byte("width: 300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(yamlPath)
	if err != nil {
		t.Fatalf("LoadConfig(yaml) failed: %v", err)
	}
	if cfg.Width != 300 {
		t.Errorf("Expected width 300, got %g", cfg.Width)
	}

	jsonPath := filepath.Join(dir, "sim.JSON")
	if err := os.WriteFile(jsonPath, []byte(`{"height": 77}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(jsonPath)
	if err != nil {
		t.Fatalf("LoadConfig(json) failed: %v", err)
	}
	if cfg.Height != 77 {
		t.Errorf("Expected height 77, got %g", cfg.Height)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestParseElementKind(t *testing.T) {
	for _, s := range []string{"hydrogen", "H", "HYDROGEN", "h"} {
		if k, err := ParseElementKind(s); err != nil || k != Hydrogen {
			t.Errorf("ParseElementKind(%q) = %v, %v", s, k, err)
		}
	}
	if k, err := ParseElementKind("Fe"); err != nil || k != Iron {
		t.Errorf("ParseElementKind(Fe) = %v, %v", k, err)
	}
	if _, err := ParseElementKind("unobtainium"); err == nil {
		t.Error("Expected an error for an unknown element")
	}
	if ElementKind(200).String() != "custom" {
		t.Errorf("Unknown kinds must resolve to custom, got %s", ElementKind(200))
	}
}

func TestNewParticleDerivedFields(t *testing.T) {
	for _, el := range Elements() {
		if el.Kind == Custom {
			continue
		}
		p := NewParticle(el.Kind, r2.Vec{})
		if p.Charge() != 0 {
			t.Errorf("%s: expected a neutral atom, got charge %d", el.Name, p.Charge())
		}
		nucleons := float64(el.Composition.Protons + el.Composition.Neutrons)
		if want := 0.1 * math.Cbrt(nucleons); math.Abs(p.Radius()-want) > 1e-12 {
			t.Errorf("%s: expected radius %g, got %g", el.Name, want, p.Radius())
		}
		if p.Color != el.Color {
			t.Errorf("%s: expected table color", el.Name)
		}
	}
}
