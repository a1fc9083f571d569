package atomsim

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ElementKind tags the element a particle was created as.
// The tag only selects the default composition and display color at
// creation time; later composition changes never retag a particle.
type ElementKind uint8

const (
	Hydrogen ElementKind = iota
	Helium
	Lithium
	Carbon
	Oxygen
	Iron
	Uranium
	Custom
)

// Composition is the nucleon/electron makeup of a particle.
type Composition struct {
	Protons   uint32 `json:"protons" yaml:"protons"`
	Neutrons  uint32 `json:"neutrons" yaml:"neutrons"`
	Electrons uint32 `json:"electrons" yaml:"electrons"`
}

// Element is a row of the element table.
type Element struct {
	Kind        ElementKind
	Name        string
	Symbol      string
	Composition Composition
	Color       colorful.Color
}

var elementTable = [...]Element{
	Hydrogen: {Kind: Hydrogen, Name: "hydrogen", Symbol: "H", Composition: Composition{1, 0, 1}, Color: rgb(255, 255, 255)},
	Helium:   {Kind: Helium, Name: "helium", Symbol: "He", Composition: Composition{2, 2, 2}, Color: rgb(217, 255, 255)},
	Lithium:  {Kind: Lithium, Name: "lithium", Symbol: "Li", Composition: Composition{3, 4, 3}, Color: rgb(220, 20, 60)},
	Carbon:   {Kind: Carbon, Name: "carbon", Symbol: "C", Composition: Composition{6, 6, 6}, Color: rgb(144, 144, 144)},
	Oxygen:   {Kind: Oxygen, Name: "oxygen", Symbol: "O", Composition: Composition{8, 8, 8}, Color: rgb(255, 13, 13)},
	Iron:     {Kind: Iron, Name: "iron", Symbol: "Fe", Composition: Composition{26, 30, 26}, Color: rgb(224, 102, 51)},
	Uranium:  {Kind: Uranium, Name: "uranium", Symbol: "U", Composition: Composition{92, 146, 92}, Color: rgb(0, 143, 66)},
	Custom:   {Kind: Custom, Name: "custom", Symbol: "X", Composition: Composition{}, Color: rgb(128, 128, 128)},
}

// rgb keeps table colors on the 8-bit grid so they survive a hex round trip.
func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Lookup returns the table row for the element. Unknown kinds resolve to Custom.
func (k ElementKind) Lookup() Element {
	if int(k) >= len(elementTable) {
		return elementTable[Custom]
	}
	return elementTable[k]
}

func (k ElementKind) String() string {
	return k.Lookup().Name
}

// MarshalText encodes the element by name so that persisted state stays
// readable and independent of the enum ordering.
func (k ElementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ElementKind) UnmarshalText(text []byte) error {
	kind, err := ParseElementKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseElementKind resolves an element name or symbol, case-insensitively.
func ParseElementKind(s string) (ElementKind, error) {
	for _, el := range elementTable {
		if strings.EqualFold(s, el.Name) || strings.EqualFold(s, el.Symbol) {
			return el.Kind, nil
		}
	}
	return Custom, fmt.Errorf("unknown element %q", s)
}

// Elements returns every table row in declaration order.
func Elements() []Element {
	out := make([]Element, len(elementTable))
	copy(out, elementTable[:])
	return out
}
