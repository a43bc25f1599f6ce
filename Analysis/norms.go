package Analysis

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed norms.yaml
var defaultNorms []byte

type CatalogEntry struct {
	Abbrev string `yaml:"abbrev" json:"abbrev"`
	Name   string `yaml:"name" json:"name"`
}

type Norm struct {
	Mean float64 `yaml:"mean" json:"mean"`
	SD   float64 `yaml:"sd" json:"sd"`
}

type Thresholds struct {
	Skeletal struct {
		ClassIIIBelow float64 `yaml:"class_iii_below"`
		ClassIIAbove  float64 `yaml:"class_ii_above"`
	} `yaml:"skeletal"`
	Growth struct {
		HorizontalBelow float64 `yaml:"horizontal_below"`
		VerticalAbove   float64 `yaml:"vertical_above"`
	} `yaml:"growth"`
	Airway struct {
		RestrictedBelow float64 `yaml:"restricted_below"`
		EnlargedAbove   float64 `yaml:"enlarged_above"`
	} `yaml:"airway"`
}

// Norms is the landmark catalog plus the reference values used to
// interpret the computed angles.
type Norms struct {
	Landmarks      []CatalogEntry  `yaml:"landmarks"`
	Angles         map[string]Norm `yaml:"angles"`
	Classification Thresholds      `yaml:"classification"`
}

var (
	defaultOnce sync.Once
	defaultSet  *Norms
)

// DefaultNorms returns the embedded norms. It panics if the embedded file is
// malformed, which the tests guard against.
func DefaultNorms() *Norms {
	defaultOnce.Do(func() {
		n, err := ParseNorms(defaultNorms)
		if err != nil {
			panic(err)
		}
		defaultSet = n
	})
	return defaultSet
}

func LoadNorms(path string) (*Norms, error) {
	if path == "" {
		return DefaultNorms(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read norms: %w", err)
	}
	return ParseNorms(data)
}

func ParseNorms(data []byte) (*Norms, error) {
	var n Norms
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse norms: %w", err)
	}
	if len(n.Landmarks) == 0 {
		return nil, fmt.Errorf("parse norms: landmark catalog is empty")
	}
	seen := make(map[string]bool, len(n.Landmarks))
	for _, lm := range n.Landmarks {
		if lm.Abbrev == "" {
			return nil, fmt.Errorf("parse norms: landmark %q has no abbreviation", lm.Name)
		}
		if seen[lm.Abbrev] {
			return nil, fmt.Errorf("parse norms: duplicate landmark %q", lm.Abbrev)
		}
		seen[lm.Abbrev] = true
	}
	return &n, nil
}

func (n *Norms) Abbrevs() []string {
	out := make([]string, len(n.Landmarks))
	for i, lm := range n.Landmarks {
		out[i] = lm.Abbrev
	}
	return out
}

func (n *Norms) lookup(key string) (CatalogEntry, int, bool) {
	for i, lm := range n.Landmarks {
		if lm.Abbrev == key || lm.Name == key {
			return lm, i, true
		}
	}
	return CatalogEntry{}, -1, false
}
