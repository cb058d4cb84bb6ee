// Package presets holds the quick-select level menu. A preset is a fixed
// algorithm, parameter set and mission that needs no language model.
package presets

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
)

//go:embed presets.yaml
var embedded []byte

// Preset is one validated menu entry.
type Preset struct {
	ID        int
	Name      string
	Prompt    string
	Algorithm params.Algorithm
	Params    params.Set
	Mission   mission.Spec
}

// PresetDefinition is a preset as written in YAML.
type PresetDefinition struct {
	ID        int               `yaml:"id"`
	Name      string            `yaml:"name"`
	Prompt    string            `yaml:"prompt"`
	Algorithm string            `yaml:"algorithm"`
	Params    map[string]any    `yaml:"params"`
	Mission   MissionDefinition `yaml:"mission"`
}

// MissionDefinition is the mission part of a preset. Directives and
// objectives are designed from the type and intensity when omitted.
type MissionDefinition struct {
	Type        string              `yaml:"type"`
	Intensity   float64             `yaml:"intensity"`
	Description string              `yaml:"description,omitempty"`
	Directives  []mission.Directive `yaml:"directives,omitempty"`
	Objectives  []mission.Objective `yaml:"objectives,omitempty"`
}

// PresetsConfig is the structure of a presets YAML file.
type PresetsConfig struct {
	Presets  []PresetDefinition `yaml:"presets"`
	Fallback PresetDefinition   `yaml:"fallback"`
}

// Catalog is a validated set of presets plus the fallback.
type Catalog struct {
	presets  []Preset
	fallback Preset
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("built-in presets are invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadPresetsFromYAML loads and validates a presets file.
func LoadPresetsFromYAML(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return Parse(data)
}

// Parse validates presets YAML into a catalog.
func Parse(data []byte) (*Catalog, error) {
	var config PresetsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse presets YAML: %w", err)
	}
	if len(config.Presets) == 0 {
		return nil, fmt.Errorf("presets file defines no presets")
	}

	c := &Catalog{}
	seen := map[int]bool{}
	for _, def := range config.Presets {
		if def.ID <= 0 || seen[def.ID] {
			return nil, fmt.Errorf("preset %q: id %d is invalid or duplicated", def.Name, def.ID)
		}
		seen[def.ID] = true
		p, err := build(def)
		if err != nil {
			return nil, err
		}
		c.presets = append(c.presets, p)
	}

	fallback, err := build(config.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	c.fallback = fallback
	return c, nil
}

func build(def PresetDefinition) (Preset, error) {
	alg, ok := params.ParseAlgorithm(def.Algorithm)
	if !ok {
		return Preset{}, fmt.Errorf("preset %q: unknown algorithm %q", def.Name, def.Algorithm)
	}
	set, err := params.Validate(alg, def.Params)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", def.Name, err)
	}
	if clamped := set.Clamped(); len(clamped) > 0 {
		return Preset{}, fmt.Errorf("preset %q: out of range parameters %v", def.Name, clamped)
	}
	t, ok := mission.ParseType(def.Mission.Type)
	if !ok {
		return Preset{}, fmt.Errorf("preset %q: unknown mission type %q", def.Name, def.Mission.Type)
	}

	for _, o := range def.Mission.Objectives {
		if _, ok := mission.ParseObjectiveKind(string(o.Kind)); !ok {
			return Preset{}, fmt.Errorf("preset %q: unknown objective %q", def.Name, o.Kind)
		}
		if _, ok := mission.ParsePlacementRule(string(o.Placement)); !ok && o.Placement != "" {
			return Preset{}, fmt.Errorf("preset %q: unknown placement %q", def.Name, o.Placement)
		}
	}

	w, h := set.Int("map_width"), set.Int("map_height")
	spec := mission.Design(t, def.Mission.Intensity, w, h)
	if len(def.Mission.Directives) > 0 || len(def.Mission.Objectives) > 0 {
		if len(def.Mission.Directives) > 0 {
			spec.Directives = def.Mission.Directives
		}
		if len(def.Mission.Objectives) > 0 {
			spec.Objectives = def.Mission.Objectives
		}
		spec = mission.Sanitize(spec, w, h)
	}
	spec.Description = def.Mission.Description
	if spec.Description == "" {
		spec.Description = def.Prompt
	}

	return Preset{
		ID:        def.ID,
		Name:      def.Name,
		Prompt:    def.Prompt,
		Algorithm: alg,
		Params:    set,
		Mission:   spec,
	}, nil
}

// All returns the presets in menu order.
func (c *Catalog) All() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// ByID returns the preset with the given menu number.
func (c *Catalog) ByID(id int) (Preset, bool) {
	for _, p := range c.presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Select resolves a menu choice such as "3". Anything that is not a menu
// number reports false.
func (c *Catalog) Select(choice string) (Preset, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil {
		return Preset{}, false
	}
	return c.ByID(id)
}

// First returns the first menu entry, used for empty input.
func (c *Catalog) First() Preset {
	return c.presets[0]
}

// Exploration returns the fallback preset used when a description cannot
// be interpreted.
func (c *Catalog) Exploration() Preset {
	return c.fallback
}

// Menu renders the quick-select menu.
func (c *Catalog) Menu() string {
	var b strings.Builder
	for _, p := range c.presets {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", p.ID, p.Name, p.Algorithm)
	}
	return b.String()
}
