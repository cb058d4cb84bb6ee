// Package mission turns a mission type and intensity into geometry
// directives for the post-processor.
package mission

import (
	"fmt"
	"strings"
)

// Type is the kind of mission a level is built around.
type Type string

const (
	BossFight    Type = "boss_fight"
	TreasureHunt Type = "treasure_hunt"
	Escape       Type = "escape"
	Exploration  Type = "exploration"
)

// AllTypes returns every mission type.
func AllTypes() []Type {
	return []Type{BossFight, TreasureHunt, Escape, Exploration}
}

var typeAliases = map[string]Type{
	"boss":               BossFight,
	"bossfight":          BossFight,
	"linear_progression": BossFight,
	"treasure":           TreasureHunt,
	"key_hunt":           TreasureHunt,
	"loot":               TreasureHunt,
	"survival":           Escape,
	"escape_route":       Escape,
	"explore":            Exploration,
	"multi_objective":    Exploration,
}

// ParseType resolves a mission type name or one of its aliases.
func ParseType(name string) (Type, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	for _, t := range AllTypes() {
		if string(t) == n {
			return t, true
		}
	}
	t, ok := typeAliases[n]
	return t, ok
}

// DirectiveKind names one geometry change.
type DirectiveKind string

const (
	AddArena        DirectiveKind = "add_arena"
	AddCheckpoints  DirectiveKind = "add_checkpoints"
	AddBranches     DirectiveKind = "add_branches"
	AddTreasureRoom DirectiveKind = "add_treasure_room"
)

// order is the fixed order in which directives are applied.
var order = map[DirectiveKind]int{
	AddArena:        0,
	AddCheckpoints:  1,
	AddBranches:     2,
	AddTreasureRoom: 3,
}

// ParseDirectiveKind resolves a directive name.
func ParseDirectiveKind(name string) (DirectiveKind, bool) {
	k := DirectiveKind(strings.ToLower(strings.TrimSpace(name)))
	_, ok := order[k]
	return k, ok
}

// Directive is one geometry change requested by a mission. Count is used
// by checkpoints, branches and treasure rooms; Width and Height by arenas.
type Directive struct {
	Kind   DirectiveKind `yaml:"kind" json:"kind"`
	Count  int           `yaml:"count,omitempty" json:"count,omitempty"`
	Width  int           `yaml:"width,omitempty" json:"width,omitempty"`
	Height int           `yaml:"height,omitempty" json:"height,omitempty"`
}

func (d Directive) String() string {
	if d.Kind == AddArena {
		return fmt.Sprintf("%s %dx%d", d.Kind, d.Width, d.Height)
	}
	return fmt.Sprintf("%s x%d", d.Kind, d.Count)
}

// Spec is a designed mission: its type, intensity, the directives that
// shape the level and the objectives placed on the finished geometry.
type Spec struct {
	Type        Type        `yaml:"type" json:"type"`
	Intensity   float64     `yaml:"intensity" json:"intensity"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Directives  []Directive `yaml:"directives" json:"directives"`
	Objectives  []Objective `yaml:"objectives,omitempty" json:"objectives,omitempty"`
}

// ObjectiveCount returns the number of objective tiles the mission asks for.
func (s Spec) ObjectiveCount() int {
	n := 0
	for _, o := range s.Objectives {
		n += o.Count
	}
	return n
}

// Count returns the summed count of a directive kind. Arenas count once each.
func (s Spec) Count(kind DirectiveKind) int {
	n := 0
	for _, d := range s.Directives {
		if d.Kind != kind {
			continue
		}
		if kind == AddArena {
			n++
		} else {
			n += d.Count
		}
	}
	return n
}

// Arena returns the arena directive, if any.
func (s Spec) Arena() (Directive, bool) {
	for _, d := range s.Directives {
		if d.Kind == AddArena {
			return d, true
		}
	}
	return Directive{}, false
}
