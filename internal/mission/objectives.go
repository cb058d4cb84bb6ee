package mission

import (
	"fmt"
	"strings"
)

// ObjectiveKind is what a player finds at an objective tile.
type ObjectiveKind string

const (
	ObjectiveBoss     ObjectiveKind = "boss"
	ObjectiveTreasure ObjectiveKind = "treasure"
	ObjectiveKey      ObjectiveKind = "key"
	ObjectiveSafeRoom ObjectiveKind = "safe_room"
	ObjectivePuzzle   ObjectiveKind = "puzzle"
	ObjectiveMiniboss ObjectiveKind = "miniboss"
	ObjectiveSecret   ObjectiveKind = "secret"
)

// AllObjectiveKinds returns every objective kind.
func AllObjectiveKinds() []ObjectiveKind {
	return []ObjectiveKind{
		ObjectiveBoss, ObjectiveTreasure, ObjectiveKey, ObjectiveSafeRoom,
		ObjectivePuzzle, ObjectiveMiniboss, ObjectiveSecret,
	}
}

// PlacementRule decides which tile an objective lands on.
type PlacementRule string

const (
	PlaceEndOfLongestPath PlacementRule = "end_of_longest_path" // farthest free tile from the start
	PlaceDeadEnd          PlacementRule = "dead_end"            // a free tile with one walkable neighbour
	PlaceCentralRoom      PlacementRule = "central_room"        // inside the largest room
	PlaceHidden           PlacementRule = "hidden"              // a room tile against two or more walls
	PlaceCheckpoint       PlacementRule = "checkpoint"          // about half way along the level
	PlaceRandomRoom       PlacementRule = "random_room"         // inside any room
)

// AllPlacementRules returns every placement rule.
func AllPlacementRules() []PlacementRule {
	return []PlacementRule{
		PlaceEndOfLongestPath, PlaceDeadEnd, PlaceCentralRoom,
		PlaceHidden, PlaceCheckpoint, PlaceRandomRoom,
	}
}

// Objective limits.
const (
	MaxObjectiveCount = 5
	MaxObjectives     = 6
)

// defaultRule is where an objective goes when no rule was given.
var defaultRule = map[ObjectiveKind]PlacementRule{
	ObjectiveBoss:     PlaceEndOfLongestPath,
	ObjectiveTreasure: PlaceDeadEnd,
	ObjectiveKey:      PlaceHidden,
	ObjectiveSafeRoom: PlaceCheckpoint,
	ObjectivePuzzle:   PlaceCentralRoom,
	ObjectiveMiniboss: PlaceCheckpoint,
	ObjectiveSecret:   PlaceHidden,
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(n)
}

// ParseObjectiveKind resolves an objective kind name.
func ParseObjectiveKind(name string) (ObjectiveKind, bool) {
	k := ObjectiveKind(normalize(name))
	_, ok := defaultRule[k]
	return k, ok
}

// ParsePlacementRule resolves a placement rule name.
func ParsePlacementRule(name string) (PlacementRule, bool) {
	r := PlacementRule(normalize(name))
	for _, known := range AllPlacementRules() {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Objective is a goal the level is built around, placed on Count tiles
// chosen by Placement once the geometry is final.
type Objective struct {
	Kind        ObjectiveKind `yaml:"type" json:"type"`
	Placement   PlacementRule `yaml:"placement" json:"placement"`
	Count       int           `yaml:"count,omitempty" json:"count,omitempty"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
}

func (o Objective) String() string {
	return fmt.Sprintf("%s@%s x%d", o.Kind, o.Placement, o.Count)
}

// DefaultObjectives returns the objectives a mission type starts with.
func DefaultObjectives(t Type, intensity float64) []Objective {
	i := clamp01(intensity)
	switch t {
	case BossFight:
		objs := []Objective{{Kind: ObjectiveBoss, Placement: PlaceEndOfLongestPath, Count: 1, Description: "the boss waits in its lair"}}
		if i >= 0.5 {
			objs = append(objs, Objective{Kind: ObjectiveMiniboss, Placement: PlaceCheckpoint, Count: 1, Description: "a lieutenant guards the way"})
		}
		return objs
	case TreasureHunt:
		return []Objective{
			{Kind: ObjectiveTreasure, Placement: PlaceDeadEnd, Count: 1 + roundInt(2*i), Description: "loot tucked away at the end of a passage"},
			{Kind: ObjectiveKey, Placement: PlaceHidden, Count: 1, Description: "the key to the vault"},
		}
	case Escape:
		return []Objective{{Kind: ObjectiveSafeRoom, Placement: PlaceCheckpoint, Count: 1 + roundInt(i), Description: "a place to catch your breath"}}
	default:
		return []Objective{
			{Kind: ObjectiveSecret, Placement: PlaceHidden, Count: 1 + roundInt(2*i), Description: "something worth finding"},
			{Kind: ObjectiveTreasure, Placement: PlaceRandomRoom, Count: 1, Description: "a forgotten cache"},
		}
	}
}

// SanitizeObjectives drops objectives of unknown kind, fills in missing
// placement rules, clamps counts to [1, MaxObjectiveCount] and keeps at
// most MaxObjectives entries.
func SanitizeObjectives(objs []Objective) []Objective {
	var out []Objective
	for _, o := range objs {
		kind, ok := ParseObjectiveKind(string(o.Kind))
		if !ok {
			continue
		}
		rule, ok := ParsePlacementRule(string(o.Placement))
		if !ok {
			rule = defaultRule[kind]
		}
		out = append(out, Objective{
			Kind:        kind,
			Placement:   rule,
			Count:       clampInt(o.Count, 1, MaxObjectiveCount),
			Description: strings.TrimSpace(o.Description),
		})
		if len(out) == MaxObjectives {
			break
		}
	}
	return out
}

// Directive returns the geometry change that makes room for an objective.
// Objectives that fit any level return false.
func (o Objective) Directive() (Directive, bool) {
	switch {
	case o.Kind == ObjectiveBoss:
		return Directive{Kind: AddArena}, true
	case o.Placement == PlaceDeadEnd:
		return Directive{Kind: AddBranches, Count: o.Count}, true
	case o.Placement == PlaceCheckpoint:
		return Directive{Kind: AddCheckpoints, Count: o.Count}, true
	case o.Kind == ObjectiveTreasure:
		return Directive{Kind: AddTreasureRoom, Count: o.Count}, true
	default:
		return Directive{}, false
	}
}

// DirectivesFor turns objectives into directives.
func DirectivesFor(objs []Objective) []Directive {
	var out []Directive
	for _, o := range objs {
		if d, ok := o.Directive(); ok {
			out = append(out, d)
		}
	}
	return out
}
