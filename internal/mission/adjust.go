package mission

import (
	"fmt"

	"github.com/lawnchairsociety/dungen/internal/params"
)

// AdjustParams biases layout parameters toward what a mission needs before
// the level is generated: fewer and larger rooms for a boss fight, more rooms
// and loops for exploration, extra rooms for checkpoints and dead ends for
// treasure. Parameters the algorithm does not declare are left alone and the
// result is revalidated, so every value stays in range.
func AdjustParams(set params.Set, spec Spec) (params.Set, error) {
	values := set.Values()
	overrides := map[string]any{}
	add := func(name string, delta float64) {
		switch v := values[name].(type) {
		case int:
			overrides[name] = v + int(delta)
		case float64:
			overrides[name] = v + delta
		}
	}

	switch spec.Type {
	case BossFight:
		add("max_rooms", -4)
		add("room_size_min", 2)
		add("room_size_max", 7)
		add("initial_wall_probability", -0.02)
		add("looping", 0.1)
	case Exploration:
		add("max_rooms", 5)
		add("split_depth", 1)
		add("initial_wall_probability", 0.04)
		add("iterations", 1)
		add("looping", 0.2)
		add("dead_end_pruning", -0.2)
	case Escape:
		add("max_rooms", float64(spec.Count(AddCheckpoints)))
		add("room_size_min", 1)
		add("initial_wall_probability", 0.03)
		add("looping", -0.1)
		add("dead_end_pruning", 0.1)
	case TreasureHunt:
		add("max_rooms", float64(2*spec.Count(AddTreasureRoom)))
		add("room_size_max", 2)
		add("initial_wall_probability", 0.04)
		add("looping", -0.1)
		add("dead_end_pruning", -0.3)
	}

	if len(overrides) == 0 {
		return set, nil
	}
	return params.Adjust(set, overrides)
}

// Feasibility returns warnings for missions the layout may not fully
// support. Warnings never block generation.
func Feasibility(set params.Set, spec Spec) []string {
	var warnings []string
	rooms := set.Int("max_rooms")
	special := spec.Count(AddCheckpoints) + spec.Count(AddTreasureRoom) + spec.Count(AddArena)
	if rooms > 0 && rooms < special {
		warnings = append(warnings, fmt.Sprintf("only %d rooms for %d special rooms, some will be carved into rock", rooms, special))
	}
	if a, ok := spec.Arena(); ok {
		w, h := set.Int("map_width"), set.Int("map_height")
		if a.Width*a.Height*4 > w*h {
			warnings = append(warnings, fmt.Sprintf("arena %dx%d covers more than a quarter of a %dx%d map", a.Width, a.Height, w, h))
		}
	}
	if set.Algorithm() == params.Maze && spec.Count(AddTreasureRoom) > 0 {
		warnings = append(warnings, "maze has no rooms, treasure rooms will be dug at dead ends")
	}
	return warnings
}
