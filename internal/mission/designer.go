package mission

import (
	"math"
	"sort"
)

// Directive magnitude limits.
const (
	MaxBranches      = 8
	MaxCheckpoints   = 5
	MaxTreasureRooms = 3
	MinArenaWidth    = 7
	MinArenaHeight   = 5
)

// ArenaLimits returns the largest arena allowed on a width x height map.
func ArenaLimits(width, height int) (int, int) {
	return max(MinArenaWidth, width/3), max(MinArenaHeight, height/3)
}

// Design builds the directives for a mission type. Intensity is clamped
// to [0, 1]; an unknown type designs an exploration mission.
func Design(t Type, intensity float64, width, height int) Spec {
	i := clamp01(intensity)
	spec := Spec{Type: t, Intensity: i, Objectives: DefaultObjectives(t, i)}

	switch t {
	case BossFight:
		w, h := arenaSize(i, width, height)
		spec.Directives = []Directive{{Kind: AddArena, Width: w, Height: h}}
	case TreasureHunt:
		spec.Directives = []Directive{
			{Kind: AddBranches, Count: 2 + roundInt(4*i)},
			{Kind: AddTreasureRoom, Count: 1 + roundInt(2*i)},
		}
	case Escape:
		spec.Directives = []Directive{{Kind: AddCheckpoints, Count: 2 + roundInt(2*i)}}
	default:
		spec.Type = Exploration
		spec.Directives = []Directive{{Kind: AddBranches, Count: 3 + roundInt(5*i)}}
	}
	return Sanitize(spec, width, height)
}

// arenaSize scales the arena with map area and intensity, keeping a
// roughly 4:3 shape.
func arenaSize(intensity float64, width, height int) (int, int) {
	area := float64(width*height) * (0.06 + 0.06*intensity)
	w := roundInt(math.Sqrt(area * 4 / 3))
	h := roundInt(area / float64(max(w, 1)))
	maxW, maxH := ArenaLimits(width, height)
	return clampInt(w, MinArenaWidth, maxW), clampInt(h, MinArenaHeight, maxH)
}

// Sanitize brings any mission spec (for example one proposed by a language
// model) within the designer's limits: counts are merged per kind and
// clamped, zero-count directives are dropped, a boss fight always has
// exactly one arena and other missions have none, and directives are put
// in application order. Objectives go through SanitizeObjectives and an
// empty list takes the defaults of the mission type.
func Sanitize(spec Spec, width, height int) Spec {
	out := Spec{Type: spec.Type, Intensity: clamp01(spec.Intensity), Description: spec.Description}
	if t, ok := ParseType(string(out.Type)); ok {
		out.Type = t
	} else {
		out.Type = Exploration
	}
	out.Objectives = SanitizeObjectives(spec.Objectives)
	if len(out.Objectives) == 0 {
		out.Objectives = DefaultObjectives(out.Type, out.Intensity)
	}

	counts := map[DirectiveKind]int{}
	var arena *Directive
	for _, d := range spec.Directives {
		if _, ok := order[d.Kind]; !ok {
			continue
		}
		if d.Kind == AddArena {
			if arena == nil {
				a := d
				arena = &a
			}
			continue
		}
		counts[d.Kind] += max(d.Count, 0)
	}

	if out.Type == BossFight {
		w, h := arenaSize(out.Intensity, width, height)
		if arena != nil && arena.Width > 0 && arena.Height > 0 {
			w, h = arena.Width, arena.Height
		}
		maxW, maxH := ArenaLimits(width, height)
		out.Directives = append(out.Directives, Directive{
			Kind:   AddArena,
			Width:  clampInt(w, MinArenaWidth, maxW),
			Height: clampInt(h, MinArenaHeight, maxH),
		})
	}

	limits := map[DirectiveKind]int{
		AddCheckpoints:  MaxCheckpoints,
		AddBranches:     MaxBranches,
		AddTreasureRoom: MaxTreasureRooms,
	}
	for kind, n := range counts {
		if n = min(n, limits[kind]); n > 0 {
			out.Directives = append(out.Directives, Directive{Kind: kind, Count: n})
		}
	}
	sort.SliceStable(out.Directives, func(a, b int) bool {
		return order[out.Directives[a].Kind] < order[out.Directives[b].Kind]
	})
	return out
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(math.Max(f, 0), 1)
}

func clampInt(n, lo, hi int) int {
	return min(max(n, lo), hi)
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
