// Package params declares the tunable parameters of every generation
// algorithm and validates raw values into complete parameter sets.
package params

import "strings"

// Algorithm identifies a level generation strategy.
type Algorithm string

const (
	RandomRooms      Algorithm = "random_room_placement"
	GraphRooms       Algorithm = "bsp"
	CellularAutomata Algorithm = "cellular_automata"
	Maze             Algorithm = "maze"
	HybridRoomsCaves Algorithm = "hybrid_rooms_caves"
	HybridRoomsMaze  Algorithm = "hybrid_rooms_maze"
)

// AllAlgorithms returns every algorithm in menu order.
func AllAlgorithms() []Algorithm {
	return []Algorithm{RandomRooms, GraphRooms, CellularAutomata, Maze, HybridRoomsCaves, HybridRoomsMaze}
}

var aliases = map[string]Algorithm{
	"random_rooms":       RandomRooms,
	"basic":              RandomRooms,
	"graph_rooms":        GraphRooms,
	"binary_space":       GraphRooms,
	"cellular":           CellularAutomata,
	"cave":               CellularAutomata,
	"drunkards_walk":     Maze,
	"labyrinth":          Maze,
	"cellular_rooms":     HybridRoomsCaves,
	"rooms_and_caves":    HybridRoomsCaves,
	"rooms_and_mazes":    HybridRoomsMaze,
	"hybrid_rooms_mazes": HybridRoomsMaze,
}

// ParseAlgorithm resolves a canonical name or a known alias.
func ParseAlgorithm(name string) (Algorithm, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	for _, a := range AllAlgorithms() {
		if string(a) == n {
			return a, true
		}
	}
	a, ok := aliases[n]
	return a, ok
}

// Kind is the value type of a parameter.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindEnum
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Spec declares one parameter: its type, inclusive range or choices,
// and the default used when the value is missing.
type Spec struct {
	Name        string
	Kind        Kind
	Min, Max    float64
	Choices     []string
	Default     any
	Description string
}

func intSpec(name string, lo, hi, def int, desc string) Spec {
	return Spec{Name: name, Kind: KindInt, Min: float64(lo), Max: float64(hi), Default: def, Description: desc}
}

func floatSpec(name string, lo, hi, def float64, desc string) Spec {
	return Spec{Name: name, Kind: KindFloat, Min: lo, Max: hi, Default: def, Description: desc}
}

func enumSpec(name string, choices []string, def, desc string) Spec {
	return Spec{Name: name, Kind: KindEnum, Choices: choices, Default: def, Description: desc}
}

var (
	mapWidth  = intSpec("map_width", 40, 80, 60, "level width in tiles")
	mapHeight = intSpec("map_height", 30, 50, 40, "level height in tiles")

	corridorWidth = intSpec("corridor_width", 1, 3, 1, "corridor thickness")
	corridorStyle = enumSpec("corridor_style", []string{"l_shaped", "z_shaped", "straight"}, "l_shaped", "shape of room-to-room corridors")
	attempts      = intSpec("placement_attempts", 50, 1000, 300, "room placement tries before giving up")
	looping       = floatSpec("looping", 0, 1, 0.3, "fraction of dead ends opened into loops")
)

func roomSpecs(maxRooms, minRooms, sizeMin, sizeMax int) []Spec {
	return []Spec{
		intSpec("max_rooms", 8, 25, maxRooms, "upper bound on placed rooms"),
		intSpec("min_rooms", 2, 10, minRooms, "rooms required for a successful layout"),
		intSpec("room_size_min", 4, 10, sizeMin, "smallest room side"),
		intSpec("room_size_max", 6, 15, sizeMax, "largest room side"),
		attempts,
	}
}

func caveSpecs(wallProb float64) []Spec {
	return []Spec{
		floatSpec("initial_wall_probability", 0.40, 0.60, wallProb, "chance a tile starts as wall"),
		intSpec("iterations", 3, 6, 4, "automaton smoothing passes"),
	}
}

var schema = map[Algorithm][]Spec{
	RandomRooms: concat(
		[]Spec{mapWidth, mapHeight},
		roomSpecs(15, 4, 5, 10),
		[]Spec{
			corridorWidth,
			corridorStyle,
			intSpec("extra_connections", 0, 5, 2, "loop corridors added after the spanning pass"),
		},
	),
	GraphRooms: {
		mapWidth,
		mapHeight,
		intSpec("min_rooms", 2, 10, 4, "rooms required for a successful layout"),
		intSpec("split_depth", 2, 6, 4, "partition tree depth"),
		intSpec("min_partition", 6, 14, 8, "smallest partition side"),
		corridorWidth,
		corridorStyle,
	},
	CellularAutomata: concat(
		[]Spec{mapWidth, mapHeight},
		caveSpecs(0.48),
		[]Spec{
			intSpec("birth_limit", 3, 5, 4, "wall turns floor with at most this many wall neighbours"),
			intSpec("death_limit", 2, 4, 3, "floor turns wall with at most this many floor neighbours"),
			floatSpec("min_floor_fraction", 0.05, 0.40, 0.15, "smallest acceptable cave size"),
		},
	),
	Maze: {
		mapWidth,
		mapHeight,
		looping,
	},
	HybridRoomsCaves: concat(
		[]Spec{mapWidth, mapHeight},
		roomSpecs(10, 3, 5, 9),
		caveSpecs(0.50),
	),
	HybridRoomsMaze: concat(
		[]Spec{mapWidth, mapHeight},
		roomSpecs(12, 3, 5, 9),
		[]Spec{
			floatSpec("looping", 0, 1, 0.1, "chance of an extra door between connected regions"),
			floatSpec("dead_end_pruning", 0, 1, 0.8, "fraction of dead-end corridor tiles filled back"),
		},
	),
}

func concat(groups ...[]Spec) []Spec {
	var out []Spec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Specs returns the parameter declarations of an algorithm.
func Specs(alg Algorithm) ([]Spec, bool) {
	s, ok := schema[alg]
	if !ok {
		return nil, false
	}
	return append([]Spec(nil), s...), true
}

// Lookup returns the declaration of one parameter.
func Lookup(alg Algorithm, name string) (Spec, bool) {
	for _, s := range schema[alg] {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
