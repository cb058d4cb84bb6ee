package pcg

import (
	"math/rand"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// automaton is the smoothing rule shared by the cave generators.
type automaton struct {
	WallProbability float64
	Iterations      int
	BirthLimit      int // wall with at most this many wall neighbours opens up
	DeathLimit      int // floor with at most this many floor neighbours fills in
}

// seed fills the cells allowed by mask with random noise. A nil mask
// means the whole interior.
func (a automaton) seed(g *grid.Grid, rng *rand.Rand, mask func(x, y int) bool) {
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			if mask != nil && !mask(x, y) {
				continue
			}
			if rng.Float64() < a.WallProbability {
				g.Set(x, y, grid.TileWall)
			} else {
				g.Set(x, y, grid.TileFloor)
			}
		}
	}
}

// run applies the rule Iterations times to the cells allowed by mask.
func (a automaton) run(g *grid.Grid, mask func(x, y int) bool) {
	for i := 0; i < a.Iterations; i++ {
		next := make([]grid.TileKind, len(g.Tiles))
		copy(next, g.Tiles)
		for y := 1; y < g.Height-1; y++ {
			for x := 1; x < g.Width-1; x++ {
				if mask != nil && !mask(x, y) {
					continue
				}
				walls := wallNeighbours(g, x, y)
				idx := y*g.Width + x
				if g.Tiles[idx] == grid.TileWall {
					if walls <= a.BirthLimit {
						next[idx] = grid.TileFloor
					}
				} else if 8-walls <= a.DeathLimit {
					next[idx] = grid.TileWall
				}
			}
		}
		g.Tiles = next
	}
}

// wallNeighbours counts walls in the 8-neighbourhood. Out of bounds
// counts as wall.
func wallNeighbours(g *grid.Grid, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if !g.Walkable(x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}

// CellularGenerator grows natural caves from noise and keeps the largest
// open region.
type CellularGenerator struct{}

func (CellularGenerator) Algorithm() params.Algorithm { return params.CellularAutomata }

func (gen CellularGenerator) Generate(p params.Set, seed int64) (*grid.Grid, error) {
	alg := gen.Algorithm()
	if err := checkSet(alg, p); err != nil {
		return nil, err
	}
	rng := newRand(seed)
	g := grid.New(p.Int("map_width"), p.Int("map_height"))

	ca := automaton{
		WallProbability: p.Float("initial_wall_probability"),
		Iterations:      p.Int("iterations"),
		BirthLimit:      p.Int("birth_limit"),
		DeathLimit:      p.Int("death_limit"),
	}
	ca.seed(g, rng, nil)
	ca.run(g, nil)

	g.KeepLargestRegion()
	if frac := g.FloorFraction(); frac < p.Float("min_floor_fraction") {
		return nil, failf(alg, seed, "cave covers %.2f of the map, need %.2f", frac, p.Float("min_floor_fraction"))
	}
	return g, nil
}
