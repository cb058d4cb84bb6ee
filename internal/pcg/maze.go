package pcg

import (
	"math"
	"math/rand"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// Mazes live on the odd lattice: passages sit on odd coordinates and the
// even coordinates between them are the walls that can be knocked out.

func onLattice(g *grid.Grid, p grid.Point) bool {
	return p.X%2 == 1 && p.Y%2 == 1 && p.X <= g.Width-2 && p.Y <= g.Height-2 && p.X >= 1 && p.Y >= 1
}

func shuffledDirections(rng *rand.Rand) []grid.Direction {
	dirs := grid.AllDirections()
	rng.Shuffle(len(dirs), func(i, j int) {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	})
	return dirs
}

// carveMaze runs a randomized depth-first backtracker from start over
// lattice cells that are still wall and accepted by allowed. It returns
// the carved tiles.
func carveMaze(g *grid.Grid, rng *rand.Rand, start grid.Point, allowed func(grid.Point) bool) []grid.Point {
	g.Set(start.X, start.Y, grid.TileFloor)
	carved := []grid.Point{start}
	stack := []grid.Point{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		moved := false
		for _, d := range shuffledDirections(rng) {
			next := cur.Step(d, 2)
			if !onLattice(g, next) || g.WalkableAt(next) || (allowed != nil && !allowed(next)) {
				continue
			}
			mid := cur.Step(d, 1)
			g.Set(mid.X, mid.Y, grid.TileFloor)
			g.Set(next.X, next.Y, grid.TileFloor)
			carved = append(carved, mid, next)
			stack = append(stack, next)
			moved = true
			break
		}
		if !moved {
			stack = stack[:len(stack)-1]
		}
	}
	return carved
}

// openLoops knocks a wall out of a fraction of the dead ends so they join
// a neighbouring passage.
func openLoops(g *grid.Grid, rng *rand.Rand, fraction float64) int {
	var ends []grid.Point
	for _, p := range g.DeadEnds() {
		if onLattice(g, p) {
			ends = append(ends, p)
		}
	}
	rng.Shuffle(len(ends), func(i, j int) {
		ends[i], ends[j] = ends[j], ends[i]
	})

	budget := int(math.Round(fraction * float64(len(ends))))
	opened := 0
	for _, p := range ends {
		if opened >= budget {
			break
		}
		if g.WalkableNeighbors(p) != 1 {
			continue // an earlier opening already joined this one
		}
		for _, d := range shuffledDirections(rng) {
			wall, beyond := p.Step(d, 1), p.Step(d, 2)
			if g.WalkableAt(wall) || !onLattice(g, beyond) || !g.WalkableAt(beyond) {
				continue
			}
			g.Set(wall.X, wall.Y, grid.TileFloor)
			opened++
			break
		}
	}
	return opened
}

// MazeGenerator carves a perfect maze and then opens loops at a share of
// its dead ends.
type MazeGenerator struct{}

func (MazeGenerator) Algorithm() params.Algorithm { return params.Maze }

func (gen MazeGenerator) Generate(p params.Set, seed int64) (*grid.Grid, error) {
	alg := gen.Algorithm()
	if err := checkSet(alg, p); err != nil {
		return nil, err
	}
	rng := newRand(seed)
	g := grid.New(p.Int("map_width"), p.Int("map_height"))

	start := grid.Point{X: (g.Width / 2) | 1, Y: (g.Height / 2) | 1}
	if !onLattice(g, start) {
		start = grid.Point{X: 1, Y: 1}
	}
	carveMaze(g, rng, start, nil)
	openLoops(g, rng, p.Float("looping"))

	if !g.IsConnected() {
		return nil, failf(alg, seed, "maze carving left detached passages")
	}
	return g, nil
}
