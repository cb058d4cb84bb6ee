package pcg

import (
	"math"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// unionFind tracks which regions have been joined.
type unionFind []int

func newUnionFind(n int) unionFind {
	u := make(unionFind, n)
	for i := range u {
		u[i] = i
	}
	return u
}

func (u unionFind) find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

func (u unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	u[rb] = ra
	return true
}

// connector is a wall tile separating two different regions.
type connector struct {
	at   grid.Point
	a, b int
}

// RoomsAndMazeGenerator places odd-aligned rooms, fills the remaining rock
// with maze passages, opens one door per region merge and prunes dead ends.
type RoomsAndMazeGenerator struct{}

func (RoomsAndMazeGenerator) Algorithm() params.Algorithm { return params.HybridRoomsMaze }

func (gen RoomsAndMazeGenerator) Generate(p params.Set, seed int64) (*grid.Grid, error) {
	alg := gen.Algorithm()
	if err := checkSet(alg, p); err != nil {
		return nil, err
	}
	rng := newRand(seed)
	g := grid.New(p.Int("map_width"), p.Int("map_height"))

	layout := layoutFromSet(p)
	layout.Odd = true
	rects := placeRooms(g, rng, layout)
	if len(rects) < p.Int("min_rooms") {
		return nil, failf(alg, seed, "placed %d rooms, need %d", len(rects), p.Int("min_rooms"))
	}
	carveRooms(g, rects)

	region := make([]int, len(g.Tiles))
	for i := range region {
		region[i] = -1
	}
	for id, r := range rects {
		for y := r.Y1; y <= r.Y2; y++ {
			for x := r.X1; x <= r.X2; x++ {
				region[y*g.Width+x] = id
			}
		}
	}
	rooms := len(rects)

	// Fill every untouched lattice cell with maze, one region per run.
	regions := rooms
	mazeTiles := 0
	for y := 1; y < g.Height-1; y += 2 {
		for x := 1; x < g.Width-1; x += 2 {
			start := grid.Point{X: x, Y: y}
			if !onLattice(g, start) || g.WalkableAt(start) {
				continue
			}
			for _, t := range carveMaze(g, rng, start, nil) {
				region[t.Y*g.Width+t.X] = regions
			}
			regions++
		}
	}
	for _, id := range region {
		if id >= rooms {
			mazeTiles++
		}
	}

	// Merge regions through random connectors.
	var connectors []connector
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			if g.Walkable(x, y) {
				continue
			}
			for _, pair := range [][2]grid.Direction{{grid.West, grid.East}, {grid.North, grid.South}} {
				pt := grid.Point{X: x, Y: y}
				p1, p2 := pt.Step(pair[0], 1), pt.Step(pair[1], 1)
				if !g.WalkableAt(p1) || !g.WalkableAt(p2) {
					continue
				}
				r1, r2 := region[p1.Y*g.Width+p1.X], region[p2.Y*g.Width+p2.X]
				if r1 >= 0 && r2 >= 0 && r1 != r2 {
					connectors = append(connectors, connector{at: pt, a: r1, b: r2})
					break
				}
			}
		}
	}
	rng.Shuffle(len(connectors), func(i, j int) {
		connectors[i], connectors[j] = connectors[j], connectors[i]
	})

	extraChance := p.Float("looping") / 10
	uf := newUnionFind(regions)
	for _, c := range connectors {
		if !uf.union(c.a, c.b) && rng.Float64() >= extraChance {
			continue
		}
		kind := grid.TileFloor
		if c.a < rooms || c.b < rooms {
			kind = grid.TileDoor
		}
		g.Set(c.at.X, c.at.Y, kind)
		if c.a < rooms && c.b < rooms {
			g.AddCorridor(grid.Corridor{From: g.Rooms[c.a].ID, To: g.Rooms[c.b].ID, Path: []grid.Point{c.at}})
		}
	}

	inRoom := func(pt grid.Point) bool {
		id := region[pt.Y*g.Width+pt.X]
		return id >= 0 && id < rooms
	}
	pruneDeadEnds(g, inRoom, int(math.Round(p.Float("dead_end_pruning")*float64(mazeTiles))))

	if !g.IsConnected() {
		g.KeepRegionContaining(rects[0].Center())
	}
	return g, nil
}

// pruneDeadEnds fills corridor tiles with at most one walkable neighbour,
// following each dead end back until budget tiles are removed.
func pruneDeadEnds(g *grid.Grid, protected func(grid.Point) bool, budget int) int {
	var queue []grid.Point
	for _, pt := range g.DeadEnds() {
		if !protected(pt) {
			queue = append(queue, pt)
		}
	}
	removed := 0
	for len(queue) > 0 && removed < budget {
		pt := queue[0]
		queue = queue[1:]
		if !g.WalkableAt(pt) || protected(pt) || g.WalkableNeighbors(pt) > 1 {
			continue
		}
		g.Set(pt.X, pt.Y, grid.TileWall)
		removed++
		for _, d := range grid.AllDirections() {
			n := pt.Step(d, 1)
			if g.WalkableAt(n) && !protected(n) {
				queue = append(queue, n)
			}
		}
	}
	return removed
}
