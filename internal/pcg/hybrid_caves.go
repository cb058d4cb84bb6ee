package pcg

import (
	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// RoomsAndCavesGenerator places built rooms first and grows caves in the
// rock between them. Rooms are joined by corridors and only the cave
// pockets reachable from the rooms are kept.
type RoomsAndCavesGenerator struct{}

func (RoomsAndCavesGenerator) Algorithm() params.Algorithm { return params.HybridRoomsCaves }

func (gen RoomsAndCavesGenerator) Generate(p params.Set, seed int64) (*grid.Grid, error) {
	alg := gen.Algorithm()
	if err := checkSet(alg, p); err != nil {
		return nil, err
	}
	rng := newRand(seed)
	g := grid.New(p.Int("map_width"), p.Int("map_height"))

	rects := placeRooms(g, rng, layoutFromSet(p))
	if len(rects) < p.Int("min_rooms") {
		return nil, failf(alg, seed, "placed %d rooms, need %d", len(rects), p.Int("min_rooms"))
	}

	outsideRooms := func(x, y int) bool {
		pt := grid.Point{X: x, Y: y}
		for _, r := range rects {
			if r.Contains(pt) {
				return false
			}
		}
		return true
	}

	ca := automaton{
		WallProbability: p.Float("initial_wall_probability"),
		Iterations:      p.Int("iterations"),
		BirthLimit:      4,
		DeathLimit:      3,
	}
	ca.seed(g, rng, outsideRooms)
	ids := carveRooms(g, rects)
	ca.run(g, outsideRooms)

	connectNearest(g, rng, rects, ids, grid.CorridorLShaped, 1)
	g.KeepRegionContaining(rects[0].Center())
	return g, nil
}
