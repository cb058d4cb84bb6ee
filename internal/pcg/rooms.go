package pcg

import (
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// roomLayout controls rejection sampling of rectangular rooms.
type roomLayout struct {
	SizeMin, SizeMax int
	MinRooms         int
	MaxRooms         int
	Attempts         int
	Odd              bool // align rooms to odd coordinates with odd sizes
}

func layoutFromSet(p params.Set) roomLayout {
	return roomLayout{
		SizeMin:  p.Int("room_size_min"),
		SizeMax:  p.Int("room_size_max"),
		MinRooms: p.Int("min_rooms"),
		MaxRooms: p.Int("max_rooms"),
		Attempts: p.Int("placement_attempts"),
	}
}

// side draws a room side. Odd layouts round down to the nearest odd
// size that is still at least SizeMin.
func (cfg roomLayout) side(rng *rand.Rand) int {
	n := between(rng, cfg.SizeMin, cfg.SizeMax)
	if !cfg.Odd || n%2 == 1 {
		return n
	}
	if n-1 >= cfg.SizeMin {
		return n - 1
	}
	return n + 1
}

// placeRooms samples non-overlapping rooms with a one tile gap between them.
// When sampling leaves fewer than MinRooms it falls back to a shuffled
// lattice of the smallest rooms.
func placeRooms(g *grid.Grid, rng *rand.Rand, cfg roomLayout) []grid.Rect {
	var rooms []grid.Rect
	for attempt := 0; attempt < cfg.Attempts && len(rooms) < cfg.MaxRooms; attempt++ {
		w, h := cfg.side(rng), cfg.side(rng)
		maxX, maxY := g.Width-1-w, g.Height-1-h
		if maxX < 1 || maxY < 1 {
			continue
		}

		var x, y int
		if cfg.Odd {
			x = 1 + 2*rng.Intn((maxX+1)/2)
			y = 1 + 2*rng.Intn((maxY+1)/2)
		} else {
			x = between(rng, 1, maxX)
			y = between(rng, 1, maxY)
		}

		candidate := grid.NewRect(x, y, w, h)
		overlaps := false
		for _, r := range rooms {
			if candidate.IntersectsWithMargin(r, 1) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			rooms = append(rooms, candidate)
		}
	}
	if len(rooms) < cfg.MinRooms {
		if lattice := latticeRooms(g, rng, cfg); len(lattice) > len(rooms) {
			return lattice
		}
	}
	return rooms
}

// latticeRooms packs SizeMin rooms edge to edge with one wall between
// them and keeps a random MaxRooms of the slots.
func latticeRooms(g *grid.Grid, rng *rand.Rand, cfg roomLayout) []grid.Rect {
	size := cfg.SizeMin
	if cfg.Odd {
		size |= 1
	}
	var rooms []grid.Rect
	for y := 1; y+size <= g.Height-1; y += size + 1 {
		for x := 1; x+size <= g.Width-1; x += size + 1 {
			rooms = append(rooms, grid.NewRect(x, y, size, size))
		}
	}
	rng.Shuffle(len(rooms), func(i, j int) {
		rooms[i], rooms[j] = rooms[j], rooms[i]
	})
	if len(rooms) > cfg.MaxRooms {
		rooms = rooms[:cfg.MaxRooms]
	}
	return rooms
}

// carveRooms carves each rectangle and registers it as a normal room.
func carveRooms(g *grid.Grid, rects []grid.Rect) []int {
	ids := make([]int, len(rects))
	for i, r := range rects {
		g.CarveRect(r)
		ids[i] = g.AddRoom(r, grid.RoleNormal)
	}
	return ids
}

// connectNearest joins rooms into a spanning tree, always linking the
// closest pair of connected and unconnected rooms next.
func connectNearest(g *grid.Grid, rng *rand.Rand, rects []grid.Rect, ids []int, style grid.CorridorStyle, width int) {
	if len(rects) < 2 {
		return
	}
	connected := mapset.New[int]()
	connected.Put(0)
	for connected.Size() < len(rects) {
		bestFrom, bestTo, bestDist := -1, -1, 0
		for i := range rects {
			if !connected.Has(i) {
				continue
			}
			for j := range rects {
				if connected.Has(j) {
					continue
				}
				d := rects[i].Center().Manhattan(rects[j].Center())
				if bestFrom < 0 || d < bestDist {
					bestFrom, bestTo, bestDist = i, j, d
				}
			}
		}
		connect(g, rng, rects, ids, bestFrom, bestTo, style, width)
		connected.Put(bestTo)
	}
}

func connect(g *grid.Grid, rng *rand.Rand, rects []grid.Rect, ids []int, a, b int, style grid.CorridorStyle, width int) {
	path := g.CarveCorridor(rects[a].Center(), rects[b].Center(), style, width, rng)
	g.AddCorridor(grid.Corridor{From: ids[a], To: ids[b], Path: path})
}

// RandomRoomsGenerator scatters rectangular rooms and joins each one to its
// nearest connected neighbour.
type RandomRoomsGenerator struct{}

func (RandomRoomsGenerator) Algorithm() params.Algorithm { return params.RandomRooms }

func (gen RandomRoomsGenerator) Generate(p params.Set, seed int64) (*grid.Grid, error) {
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
	ids := carveRooms(g, rects)

	style := grid.ParseCorridorStyle(p.String("corridor_style"))
	width := p.Int("corridor_width")
	connectNearest(g, rng, rects, ids, style, width)

	extra := min(p.Int("extra_connections"), len(rects)/2)
	for i := 0; i < extra; i++ {
		a, b := rng.Intn(len(rects)), rng.Intn(len(rects))
		if a != b {
			connect(g, rng, rects, ids, a, b, style, width)
		}
	}

	g.KeepLargestRegion()
	return g, nil
}
