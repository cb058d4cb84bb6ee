package geometry

import (
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/mission"
)

// checkpointWindow is how far from half the longest path a checkpoint
// objective may land.
const checkpointWindow = 5

// placeObjectives pins every requested objective copy to a free tile:
// plain reachable floor that is not the start and not already taken. A
// copy whose rule finds no free tile is skipped and only shows up in the
// report as the gap between requested and placed.
func (r *run) placeObjectives(objs []mission.Objective) {
	if len(objs) == 0 {
		return
	}
	o := &objectivePlacer{
		run:  r,
		dist: r.g.Distances(r.start),
		used: mapset.New[grid.Point](),
	}
	o.used.Put(r.start)
	for _, d := range o.dist {
		o.maxDist = max(o.maxDist, d)
	}

	for _, obj := range objs {
		r.report.ObjectivesRequested += obj.Count
		for i := 0; i < obj.Count; i++ {
			p, ok := o.pick(obj.Placement)
			if !ok {
				logger.Debug("No tile for objective", "objective", obj.Kind, "placement", obj.Placement)
				continue
			}
			o.used.Put(p)
			room := -1
			if rm, inRoom := r.g.RoomAt(p); inRoom {
				room = rm.ID
			}
			r.g.AddObjective(grid.Objective{
				Kind:        string(obj.Kind),
				Rule:        string(obj.Placement),
				At:          p,
				Room:        room,
				Description: obj.Description,
			})
			r.report.Objectives++
		}
	}
}

type objectivePlacer struct {
	*run
	dist    []int
	maxDist int
	used    mapset.Set[grid.Point]
}

func (o *objectivePlacer) free(p grid.Point) bool {
	return o.g.At(p.X, p.Y) == grid.TileFloor && o.g.DistanceAt(o.dist, p) >= 0 && !o.used.Has(p)
}

// freeTiles returns the free tiles accepted by keep in row-major order.
func (o *objectivePlacer) freeTiles(keep func(grid.Point) bool) []grid.Point {
	var out []grid.Point
	for i := range o.dist {
		p := grid.Point{X: i % o.g.Width, Y: i / o.g.Width}
		if o.free(p) && (keep == nil || keep(p)) {
			out = append(out, p)
		}
	}
	return out
}

// roomTiles returns the free tiles of room accepted by keep.
func (o *objectivePlacer) roomTiles(room grid.Room, keep func(grid.Point) bool) []grid.Point {
	var out []grid.Point
	b := room.Bounds
	for y := b.Y1; y <= b.Y2; y++ {
		for x := b.X1; x <= b.X2; x++ {
			p := grid.Point{X: x, Y: y}
			if room.Contains(p) && o.free(p) && (keep == nil || keep(p)) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (o *objectivePlacer) choose(pts []grid.Point) (grid.Point, bool) {
	if len(pts) == 0 {
		return grid.Point{}, false
	}
	return pts[o.rng.Intn(len(pts))], true
}

// pick finds a tile for one objective copy. Room rules fall back to any
// free tile on levels whose rooms are full or missing.
func (o *objectivePlacer) pick(rule mission.PlacementRule) (grid.Point, bool) {
	switch rule {
	case mission.PlaceEndOfLongestPath:
		return o.farthest()
	case mission.PlaceDeadEnd:
		return o.choose(o.freeTiles(func(p grid.Point) bool {
			return o.g.WalkableNeighbors(p) == 1
		}))
	case mission.PlaceCentralRoom:
		rooms := append([]grid.Room(nil), o.g.Rooms...)
		sort.SliceStable(rooms, func(a, b int) bool { return rooms[a].Area() > rooms[b].Area() })
		for _, room := range rooms {
			if p, ok := o.choose(o.roomTiles(room, nil)); ok {
				return p, true
			}
		}
		return o.choose(o.freeTiles(nil))
	case mission.PlaceHidden:
		tucked := func(p grid.Point) bool { return 4-o.g.WalkableNeighbors(p) >= 2 }
		var pts []grid.Point
		for _, room := range o.g.Rooms {
			pts = append(pts, o.roomTiles(room, tucked)...)
		}
		if len(pts) == 0 {
			pts = o.freeTiles(tucked)
		}
		return o.choose(pts)
	case mission.PlaceCheckpoint:
		mid := o.maxDist / 2
		return o.choose(o.freeTiles(func(p grid.Point) bool {
			d := o.g.DistanceAt(o.dist, p) - mid
			return d > -checkpointWindow && d < checkpointWindow
		}))
	default:
		var open []grid.Room
		for _, room := range o.g.Rooms {
			if len(o.roomTiles(room, nil)) > 0 {
				open = append(open, room)
			}
		}
		if len(open) == 0 {
			return o.choose(o.freeTiles(nil))
		}
		return o.choose(o.roomTiles(open[o.rng.Intn(len(open))], nil))
	}
}

// farthest returns the free tile with the longest path from the start.
// Ties go to the first tile in row-major order.
func (o *objectivePlacer) farthest() (grid.Point, bool) {
	var best grid.Point
	bestDist := -1
	for i, d := range o.dist {
		p := grid.Point{X: i % o.g.Width, Y: i / o.g.Width}
		if d > bestDist && o.free(p) {
			best, bestDist = p, d
		}
	}
	return best, bestDist >= 0
}
