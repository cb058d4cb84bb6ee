package geometry

import (
	"sort"

	"github.com/lawnchairsociety/dungen/internal/grid"
)

// addArena carves a w x h arena as far from the start as possible. The
// rectangle must overlap existing floor so the arena joins the level.
func (r *run) addArena(w, h int) {
	in := r.g.Interior()
	w, h = min(w, in.Width()), min(h, in.Height())
	if w <= 0 || h <= 0 {
		return
	}
	dist := r.g.Distances(r.start)
	keepClear := grid.Rect{X1: r.start.X, Y1: r.start.Y, X2: r.start.X, Y2: r.start.Y}.Expand(2)

	var best grid.Rect
	bestScore, found := -1, false
	for _, avoidStart := range []bool{true, false} {
		for y := in.Y1; y+h-1 <= in.Y2; y++ {
			for x := in.X1; x+w-1 <= in.X2; x++ {
				rect := grid.NewRect(x, y, w, h)
				if avoidStart && rect.Intersects(keepClear) {
					continue
				}
				score := -1
				for yy := rect.Y1; yy <= rect.Y2; yy++ {
					for xx := rect.X1; xx <= rect.X2; xx++ {
						if d := r.g.DistanceAt(dist, grid.Point{X: xx, Y: yy}); d > score {
							score = d
						}
					}
				}
				if score > bestScore {
					best, bestScore, found = rect, score, true
				}
			}
		}
		if found {
			break
		}
	}
	if !found {
		return
	}

	r.g.CarveRect(best)
	r.g.RemoveRooms(func(room grid.Room) bool {
		return room.Role == grid.RoleNormal && best.ContainsRect(room.Bounds)
	})
	r.arena = r.g.AddRoom(best, grid.RoleBossArena)
	r.protect(best)
	c := best.Center()
	r.g.Set(c.X, c.Y, grid.TileMarker)
	r.report.Arena = true
}

// growArena expands the arena one side at a time until it covers the
// configured share of the floor or cannot grow without reaching the start.
func (r *run) growArena() {
	room, ok := r.g.Room(r.arena)
	if !ok {
		return
	}
	in := r.g.Interior()
	for float64(room.Bounds.Area()) < r.cfg.MinArenaFraction*float64(r.g.FloorCount()) {
		grown := false
		for _, d := range grid.AllDirections() {
			next := room.Bounds
			switch d {
			case grid.North:
				next.Y1--
			case grid.East:
				next.X2++
			case grid.South:
				next.Y2++
			case grid.West:
				next.X1--
			}
			if !in.ContainsRect(next) || next.Contains(r.start) {
				continue
			}
			r.g.CarveRect(next)
			room.Bounds = next
			r.protect(next)
			grown = true
			break
		}
		if !grown {
			return
		}
	}
}

func (r *run) protect(rect grid.Rect) {
	for y := rect.Y1; y <= rect.Y2; y++ {
		for x := rect.X1; x <= rect.X2; x++ {
			r.protected.Put(grid.Point{X: x, Y: y})
		}
	}
}

// exitPoint is the arena centre when there is one, otherwise the floor tile
// farthest from the start.
func (r *run) exitPoint() grid.Point {
	if room, ok := r.g.Room(r.arena); ok {
		return room.Center()
	}
	p, _ := r.g.Farthest(r.start)
	return p
}

// addCheckpoints spaces n small rooms evenly along the main path.
func (r *run) addCheckpoints(n int) {
	path := r.g.ShortestPath(r.start, r.exitPoint())
	if len(path) < 3 || n <= 0 {
		return
	}
	for i := 1; i <= n; i++ {
		for idx := i * len(path) / (n + 1); idx < len(path)-1; idx++ {
			p := path[idx]
			rect := r.g.ClipToInterior(grid.Rect{X1: p.X - 1, Y1: p.Y - 1, X2: p.X + 1, Y2: p.Y + 1})
			if r.overlapsSpecial(rect) || rect.Contains(r.start) {
				continue
			}
			r.g.CarveRect(rect)
			r.g.AddRoom(rect, grid.RoleCheckpoint)
			r.report.Checkpoints++
			break
		}
	}
}

// addBranches digs n straight side passages into rock. Branches never touch
// the arena and end in a small alcove.
func (r *run) addBranches(n int) {
	for b := 0; b < n; b++ {
		for attempt := 0; attempt < 40; attempt++ {
			if r.tryBranch() {
				r.report.Branches++
				break
			}
		}
	}
}

func (r *run) tryBranch() bool {
	floor := r.g.Walkables()
	origin := floor[r.rng.Intn(len(floor))]
	if r.protected.Has(origin) {
		return false
	}
	dir := grid.AllDirections()[r.rng.Intn(4)]
	length := 5 + r.rng.Intn(8)

	var path []grid.Point
	for step := 1; step <= length; step++ {
		q := origin.Step(dir, step)
		if !r.g.InInterior(q.X, q.Y) || r.nearArena(q) {
			break
		}
		if r.g.WalkableAt(q) {
			if step == 1 {
				return false
			}
			break
		}
		path = append(path, q)
	}
	if len(path) < 4 {
		return false
	}

	for _, q := range path {
		r.g.Carve(q.X, q.Y)
	}
	end := path[len(path)-1]
	alcove := r.g.ClipToInterior(grid.Rect{X1: end.X - 1, Y1: end.Y - 1, X2: end.X + 1, Y2: end.Y + 1})
	if !r.overlapsSpecial(alcove.Expand(1)) {
		r.g.CarveRect(alcove)
	}

	from := -1
	if room, ok := r.g.RoomAt(origin); ok {
		from = room.ID
	}
	r.g.AddCorridor(grid.Corridor{From: from, To: -1, Path: append([]grid.Point{origin}, path...), Branch: true})
	return true
}

// nearArena reports whether p is in or next to the arena.
func (r *run) nearArena(p grid.Point) bool {
	if r.protected.Has(p) {
		return true
	}
	for _, d := range grid.AllDirections() {
		if r.protected.Has(p.Step(d, 1)) {
			return true
		}
	}
	return false
}

// addTreasureRooms digs rooms past the dead ends farthest from the start.
// Without usable dead ends it retags the farthest normal rooms, and as a
// last resort carves a room at the farthest free floor tile.
func (r *run) addTreasureRooms(n int) {
	dist := r.g.Distances(r.start)
	ends := r.g.DeadEnds()
	sort.SliceStable(ends, func(a, b int) bool {
		return r.g.DistanceAt(dist, ends[a]) > r.g.DistanceAt(dist, ends[b])
	})

	placed := 0
	for _, e := range ends {
		if placed >= n {
			break
		}
		if r.digTreasureAt(e) {
			placed++
		}
	}

	if placed < n {
		rooms := r.normalRoomsByDistance(dist)
		for _, room := range rooms {
			if placed >= n {
				break
			}
			target, _ := r.g.Room(room.ID)
			target.Role = grid.RoleTreasure
			c := target.Center()
			r.g.Set(c.X, c.Y, grid.TileMarker)
			placed++
		}
	}

	for placed < n {
		p, ok := r.farthestFree(dist)
		if !ok {
			break
		}
		r.anchor(p, grid.RoleTreasure)
		r.g.Set(p.X, p.Y, grid.TileMarker)
		placed++
	}
	r.report.TreasureRooms += placed
}

func (r *run) digTreasureAt(e grid.Point) bool {
	if _, inRoom := r.g.RoomAt(e); inRoom || r.protected.Has(e) {
		return false
	}
	away := grid.Direction(-1)
	for _, d := range grid.AllDirections() {
		if r.g.WalkableAt(e.Step(d, 1)) {
			away = d.Opposite()
		}
	}
	if away < 0 {
		return false
	}
	c := e.Step(away, 2)
	rect := grid.Rect{X1: c.X - 1, Y1: c.Y - 1, X2: c.X + 1, Y2: c.Y + 1}
	if !r.g.Interior().ContainsRect(rect) || r.overlapsSpecial(rect.Expand(1)) {
		return false
	}
	r.g.CarveRect(rect)
	r.g.AddRoom(rect, grid.RoleTreasure)
	r.g.Set(c.X, c.Y, grid.TileMarker)
	return true
}

// normalRoomsByDistance returns normal rooms ordered farthest first,
// excluding the room the level starts in.
func (r *run) normalRoomsByDistance(dist []int) []grid.Room {
	var rooms []grid.Room
	for _, room := range r.g.Rooms {
		if room.Role == grid.RoleNormal && !room.Contains(r.start) && r.g.DistanceAt(dist, room.Center()) >= 0 {
			rooms = append(rooms, room)
		}
	}
	sort.SliceStable(rooms, func(a, b int) bool {
		return r.g.DistanceAt(dist, rooms[a].Center()) > r.g.DistanceAt(dist, rooms[b].Center())
	})
	return rooms
}

// farthestFree finds the reachable tile farthest from the start that is not
// inside any room.
func (r *run) farthestFree(dist []int) (grid.Point, bool) {
	var best grid.Point
	bestDist := 0
	for i, d := range dist {
		p := grid.Point{X: i % r.g.Width, Y: i / r.g.Width}
		if d <= bestDist || r.protected.Has(p) {
			continue
		}
		if _, inRoom := r.g.RoomAt(p); inRoom {
			continue
		}
		best, bestDist = p, d
	}
	return best, bestDist > 0
}
