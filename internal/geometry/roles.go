package geometry

import (
	"github.com/lawnchairsociety/dungen/internal/grid"
)

// tagStartAndExit marks the room holding the start point as the start and
// the farthest normal room as the exit. Levels without rooms, such as
// caves and mazes, get small rooms carved at both ends.
func (r *run) tagStartAndExit() {
	if room, ok := r.g.RoomAt(r.start); ok && room.Role == grid.RoleNormal {
		room.Role = grid.RoleStart
	} else if !ok {
		r.anchor(r.start, grid.RoleStart)
	}

	dist := r.g.Distances(r.start)
	if rooms := r.normalRoomsByDistance(dist); len(rooms) > 0 {
		exit, _ := r.g.Room(rooms[0].ID)
		exit.Role = grid.RoleExit
		return
	}
	if p, ok := r.farthestFree(dist); ok {
		r.anchor(p, grid.RoleExit)
	}
}

// repair joins every detached region to the region holding the start. The
// smallest detached region goes first and is linked by an L-shaped corridor
// between its closest tile pair.
func (r *run) repair() {
	for guard := 0; guard < 256; guard++ {
		regions := r.g.Regions()
		if len(regions) <= 1 {
			return
		}

		main := 0
		for i, reg := range regions {
			for _, p := range reg {
				if p == r.start {
					main = i
				}
			}
		}

		smallest := -1
		for i, reg := range regions {
			if i != main && (smallest < 0 || len(reg) < len(regions[smallest])) {
				smallest = i
			}
		}

		a, b := closestPair(regions[smallest], regions[main])
		path := r.g.CarveL(a, b, true, 1)
		r.g.AddCorridor(grid.Corridor{From: -1, To: -1, Path: path})
		r.report.Repairs++
	}
}

// closestPair returns the first pair (a in from, b in to) with the smallest
// Manhattan distance.
func closestPair(from, to []grid.Point) (grid.Point, grid.Point) {
	bestA, bestB := from[0], to[0]
	bestDist := bestA.Manhattan(bestB)
	for _, a := range from {
		for _, b := range to {
			if d := a.Manhattan(b); d < bestDist {
				bestA, bestB, bestDist = a, b, d
				if d == 1 {
					return bestA, bestB
				}
			}
		}
	}
	return bestA, bestB
}
