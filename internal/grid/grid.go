// Package grid holds the tile model shared by the generators and the
// post-processor: tiles, rooms with roles, corridors and connectivity queries.
package grid

import "slices"

// Grid is one dungeon level. Tiles are stored row-major.
type Grid struct {
	Width, Height int
	Tiles         []TileKind
	Rooms         []Room
	Corridors     []Corridor
	Objectives    []Objective

	nextRoomID int
}

// New creates a grid filled with walls.
func New(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Tiles:  make([]TileKind, width*height),
	}
}

// InBounds reports whether (x, y) is within the grid boundaries.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// InInterior reports whether (x, y) is inside the outer wall ring.
func (g *Grid) InInterior(x, y int) bool {
	return x >= 1 && x < g.Width-1 && y >= 1 && y < g.Height-1
}

// Interior returns the rectangle inside the outer wall ring.
func (g *Grid) Interior() Rect {
	return Rect{X1: 1, Y1: 1, X2: g.Width - 2, Y2: g.Height - 2}
}

// At returns the tile at (x, y). Out of bounds reads as wall.
func (g *Grid) At(x, y int) TileKind {
	if !g.InBounds(x, y) {
		return TileWall
	}
	return g.Tiles[y*g.Width+x]
}

// Set replaces the tile at (x, y). Out of bounds writes are ignored.
func (g *Grid) Set(x, y int, t TileKind) {
	if g.InBounds(x, y) {
		g.Tiles[y*g.Width+x] = t
	}
}

// Walkable returns true when (x, y) is in bounds and not a wall.
func (g *Grid) Walkable(x, y int) bool {
	return g.At(x, y).Walkable()
}

// WalkableAt is Walkable for a Point.
func (g *Grid) WalkableAt(p Point) bool {
	return g.Walkable(p.X, p.Y)
}

// Carve turns an interior wall into floor. Doors and markers are left alone.
func (g *Grid) Carve(x, y int) bool {
	if !g.InInterior(x, y) || g.At(x, y) != TileWall {
		return false
	}
	g.Set(x, y, TileFloor)
	return true
}

// CarveRect carves every interior tile of r.
func (g *Grid) CarveRect(r Rect) {
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			g.Carve(x, y)
		}
	}
}

// FillRect sets every in-bounds tile of r to t.
func (g *Grid) FillRect(r Rect, t TileKind) {
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			g.Set(x, y, t)
		}
	}
}

// ClipToInterior shrinks r so it lies inside the outer wall ring.
func (g *Grid) ClipToInterior(r Rect) Rect {
	in := g.Interior()
	return Rect{
		X1: max(r.X1, in.X1),
		Y1: max(r.Y1, in.Y1),
		X2: min(r.X2, in.X2),
		Y2: min(r.Y2, in.Y2),
	}
}

// FloorCount returns the number of walkable tiles.
func (g *Grid) FloorCount() int {
	n := 0
	for _, t := range g.Tiles {
		if t.Walkable() {
			n++
		}
	}
	return n
}

// FloorFraction returns walkable tiles as a fraction of all tiles.
func (g *Grid) FloorFraction() float64 {
	if len(g.Tiles) == 0 {
		return 0
	}
	return float64(g.FloorCount()) / float64(len(g.Tiles))
}

// Walkables returns every walkable tile in row-major order.
func (g *Grid) Walkables() []Point {
	var pts []Point
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Walkable(x, y) {
				pts = append(pts, Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// FirstWalkable returns the first walkable tile scanning from the top-left.
func (g *Grid) FirstWalkable() (Point, bool) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Walkable(x, y) {
				return Point{X: x, Y: y}, true
			}
		}
	}
	return Point{}, false
}

// WalkableNeighbors counts the walkable 4-neighbours of p.
func (g *Grid) WalkableNeighbors(p Point) int {
	n := 0
	for _, d := range AllDirections() {
		if g.WalkableAt(p.Step(d, 1)) {
			n++
		}
	}
	return n
}

// AddRoom registers a room and returns its ID.
func (g *Grid) AddRoom(bounds Rect, role RoomRole) int {
	id := g.nextRoomID
	g.nextRoomID++
	g.Rooms = append(g.Rooms, Room{ID: id, Bounds: bounds, Role: role})
	return id
}

// AddIrregularRoom registers a room made of an explicit cell list.
func (g *Grid) AddIrregularRoom(cells []Point, role RoomRole) int {
	if len(cells) == 0 {
		return -1
	}
	b := Rect{X1: cells[0].X, Y1: cells[0].Y, X2: cells[0].X, Y2: cells[0].Y}
	for _, c := range cells[1:] {
		b.X1, b.Y1 = min(b.X1, c.X), min(b.Y1, c.Y)
		b.X2, b.Y2 = max(b.X2, c.X), max(b.Y2, c.Y)
	}
	id := g.AddRoom(b, role)
	g.Rooms[len(g.Rooms)-1].Cells = slices.Clone(cells)
	return id
}

// Room returns the room with the given ID.
func (g *Grid) Room(id int) (*Room, bool) {
	for i := range g.Rooms {
		if g.Rooms[i].ID == id {
			return &g.Rooms[i], true
		}
	}
	return nil, false
}

// RoomAt returns the first room containing p.
func (g *Grid) RoomAt(p Point) (*Room, bool) {
	for i := range g.Rooms {
		if g.Rooms[i].Contains(p) {
			return &g.Rooms[i], true
		}
	}
	return nil, false
}

// RoomsWithRole returns the rooms carrying the given role.
func (g *Grid) RoomsWithRole(role RoomRole) []Room {
	var out []Room
	for _, r := range g.Rooms {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

// RemoveRooms drops every room for which drop returns true.
func (g *Grid) RemoveRooms(drop func(Room) bool) {
	g.Rooms = slices.DeleteFunc(g.Rooms, drop)
}

// AddCorridor records a carved path.
func (g *Grid) AddCorridor(c Corridor) {
	g.Corridors = append(g.Corridors, c)
}

// AddObjective pins an objective to o.At and marks the tile.
func (g *Grid) AddObjective(o Objective) {
	g.Set(o.At.X, o.At.Y, TileMarker)
	g.Objectives = append(g.Objectives, o)
}

// ObjectiveAt returns the objective pinned to p.
func (g *Grid) ObjectiveAt(p Point) (Objective, bool) {
	for _, o := range g.Objectives {
		if o.At == p {
			return o, true
		}
	}
	return Objective{}, false
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		Width:      g.Width,
		Height:     g.Height,
		Tiles:      slices.Clone(g.Tiles),
		Rooms:      make([]Room, len(g.Rooms)),
		Corridors:  make([]Corridor, len(g.Corridors)),
		Objectives: slices.Clone(g.Objectives),
		nextRoomID: g.nextRoomID,
	}
	for i, r := range g.Rooms {
		r.Cells = slices.Clone(r.Cells)
		c.Rooms[i] = r
	}
	for i, cor := range g.Corridors {
		cor.Path = slices.Clone(cor.Path)
		c.Corridors[i] = cor
	}
	return c
}

// Equal reports whether two grids have identical tiles, rooms, corridors
// and objectives.
func (g *Grid) Equal(o *Grid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	if !slices.Equal(g.Tiles, o.Tiles) {
		return false
	}
	if !slices.EqualFunc(g.Rooms, o.Rooms, func(a, b Room) bool {
		return a.ID == b.ID && a.Bounds == b.Bounds && a.Role == b.Role && slices.Equal(a.Cells, b.Cells)
	}) {
		return false
	}
	if !slices.Equal(g.Objectives, o.Objectives) {
		return false
	}
	return slices.EqualFunc(g.Corridors, o.Corridors, func(a, b Corridor) bool {
		return a.From == b.From && a.To == b.To && a.Branch == b.Branch && slices.Equal(a.Path, b.Path)
	})
}
