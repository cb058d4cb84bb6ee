package grid

// TileKind is the content of a single grid cell.
type TileKind uint8

const (
	TileWall   TileKind = iota // Solid rock
	TileFloor                  // Open floor
	TileDoor                   // Doorway between a room and a corridor
	TileMarker                 // Special marker (objective, stairs) placed by post-processing
)

// String returns the string representation of a TileKind
func (t TileKind) String() string {
	switch t {
	case TileWall:
		return "wall"
	case TileFloor:
		return "floor"
	case TileDoor:
		return "door"
	case TileMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Walkable reports whether a tile of this kind can be stood on.
func (t TileKind) Walkable() bool {
	return t != TileWall
}

// Direction represents a cardinal direction in the grid
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Delta returns the x/y step for one move in this direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// AllDirections returns all four cardinal directions in a fixed order.
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// Point is a tile coordinate.
type Point struct {
	X, Y int
}

// Step returns the point n tiles away in direction d.
func (p Point) Step(d Direction, n int) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx*n, Y: p.Y + dy*n}
}

// Manhattan returns the 4-connected distance between two points.
func (p Point) Manhattan(o Point) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
