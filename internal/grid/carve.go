package grid

import "math/rand"

// CorridorStyle selects the shape used to join two points.
type CorridorStyle int

const (
	CorridorLShaped CorridorStyle = iota
	CorridorZShaped
	CorridorStraight
)

// String returns the string representation of a CorridorStyle
func (s CorridorStyle) String() string {
	switch s {
	case CorridorZShaped:
		return "z_shaped"
	case CorridorStraight:
		return "straight"
	default:
		return "l_shaped"
	}
}

// ParseCorridorStyle maps a name to a style. Unknown names give L-shaped.
func ParseCorridorStyle(name string) CorridorStyle {
	switch name {
	case "z_shaped":
		return CorridorZShaped
	case "straight":
		return CorridorStraight
	default:
		return CorridorLShaped
	}
}

// CarveCorridor joins a and b with a corridor of the given style and width
// and returns the centre-line path walked.
func (g *Grid) CarveCorridor(a, b Point, style CorridorStyle, width int, rng *rand.Rand) []Point {
	switch style {
	case CorridorZShaped:
		midY := (a.Y + b.Y) / 2
		path := g.CarveV(a.Y, midY, a.X, width)
		path = append(path, g.CarveH(a.X, b.X, midY, width)...)
		return append(path, g.CarveV(midY, b.Y, b.X, width)...)
	case CorridorStraight:
		path := g.CarveH(a.X, b.X, a.Y, width)
		return append(path, g.CarveV(a.Y, b.Y, b.X, width)...)
	default:
		horizontalFirst := rng == nil || rng.Intn(2) == 0
		return g.CarveL(a, b, horizontalFirst, width)
	}
}

// CarveL carves an L-shaped corridor from a to b.
func (g *Grid) CarveL(a, b Point, horizontalFirst bool, width int) []Point {
	if horizontalFirst {
		path := g.CarveH(a.X, b.X, a.Y, width)
		return append(path, g.CarveV(a.Y, b.Y, b.X, width)...)
	}
	path := g.CarveV(a.Y, b.Y, a.X, width)
	return append(path, g.CarveH(a.X, b.X, b.Y, width)...)
}

// CarveH carves a horizontal run from x1 to x2 on row y, width rows thick.
func (g *Grid) CarveH(x1, x2, y, width int) []Point {
	step := 1
	if x1 > x2 {
		step = -1
	}
	var path []Point
	for x := x1; ; x += step {
		for w := 0; w < max(width, 1); w++ {
			g.Carve(x, y+w)
		}
		path = append(path, Point{X: x, Y: y})
		if x == x2 {
			break
		}
	}
	return path
}

// CarveV carves a vertical run from y1 to y2 on column x, width columns thick.
func (g *Grid) CarveV(y1, y2, x, width int) []Point {
	step := 1
	if y1 > y2 {
		step = -1
	}
	var path []Point
	for y := y1; ; y += step {
		for w := 0; w < max(width, 1); w++ {
			g.Carve(x+w, y)
		}
		path = append(path, Point{X: x, Y: y})
		if y == y2 {
			break
		}
	}
	return path
}
