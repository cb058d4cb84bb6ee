package grid

import "fmt"

// Rect is an axis-aligned rectangle with inclusive edges.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// NewRect builds a rectangle from a corner and a size.
func NewRect(x, y, w, h int) Rect {
	return Rect{X1: x, Y1: y, X2: x + w - 1, Y2: y + h - 1}
}

// Width returns the number of columns covered.
func (r Rect) Width() int { return r.X2 - r.X1 + 1 }

// Height returns the number of rows covered.
func (r Rect) Height() int { return r.Y2 - r.Y1 + 1 }

// Area returns the number of tiles covered.
func (r Rect) Area() int { return r.Width() * r.Height() }

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// Intersects reports whether r overlaps other (inclusive edges).
func (r Rect) Intersects(other Rect) bool {
	return r.X1 <= other.X2 && r.X2 >= other.X1 &&
		r.Y1 <= other.Y2 && r.Y2 >= other.Y1
}

// IntersectsWithMargin reports whether r comes within margin tiles of other.
func (r Rect) IntersectsWithMargin(other Rect, margin int) bool {
	return r.Expand(margin).Intersects(other)
}

// Expand grows the rectangle by n tiles on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{X1: r.X1 - n, Y1: r.Y1 - n, X2: r.X2 + n, Y2: r.Y2 + n}
}

// ContainsRect reports whether other lies completely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X1 >= r.X1 && other.X2 <= r.X2 && other.Y1 >= r.Y1 && other.Y2 <= r.Y2
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// RoomRole tags what a room is used for in the level.
type RoomRole int

const (
	RoleNormal RoomRole = iota
	RoleBossArena
	RoleTreasure
	RoleCheckpoint
	RoleStart
	RoleExit
)

// String returns the string representation of a RoomRole
func (r RoomRole) String() string {
	switch r {
	case RoleNormal:
		return "normal"
	case RoleBossArena:
		return "boss_arena"
	case RoleTreasure:
		return "treasure"
	case RoleCheckpoint:
		return "checkpoint"
	case RoleStart:
		return "start"
	case RoleExit:
		return "exit"
	default:
		return "unknown"
	}
}

// ParseRoomRole resolves a role name as returned by RoomRole.String.
func ParseRoomRole(name string) (RoomRole, bool) {
	for r := RoleNormal; r <= RoleExit; r++ {
		if r.String() == name {
			return r, true
		}
	}
	return RoleNormal, false
}

// Room is a named area of the grid. Cells is set for irregular rooms;
// rectangular rooms leave it nil and are described by Bounds alone.
type Room struct {
	ID     int
	Bounds Rect
	Cells  []Point
	Role   RoomRole
}

// Area returns the number of tiles that belong to the room.
func (r Room) Area() int {
	if r.Cells != nil {
		return len(r.Cells)
	}
	return r.Bounds.Area()
}

// Center returns the center of the room bounds.
func (r Room) Center() Point {
	return r.Bounds.Center()
}

// Contains reports whether p belongs to the room.
func (r Room) Contains(p Point) bool {
	if !r.Bounds.Contains(p) {
		return false
	}
	if r.Cells == nil {
		return true
	}
	for _, c := range r.Cells {
		if c == p {
			return true
		}
	}
	return false
}

// Corridor is a carved path. From and To are room IDs, -1 when the
// corridor is not anchored to a room.
type Corridor struct {
	From, To int
	Path     []Point
	Branch   bool
}

// Objective is a mission goal pinned to one tile. Room is the ID of the
// room holding At, -1 outside rooms.
type Objective struct {
	Kind        string
	Rule        string
	At          Point
	Room        int
	Description string
}
