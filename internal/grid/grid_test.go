package grid

import "testing"

func TestInBounds(t *testing.T) {
	g := New(10, 8)
	cases := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{9, 7, true},
		{-1, 0, false},
		{10, 0, false},
		{0, 8, false},
	}
	for _, c := range cases {
		if got := g.InBounds(c.x, c.y); got != c.want {
			t.Errorf("InBounds(%d, %d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestCarveKeepsBorder(t *testing.T) {
	g := New(10, 8)
	g.CarveRect(Rect{X1: 0, Y1: 0, X2: 9, Y2: 7})

	for x := 0; x < g.Width; x++ {
		if g.Walkable(x, 0) || g.Walkable(x, g.Height-1) {
			t.Fatalf("border row carved at x=%d", x)
		}
	}
	for y := 0; y < g.Height; y++ {
		if g.Walkable(0, y) || g.Walkable(g.Width-1, y) {
			t.Fatalf("border column carved at y=%d", y)
		}
	}
	if got, want := g.FloorCount(), 8*6; got != want {
		t.Errorf("FloorCount() = %d, want %d", got, want)
	}
}

func TestCarveLeavesDoors(t *testing.T) {
	g := New(5, 5)
	g.Set(2, 2, TileDoor)
	if g.Carve(2, 2) {
		t.Error("Carve overwrote a door")
	}
	if g.At(2, 2) != TileDoor {
		t.Errorf("At(2, 2) = %v, want door", g.At(2, 2))
	}
}

func TestRectIntersects(t *testing.T) {
	a := NewRect(2, 2, 4, 4)
	tests := []struct {
		name   string
		b      Rect
		margin int
		want   bool
	}{
		{"overlap", NewRect(4, 4, 3, 3), 0, true},
		{"touching edge", NewRect(6, 2, 2, 2), 0, false},
		{"touching edge with margin", NewRect(6, 2, 2, 2), 1, true},
		{"far away", NewRect(20, 20, 2, 2), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.IntersectsWithMargin(tt.b, tt.margin); got != tt.want {
				t.Errorf("IntersectsWithMargin(%v, %d) = %v, want %v", tt.b, tt.margin, got, tt.want)
			}
		})
	}
}

func TestRoomContainsIrregular(t *testing.T) {
	g := New(10, 10)
	id := g.AddIrregularRoom([]Point{{2, 2}, {3, 2}, {3, 3}}, RoleNormal)
	r, ok := g.Room(id)
	if !ok {
		t.Fatal("room not registered")
	}
	if r.Area() != 3 {
		t.Errorf("Area() = %d, want 3", r.Area())
	}
	if r.Contains(Point{2, 3}) {
		t.Error("irregular room should not contain (2,3)")
	}
	if !r.Contains(Point{3, 3}) {
		t.Error("irregular room should contain (3,3)")
	}
}

func TestCarveCorridorStyles(t *testing.T) {
	for _, style := range []CorridorStyle{CorridorLShaped, CorridorZShaped, CorridorStraight} {
		t.Run(style.String(), func(t *testing.T) {
			g := New(20, 20)
			a, b := Point{2, 3}, Point{15, 16}
			g.Carve(a.X, a.Y)
			g.Carve(b.X, b.Y)
			path := g.CarveCorridor(a, b, style, 1, nil)
			if len(path) == 0 {
				t.Fatal("empty path")
			}
			if !g.IsConnected() {
				t.Errorf("%s corridor did not join endpoints", style)
			}
		})
	}
}

func TestRegionsAndKeepLargest(t *testing.T) {
	g := New(20, 10)
	g.CarveRect(NewRect(1, 1, 5, 5))
	g.CarveRect(NewRect(10, 1, 3, 3))
	g.AddRoom(NewRect(1, 1, 5, 5), RoleNormal)
	g.AddRoom(NewRect(10, 1, 3, 3), RoleNormal)

	if got := len(g.Regions()); got != 2 {
		t.Fatalf("len(Regions()) = %d, want 2", got)
	}
	if g.IsConnected() {
		t.Error("IsConnected() = true for two regions")
	}

	kept := g.KeepLargestRegion()
	if kept != 25 {
		t.Errorf("KeepLargestRegion() = %d, want 25", kept)
	}
	if !g.IsConnected() {
		t.Error("grid not connected after KeepLargestRegion")
	}
	if len(g.Rooms) != 1 {
		t.Errorf("len(Rooms) = %d, want 1 after pruning", len(g.Rooms))
	}
}

func TestKeepRegionContaining(t *testing.T) {
	g := New(20, 10)
	g.CarveRect(NewRect(1, 1, 5, 5))
	g.CarveRect(NewRect(10, 1, 3, 3))

	if got := g.KeepRegionContaining(Point{11, 2}); got != 9 {
		t.Errorf("KeepRegionContaining() = %d, want 9", got)
	}
	if g.Walkable(1, 1) {
		t.Error("larger region should have been filled")
	}
}

func TestShortestPathAndDeadEnds(t *testing.T) {
	g := New(10, 5)
	g.CarveH(1, 8, 2, 1)

	path := g.ShortestPath(Point{1, 2}, Point{8, 2})
	if len(path) != 8 {
		t.Fatalf("len(path) = %d, want 8", len(path))
	}
	if path[0] != (Point{1, 2}) || path[len(path)-1] != (Point{8, 2}) {
		t.Errorf("path endpoints = %v..%v", path[0], path[len(path)-1])
	}

	ends := g.DeadEnds()
	if len(ends) != 2 {
		t.Errorf("len(DeadEnds()) = %d, want 2", len(ends))
	}

	far, d := g.Farthest(Point{1, 2})
	if far != (Point{8, 2}) || d != 7 {
		t.Errorf("Farthest() = %v, %d, want (8,2), 7", far, d)
	}
}

func TestCloneAndFingerprint(t *testing.T) {
	g := New(12, 12)
	g.CarveRect(NewRect(2, 2, 4, 4))
	g.AddRoom(NewRect(2, 2, 4, 4), RoleStart)

	c := g.Clone()
	if !g.Equal(c) {
		t.Fatal("clone differs from original")
	}
	if g.Fingerprint() != c.Fingerprint() {
		t.Error("fingerprint differs for equal grids")
	}

	c.Carve(8, 8)
	if g.Equal(c) {
		t.Error("Equal() = true after mutating clone")
	}
	if g.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint unchanged after mutating clone")
	}
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range AllDirections() {
		if d.Opposite().Opposite() != d {
			t.Errorf("%s.Opposite().Opposite() = %s", d, d.Opposite().Opposite())
		}
		dx, dy := d.Delta()
		ox, oy := d.Opposite().Delta()
		if dx+ox != 0 || dy+oy != 0 {
			t.Errorf("%s and its opposite do not cancel", d)
		}
	}
}
