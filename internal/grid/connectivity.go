package grid

import "slices"

// Regions returns the 4-connected walkable regions. Regions are ordered by
// their first tile in row-major order.
func (g *Grid) Regions() [][]Point {
	visited := make([]bool, len(g.Tiles))
	var regions [][]Point
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			if visited[idx] || !g.Tiles[idx].Walkable() {
				continue
			}
			regions = append(regions, g.flood(Point{X: x, Y: y}, visited))
		}
	}
	return regions
}

// flood collects the region containing start using BFS.
func (g *Grid) flood(start Point, visited []bool) []Point {
	visited[start.Y*g.Width+start.X] = true
	region := []Point{start}
	for i := 0; i < len(region); i++ {
		p := region[i]
		for _, d := range AllDirections() {
			n := p.Step(d, 1)
			if !g.WalkableAt(n) {
				continue
			}
			idx := n.Y*g.Width + n.X
			if visited[idx] {
				continue
			}
			visited[idx] = true
			region = append(region, n)
		}
	}
	return region
}

// RegionOf returns the region containing p, or nil when p is a wall.
func (g *Grid) RegionOf(p Point) []Point {
	if !g.WalkableAt(p) {
		return nil
	}
	return g.flood(p, make([]bool, len(g.Tiles)))
}

// IsConnected reports whether all walkable tiles form one region.
// A grid without walkable tiles is not connected.
func (g *Grid) IsConnected() bool {
	start, ok := g.FirstWalkable()
	if !ok {
		return false
	}
	return len(g.RegionOf(start)) == g.FloorCount()
}

// KeepLargestRegion fills every region except the largest with wall and
// returns the number of tiles kept.
func (g *Grid) KeepLargestRegion() int {
	regions := g.Regions()
	if len(regions) == 0 {
		return 0
	}
	best := 0
	for i, r := range regions {
		if len(r) > len(regions[best]) {
			best = i
		}
	}
	g.keepOnly(regions, best)
	return len(regions[best])
}

// KeepRegionContaining fills every region that does not contain p with wall.
// It returns the size of the kept region, 0 when p is not walkable.
func (g *Grid) KeepRegionContaining(p Point) int {
	regions := g.Regions()
	for i, r := range regions {
		if slices.Contains(r, p) {
			g.keepOnly(regions, i)
			return len(r)
		}
	}
	return 0
}

func (g *Grid) keepOnly(regions [][]Point, keep int) {
	for i, r := range regions {
		if i == keep {
			continue
		}
		for _, p := range r {
			g.Set(p.X, p.Y, TileWall)
		}
	}
	g.RemoveRooms(func(r Room) bool {
		return !g.WalkableAt(r.Center())
	})
	g.Corridors = slices.DeleteFunc(g.Corridors, func(c Corridor) bool {
		return !slices.ContainsFunc(c.Path, g.WalkableAt)
	})
}

// Distances returns the BFS step distance from start to every tile,
// indexed row-major. Unreachable tiles hold -1.
func (g *Grid) Distances(start Point) []int {
	dist := make([]int, len(g.Tiles))
	for i := range dist {
		dist[i] = -1
	}
	if !g.WalkableAt(start) {
		return dist
	}
	dist[start.Y*g.Width+start.X] = 0
	queue := []Point{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		base := dist[p.Y*g.Width+p.X]
		for _, d := range AllDirections() {
			n := p.Step(d, 1)
			if !g.WalkableAt(n) || dist[n.Y*g.Width+n.X] >= 0 {
				continue
			}
			dist[n.Y*g.Width+n.X] = base + 1
			queue = append(queue, n)
		}
	}
	return dist
}

// DistanceAt reads a distance map built by Distances.
func (g *Grid) DistanceAt(dist []int, p Point) int {
	if !g.InBounds(p.X, p.Y) {
		return -1
	}
	return dist[p.Y*g.Width+p.X]
}

// Farthest returns the reachable tile with the largest BFS distance from
// start. Ties go to the first tile in row-major order.
func (g *Grid) Farthest(start Point) (Point, int) {
	dist := g.Distances(start)
	best, bestDist := start, 0
	for i, d := range dist {
		if d > bestDist {
			best, bestDist = Point{X: i % g.Width, Y: i / g.Width}, d
		}
	}
	return best, bestDist
}

// ShortestPath returns the tiles on a shortest walkable path from a to b,
// both ends included. It returns nil when b is unreachable.
func (g *Grid) ShortestPath(a, b Point) []Point {
	dist := g.Distances(a)
	if g.DistanceAt(dist, b) < 0 {
		return nil
	}
	path := []Point{b}
	cur := b
	for cur != a {
		d := g.DistanceAt(dist, cur)
		for _, dir := range AllDirections() {
			n := cur.Step(dir, 1)
			if g.DistanceAt(dist, n) == d-1 {
				cur = n
				break
			}
		}
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// DeadEnds returns walkable tiles with exactly one walkable neighbour.
func (g *Grid) DeadEnds() []Point {
	var out []Point
	for _, p := range g.Walkables() {
		if g.WalkableNeighbors(p) == 1 {
			out = append(out, p)
		}
	}
	return out
}
