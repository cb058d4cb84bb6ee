package pcg

import (
	"math/rand"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// partition is a node of the space partition tree. The tree doubles as the
// room adjacency graph: each split becomes one edge between its halves.
type partition struct {
	area        grid.Rect
	left, right *partition
	room        int // index into the room list, -1 for inner nodes
}

func (n *partition) split(rng *rand.Rand, depth, minSize int) {
	if depth == 0 {
		return
	}
	w, h := n.area.Width(), n.area.Height()
	horizontal := rng.Intn(2) == 0
	if w > h && float64(w)/float64(h) >= 1.25 {
		horizontal = false
	} else if h > w && float64(h)/float64(w) >= 1.25 {
		horizontal = true
	}

	size := w
	if horizontal {
		size = h
	}
	if size < minSize*2 {
		horizontal = !horizontal
		size = w + h - size
		if size < minSize*2 {
			return
		}
	}

	at := between(rng, minSize, size-minSize)
	a := n.area
	if horizontal {
		n.left = &partition{area: grid.Rect{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y1 + at - 1}, room: -1}
		n.right = &partition{area: grid.Rect{X1: a.X1, Y1: a.Y1 + at, X2: a.X2, Y2: a.Y2}, room: -1}
	} else {
		n.left = &partition{area: grid.Rect{X1: a.X1, Y1: a.Y1, X2: a.X1 + at - 1, Y2: a.Y2}, room: -1}
		n.right = &partition{area: grid.Rect{X1: a.X1 + at, Y1: a.Y1, X2: a.X2, Y2: a.Y2}, room: -1}
	}
	n.left.split(rng, depth-1, minSize)
	n.right.split(rng, depth-1, minSize)
}

func (n *partition) leaves() []*partition {
	if n.left == nil {
		return []*partition{n}
	}
	return append(n.left.leaves(), n.right.leaves()...)
}

// rooms returns the room indices under this node.
func (n *partition) rooms() []int {
	var out []int
	for _, l := range n.leaves() {
		if l.room >= 0 {
			out = append(out, l.room)
		}
	}
	return out
}

// edges walks the tree bottom-up and returns one room pair per split,
// choosing the closest rooms across the two halves.
func (n *partition) edges(rects []grid.Rect) [][2]int {
	if n.left == nil {
		return nil
	}
	out := append(n.left.edges(rects), n.right.edges(rects)...)
	lr, rr := n.left.rooms(), n.right.rooms()
	if len(lr) == 0 || len(rr) == 0 {
		return out
	}
	best := [2]int{lr[0], rr[0]}
	bestDist := rects[lr[0]].Center().Manhattan(rects[rr[0]].Center())
	for _, a := range lr {
		for _, b := range rr {
			if d := rects[a].Center().Manhattan(rects[b].Center()); d < bestDist {
				best, bestDist = [2]int{a, b}, d
			}
		}
	}
	return append(out, best)
}

// GraphRoomsGenerator partitions the map, builds the room graph from the
// partition tree and lays corridors along its edges. Connectivity follows
// from the graph being a spanning tree, so no pruning pass is needed.
type GraphRoomsGenerator struct{}

func (GraphRoomsGenerator) Algorithm() params.Algorithm { return params.GraphRooms }

func (gen GraphRoomsGenerator) Generate(p params.Set, seed int64) (*grid.Grid, error) {
	alg := gen.Algorithm()
	if err := checkSet(alg, p); err != nil {
		return nil, err
	}
	rng := newRand(seed)
	g := grid.New(p.Int("map_width"), p.Int("map_height"))

	root := &partition{area: g.Interior(), room: -1}
	root.split(rng, p.Int("split_depth"), p.Int("min_partition"))

	var rects []grid.Rect
	for _, leaf := range root.leaves() {
		r, ok := roomInPartition(rng, leaf.area)
		if !ok {
			continue
		}
		leaf.room = len(rects)
		rects = append(rects, r)
	}
	if len(rects) < p.Int("min_rooms") {
		return nil, failf(alg, seed, "partitioned into %d rooms, need %d", len(rects), p.Int("min_rooms"))
	}

	ids := carveRooms(g, rects)
	style := grid.ParseCorridorStyle(p.String("corridor_style"))
	width := p.Int("corridor_width")
	for _, e := range root.edges(rects) {
		connect(g, rng, rects, ids, e[0], e[1], style, width)
	}
	return g, nil
}

// roomInPartition picks a room that leaves at least one wall tile on every
// side of the partition.
func roomInPartition(rng *rand.Rand, area grid.Rect) (grid.Rect, bool) {
	availW, availH := area.Width()-2, area.Height()-2
	if availW < 3 || availH < 3 {
		return grid.Rect{}, false
	}
	w := between(rng, max(3, availW*2/3), availW)
	h := between(rng, max(3, availH*2/3), availH)
	x := area.X1 + 1 + rng.Intn(availW-w+1)
	y := area.Y1 + 1 + rng.Intn(availH-h+1)
	return grid.NewRect(x, y, w, h), true
}
