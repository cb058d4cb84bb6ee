package params

import "sync"

var partitionCache sync.Map // [4]int -> int

// GuaranteedPartitions returns the fewest leaves a space partition of a
// width x height area can end with when split depth times with sides no
// smaller than minSize. It follows the splitting rule of the bsp
// generator: long areas are cut across their long side, a cut that would
// leave a side under minSize is tried the other way, and an area that
// cannot be cut either way stays a leaf.
func GuaranteedPartitions(width, height, depth, minSize int) int {
	key := [4]int{width, height, depth, minSize}
	if v, ok := partitionCache.Load(key); ok {
		return v.(int)
	}
	memo := make(map[[3]int]int)
	n := worstPartition(memo, width, height, depth, minSize)
	partitionCache.Store(key, n)
	return n
}

func worstPartition(memo map[[3]int]int, w, h, depth, minSize int) int {
	if depth <= 0 || w <= 0 || h <= 0 {
		return 1
	}
	key := [3]int{w, h, depth}
	if v, ok := memo[key]; ok {
		return v
	}

	var choices []bool // true cuts horizontally
	switch {
	case w > h && float64(w)/float64(h) >= 1.25:
		choices = []bool{false}
	case h > w && float64(h)/float64(w) >= 1.25:
		choices = []bool{true}
	default:
		choices = []bool{true, false}
	}

	best := -1
	for _, horizontal := range choices {
		size := w
		if horizontal {
			size = h
		}
		if size < minSize*2 {
			horizontal = !horizontal
			size = w + h - size
			if size < minSize*2 {
				best = pickMin(best, 1)
				continue
			}
		}
		for at := minSize; at <= size-minSize; at++ {
			var n int
			if horizontal {
				n = worstPartition(memo, w, at, depth-1, minSize) + worstPartition(memo, w, h-at, depth-1, minSize)
			} else {
				n = worstPartition(memo, at, h, depth-1, minSize) + worstPartition(memo, w-at, h, depth-1, minSize)
			}
			best = pickMin(best, n)
		}
	}
	memo[key] = best
	return best
}

func pickMin(cur, n int) int {
	if cur < 0 || n < cur {
		return n
	}
	return cur
}

// RoomCapacity returns how many size x size rooms fit on a width x height
// map inside the border wall with one wall tile between neighbours.
func RoomCapacity(width, height, size int) int {
	if size <= 0 {
		return 0
	}
	return ((width - 1) / (size + 1)) * ((height - 1) / (size + 1))
}
