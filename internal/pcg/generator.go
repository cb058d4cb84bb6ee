// Package pcg contains the level layout generators. Every generator turns a
// validated parameter set and a seed into a fully connected grid.
package pcg

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// ErrGenerationFailure is returned when a generator cannot meet its
// constraints for the given seed.
var ErrGenerationFailure = errors.New("pcg: generation failed")

// GenerationError carries the algorithm and seed of a failed layout.
type GenerationError struct {
	Algorithm params.Algorithm
	Seed      int64
	Reason    string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s (seed %d): %s", e.Algorithm, e.Seed, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return ErrGenerationFailure
}

func failf(alg params.Algorithm, seed int64, format string, args ...any) error {
	return &GenerationError{Algorithm: alg, Seed: seed, Reason: fmt.Sprintf(format, args...)}
}

// Generator lays out one level. Same set and seed give the same grid.
type Generator interface {
	Algorithm() params.Algorithm
	Generate(p params.Set, seed int64) (*grid.Grid, error)
}

var registry = map[params.Algorithm]Generator{
	params.RandomRooms:      RandomRoomsGenerator{},
	params.GraphRooms:       GraphRoomsGenerator{},
	params.CellularAutomata: CellularGenerator{},
	params.Maze:             MazeGenerator{},
	params.HybridRoomsCaves: RoomsAndCavesGenerator{},
	params.HybridRoomsMaze:  RoomsAndMazeGenerator{},
}

// New returns the generator for an algorithm.
func New(alg params.Algorithm) (Generator, error) {
	g, ok := registry[alg]
	if !ok {
		return nil, fmt.Errorf("pcg: no generator for %q", alg)
	}
	return g, nil
}

// All returns every generator in menu order.
func All() []Generator {
	var out []Generator
	for _, alg := range params.AllAlgorithms() {
		out = append(out, registry[alg])
	}
	return out
}

// Generate looks up the generator for the set's algorithm and runs it.
func Generate(p params.Set, seed int64) (*grid.Grid, error) {
	g, err := New(p.Algorithm())
	if err != nil {
		return nil, err
	}
	return g.Generate(p, seed)
}

func checkSet(alg params.Algorithm, p params.Set) error {
	if p.IsZero() {
		return fmt.Errorf("pcg: %s: parameter set was not validated", alg)
	}
	if p.Algorithm() != alg {
		return fmt.Errorf("pcg: %s generator given parameters for %s", alg, p.Algorithm())
	}
	return nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// between returns a uniform int in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
