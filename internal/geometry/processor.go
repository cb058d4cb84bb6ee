// Package geometry applies a mission to a generated grid: it carves the
// boss arena, checkpoints, side branches and treasure rooms, tags the start
// and exit rooms, repairs connectivity and pins the mission objectives.
package geometry

import (
	"errors"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/mission"
)

// ErrNoFloor is returned when the input grid has nothing to build on.
var ErrNoFloor = errors.New("geometry: grid has no walkable tiles")

// DefaultMinArenaFraction is the smallest share of the total floor area a
// boss arena may cover.
const DefaultMinArenaFraction = 0.05

// Config tunes the post-processor.
type Config struct {
	MinArenaFraction float64 `yaml:"min_arena_fraction"`
}

// DefaultConfig returns the post-processor defaults.
func DefaultConfig() Config {
	return Config{MinArenaFraction: DefaultMinArenaFraction}
}

// Report summarises what Apply changed.
type Report struct {
	Arena         bool
	Checkpoints   int
	Branches      int
	TreasureRooms int
	Repairs       int
	// Objectives is the number of objective tiles placed out of
	// ObjectivesRequested.
	Objectives          int
	ObjectivesRequested int
}

// Processor applies mission directives. It is deterministic for a seed.
type Processor struct {
	cfg  Config
	seed int64
}

// NewProcessor creates a post-processor seeded with seed.
func NewProcessor(cfg Config, seed int64) *Processor {
	if cfg.MinArenaFraction <= 0 || cfg.MinArenaFraction >= 1 {
		cfg.MinArenaFraction = DefaultMinArenaFraction
	}
	return &Processor{cfg: cfg, seed: seed}
}

// run holds the state of one Apply call.
type run struct {
	cfg       Config
	g         *grid.Grid
	rng       *rand.Rand
	start     grid.Point
	arena     int // room ID, -1 without arena
	protected mapset.Set[grid.Point]
	report    Report
}

// Apply modifies g in place and returns it. The directives of spec are
// applied in fixed order: arena, checkpoints, branches, treasure rooms.
// Start and exit rooms are tagged afterwards and any detached region is
// joined back, so the result is always a single connected region. The
// objectives of spec are placed last, on the final geometry. Callers that
// need the input unchanged pass g.Clone().
func (p *Processor) Apply(g *grid.Grid, spec mission.Spec) (*grid.Grid, Report, error) {
	if g == nil || g.FloorCount() == 0 {
		return nil, Report{}, ErrNoFloor
	}
	r := &run{
		cfg:       p.cfg,
		g:         g,
		rng:       rand.New(rand.NewSource(p.seed)),
		arena:     -1,
		protected: mapset.New[grid.Point](),
	}
	r.start = startPoint(r.g)

	// Detached input regions are joined first so every directive works on
	// one connected level.
	r.repair()

	for _, d := range spec.Directives {
		switch d.Kind {
		case mission.AddArena:
			if r.arena < 0 {
				r.addArena(d.Width, d.Height)
			}
		case mission.AddCheckpoints:
			r.addCheckpoints(d.Count)
		case mission.AddBranches:
			r.addBranches(d.Count)
		case mission.AddTreasureRoom:
			r.addTreasureRooms(d.Count)
		}
	}
	if r.arena >= 0 {
		r.growArena()
	}
	r.tagStartAndExit()
	r.repair()
	r.placeObjectives(spec.Objectives)

	logger.Debug("Mission geometry applied",
		"mission", spec.Type,
		"arena", r.report.Arena,
		"checkpoints", r.report.Checkpoints,
		"branches", r.report.Branches,
		"treasure_rooms", r.report.TreasureRooms,
		"repairs", r.report.Repairs,
		"objectives", r.report.Objectives,
		"objectives_requested", r.report.ObjectivesRequested)
	return r.g, r.report, nil
}

// startPoint is the centre of the first room, or the first floor tile.
func startPoint(g *grid.Grid) grid.Point {
	for _, room := range g.Rooms {
		if g.WalkableAt(room.Center()) {
			return room.Center()
		}
	}
	p, _ := g.FirstWalkable()
	return p
}

// special reports whether a room already has a mission role.
func special(room grid.Room) bool {
	return room.Role != grid.RoleNormal
}

// overlapsSpecial reports whether rect touches the arena or any room that
// already has a role.
func (r *run) overlapsSpecial(rect grid.Rect) bool {
	for y := rect.Y1; y <= rect.Y2; y++ {
		for x := rect.X1; x <= rect.X2; x++ {
			if r.protected.Has(grid.Point{X: x, Y: y}) {
				return true
			}
		}
	}
	for _, room := range r.g.Rooms {
		if special(room) && room.Bounds.Intersects(rect) {
			return true
		}
	}
	return false
}

// anchor carves a small room around p and registers it with role. The
// room always contains p, so it stays joined to p's region.
func (r *run) anchor(p grid.Point, role grid.RoomRole) int {
	rect := r.g.ClipToInterior(grid.Rect{X1: p.X - 1, Y1: p.Y - 1, X2: p.X + 1, Y2: p.Y + 1})
	r.g.CarveRect(rect)
	return r.g.AddRoom(rect, role)
}
