package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
	"github.com/lawnchairsociety/dungen/internal/pcg"
)

// generated returns one successful layout per algorithm.
func generated(t *testing.T) map[params.Algorithm]*grid.Grid {
	t.Helper()
	out := map[params.Algorithm]*grid.Grid{}
	for _, alg := range params.AllAlgorithms() {
		set, err := params.Defaults(alg)
		require.NoError(t, err)
		for seed := int64(1); seed < 20; seed++ {
			g, err := pcg.Generate(set, seed)
			if errors.Is(err, pcg.ErrGenerationFailure) {
				continue
			}
			require.NoError(t, err)
			out[alg] = g
			break
		}
		require.Contains(t, out, alg, "no successful layout for %s", alg)
	}
	return out
}

func TestApplyKeepsConnectivity(t *testing.T) {
	for alg, g := range generated(t) {
		for _, typ := range mission.AllTypes() {
			for _, intensity := range []float64{0, 0.5, 1} {
				spec := mission.Design(typ, intensity, g.Width, g.Height)
				out, _, err := NewProcessor(DefaultConfig(), 11).Apply(g.Clone(), spec)
				require.NoError(t, err)
				assert.True(t, out.IsConnected(), "%s/%s/%.1f: not connected", alg, typ, intensity)
				assert.GreaterOrEqual(t, out.FloorCount(), g.FloorCount(), "post-processing only adds floor")
			}
		}
	}
}

func TestApplyModifiesGridInPlace(t *testing.T) {
	g := generated(t)[params.RandomRooms].Clone()
	before := g.Clone()
	out, report, err := NewProcessor(DefaultConfig(), 3).Apply(g, mission.Design(mission.TreasureHunt, 1, g.Width, g.Height))
	require.NoError(t, err)
	assert.Same(t, g, out)
	assert.False(t, before.Equal(g), "treasure hunt must change the grid")
	assert.Len(t, g.RoomsWithRole(grid.RoleTreasure), report.TreasureRooms)
}

func TestBossFightHasOneLargeArena(t *testing.T) {
	for alg, g := range generated(t) {
		for _, intensity := range []float64{0, 1} {
			spec := mission.Design(mission.BossFight, intensity, g.Width, g.Height)
			out, report, err := NewProcessor(DefaultConfig(), 5).Apply(g.Clone(), spec)
			require.NoError(t, err)
			assert.True(t, report.Arena)

			arenas := out.RoomsWithRole(grid.RoleBossArena)
			require.Len(t, arenas, 1, "%s: want exactly one arena", alg)
			frac := float64(arenas[0].Area()) / float64(out.FloorCount())
			assert.GreaterOrEqual(t, frac, DefaultMinArenaFraction, "%s: arena too small", alg)
			assert.True(t, out.IsConnected(), alg)
		}
	}
}

func TestArenaIsAwayFromStart(t *testing.T) {
	g := generated(t)[params.RandomRooms]
	start := startPoint(g)
	out, _, err := NewProcessor(DefaultConfig(), 1).Apply(g.Clone(), mission.Design(mission.BossFight, 0.5, g.Width, g.Height))
	require.NoError(t, err)

	arena := out.RoomsWithRole(grid.RoleBossArena)[0]
	assert.False(t, arena.Bounds.Contains(start))
	starts := out.RoomsWithRole(grid.RoleStart)
	require.Len(t, starts, 1)
	assert.True(t, starts[0].Contains(start))
}

func TestNonBossMissionsHaveNoArena(t *testing.T) {
	g := generated(t)[params.GraphRooms]
	for _, typ := range []mission.Type{mission.TreasureHunt, mission.Escape, mission.Exploration} {
		out, _, err := NewProcessor(DefaultConfig(), 2).Apply(g.Clone(), mission.Design(typ, 1, g.Width, g.Height))
		require.NoError(t, err)
		assert.Empty(t, out.RoomsWithRole(grid.RoleBossArena), typ)
	}
}

func TestCheckpointsAndTreasure(t *testing.T) {
	for alg, g := range generated(t) {
		out, report, err := NewProcessor(DefaultConfig(), 8).Apply(g.Clone(), mission.Design(mission.Escape, 1, g.Width, g.Height))
		require.NoError(t, err)
		assert.Positive(t, report.Checkpoints, alg)
		assert.Len(t, out.RoomsWithRole(grid.RoleCheckpoint), report.Checkpoints, alg)

		spec := mission.Design(mission.TreasureHunt, 1, g.Width, g.Height)
		out, report, err = NewProcessor(DefaultConfig(), 8).Apply(g.Clone(), spec)
		require.NoError(t, err)
		assert.Equal(t, spec.Count(mission.AddTreasureRoom), report.TreasureRooms, alg)
		assert.Len(t, out.RoomsWithRole(grid.RoleTreasure), report.TreasureRooms, alg)
	}
}

func TestBranchesAreRecorded(t *testing.T) {
	g := generated(t)[params.RandomRooms]
	spec := mission.Design(mission.Exploration, 1, g.Width, g.Height)
	out, report, err := NewProcessor(DefaultConfig(), 4).Apply(g.Clone(), spec)
	require.NoError(t, err)

	branches := 0
	for _, c := range out.Corridors {
		if c.Branch {
			branches++
		}
	}
	assert.Equal(t, report.Branches, branches)
	assert.Positive(t, branches)
}

func TestStartAndExitOnRoomlessGrid(t *testing.T) {
	g := generated(t)[params.Maze]
	require.Empty(t, g.Rooms)

	out, _, err := NewProcessor(DefaultConfig(), 6).Apply(g.Clone(), mission.Spec{Type: mission.Exploration})
	require.NoError(t, err)
	assert.Len(t, out.RoomsWithRole(grid.RoleStart), 1)
	assert.Len(t, out.RoomsWithRole(grid.RoleExit), 1)
}

func TestApplyIsDeterministic(t *testing.T) {
	g := generated(t)[params.HybridRoomsCaves]
	spec := mission.Design(mission.TreasureHunt, 0.7, g.Width, g.Height)
	a, _, err := NewProcessor(DefaultConfig(), 99).Apply(g.Clone(), spec)
	require.NoError(t, err)
	b, _, err := NewProcessor(DefaultConfig(), 99).Apply(g.Clone(), spec)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestRepairJoinsDetachedRegions(t *testing.T) {
	g := grid.New(30, 20)
	g.CarveRect(grid.NewRect(2, 2, 5, 5))
	g.CarveRect(grid.NewRect(20, 10, 4, 4))
	g.CarveRect(grid.NewRect(12, 15, 2, 2))
	g.AddRoom(grid.NewRect(2, 2, 5, 5), grid.RoleNormal)
	require.False(t, g.IsConnected())

	out, report, err := NewProcessor(DefaultConfig(), 1).Apply(g.Clone(), mission.Spec{Type: mission.Exploration})
	require.NoError(t, err)
	assert.True(t, out.IsConnected())
	assert.Equal(t, 2, report.Repairs)
}

func TestApplyRejectsEmptyGrid(t *testing.T) {
	_, _, err := NewProcessor(DefaultConfig(), 1).Apply(grid.New(10, 10), mission.Spec{})
	assert.ErrorIs(t, err, ErrNoFloor)
}

func TestObjectivesArePlacedOnFreeTiles(t *testing.T) {
	for alg, g := range generated(t) {
		for _, typ := range mission.AllTypes() {
			spec := mission.Design(typ, 1, g.Width, g.Height)
			out, report, err := NewProcessor(DefaultConfig(), 21).Apply(g.Clone(), spec)
			require.NoError(t, err)

			assert.Equal(t, spec.ObjectiveCount(), report.ObjectivesRequested, "%s/%s", alg, typ)
			assert.Positive(t, report.Objectives, "%s/%s", alg, typ)
			assert.LessOrEqual(t, report.Objectives, report.ObjectivesRequested)
			require.Len(t, out.Objectives, report.Objectives)

			start := startPoint(g)
			seen := map[grid.Point]bool{}
			for _, o := range out.Objectives {
				assert.False(t, seen[o.At], "%s/%s: two objectives on %v", alg, typ, o.At)
				seen[o.At] = true
				assert.NotEqual(t, start, o.At)
				assert.Equal(t, grid.TileMarker, out.At(o.At.X, o.At.Y))
				if o.Room >= 0 {
					room, ok := out.Room(o.Room)
					require.True(t, ok)
					assert.True(t, room.Contains(o.At))
				}
			}
			assert.True(t, out.IsConnected(), "%s/%s", alg, typ)
		}
	}
}

func TestObjectivePlacementRules(t *testing.T) {
	g := generated(t)[params.RandomRooms]
	spec := mission.Spec{
		Type: mission.Exploration,
		Objectives: []mission.Objective{
			{Kind: mission.ObjectiveBoss, Placement: mission.PlaceEndOfLongestPath, Count: 1},
			{Kind: mission.ObjectivePuzzle, Placement: mission.PlaceCentralRoom, Count: 1},
			{Kind: mission.ObjectiveKey, Placement: mission.PlaceHidden, Count: 1},
			{Kind: mission.ObjectiveSafeRoom, Placement: mission.PlaceCheckpoint, Count: 1},
		},
	}
	out, report, err := NewProcessor(DefaultConfig(), 13).Apply(g.Clone(), spec)
	require.NoError(t, err)
	require.Equal(t, 4, report.Objectives)

	byKind := map[string]grid.Objective{}
	for _, o := range out.Objectives {
		byKind[o.Kind] = o
	}

	start := startPoint(g)
	dist := out.Distances(start)
	boss := byKind["boss"]
	for i, d := range dist {
		p := grid.Point{X: i % out.Width, Y: i / out.Width}
		if out.At(p.X, p.Y) == grid.TileFloor {
			assert.LessOrEqual(t, d, out.DistanceAt(dist, boss.At), "floor at %v lies beyond the boss", p)
		}
	}

	largest := 0
	for _, r := range out.Rooms {
		largest = max(largest, r.Area())
	}
	puzzle := byKind["puzzle"]
	require.GreaterOrEqual(t, puzzle.Room, 0)
	room, _ := out.Room(puzzle.Room)
	assert.Equal(t, largest, room.Area())

	key := byKind["key"]
	assert.GreaterOrEqual(t, key.Room, 0)
	assert.GreaterOrEqual(t, 4-out.WalkableNeighbors(key.At), 2, "hidden objective must sit against walls")

	maxDist := 0
	for _, d := range dist {
		maxDist = max(maxDist, d)
	}
	safe := byKind["safe_room"]
	assert.InDelta(t, maxDist/2, out.DistanceAt(dist, safe.At), 4)
}

func TestObjectivesReportShortfall(t *testing.T) {
	g := grid.New(12, 12)
	g.CarveRect(grid.NewRect(2, 2, 3, 3))
	spec := mission.Spec{
		Type:       mission.TreasureHunt,
		Objectives: []mission.Objective{{Kind: mission.ObjectiveTreasure, Placement: mission.PlaceDeadEnd, Count: 3}},
	}
	out, report, err := NewProcessor(DefaultConfig(), 1).Apply(g, spec)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ObjectivesRequested)
	assert.Less(t, report.Objectives, 3)
	assert.Len(t, out.Objectives, report.Objectives)
}
