package params

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input string
		want  Algorithm
		ok    bool
	}{
		{"bsp", GraphRooms, true},
		{"Cellular Automata", CellularAutomata, true},
		{"drunkards_walk", Maze, true},
		{"cellular_rooms", HybridRoomsCaves, true},
		{"hybrid-rooms-maze", HybridRoomsMaze, true},
		{"wave_function_collapse", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAlgorithm(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEveryAlgorithmHasSchema(t *testing.T) {
	for _, alg := range AllAlgorithms() {
		specs, ok := Specs(alg)
		require.True(t, ok, "missing schema for %s", alg)
		assert.NotEmpty(t, specs)

		set, err := Defaults(alg)
		require.NoError(t, err)
		assert.Empty(t, set.Clamped(), "defaults of %s must already be in range", alg)
		for _, s := range specs {
			assert.Contains(t, set.Values(), s.Name)
		}
	}
}

func TestValidateClampsOutOfRange(t *testing.T) {
	set, err := Validate(RandomRooms, map[string]any{
		"max_rooms":     500,
		"room_size_min": -3,
		"map_width":     12.6,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, set.Int("max_rooms"))
	assert.Equal(t, 4, set.Int("room_size_min"))
	assert.Equal(t, 40, set.Int("map_width"))
	assert.ElementsMatch(t, []string{"max_rooms", "room_size_min", "map_width"}, set.Clamped())
}

func TestValidateFillsDefaultsAndIgnoresUnknown(t *testing.T) {
	set, err := Validate(CellularAutomata, map[string]any{
		"iterations":  5,
		"dragon_mood": "grumpy",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, set.Int("iterations"))
	assert.InDelta(t, 0.48, set.Float("initial_wall_probability"), 1e-9)
	assert.NotContains(t, set.Values(), "dragon_mood")
}

func TestValidateTypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"string for int", map[string]any{"max_rooms": "twelve"}},
		{"numeric string", map[string]any{"max_rooms": "12"}},
		{"bool for float", map[string]any{"looping": true}},
		{"number for enum", map[string]any{"corridor_style": 3}},
		{"nil value", map[string]any{"map_width": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg := RandomRooms
			if _, ok := tt.raw["looping"]; ok {
				alg = Maze
			}
			set, err := Validate(alg, tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTypeMismatch))
			assert.True(t, set.IsZero(), "no partial set on error")

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, alg, ve.Algorithm)
		})
	}
}

func TestValidateUnknownAlgorithm(t *testing.T) {
	_, err := Validate("wave_function_collapse", nil)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestValidateEnum(t *testing.T) {
	set, err := Validate(GraphRooms, map[string]any{"corridor_style": " Z_Shaped "})
	require.NoError(t, err)
	assert.Equal(t, "z_shaped", set.String("corridor_style"))

	set, err = Validate(GraphRooms, map[string]any{"corridor_style": "spiral"})
	require.NoError(t, err)
	assert.Equal(t, "l_shaped", set.String("corridor_style"))
	assert.Contains(t, set.Clamped(), "corridor_style")
}

func TestValidateJSONNumbers(t *testing.T) {
	set, err := Validate(Maze, map[string]any{
		"looping":   json.Number("0.75"),
		"map_width": json.Number("61"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, set.Float("looping"), 1e-9)
	assert.Equal(t, 61, set.Int("map_width"))
}

func TestValidateRepairsRoomSizes(t *testing.T) {
	set, err := Validate(HybridRoomsMaze, map[string]any{
		"room_size_min": 10,
		"room_size_max": 6,
		"min_rooms":     10,
		"max_rooms":     8,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, set.Int("room_size_max"), set.Int("room_size_min"))
	assert.LessOrEqual(t, set.Int("min_rooms"), set.Int("max_rooms"))
}

func TestValidatedSetsAlwaysInRange(t *testing.T) {
	inputs := []any{-1e9, -1, 0, 0.5, 3, 7.7, 42, 1e9}
	for _, alg := range AllAlgorithms() {
		specs, _ := Specs(alg)
		for _, in := range inputs {
			raw := map[string]any{}
			for _, s := range specs {
				if s.Kind != KindEnum {
					raw[s.Name] = in
				}
			}
			set, err := Validate(alg, raw)
			require.NoError(t, err)
			for _, s := range specs {
				if s.Kind == KindEnum {
					assert.Contains(t, s.Choices, set.String(s.Name))
					continue
				}
				v := set.Float(s.Name)
				assert.GreaterOrEqual(t, v, s.Min, "%s.%s", alg, s.Name)
				assert.LessOrEqual(t, v, s.Max, "%s.%s", alg, s.Name)
			}
		}
	}
}

func TestAdjustRevalidates(t *testing.T) {
	base, err := Defaults(RandomRooms)
	require.NoError(t, err)

	adjusted, err := Adjust(base, map[string]any{"max_rooms": base.Int("max_rooms") + 40})
	require.NoError(t, err)
	assert.Equal(t, 25, adjusted.Int("max_rooms"))
	assert.Equal(t, 15, base.Int("max_rooms"), "original set must not change")
}

func TestValidateCapsMinRoomsToCapacity(t *testing.T) {
	set, err := Validate(GraphRooms, map[string]any{"split_depth": 2, "min_rooms": 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, set.Int("min_rooms"), 4, "two splits make at most four leaves")
	assert.Contains(t, set.Clamped(), "min_rooms")

	set, err = Validate(RandomRooms, map[string]any{
		"map_width": 40, "map_height": 30, "room_size_min": 10, "min_rooms": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, RoomCapacity(40, 30, 10), set.Int("min_rooms"))
	assert.Equal(t, 6, set.Int("min_rooms"))

	set, err = Validate(HybridRoomsMaze, map[string]any{
		"map_width": 40, "map_height": 30, "room_size_min": 10, "min_rooms": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, set.Int("room_size_max"))
	assert.Equal(t, RoomCapacity(40, 30, 11), set.Int("min_rooms"))
	assert.ElementsMatch(t, []string{"room_size_max", "min_rooms"}, set.Clamped())
}

func TestValidateGivesOddRoomsARange(t *testing.T) {
	set, err := Validate(HybridRoomsMaze, map[string]any{"room_size_min": 8, "room_size_max": 8})
	require.NoError(t, err)
	assert.Equal(t, 9, set.Int("room_size_max"))

	set, err = Validate(RandomRooms, map[string]any{"room_size_min": 8, "room_size_max": 8})
	require.NoError(t, err)
	assert.Equal(t, 8, set.Int("room_size_max"))
}

func TestGuaranteedPartitions(t *testing.T) {
	assert.Equal(t, 1, GuaranteedPartitions(38, 28, 0, 8))
	assert.Equal(t, 1, GuaranteedPartitions(10, 10, 4, 6), "too small to split")
	assert.Equal(t, 2, GuaranteedPartitions(12, 6, 3, 6), "one split leaves two 6x6 halves")
	assert.LessOrEqual(t, GuaranteedPartitions(38, 28, 2, 6), 4)
	assert.GreaterOrEqual(t, GuaranteedPartitions(38, 28, 2, 6), 2)
	assert.Equal(t, GuaranteedPartitions(58, 38, 4, 8), GuaranteedPartitions(58, 38, 4, 8))
}

func TestRoomCapacity(t *testing.T) {
	assert.Equal(t, 6, RoomCapacity(40, 30, 10))
	assert.Equal(t, 20, RoomCapacity(40, 30, 6))
	assert.Equal(t, 0, RoomCapacity(40, 30, 0))
}
