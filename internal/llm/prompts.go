package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
)

var algorithmGuide = []struct {
	alg  params.Algorithm
	text string
}{
	{params.RandomRooms, "rectangular rooms joined by corridors. Best for: dungeon, temple, tomb, structured"},
	{params.GraphRooms, "hierarchical, organized rooms. Best for: fortress, military, castle, barracks"},
	{params.CellularAutomata, "organic flowing caves. Best for: cave, natural, grotto, underground"},
	{params.Maze, "winding narrow passages. Best for: maze, cramped, twisting. NOT for: boss, lair, arena"},
	{params.HybridRoomsCaves, "built rooms set into caves. Best for: citadel, ruins, mixed, chambers"},
	{params.HybridRoomsMaze, "rooms linked by maze corridors. Best for: catacombs, sewers, warrens"},
}

// algorithmPrompt asks the model to pick one algorithm. hint is the
// keyword match for the text, if any.
func algorithmPrompt(text string, hint params.Algorithm) string {
	var b strings.Builder
	b.WriteString("You are a roguelike level designer. Analyze this request and choose the BEST layout algorithm.\n\n")
	fmt.Fprintf(&b, "USER REQUEST: %q\n\nAVAILABLE ALGORITHMS:\n", text)
	for i, g := range algorithmGuide {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, g.alg, g.text)
	}
	b.WriteString("\nRULES:\n")
	b.WriteString("- Match exact keywords to algorithms (maze -> maze, cave -> cellular_automata, fortress -> bsp).\n")
	b.WriteString("- For boss, lair or dragon requests never choose maze.\n")
	if hint != "" {
		fmt.Fprintf(&b, "- The request mentions keywords that suggest %s.\n", hint)
	}
	b.WriteString("\nChoose ONE algorithm and explain why in 1-2 sentences.")
	return b.String()
}

// detailPrompt asks for parameters and a mission for the chosen algorithm.
func detailPrompt(text string, alg params.Algorithm) string {
	var b strings.Builder
	b.WriteString("You are a roguelike level designer. The user described a setting.\n")
	b.WriteString("Invent a mission that fits it, then choose layout parameters.\n\n")
	fmt.Fprintf(&b, "SETTING: %q\nALGORITHM: %s\n\n", text, alg)

	b.WriteString("MISSION TYPES:\n")
	b.WriteString("- boss_fight: a clear path to a climactic arena (dragon's lair, throne room)\n")
	b.WriteString("- treasure_hunt: loot hidden in side passages (guarded vault, hoard)\n")
	b.WriteString("- escape: safe rooms along the way out (crumbling ruins, flood)\n")
	b.WriteString("- exploration: secrets scattered everywhere (sprawling caves, catacombs)\n")
	b.WriteString("Intensity goes from 0.0 (calm) to 1.0 (extreme).\n\n")

	b.WriteString("DIRECTIVES (optional, the designer fills them in when omitted):\n")
	b.WriteString("- add_arena with width and height (boss_fight only)\n")
	b.WriteString("- add_checkpoints, add_branches, add_treasure_room with count\n\n")

	b.WriteString("OBJECTIVES (1 to 6, each with count 1 to 5):\n")
	fmt.Fprintf(&b, "- objective_type: %s\n", joinNames(mission.AllObjectiveKinds()))
	fmt.Fprintf(&b, "- placement_rule: %s\n", joinNames(mission.AllPlacementRules()))
	b.WriteString("- description: one short sentence\n\n")

	b.WriteString("PARAMETERS:\n")
	specs, _ := params.Specs(alg)
	for _, s := range specs {
		switch s.Kind {
		case params.KindEnum:
			fmt.Fprintf(&b, "- %s: one of %s (default %v). %s\n", s.Name, strings.Join(s.Choices, ", "), s.Default, s.Description)
		default:
			fmt.Fprintf(&b, "- %s: %v to %v (default %v). %s\n", s.Name, s.Min, s.Max, s.Default, s.Description)
		}
	}
	b.WriteString("\nReturn ONLY valid JSON matching the schema.")
	return b.String()
}

func algorithmSchema() json.RawMessage {
	names := make([]string, 0, len(algorithmGuide))
	for _, g := range algorithmGuide {
		names = append(names, string(g.alg))
	}
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"chosen_algorithm": map[string]any{"type": "string", "enum": names},
			"reason":           map[string]any{"type": "string"},
		},
		"required": []string{"chosen_algorithm", "reason"},
	})
}

func detailSchema(alg params.Algorithm) json.RawMessage {
	props := map[string]any{}
	specs, _ := params.Specs(alg)
	for _, s := range specs {
		switch s.Kind {
		case params.KindInt:
			props[s.Name] = map[string]any{"type": "integer", "minimum": s.Min, "maximum": s.Max}
		case params.KindFloat:
			props[s.Name] = map[string]any{"type": "number", "minimum": s.Min, "maximum": s.Max}
		case params.KindEnum:
			props[s.Name] = map[string]any{"type": "string", "enum": s.Choices}
		}
	}

	types := make([]string, 0, 4)
	for _, t := range mission.AllTypes() {
		types = append(types, string(t))
	}
	kinds := []string{
		string(mission.AddArena), string(mission.AddCheckpoints),
		string(mission.AddBranches), string(mission.AddTreasureRoom),
	}

	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"parameters": map[string]any{"type": "object", "properties": props},
			"mission": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mission_type": map[string]any{"type": "string", "enum": types},
					"intensity":    map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"description":  map[string]any{"type": "string"},
					"directives": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"kind":   map[string]any{"type": "string", "enum": kinds},
								"count":  map[string]any{"type": "integer"},
								"width":  map[string]any{"type": "integer"},
								"height": map[string]any{"type": "integer"},
							},
							"required": []string{"kind"},
						},
					},
					"objectives": map[string]any{
						"type":     "array",
						"maxItems": mission.MaxObjectives,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"objective_type": map[string]any{"type": "string", "enum": names(mission.AllObjectiveKinds())},
								"placement_rule": map[string]any{"type": "string", "enum": names(mission.AllPlacementRules())},
								"count":          map[string]any{"type": "integer", "minimum": 1, "maximum": mission.MaxObjectiveCount},
								"description":    map[string]any{"type": "string"},
							},
							"required": []string{"objective_type", "placement_rule"},
						},
					},
				},
				"required": []string{"mission_type", "intensity"},
			},
		},
		"required": []string{"parameters", "mission"},
	})
}

func joinNames[T ~string](values []T) string {
	return strings.Join(names(values), ", ")
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func mustSchema(v map[string]any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
