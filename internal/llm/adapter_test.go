package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// scriptedClient answers the algorithm prompt and the detail prompt with
// fixed replies.
type scriptedClient struct {
	mu        sync.Mutex
	algorithm string
	details   string
	err       error
	block     bool
	requests  []ChatRequest
}

func (c *scriptedClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	n := len(c.requests)
	c.mu.Unlock()

	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if c.err != nil {
		return "", c.err
	}
	if n == 1 && c.algorithm != "" {
		return c.algorithm, nil
	}
	return c.details, nil
}

const bossDetails = `{
  "parameters": {"min_rooms": 5, "split_depth": 5},
  "mission": {"mission_type": "boss_fight", "intensity": 0.8, "description": "the dragon waits"}
}`

func TestInferBossMission(t *testing.T) {
	client := &scriptedClient{details: bossDetails}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{
		Text:            "dark ancient dragon's lair",
		PreferAlgorithm: params.GraphRooms,
	})
	require.NoError(t, err)

	assert.Equal(t, params.GraphRooms, inf.Algorithm)
	assert.Equal(t, params.GraphRooms, inf.Params.Algorithm())
	assert.Equal(t, 5, inf.Params.Int("split_depth"))
	assert.Equal(t, mission.BossFight, inf.Mission.Type)
	assert.InDelta(t, 0.8, inf.Mission.Intensity, 1e-9)
	_, hasArena := inf.Mission.Arena()
	assert.True(t, hasArena)
	assert.Equal(t, "the dragon waits", inf.Mission.Description)

	// A preferred algorithm skips the algorithm prompt.
	require.Len(t, client.requests, 1)
	assert.Equal(t, DefaultModel, client.requests[0].Model)
	assert.NotEmpty(t, client.requests[0].Schema)
}

func TestInferClampsOutOfSchemaValues(t *testing.T) {
	client := &scriptedClient{
		algorithm: `{"chosen_algorithm": "random_room_placement", "reason": "classic"}`,
		details: `{"parameters": {
			"max_rooms": 999,
			"room_size_min": "6 tiles",
			"corridor_style": "spiral",
			"corridor_width": "wide",
			"map_width": -3
		}, "mission": {"mission_type": "treasure_hunt", "intensity": "2"}}`,
	}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{Text: "an old dungeon"})
	require.NoError(t, err)

	require.Equal(t, params.RandomRooms, inf.Algorithm)
	assert.Equal(t, 25, inf.Params.Int("max_rooms"))
	assert.Equal(t, 6, inf.Params.Int("room_size_min"))
	assert.Equal(t, "l_shaped", inf.Params.String("corridor_style"))
	assert.Equal(t, 1, inf.Params.Int("corridor_width"), "unreadable value falls back to the default")
	assert.Equal(t, 40, inf.Params.Int("map_width"))
	assert.Contains(t, inf.Params.Clamped(), "max_rooms")

	assert.Equal(t, mission.TreasureHunt, inf.Mission.Type)
	assert.InDelta(t, 1.0, inf.Mission.Intensity, 1e-9)
	assert.Positive(t, inf.Mission.Count(mission.AddTreasureRoom))
}

func TestInferToleratesFencesAndProse(t *testing.T) {
	client := &scriptedClient{
		algorithm: "Sure! Here is my pick:\n```json\n{\"chosen_algorithm\": \"cellular_automata\", \"reason\": \"caves {are} natural\"}\n```",
		details:   "```\n{\"mission\": {\"mission_type\": \"exploration\", \"intensity\": 0.3}, \"extra\": true}\n```\nEnjoy!",
	}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{Text: "a damp natural cavern"})
	require.NoError(t, err)

	assert.Equal(t, params.CellularAutomata, inf.Algorithm)
	assert.Equal(t, "caves {are} natural", inf.Reason)
	assert.Equal(t, mission.Exploration, inf.Mission.Type)
	defaults, err := params.Defaults(params.CellularAutomata)
	require.NoError(t, err)
	assert.Equal(t, defaults.Values(), inf.Params.Values())
}

func TestInferSanitizesDirectives(t *testing.T) {
	client := &scriptedClient{details: `{"mission": {
		"mission_type": "treasure",
		"intensity": 0.5,
		"directives": [
			{"kind": "add_treasure_room", "count": "99"},
			{"kind": "add_arena", "width": 12, "height": 9},
			{"kind": "summon_dragon"}
		]}}`}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{
		Text:            "a hoard of gold",
		PreferAlgorithm: params.RandomRooms,
	})
	require.NoError(t, err)

	assert.Equal(t, mission.TreasureHunt, inf.Mission.Type)
	assert.Equal(t, mission.MaxTreasureRooms, inf.Mission.Count(mission.AddTreasureRoom))
	_, hasArena := inf.Mission.Arena()
	assert.False(t, hasArena, "arenas belong to boss fights only")
}

func TestInferReadsObjectives(t *testing.T) {
	client := &scriptedClient{details: `{"mission": {
		"mission_type": "treasure_hunt",
		"intensity": 0.4,
		"objectives": [
			{"objective_type": "treasure", "placement_rule": "dead_end", "count": 3, "description": "gold"},
			{"objective_type": "key", "placement_rule": "behind_the_waterfall", "count": 40},
			{"objective_type": "add_checkpoints", "count": 2},
			{"objective_type": "unicorn", "placement_rule": "hidden"}
		]}}`}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{
		Text:            "a smugglers' vault",
		PreferAlgorithm: params.RandomRooms,
	})
	require.NoError(t, err)

	objs := inf.Mission.Objectives
	require.Len(t, objs, 2)
	assert.Equal(t, mission.Objective{Kind: mission.ObjectiveTreasure, Placement: mission.PlaceDeadEnd, Count: 3, Description: "gold"}, objs[0])
	assert.Equal(t, mission.ObjectiveKey, objs[1].Kind)
	assert.Equal(t, mission.PlaceHidden, objs[1].Placement, "unknown rule falls back to the kind's default")
	assert.Equal(t, mission.MaxObjectiveCount, objs[1].Count)

	assert.Equal(t, 2, inf.Mission.Count(mission.AddCheckpoints), "directive kinds in the objective list are directives")
}

func TestInferDefaultsObjectives(t *testing.T) {
	client := &scriptedClient{details: bossDetails}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{
		Text:            "dark ancient dragon's lair",
		PreferAlgorithm: params.GraphRooms,
	})
	require.NoError(t, err)
	assert.Equal(t, mission.DefaultObjectives(mission.BossFight, 0.8), inf.Mission.Objectives)
}

func TestInferObjectivesShapeGeometry(t *testing.T) {
	client := &scriptedClient{details: `{"mission": {
		"mission_type": "exploration",
		"objectives": [{"objective_type": "treasure", "placement_rule": "dead_end", "count": 4}]
	}}`}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{
		Text:            "winding tunnels",
		PreferAlgorithm: params.Maze,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, inf.Mission.Count(mission.AddBranches), "dead-end objectives ask for branches")
}

func TestInferFailures(t *testing.T) {
	cases := []struct {
		name   string
		client *scriptedClient
	}{
		{"unreachable", &scriptedClient{err: errors.New("connection refused")}},
		{"malformed algorithm reply", &scriptedClient{algorithm: "I think a cave would be nice", details: "{}"}},
		{"malformed detail reply", &scriptedClient{algorithm: `{"chosen_algorithm": "maze"}`, details: `{"parameters": {`}},
		{"empty reply", &scriptedClient{algorithm: " ", details: " "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAdapter(tc.client, Options{}).Infer(context.Background(), Request{Text: "a maze"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInferenceFailure)
			var inferr *InferenceError
			assert.True(t, errors.As(err, &inferr))
		})
	}
}

func TestInferTimesOut(t *testing.T) {
	client := &scriptedClient{block: true}
	start := time.Now()
	_, err := NewAdapter(client, Options{Timeout: 30 * time.Millisecond}).Infer(context.Background(), Request{Text: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInferenceFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestKeywordHintWinsOverUnknownAnswer(t *testing.T) {
	client := &scriptedClient{
		algorithm: `{"chosen_algorithm": "spaceship", "reason": "?"}`,
		details:   `{"mission": {"mission_type": "exploration", "intensity": 0.5}}`,
	}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{Text: "a natural grotto"})
	require.NoError(t, err)
	assert.Equal(t, params.CellularAutomata, inf.Algorithm)
	assert.Contains(t, client.requests[0].Messages[0].Content, "suggest cellular_automata")
}

func TestBossRequestsNeverGetMaze(t *testing.T) {
	client := &scriptedClient{
		algorithm: `{"chosen_algorithm": "maze", "reason": "twisty"}`,
		details:   bossDetails,
	}
	inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{Text: "a twisting maze around the dragon lair"})
	require.NoError(t, err)
	assert.NotEqual(t, params.Maze, inf.Algorithm)
	assert.Equal(t, mission.BossFight, inf.Mission.Type)
}

func TestGenericPromptsAreBalanced(t *testing.T) {
	adjectives := []string{"quiet", "strange", "forgotten", "cold", "bright", "small", "vast", "lonely", "busy", "hidden"}
	nouns := []string{"place", "level", "area", "map", "location", "adventure", "spot", "region", "zone", "world"}

	counts := map[params.Algorithm]int{}
	total := 0
	for _, adj := range adjectives {
		for _, noun := range nouns {
			client := &scriptedClient{
				algorithm: `{"chosen_algorithm": "hybrid_rooms_caves", "reason": "always"}`,
				details:   `{"mission": {"mission_type": "exploration", "intensity": 0.5}}`,
			}
			inf, err := NewAdapter(client, Options{}).Infer(context.Background(), Request{Text: fmt.Sprintf("a %s %s", adj, noun)})
			require.NoError(t, err)
			counts[inf.Algorithm]++
			total++
		}
	}

	assert.GreaterOrEqual(t, len(counts), 4, "distribution: %v", counts)
	for alg, n := range counts {
		assert.Less(t, float64(n)/float64(total), 0.6, "%s dominates: %v", alg, counts)
	}
}

func TestKeywordInferer(t *testing.T) {
	inf, err := KeywordInferer{}.Infer(context.Background(), Request{Text: "the military fortress vault"})
	require.NoError(t, err)
	assert.Equal(t, params.GraphRooms, inf.Algorithm)
	assert.Equal(t, mission.TreasureHunt, inf.Mission.Type)
	assert.False(t, inf.Params.IsZero())

	_, err = KeywordInferer{}.Infer(context.Background(), Request{Text: "x", PreferAlgorithm: "nope"})
	assert.ErrorIs(t, err, ErrInferenceFailure)
}

func TestOllamaClientChat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "{\"ok\": true}"}, "done": true}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL+"/", time.Second)
	reply, err := client.Chat(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Schema:   algorithmSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, reply)
	assert.Equal(t, "test-model", got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, string(got.Format), "chosen_algorithm")
}

func TestOllamaClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "empty":
			_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": ""}, "done": true}`))
		default:
			http.Error(w, "model not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL, time.Second).Chat(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(404)")

	_, err = NewOllamaClient(srv.URL, time.Second).Chat(context.Background(), ChatRequest{})
	assert.Error(t, err, "model is required")

	client := &OllamaClient{client: &http.Client{Timeout: time.Second}, endpoint: srv.URL + "/api/chat?case=empty"}
	_, err = client.Chat(context.Background(), ChatRequest{Model: "m"})
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	body, ok := extractObject(`noise {"a": "}", "b": {"c": 1}} trailing {"x": 2}`)
	require.True(t, ok)
	assert.Equal(t, `{"a": "}", "b": {"c": 1}}`, body)

	_, ok = extractObject("no braces here")
	assert.False(t, ok)

	for in, want := range map[any]string{
		"0.5":      "0.5",
		"12 rooms": "12",
		"+3":       "3",
		".25":      ".25",
		7:          "7",
		2.5:        "2.5",
	} {
		n, ok := number(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, n.String(), in)
	}
	for _, in := range []any{"many", true, nil, []any{1}} {
		_, ok := number(in)
		assert.False(t, ok, in)
	}

	assert.Equal(t, []string{"dark", "ancient", "dragon", "lair"}, words("Dark, ancient DRAGON'S lair!"))
}
