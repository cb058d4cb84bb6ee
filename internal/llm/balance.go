package llm

import (
	"encoding/binary"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
)

type keywordGroup[T comparable] struct {
	value T
	words []string
}

// layoutKeywords maps description words to the algorithm they suggest.
// Earlier groups win ties.
var layoutKeywords = []keywordGroup[params.Algorithm]{
	{params.Maze, []string{"maze", "labyrinth", "twisting", "winding", "cramped"}},
	{params.CellularAutomata, []string{"cave", "caves", "cavern", "caverns", "natural", "grotto", "underground", "organic"}},
	{params.GraphRooms, []string{"fortress", "military", "castle", "organized", "barracks", "keep", "stronghold"}},
	{params.HybridRoomsMaze, []string{"catacomb", "catacombs", "sewer", "sewers", "warren", "crypts"}},
	{params.HybridRoomsCaves, []string{"citadel", "ruins", "ruined", "mixed", "variety", "chambers", "arena", "pit"}},
	{params.RandomRooms, []string{"dungeon", "temple", "tomb", "structured", "halls"}},
}

var missionKeywords = []keywordGroup[mission.Type]{
	{mission.BossFight, []string{"boss", "lair", "dragon", "throne", "lich", "demon", "arena"}},
	{mission.TreasureHunt, []string{"treasure", "loot", "gold", "hoard", "vault", "key", "keys"}},
	{mission.Escape, []string{"escape", "flee", "survive", "survival", "collapse", "crumbling", "flood"}},
	{mission.Exploration, []string{"explore", "exploration", "discover", "secrets", "sprawling", "wander"}},
}

// words splits text into lowercase words, dropping possessives.
func words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimSuffix(strings.Trim(f, "'"), "'s")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func match[T comparable](groups []keywordGroup[T], text string) (T, bool) {
	hits := make([]int, len(groups))
	for _, w := range words(text) {
		for i, g := range groups {
			for _, k := range g.words {
				if w == k {
					hits[i]++
				}
			}
		}
	}
	best := -1
	for i, n := range hits {
		if n > 0 && (best < 0 || n > hits[best]) {
			best = i
		}
	}
	if best < 0 {
		var zero T
		return zero, false
	}
	return groups[best].value, true
}

// KeywordAlgorithm returns the algorithm suggested by layout keywords in
// text.
func KeywordAlgorithm(text string) (params.Algorithm, bool) {
	return match(layoutKeywords, text)
}

// KeywordMission returns the mission suggested by keywords in text.
func KeywordMission(text string) (mission.Type, bool) {
	return match(missionKeywords, text)
}

// isBossRequest reports whether text asks for a boss encounter.
func isBossRequest(text string) bool {
	t, ok := KeywordMission(text)
	return ok && t == mission.BossFight
}

// HashAlgorithm picks an algorithm from a hash of the normalized text, so
// a generic description always maps to the same algorithm while different
// descriptions spread evenly over all of them.
func HashAlgorithm(text string) params.Algorithm {
	sum := blake2b.Sum256([]byte(strings.Join(words(text), " ")))
	all := params.AllAlgorithms()
	return all[binary.BigEndian.Uint64(sum[:8])%uint64(len(all))]
}

// balance settles the final algorithm. A keyword hint is trusted over a
// missing or unknown model answer; without any keyword the model's answer
// is replaced by the hash pick. Boss requests never get a maze.
func balance(text string, chosen params.Algorithm, chosenOK bool) params.Algorithm {
	hint, hasHint := KeywordAlgorithm(text)
	var alg params.Algorithm
	switch {
	case !hasHint:
		alg = HashAlgorithm(text)
	case chosenOK:
		alg = chosen
	default:
		alg = hint
	}
	if alg == params.Maze && isBossRequest(text) {
		alg = params.RandomRooms
	}
	return alg
}
