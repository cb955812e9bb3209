package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func questionPool(size int) []string {
	pool := make([]string, size)
	for i := range pool {
		pool[i] = fmt.Sprintf("Question %d?", i)
	}
	return pool
}

func TestNextSuggestionsReturnsThreeFromPool(t *testing.T) {
	pool := questionPool(10)

	suggestions := NextSuggestions(pool, nil)
	require.Len(t, suggestions, 3)

	seen := make(map[string]struct{})
	for _, suggestion := range suggestions {
		require.Contains(t, pool, suggestion)
		_, duplicate := seen[suggestion]
		require.False(t, duplicate, "suggestions must not repeat within one draw")
		seen[suggestion] = struct{}{}
	}
}

func TestNextSuggestionsSmallPoolReturnsEverything(t *testing.T) {
	pool := questionPool(2)

	suggestions := NextSuggestions(pool, nil)
	require.Len(t, suggestions, 2)
	require.ElementsMatch(t, pool, suggestions)
}

func TestNextSuggestionsEmptyPool(t *testing.T) {
	require.Nil(t, NextSuggestions(nil, nil))
}

func TestNextSuggestionsAvoidsImmediateRepeat(t *testing.T) {
	pool := questionPool(6)

	const trials = 200
	repeats := 0
	previous := NextSuggestions(pool, nil)
	for i := 0; i < trials; i++ {
		next := NextSuggestions(pool, previous)
		if equalSequences(next, previous) {
			repeats++
		}
		previous = next
	}

	// With a pool of six there are 120 ordered triples; after a reshuffle
	// retry the repeat rate should be far below 5%.
	require.LessOrEqual(t, repeats, trials/20)
}

func TestNextSuggestionsDegeneratePoolTerminates(t *testing.T) {
	pool := questionPool(1)

	previous := []string{pool[0]}
	// Only one possible draw exists; the retry cap must let it through.
	require.Equal(t, previous, NextSuggestions(pool, previous))
}
