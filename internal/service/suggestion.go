package service

import "math/rand"

const (
	suggestionCount    = 3
	maxShuffleAttempts = 10
)

// NextSuggestions returns up to three questions drawn uniformly from the
// pool. When the draw comes out identical to the previous one (as an ordered
// sequence) it reshuffles, giving up after a bounded number of attempts so
// tiny pools cannot spin forever.
func NextSuggestions(all []string, previous []string) []string {
	if len(all) == 0 {
		return nil
	}

	count := suggestionCount
	if len(all) < count {
		count = len(all)
	}

	next := drawSuggestions(all, count)
	for attempt := 0; attempt < maxShuffleAttempts && equalSequences(next, previous); attempt++ {
		next = drawSuggestions(all, count)
	}

	return next
}

func drawSuggestions(all []string, count int) []string {
	shuffled := make([]string, len(all))
	copy(shuffled, all)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}

func equalSequences(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
