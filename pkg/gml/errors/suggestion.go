package errors

import (
	"fmt"
	"strings"
)

// SuggestKey proposes the closest known key for an unknown one, or lists
// the valid keys when nothing is close.
func SuggestKey(unknown string, valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	best := ""
	bestDist := len(unknown) + 1
	for _, v := range valid {
		if d := editDistance(unknown, v); d < bestDist {
			bestDist = d
			best = v
		}
	}
	if bestDist <= 2 {
		return fmt.Sprintf("did you mean %q?", best)
	}
	return fmt.Sprintf("valid keys: %s", strings.Join(valid, ", "))
}

// SuggestMissingField proposes adding a required field.
func SuggestMissingField(field, example string) string {
	if example != "" {
		return fmt.Sprintf("add '%s: %s'", field, example)
	}
	return fmt.Sprintf("add a '%s' field", field)
}

// editDistance is the Levenshtein distance between two keys.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
