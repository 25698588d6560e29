package cli

import "strings"

// suggestClosest picks the choice the user most likely meant. A unique
// prefix match wins outright ("del" for delete); otherwise the nearest
// choice by edit distance is returned when it is close enough.
func suggestClosest(input string, choices []string) string {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" || len(choices) == 0 {
		return ""
	}
	var prefixed []string
	for _, c := range choices {
		cn := strings.ToLower(c)
		if cn == input {
			return c
		}
		if strings.HasPrefix(cn, input) {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0]
	}

	best, bestDist := "", len(input)+1
	for _, c := range choices {
		if d := levenshtein(input, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist <= typoBudget(input) {
		return best
	}
	return ""
}

// typoBudget is how many edits still count as a typo of input.
func typoBudget(input string) int {
	if len(input) >= 8 {
		return 3
	}
	return 2
}

// levenshtein is the edit distance between two byte strings, computed with
// a single rolling row.
func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			diag = row[j]
			row[j] = min(row[j]+1, row[j-1]+1, sub)
		}
	}
	return row[len(b)]
}
