package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Similarity scores two names 0-100 as the best of three complementary metrics:
// character-level ratio, token-order-insensitive ratio and token-subset-insensitive ratio.
func Similarity(a, b string) int {
	return max(Ratio(a, b), TokenSortRatio(a, b), TokenSetRatio(a, b))
}

// Ratio is the normalized indel similarity of two strings, 0-100.
// Empty input on either side scores 0.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	r1 := []rune(a)
	r2 := []rune(b)
	total := len(r1) + len(r2)
	dist := indelDistance(r1, r2)
	return int(math.Round(float64(total-dist) / float64(total) * 100))
}

// TokenSortRatio compares the strings after sorting their tokens
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the shared tokens against each side's remainder,
// so a name that is a token subset of the other scores 100.
func TokenSetRatio(a, b string) int {
	p1 := processForTokens(a)
	p2 := processForTokens(b)
	if p1 == "" || p2 == "" {
		return 0
	}

	set1 := tokenSet(p1)
	set2 := tokenSet(p2)

	var intersection, diff1, diff2 []string
	for t := range set1 {
		if set2[t] {
			intersection = append(intersection, t)
		} else {
			diff1 = append(diff1, t)
		}
	}
	for t := range set2 {
		if !set1[t] {
			diff2 = append(diff2, t)
		}
	}
	sort.Strings(intersection)
	sort.Strings(diff1)
	sort.Strings(diff2)

	sect := strings.Join(intersection, " ")
	combined1 := strings.TrimSpace(sect + " " + strings.Join(diff1, " "))
	combined2 := strings.TrimSpace(sect + " " + strings.Join(diff2, " "))

	return max(
		Ratio(sect, combined1),
		Ratio(sect, combined2),
		Ratio(combined1, combined2),
	)
}

// processForTokens lowercases and replaces everything but letters and digits with spaces
func processForTokens(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(processForTokens(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// indelDistance is the edit distance where a substitution costs a deletion plus an insertion
func indelDistance(r1, r2 []rune) int {
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 2
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
