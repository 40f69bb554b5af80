package usecase

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kpcalc/backend/internal/domain"
)

// Issues reported by AssessCompetitorRecord
const (
	IssueTotalMismatch     = "total does not match quantity x price"
	IssueTotalApproximate  = "total roughly matches quantity x price"
	IssueGarbageInName     = "garbage characters in name"
	IssueLargeQuantity     = "large quantity"
	IssueHighPrice         = "high unit price"
	IssueShortName         = "short name"
	IssueLooksLikeSpecText = "name looks like a specification text"
)

const garbageChars = "[]{}|\\<>~`"

// technicalWords mark a cell that holds specification text instead of a product name
var technicalWords = []string{"соответств", "требован", "технич", "условия", "гост", "допуска"}

// AssessCompetitorRecord scores how much a competitor line can be trusted, 0-100,
// and lists what lowered the score
func AssessCompetitorRecord(rec domain.CompetitorRecord) (int, []string) {
	var issues []string
	score := 100

	if rec.Total > 0 {
		calculated := rec.Quantity * rec.UnitPrice
		diffPercent := math.Abs(calculated-rec.Total) / rec.Total * 100
		switch {
		case diffPercent > 30:
			issues = append(issues, IssueTotalMismatch)
			score -= 40
		case diffPercent > 10:
			issues = append(issues, IssueTotalApproximate)
			score -= 15
		}
	}

	garbage := 0
	for _, r := range rec.Name {
		if strings.ContainsRune(garbageChars, r) {
			garbage++
		}
	}
	if garbage > 2 {
		issues = append(issues, IssueGarbageInName)
		score -= 20
	}

	if rec.Quantity > 100000 {
		issues = append(issues, IssueLargeQuantity)
		score -= 15
	}
	if rec.UnitPrice > 10000 {
		issues = append(issues, IssueHighPrice)
		score -= 10
	}

	if utf8.RuneCountInString(rec.Name) < 5 {
		issues = append(issues, IssueShortName)
		score -= 15
	}

	lower := strings.ToLower(rec.Name)
	for _, w := range technicalWords {
		if strings.Contains(lower, w) {
			issues = append(issues, IssueLooksLikeSpecText)
			score -= 10
			break
		}
	}

	return max(0, score), issues
}
