package usecase

import (
	"go.uber.org/zap"

	"github.com/kpcalc/backend/internal/domain"
)

// DefaultMinSimilarity is the lowest score accepted as a match
const DefaultMinSimilarity = 90

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinSimilarity int
	Logger        *zap.Logger
}

// MatchingService ranks catalog candidates against a query name using
// normalized text similarity and packaging compatibility
type MatchingService struct {
	minSimilarity int
	logger        *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.MinSimilarity
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultMinSimilarity
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchingService{
		minSimilarity: threshold,
		logger:        logger,
	}
}

// Candidate is one record offered to the matcher
type Candidate struct {
	Name string
	// Packaging is explicit packaging text. When it carries no tags the name is parsed instead.
	Packaging string
}

type indexedCandidate struct {
	name       string
	normalized string
	packaging  domain.PackagingSpec
}

// CandidateIndex holds candidates with their normalized names and packaging precomputed
type CandidateIndex struct {
	entries []indexedCandidate
}

// NewCandidateIndex normalizes every candidate once so a whole request can be matched against it
func NewCandidateIndex(candidates []Candidate) *CandidateIndex {
	entries := make([]indexedCandidate, len(candidates))
	for i, c := range candidates {
		pkg := ExtractPackaging(c.Packaging)
		if pkg.IsEmpty() {
			pkg = ExtractPackaging(c.Name)
		}
		entries[i] = indexedCandidate{
			name:       c.Name,
			normalized: NormalizeName(c.Name),
			packaging:  pkg,
		}
	}
	return &CandidateIndex{entries: entries}
}

// Len returns the number of indexed candidates
func (idx *CandidateIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// MatchResult is the outcome of FindBestMatch
type MatchResult struct {
	// Index into the candidate slice, -1 when nothing cleared the threshold
	Index int
	Name  string
	Score int

	Packaging           domain.PackagingSpec
	PackagingCompatible bool
}

// Found reports whether a usable match was returned
func (r MatchResult) Found() bool {
	return r.Index >= 0
}

// FindBestMatch returns the best candidate for the query name.
// Among candidates at or above the threshold, packaging-compatible ones win; if none is
// compatible the top scorer is returned with PackagingCompatible=false.
// When nothing clears the threshold, Index is -1 and Name/Score describe the best candidate seen.
func (s *MatchingService) FindBestMatch(query string, index *CandidateIndex) MatchResult {
	miss := MatchResult{Index: -1}
	if index.Len() == 0 {
		return miss
	}

	target := NormalizeName(query)
	if target == "" {
		return miss
	}
	targetPkg := ExtractPackaging(query)

	bestCompatible := -1
	bestAny := -1
	scores := make([]int, len(index.entries))

	for i, entry := range index.entries {
		if entry.normalized == "" {
			continue
		}

		score := Similarity(target, entry.normalized)
		scores[i] = score

		if score > miss.Score {
			miss.Score = score
			miss.Name = entry.name
		}

		if score < s.minSimilarity {
			continue
		}

		if bestAny < 0 || score > scores[bestAny] {
			bestAny = i
		}
		if targetPkg.CompatibleWith(entry.packaging) && (bestCompatible < 0 || score > scores[bestCompatible]) {
			bestCompatible = i
		}
	}

	if bestAny < 0 {
		s.logger.Debug("no candidate above threshold",
			zap.String("query", query),
			zap.String("best", miss.Name),
			zap.Int("score", miss.Score))
		return miss
	}

	chosen := bestCompatible
	compatible := true
	if chosen < 0 {
		chosen = bestAny
		compatible = false
	}

	entry := index.entries[chosen]
	s.logger.Debug("matched",
		zap.String("query", query),
		zap.String("candidate", entry.name),
		zap.Int("score", scores[chosen]),
		zap.Bool("packagingCompatible", compatible))

	return MatchResult{
		Index:               chosen,
		Name:                entry.name,
		Score:               scores[chosen],
		Packaging:           entry.packaging,
		PackagingCompatible: compatible,
	}
}
