package match

import (
	"regexp"
	"strings"
)

var tokenSplitRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Signal weights for the structured strategy. Title similarity dominates;
// brand, body type and model-token overlap sharpen near-threshold cases.
// Weights for signals missing on either record are excluded from the
// denominator so the score stays in [0,1].
const (
	structuredTitleWeight    = 0.5
	structuredTokenWeight    = 0.2
	structuredBrandWeight    = 0.2
	structuredBodyTypeWeight = 0.1
)

// StructuredStrategy combines normalized-title similarity with brand,
// body-type and model-token agreement into a single weighted score.
type StructuredStrategy struct{}

func NewStructuredStrategy() *StructuredStrategy {
	return &StructuredStrategy{}
}

func (s *StructuredStrategy) Name() string {
	return ReasonStructured
}

func (s *StructuredStrategy) Score(candidate CandidateRecord, existing ExistingRecord) float64 {
	candidateTitle := NormalizeTitle(candidate.Title)
	existingTitle := NormalizeTitle(existing.Title)
	if candidateTitle == "" || existingTitle == "" {
		return 0
	}

	score := structuredTitleWeight * Similarity(candidateTitle, existingTitle)
	totalWeight := structuredTitleWeight

	candidateTokens := normalizeTokens(candidate.ModelTokens)
	if len(candidateTokens) == 0 {
		candidateTokens = Tokenize(candidate.Title)
	}
	existingTokens := Tokenize(existing.Title)
	if len(candidateTokens) > 0 && len(existingTokens) > 0 {
		score += structuredTokenWeight * tokenCoverage(candidateTokens, existingTokens)
		totalWeight += structuredTokenWeight
	}

	candidateBrand := NormalizeTitle(candidate.Brand)
	existingBrand := NormalizeTitle(existing.Brand)
	if candidateBrand != "" && existingBrand != "" {
		brandScore := 0.0
		if candidateBrand == existingBrand {
			brandScore = 1.0
		}
		score += structuredBrandWeight * brandScore
		totalWeight += structuredBrandWeight
	}

	candidateBody := NormalizeTitle(candidate.BodyType)
	existingBody := NormalizeTitle(existing.BodyType)
	if candidateBody != "" && existingBody != "" {
		bodyScore := 0.0
		if candidateBody == existingBody {
			bodyScore = 1.0
		}
		score += structuredBodyTypeWeight * bodyScore
		totalWeight += structuredBodyTypeWeight
	}

	return score / totalWeight
}

// Tokenize splits a display name into normalized lowercase tokens. Trim-level
// and drivetrain markers like "2wd" or "gs" survive; single characters do not.
func Tokenize(s string) []string {
	cleaned := tokenSplitRegex.Split(strings.ToLower(s), -1)
	tokens := make([]string, 0, len(cleaned))
	for _, token := range cleaned {
		if len(token) <= 1 {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func normalizeTokens(raw []string) []string {
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		normalized := NormalizeTitle(token)
		if len(normalized) <= 1 {
			continue
		}
		tokens = append(tokens, normalized)
	}
	return tokens
}

// tokenCoverage returns the fraction of candidate tokens present among the
// existing record's tokens.
func tokenCoverage(candidateTokens, existingTokens []string) float64 {
	if len(candidateTokens) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(existingTokens))
	for _, token := range existingTokens {
		set[token] = struct{}{}
	}
	matched := 0
	for _, token := range candidateTokens {
		if _, ok := set[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(candidateTokens))
}
