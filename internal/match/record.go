package match

import "strings"

// CandidateRecord is a freshly scraped listing awaiting a create-or-update
// decision. Title is the only required field; the rest are secondary signals
// for the structured strategy.
type CandidateRecord struct {
	Title       string
	Brand       string
	Description string
	BodyType    string
	ModelTokens []string
}

// ExistingRecord is a previously persisted listing fetched from the content
// store. ID is the store's stable identifier.
type ExistingRecord struct {
	ID       string
	Title    string
	Brand    string
	BodyType string
}

// MatchResult reports whether a candidate corresponds to an existing record.
// Record is non-nil iff Found. Score is a [0,1] confidence.
type MatchResult struct {
	Found  bool
	Record *ExistingRecord
	Score  float64
	Reason string
}

// Reason codes. The structured strategy contributes its own open-ended code
// via Strategy.Name; everything else draws from this fixed vocabulary.
const (
	ReasonExactTitle   = "exact_title_match"
	ReasonHighTitleSim = "high_title_similarity"
	ReasonNoTitle      = "no_title"
	ReasonNoMatchFound = "no_match_found"
	ReasonStructured   = "structured_match"
)

// Acceptance thresholds. Fixed policy, not call-time configurable.
const (
	// StructuredAcceptThreshold accepts a structured-strategy result when
	// its score strictly exceeds this value.
	StructuredAcceptThreshold = 0.7
	// FuzzyTitleThreshold accepts a fuzzy title match when the similarity
	// strictly exceeds this value. Exactly 0.9 is not a match.
	FuzzyTitleThreshold = 0.9
)

// NormalizeTitle lowercases and trims a title for comparison.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
