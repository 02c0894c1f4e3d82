package match

// Strategy scores one candidate against one existing record. Implementations
// must be pure and return scores in [0,1].
type Strategy interface {
	// Name is the reason code reported when this strategy produces the match.
	Name() string
	Score(candidate CandidateRecord, existing ExistingRecord) float64
}

// Matcher decides whether a candidate corresponds to one of the known
// existing records. It holds no per-call state and is safe for concurrent
// use.
type Matcher struct {
	primary Strategy
}

// NewMatcher builds a matcher with the given primary strategy. A nil
// strategy disables the structured stage, leaving the exact and fuzzy title
// fallbacks.
func NewMatcher(primary Strategy) *Matcher {
	return &Matcher{primary: primary}
}

// NewDefaultMatcher builds a matcher with the standard structured strategy.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(NewStructuredStrategy())
}

// Match evaluates the candidate against the existing records in fixed
// precedence order: structured strategy, exact normalized-title equality,
// then fuzzy title similarity. The exact and fuzzy stages return the first
// record that clears their threshold in input order; callers that care about
// which of several near-duplicates wins control it through list order.
func (m *Matcher) Match(candidate CandidateRecord, existing []ExistingRecord) MatchResult {
	title := NormalizeTitle(candidate.Title)
	if title == "" {
		return MatchResult{Found: false, Score: 0, Reason: ReasonNoTitle}
	}

	if m != nil && m.primary != nil {
		if result, ok := m.matchStructured(candidate, existing); ok {
			return result
		}
	}

	for i := range existing {
		existingTitle := NormalizeTitle(existing[i].Title)
		if existingTitle == "" {
			continue
		}
		if existingTitle == title {
			return MatchResult{
				Found:  true,
				Record: &existing[i],
				Score:  1.0,
				Reason: ReasonExactTitle,
			}
		}
	}

	for i := range existing {
		existingTitle := NormalizeTitle(existing[i].Title)
		if existingTitle == "" {
			continue
		}
		if score := Similarity(title, existingTitle); score > FuzzyTitleThreshold {
			return MatchResult{
				Found:  true,
				Record: &existing[i],
				Score:  score,
				Reason: ReasonHighTitleSim,
			}
		}
	}

	return MatchResult{Found: false, Score: 0, Reason: ReasonNoMatchFound}
}

// matchStructured runs the primary strategy over every comparable existing
// record and keeps the best score. The stage only wins when that score
// strictly exceeds the acceptance threshold; otherwise the matcher falls
// back to the title stages.
func (m *Matcher) matchStructured(candidate CandidateRecord, existing []ExistingRecord) (MatchResult, bool) {
	bestScore := -1.0
	bestIndex := -1
	for i := range existing {
		if NormalizeTitle(existing[i].Title) == "" {
			continue
		}
		score := m.primary.Score(candidate, existing[i])
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}

	if bestIndex < 0 || bestScore <= StructuredAcceptThreshold {
		return MatchResult{}, false
	}

	return MatchResult{
		Found:  true,
		Record: &existing[bestIndex],
		Score:  bestScore,
		Reason: m.primary.Name(),
	}, true
}
