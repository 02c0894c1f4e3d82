package match

import "testing"

func TestStructuredScoreIdenticalRecords(t *testing.T) {
	t.Parallel()

	strategy := NewStructuredStrategy()
	candidate := CandidateRecord{Title: "Mokka GS Electric", Brand: "Opel", BodyType: "SUV"}
	existing := ExistingRecord{ID: "1", Title: "Mokka GS Electric", Brand: "Opel", BodyType: "SUV"}

	if got := strategy.Score(candidate, existing); got != 1.0 {
		t.Fatalf("expected identical records to score 1.0, got %f", got)
	}
}

func TestStructuredScoreRange(t *testing.T) {
	t.Parallel()

	strategy := NewStructuredStrategy()
	candidates := []CandidateRecord{
		{Title: "Mokka GS Electric"},
		{Title: "Mokka", Brand: "Opel"},
		{Title: "Totally Unrelated Model Z9", Brand: "Nobody", BodyType: "Van"},
	}
	records := []ExistingRecord{
		{ID: "1", Title: "Mokka GS Electrik", Brand: "Opel", BodyType: "SUV"},
		{ID: "2", Title: "eVitara Select 2WD"},
	}

	for _, candidate := range candidates {
		for _, existing := range records {
			got := strategy.Score(candidate, existing)
			if got < 0 || got > 1 {
				t.Fatalf("score %f outside [0,1] for %q vs %q", got, candidate.Title, existing.Title)
			}
		}
	}
}

func TestStructuredScoreBrandAgreementRaisesScore(t *testing.T) {
	t.Parallel()

	strategy := NewStructuredStrategy()
	existing := ExistingRecord{ID: "1", Title: "Mokka GS Electrik", Brand: "Opel"}

	without := strategy.Score(CandidateRecord{Title: "Mokka GS Electric", Brand: "Vauxhall"}, existing)
	with := strategy.Score(CandidateRecord{Title: "Mokka GS Electric", Brand: "Opel"}, existing)

	if with <= without {
		t.Fatalf("expected brand agreement to raise the score: with=%f without=%f", with, without)
	}
}

func TestStructuredScoreMissingSignalsAreExcluded(t *testing.T) {
	t.Parallel()

	strategy := NewStructuredStrategy()

	// Brand known on only one side: the brand signal must neither help nor
	// hurt, so identical titles still score 1.0.
	candidate := CandidateRecord{Title: "Corsa GS"}
	existing := ExistingRecord{ID: "1", Title: "Corsa GS", Brand: "Opel"}

	if got := strategy.Score(candidate, existing); got != 1.0 {
		t.Fatalf("expected missing brand to be excluded from weighting, got %f", got)
	}
}

func TestStructuredScoreUsesProvidedModelTokens(t *testing.T) {
	t.Parallel()

	strategy := NewStructuredStrategy()
	existing := ExistingRecord{ID: "1", Title: "eVitara Select 2WD"}

	overlapping := strategy.Score(CandidateRecord{
		Title:       "eVitara Select 2WD FWD Edition",
		ModelTokens: []string{"evitara", "select", "2wd"},
	}, existing)
	disjoint := strategy.Score(CandidateRecord{
		Title:       "eVitara Select 2WD FWD Edition",
		ModelTokens: []string{"astra", "tourer"},
	}, existing)

	if overlapping <= disjoint {
		t.Fatalf("expected token overlap to raise the score: overlapping=%f disjoint=%f", overlapping, disjoint)
	}
}

func TestStructuredScoreEmptyTitles(t *testing.T) {
	t.Parallel()

	strategy := NewStructuredStrategy()

	if got := strategy.Score(CandidateRecord{Title: ""}, ExistingRecord{Title: "Corsa"}); got != 0 {
		t.Fatalf("expected 0 for empty candidate title, got %f", got)
	}
	if got := strategy.Score(CandidateRecord{Title: "Corsa"}, ExistingRecord{Title: "  "}); got != 0 {
		t.Fatalf("expected 0 for blank existing title, got %f", got)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens := Tokenize("eVitara Select 2WD (Special-Edition)")
	want := []string{"evitara", "select", "2wd", "special", "edition"}
	if len(tokens) != len(want) {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
	for i, token := range want {
		if tokens[i] != token {
			t.Fatalf("token %d: got %q want %q", i, tokens[i], token)
		}
	}
}

func TestTokenizeDropsSingleCharacters(t *testing.T) {
	t.Parallel()

	tokens := Tokenize("a Corsa e GS")
	for _, token := range tokens {
		if len(token) <= 1 {
			t.Fatalf("expected single-character tokens to be dropped, got %v", tokens)
		}
	}
}
