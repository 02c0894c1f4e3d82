package match

import "testing"

func TestSimilarityIdentity(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "a", "eVitara Select 2WD", "日産 リーフ"} {
		if got := Similarity(s, s); got != 1.0 {
			t.Fatalf("Similarity(%q, %q) = %f, want 1.0", s, s, got)
		}
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"kitten", "sitting"},
		{"mokka gs electric", "mokka gs electrik"},
		{"", "anything"},
		{"long left value here", "short"},
	}
	for _, pair := range pairs {
		left := Similarity(pair[0], pair[1])
		right := Similarity(pair[1], pair[0])
		if left != right {
			t.Fatalf("Similarity(%q, %q)=%f but reversed=%f", pair[0], pair[1], left, right)
		}
	}
}

func TestSimilarityRange(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"", ""},
		{"", "abc"},
		{"abc", "xyz"},
		{"completely unrelated model z9", "evitara select"},
		{"abcdefghij", "abcdefghix"},
	}
	for _, pair := range pairs {
		got := Similarity(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Fatalf("Similarity(%q, %q) = %f, out of [0,1]", pair[0], pair[1], got)
		}
	}
}

func TestSimilarityKnownDistances(t *testing.T) {
	t.Parallel()

	// kitten -> sitting has edit distance 3 over a longer length of 7.
	if got, want := Similarity("kitten", "sitting"), float64(7-3)/7; got != want {
		t.Fatalf("Similarity(kitten, sitting) = %f, want %f", got, want)
	}

	// One substitution across ten characters is exactly 0.9.
	if got := Similarity("abcdefghij", "abcdefghix"); got != 0.9 {
		t.Fatalf("expected exactly 0.9, got %f", got)
	}

	// Disjoint strings of equal length score 0.
	if got := Similarity("aaaa", "bbbb"); got != 0 {
		t.Fatalf("expected 0 for fully disjoint strings, got %f", got)
	}
}

func TestSimilarityEmptyAgainstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := Similarity("", "abc"); got != 0 {
		t.Fatalf("expected 0 for empty vs non-empty, got %f", got)
	}
	if got := Similarity("", ""); got != 1 {
		t.Fatalf("expected 1.0 for two empty strings, got %f", got)
	}
}

func TestLevenshteinUsesRunesNotBytes(t *testing.T) {
	t.Parallel()

	// Multi-byte runes count as single edits.
	if got := levenshtein([]rune("héllo"), []rune("hello")); got != 1 {
		t.Fatalf("expected distance 1 for single rune substitution, got %d", got)
	}
}
