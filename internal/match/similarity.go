package match

// Similarity returns a [0,1] similarity score between two strings based on
// Levenshtein edit distance. Inputs are compared as-is; callers normalize
// case and whitespace first. Two empty strings are maximally similar.
func Similarity(a, b string) float64 {
	longer := []rune(a)
	shorter := []rune(b)
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	if len(longer) == 0 {
		return 1.0
	}

	distance := levenshtein(longer, shorter)
	return float64(len(longer)-distance) / float64(len(longer))
}

// levenshtein computes the edit distance with unit-cost insert, delete and
// substitute operations. No transpositions.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
