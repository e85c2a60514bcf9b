package receipt

// ResolveAddress fuzzy-matches an extracted address against the known
// station addresses and returns the closest entry when its edit
// distance is within threshold. OCR noise on an otherwise known address
// (0/O swaps, dropped diacritics) lands well inside the default
// threshold of 3, while genuinely unknown addresses do not.
func ResolveAddress(candidate string, entries []AddressEntry, threshold int) (AddressEntry, bool) {
	if candidate == "" {
		return AddressEntry{}, false
	}
	best := AddressEntry{}
	bestDist := -1
	for _, e := range entries {
		// Edit distance is at least the length difference, so entries
		// outside the threshold on length alone are skipped without
		// running the full computation.
		if d := len([]rune(candidate)) - len([]rune(e.Address)); d > threshold || -d > threshold {
			continue
		}
		dist := levenshtein(candidate, e.Address)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = e, dist
		}
	}
	if bestDist < 0 || bestDist > threshold {
		return AddressEntry{}, false
	}
	return best, true
}

// levenshtein computes the edit distance between two strings with unit
// cost for insertion, deletion and substitution, using the standard
// two-row dynamic program over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ra {
		curr[0] = i + 1
		for j, cb := range rb {
			insertion := prev[j+1] + 1
			deletion := curr[j] + 1
			substitution := prev[j]
			if ca != cb {
				substitution++
			}
			curr[j+1] = min3(insertion, deletion, substitution)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
