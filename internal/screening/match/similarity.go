package match

// Similarity returns the character-level similarity ratio of a and b in [0, 1]:
// twice the number of matched runes over the combined length, where matches are
// found by taking the longest common run and recursing on both sides of it.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	ratio := 2 * float64(matchedRunes(ra, rb)) / float64(total)
	return clamp01(ratio)
}

func matchedRunes(a, b []rune) int {
	posA, posB, length := longestCommonRun(a, b)
	if length == 0 {
		return 0
	}
	sum := length
	if posA > 0 && posB > 0 {
		sum += matchedRunes(a[:posA], b[:posB])
	}
	if posA+length < len(a) && posB+length < len(b) {
		sum += matchedRunes(a[posA+length:], b[posB+length:])
	}
	return sum
}

// longestCommonRun returns the first longest common substring found scanning a
// then b, so results are deterministic for equal-length runs.
func longestCommonRun(a, b []rune) (posA, posB, length int) {
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > length {
				posA, posB, length = i, j, k
			}
		}
	}
	return posA, posB, length
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
