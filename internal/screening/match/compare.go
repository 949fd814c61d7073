package match

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// dobYearFactor is awarded when only the birth years agree.
	dobYearFactor = 0.6
	// dobSubstringFactor is awarded when the raw query appears inside the raw candidate.
	dobSubstringFactor = 0.4
	// dobSubstringMinRunes keeps fragments like "59" out of the substring fallback.
	dobSubstringMinRunes = 4
	// fuzzyFloor is the minimum similarity that earns any country or address credit.
	fuzzyFloor = 0.5
)

var (
	dobSeparators   = regexp.MustCompile(`[./\s]+`)
	dobDashes       = regexp.MustCompile(`-+`)
	dobYears        = regexp.MustCompile(`\b(?:18|19|20)\d{2}\b`)
	countrySplitter = regexp.MustCompile(`[/,;|]+`)
)

// Name awards the full weight for an exact normalized match and otherwise
// scales the weight by the similarity ratio, with no floor.
func Name(query, candidate string, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	q, c := Normalize(query), Normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return weight
	}
	return weight * Similarity(q, c)
}

// NormalizeDOB turns ".", "/" and whitespace runs into "-", collapses repeated
// dashes and trims them from both ends.
func NormalizeDOB(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = dobSeparators.ReplaceAllString(s, "-")
	s = dobDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DOB grades date of birth agreement: exact normalized date, then shared year,
// then raw substring containment.
func DOB(query, candidate string, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	qRaw, cRaw := strings.TrimSpace(query), strings.TrimSpace(candidate)
	if qRaw == "" || cRaw == "" {
		return 0
	}

	q, c := NormalizeDOB(qRaw), NormalizeDOB(cRaw)
	if q != "" && q == c {
		return weight
	}

	if yearsIntersect(qRaw+" "+q, cRaw+" "+c) {
		return weight * dobYearFactor
	}

	if utf8.RuneCountInString(qRaw) >= dobSubstringMinRunes && strings.Contains(cRaw, qRaw) {
		return weight * dobSubstringFactor
	}
	return 0
}

func yearsIntersect(a, b string) bool {
	years := make(map[string]struct{})
	for _, y := range dobYears.FindAllString(a, -1) {
		years[y] = struct{}{}
	}
	if len(years) == 0 {
		return false
	}
	for _, y := range dobYears.FindAllString(b, -1) {
		if _, ok := years[y]; ok {
			return true
		}
	}
	return false
}

// Country matches the query against each part of a possibly multi-valued
// nationality field ("Iran / Iraq", "RU;BY").
func Country(query, nationality string, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	q := Normalize(query)
	if q == "" {
		return 0
	}

	var parts []string
	for _, raw := range countrySplitter.Split(nationality, -1) {
		if p := Normalize(raw); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return 0
	}

	for _, p := range parts {
		if p == q {
			return weight
		}
	}

	best := 0.0
	for _, p := range parts {
		best = max(best, Similarity(q, p))
	}
	if best < fuzzyFloor {
		return 0
	}
	return weight * best
}

// CanonicalGender maps m/male and f/female (any case) to "male"/"female";
// everything else maps to "".
func CanonicalGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return "male"
	case "f", "female":
		return "female"
	default:
		return ""
	}
}

// Gender awards the full weight when both sides map to the same canonical gender.
func Gender(query, candidate string, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	q, c := CanonicalGender(query), CanonicalGender(candidate)
	if q == "" || c == "" || q != c {
		return 0
	}
	return weight
}

// Address is like Name but awards nothing below a similarity of 0.5.
func Address(query, candidate string, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	q, c := Normalize(query), Normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return weight
	}
	ratio := Similarity(q, c)
	if ratio < fuzzyFloor {
		return 0
	}
	return weight * ratio
}

// IMO awards the full weight when the query's digits occur in the candidate's
// digits. The candidate text must mention "imo" at all, so vessels without an
// IMO annotation never match on incidental numbers.
func IMO(query, otherInformation string, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	if strings.TrimSpace(query) == "" {
		return 0
	}
	hay := strings.ToLower(otherInformation)
	if !strings.Contains(hay, "imo") {
		return 0
	}
	qDigits := digitsOnly(query)
	if qDigits == "" {
		return 0
	}
	return boolWeight(strings.Contains(digitsOnly(hay), qDigits), weight)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func boolWeight(ok bool, weight float64) float64 {
	if ok {
		return weight
	}
	return 0
}
