package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	t.Run("punctuation and case insensitive exact match", func(t *testing.T) {
		assert.Equal(t, 50.0, Name("John A. Smith", "JOHN A SMITH", 50))
	})
	t.Run("fuzzy match scales linearly", func(t *testing.T) {
		assert.InDelta(t, 50*8.0/9.0, Name("World", "Word", 50), 1e-9)
	})
	t.Run("no floor for weak names", func(t *testing.T) {
		score := Name("abcdef", "abzzzz", 50)
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 25.0)
	})
	t.Run("empty side scores zero", func(t *testing.T) {
		assert.Zero(t, Name("", "John", 50))
		assert.Zero(t, Name("John", "...", 50))
	})
	t.Run("zero weight scores zero", func(t *testing.T) {
		assert.Zero(t, Name("John", "John", 0))
	})
}

func TestNormalizeDOB(t *testing.T) {
	assert.Equal(t, "12-03-1975", NormalizeDOB(" 12.03.1975 "))
	assert.Equal(t, "12-03-1975", NormalizeDOB("12 / 03 / 1975"))
	assert.Equal(t, "1975", NormalizeDOB("--1975--"))
	assert.Equal(t, "", NormalizeDOB("   "))
}

func TestDOB(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  float64
	}{
		{name: "exact after normalization", query: "12.03.1975", candidate: "12/03/1975", expected: 20},
		{name: "bare year matches full date", query: "1975", candidate: "12-03-1975", expected: 12},
		{name: "year matches one of several", query: "1960", candidate: "1958; 1960; circa 1962", expected: 12},
		{name: "different years", query: "1975", candidate: "12-03-1976", expected: 0},
		{name: "raw substring fallback", query: "03-19", candidate: "12-03-1975", expected: 8},
		{name: "short fragment never uses substring", query: "59", candidate: "1959", expected: 0},
		{name: "substring fallback matches inside unrelated digits", query: "1975", candidate: "ID 819753", expected: 8},
		{name: "empty candidate", query: "1975", candidate: "", expected: 0},
		{name: "empty query", query: " ", candidate: "1975", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DOB(tt.query, tt.candidate, 20), 1e-9)
		})
	}

	t.Run("zero weight", func(t *testing.T) {
		assert.Zero(t, DOB("1975", "1975", 0))
	})
}

func TestCountry(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		nationality string
		expected    float64
	}{
		{name: "exact", query: "Iran", nationality: "IRAN", expected: 20},
		{name: "exact part of multi nationality", query: "Iran", nationality: "Iraq / Iran", expected: 20},
		{name: "semicolon and pipe separators", query: "belarus", nationality: "Russia;Belarus|Ukraine", expected: 20},
		{name: "fuzzy at the floor", query: "Russia", nationality: "Russian Federation", expected: 10},
		{name: "below floor", query: "Cuba", nationality: "Germany", expected: 0},
		{name: "empty nationality", query: "Cuba", nationality: " / ", expected: 0},
		{name: "empty query", query: "", nationality: "Cuba", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Country(tt.query, tt.nationality, 20), 1e-9)
		})
	}
}

func TestGender(t *testing.T) {
	assert.Equal(t, "male", CanonicalGender(" M "))
	assert.Equal(t, "female", CanonicalGender("Female"))
	assert.Equal(t, "", CanonicalGender("unknown"))

	assert.Equal(t, 10.0, Gender("m", "Male", 10))
	assert.Zero(t, Gender("m", "female", 10))
	assert.Zero(t, Gender("x", "x", 10))
	assert.Zero(t, Gender("", "male", 10))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, 20.0, Address("12 Main St., Havana", "12 main st havana", 20))
	assert.Zero(t, Address("Tehran", "Caracas, Venezuela", 20))
	assert.InDelta(t, 20*Similarity("12 main street havana", "12 main st havana"),
		Address("12 Main Street, Havana", "12 Main St Havana", 20), 1e-9)
	assert.Zero(t, Address("", "Havana", 20))
}

func TestIMO(t *testing.T) {
	t.Run("digits found after imo annotation", func(t *testing.T) {
		assert.Equal(t, 25.0, IMO("IMO 9321483", "Flag: Panama; IMO: 9321483", 25))
	})
	t.Run("no imo mention means no match", func(t *testing.T) {
		assert.Zero(t, IMO("IMO 9321483", "Flag: Panama; Reg 9321483", 25))
	})
	t.Run("annotation is case insensitive", func(t *testing.T) {
		assert.Equal(t, 25.0, IMO("9321483", "imo:9321483", 25))
	})
	t.Run("different digits", func(t *testing.T) {
		assert.Zero(t, IMO("9321484", "IMO 9321483", 25))
	})
	t.Run("query without digits", func(t *testing.T) {
		assert.Zero(t, IMO("IMO", "IMO 9321483", 25))
	})
	t.Run("zero weight for non vessels", func(t *testing.T) {
		assert.Zero(t, IMO("9321483", "IMO 9321483", 0))
	})
}

func TestComparatorsStayWithinWeight(t *testing.T) {
	pairs := [][2]string{
		{"John Smith", "John Smith"},
		{"John Smith", "Jon Smyth"},
		{"1975", "12-03-1975"},
		{"m", "male"},
		{"IMO 9321483", "IMO 9321483 9321483"},
		{"Iran", "Iran / Iraq"},
		{"", "x"},
		{"日本", "日本国"},
	}
	comparators := map[string]func(string, string, float64) float64{
		"name": Name, "dob": DOB, "country": Country, "gender": Gender, "address": Address, "imo": IMO,
	}
	for name, cmp := range comparators {
		for _, w := range []float64{0, 10, 25, 50} {
			for _, p := range pairs {
				score := cmp(p[0], p[1], w)
				assert.GreaterOrEqual(t, score, 0.0, "%s(%q,%q,%v)", name, p[0], p[1], w)
				assert.LessOrEqual(t, score, w, "%s(%q,%q,%v)", name, p[0], p[1], w)
			}
		}
	}
}
