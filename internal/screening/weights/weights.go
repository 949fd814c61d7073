// Package weights holds the per subject type weight profiles used by the scorer.
//
// Profiles are immutable values validated on construction: every weight is
// non-negative, only known fields appear, and the weights sum to 100.
package weights

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"watchlist/internal/screening/models"
)

// TotalWeight is the sum every profile must reach.
const TotalWeight = 100.0

// Profile is an immutable field -> weight mapping for one subject type.
type Profile struct {
	subjectType models.SubjectType
	weights     map[string]float64
}

// NewProfile validates and copies w into a Profile.
func NewProfile(subjectType models.SubjectType, w map[string]float64) (Profile, error) {
	known := make(map[string]struct{}, len(models.Fields))
	for _, f := range models.Fields {
		known[f] = struct{}{}
	}

	copied := make(map[string]float64, len(w))
	sum := 0.0
	for field, weight := range w {
		if _, ok := known[field]; !ok {
			return Profile{}, fmt.Errorf("profile %s: unknown field %q", subjectType, field)
		}
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return Profile{}, fmt.Errorf("profile %s: field %q has invalid weight %v", subjectType, field, weight)
		}
		copied[field] = weight
		sum += weight
	}
	if math.Abs(sum-TotalWeight) > 1e-9 {
		return Profile{}, fmt.Errorf("profile %s: weights sum to %v, want %v", subjectType, sum, TotalWeight)
	}
	return Profile{subjectType: subjectType, weights: copied}, nil
}

func mustProfile(subjectType models.SubjectType, w map[string]float64) Profile {
	p, err := NewProfile(subjectType, w)
	if err != nil {
		panic(err)
	}
	return p
}

// SubjectType returns the bucket this profile scores.
func (p Profile) SubjectType() models.SubjectType { return p.subjectType }

// Weight returns the weight of field, 0 when the field is not weighted.
func (p Profile) Weight(field string) float64 { return p.weights[field] }

// Sum returns the total of all weights.
func (p Profile) Sum() float64 {
	sum := 0.0
	for _, w := range p.weights {
		sum += w
	}
	return sum
}

// Weights returns a copy of the profile with every scored field present.
func (p Profile) Weights() map[string]float64 {
	out := make(map[string]float64, len(models.Fields))
	for _, f := range models.Fields {
		out[f] = p.weights[f]
	}
	return out
}

// Defaults returns the built-in profiles.
func Defaults() []Profile {
	return []Profile{
		mustProfile(models.SubjectIndividual, map[string]float64{
			models.FieldName: 50, models.FieldDOB: 20, models.FieldCountry: 20, models.FieldGender: 10,
		}),
		mustProfile(models.SubjectEntity, map[string]float64{
			models.FieldName: 50, models.FieldCountry: 30, models.FieldAddress: 20,
		}),
		mustProfile(models.SubjectVessel, map[string]float64{
			models.FieldName: 50, models.FieldCountry: 25, models.FieldIMO: 25,
		}),
	}
}

// Selector picks a profile for a subject type token. Unknown tokens get the
// individual profile.
type Selector struct {
	profiles map[models.SubjectType]Profile
}

// NewSelector builds a selector. The individual profile is required because
// it is the fallback.
func NewSelector(profiles ...Profile) (*Selector, error) {
	byType := make(map[models.SubjectType]Profile, len(profiles))
	for _, p := range profiles {
		byType[p.subjectType] = p
	}
	if _, ok := byType[models.SubjectIndividual]; !ok {
		return nil, fmt.Errorf("weights: %s profile is required", models.SubjectIndividual)
	}
	return &Selector{profiles: byType}, nil
}

// DefaultSelector returns a selector over Defaults.
func DefaultSelector() *Selector {
	s, err := NewSelector(Defaults()...)
	if err != nil {
		panic(err)
	}
	return s
}

// WeightsFor returns the profile for subjectType.
func (s *Selector) WeightsFor(subjectType models.SubjectType) Profile {
	if p, ok := s.profiles[models.ParseSubjectType(string(subjectType))]; ok {
		return p
	}
	return s.profiles[models.SubjectIndividual]
}

// SubjectTypes lists the configured subject types in sorted order.
func (s *Selector) SubjectTypes() []models.SubjectType {
	out := make([]models.SubjectType, 0, len(s.profiles))
	for t := range s.profiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fileFormat is the YAML override document:
//
//	profiles:
//	  entity:
//	    name: 60
//	    country: 25
//	    address: 15
type fileFormat struct {
	Profiles map[string]map[string]float64 `yaml:"profiles"`
}

// Parse reads a YAML override document and returns a selector where the
// listed profiles replace the defaults. A profile in the file replaces the
// default wholesale; it is not merged field by field.
func Parse(r io.Reader) (*Selector, error) {
	var doc fileFormat
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode weight profiles: %w", err)
	}

	profiles := make(map[models.SubjectType]Profile)
	for _, p := range Defaults() {
		profiles[p.subjectType] = p
	}
	for name, w := range doc.Profiles {
		st := models.ParseSubjectType(name)
		if !st.Known() {
			return nil, fmt.Errorf("weights: unknown subject type %q", name)
		}
		p, err := NewProfile(st, w)
		if err != nil {
			return nil, err
		}
		profiles[st] = p
	}

	list := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		list = append(list, p)
	}
	return NewSelector(list...)
}

// LoadFile parses the YAML override file at path. An empty path yields the defaults.
func LoadFile(path string) (*Selector, error) {
	if path == "" {
		return DefaultSelector(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weight profiles: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
