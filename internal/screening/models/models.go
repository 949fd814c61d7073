package models

import (
	"strings"
	"time"
)

// SubjectType is the screening bucket a query targets.
type SubjectType string

const (
	SubjectIndividual SubjectType = "individual"
	SubjectEntity     SubjectType = "entity"
	SubjectVessel     SubjectType = "vessel"
)

// ParseSubjectType lowercases and trims the token. Unknown tokens are kept as-is
// so callers can decide how to fall back; see SubjectType.Known.
func ParseSubjectType(s string) SubjectType {
	t := SubjectType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return SubjectIndividual
	}
	return t
}

// Known reports whether t is one of the three screening buckets.
func (t SubjectType) Known() bool {
	switch t {
	case SubjectIndividual, SubjectEntity, SubjectVessel:
		return true
	}
	return false
}

func (t SubjectType) String() string { return string(t) }

// Canonical watchlist sources, in the order results are presented per source.
const (
	SourceCanada = "CANADA"
	SourceUAE    = "UAE"
	SourceUN     = "UN"
	SourceUK     = "UK"
	SourceOFAC   = "OFAC"
	SourceEU     = "EU"
)

// CanonicalSources is the fixed source list; it doubles as the tie-break priority.
var CanonicalSources = []string{SourceCanada, SourceUAE, SourceUN, SourceUK, SourceOFAC, SourceEU}

// Subject is a normalized watchlist record. Scoring reads it and never writes it.
type Subject struct {
	ID                 int64      `json:"id"`
	Source             string     `json:"source"`
	SourceRecordID     string     `json:"source_record_id"`
	SourceReference    string     `json:"source_reference,omitempty"`
	SubjectType        string     `json:"subject_type"`
	Name               string     `json:"name"`
	NameOriginalScript string     `json:"name_original_script,omitempty"`
	Aliases            []string   `json:"aliases,omitempty"`
	Gender             string     `json:"gender,omitempty"`
	DOB                string     `json:"dob,omitempty"`
	POB                string     `json:"pob,omitempty"`
	Nationality        string     `json:"nationality,omitempty"`
	Address            string     `json:"address,omitempty"`
	Sanctions          string     `json:"sanctions,omitempty"`
	ListedOn           *time.Time `json:"listed_on,omitempty"`
	Remarks            string     `json:"remarks,omitempty"`
	OtherInformation   string     `json:"other_information,omitempty"`
	IsWhitelisted      bool       `json:"is_whitelisted"`
	WhitelistedAt      *time.Time `json:"whitelisted_at,omitempty"`
	WhitelistReason    string     `json:"whitelist_reason,omitempty"`
	RecordHash         string     `json:"record_hash,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Attributes are the optional structured fields of a screening query.
type Attributes struct {
	BirthDate   string
	Gender      string
	Nationality string
	Address     string
	IMO         string
}

// Field names used as breakdown keys and weight profile keys.
const (
	FieldName    = "name"
	FieldDOB     = "dob"
	FieldCountry = "country"
	FieldGender  = "gender"
	FieldAddress = "address"
	FieldIMO     = "imo"
)

// Fields lists every scored field in breakdown order.
var Fields = []string{FieldName, FieldDOB, FieldCountry, FieldGender, FieldAddress, FieldIMO}

// Breakdown maps field name to awarded sub-score.
type Breakdown map[string]float64

// ScoredCandidate is a subject with its per-field scores. Built per query, never stored.
type ScoredCandidate struct {
	Subject    Subject
	Breakdown  Breakdown
	Confidence float64
}

// SourceGroup is the best-by-source view for one source. Data holds nil
// entries as padding so its length is always the per-source limit.
type SourceGroup struct {
	Source         string
	BestConfidence *float64
	Data           []*ScoredCandidate
}

// ScreeningRequest is a validated screening query.
type ScreeningRequest struct {
	UserID             string
	Search             string
	SubjectType        SubjectType
	Attributes         Attributes
	Sources            []string
	ConfidenceRating   float64
	ExcludeWhitelisted bool
	Limit              int
	Offset             int
}

// ScreeningResult is the outcome of one screening call.
type ScreeningResult struct {
	SearchedFor         string
	SubjectType         SubjectType
	ConfidenceThreshold float64
	TotalCandidates     int
	FilteredResults     int
	Page                []ScoredCandidate
	BestBySource        []SourceGroup
	IsMatch             bool
}

// LogEntry records one screening invocation. Entries are append-only.
type LogEntry struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	SearchString  string    `json:"search_string"`
	ScreeningType string    `json:"screening_type"`
	IsMatch       bool      `json:"is_match"`
	ScreeningDate time.Time `json:"screening_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// LogFilter narrows a screening log listing. Offset is a 1-based page number;
// DateFrom is inclusive and DateTo exclusive.
type LogFilter struct {
	UserID        string
	ScreeningType string
	IsMatch       *bool
	Search        string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

// LogPage is one page of screening log entries.
type LogPage struct {
	Items  []LogEntry
	Total  int
	Limit  int
	Offset int
}
