package handler

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"watchlist/internal/screening/models"
	dErrors "watchlist/pkg/domain-errors"
	pstrings "watchlist/pkg/platform/strings"
)

const (
	maxSearchLength = 512
	maxAttrLength   = 512
	dateLayout      = "2006-01-02"
)

// SourceList accepts a single source code or a list of them.
type SourceList []string

func (s *SourceList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = SourceList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "source must be a string or a list of strings")
	}
	*s = many
	return nil
}

// ScreenRequest is the screening query for GET and POST /sanction-entities.
type ScreenRequest struct {
	Search             string     `json:"search"`
	SubjectType        string     `json:"subject_type"`
	BirthDate          string     `json:"birth_date"`
	Gender             string     `json:"gender"`
	Country            string     `json:"country"`
	Nationality        string     `json:"nationality"`
	Address            string     `json:"address"`
	Source             SourceList `json:"source"`
	IMO                string     `json:"imo"`
	ConfidenceRating   float64    `json:"confidence_rating"`
	ExcludeWhitelisted *bool      `json:"exclude_whitelisted"`
	Limit              *int       `json:"limit"`
	Offset             *int       `json:"offset"`
}

// ScreenRequestFromQuery reads a screening query from URL parameters.
// source may repeat, also as source[].
func ScreenRequestFromQuery(q url.Values) (*ScreenRequest, error) {
	req := &ScreenRequest{
		Search:      q.Get("search"),
		SubjectType: q.Get("subject_type"),
		BirthDate:   q.Get("birth_date"),
		Gender:      q.Get("gender"),
		Country:     q.Get("country"),
		Nationality: q.Get("nationality"),
		Address:     q.Get("address"),
		IMO:         q.Get("imo"),
	}
	req.Source = append(SourceList{}, q["source"]...)
	req.Source = append(req.Source, q["source[]"]...)

	var err error
	if v := q.Get("confidence_rating"); v != "" {
		if req.ConfidenceRating, err = strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "confidence_rating must be a number")
		}
	}
	if v := q.Get("exclude_whitelisted"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation, "exclude_whitelisted must be a boolean")
		}
		req.ExcludeWhitelisted = &b
	}
	if req.Limit, err = optionalInt(q, "limit"); err != nil {
		return nil, err
	}
	if req.Offset, err = optionalInt(q, "offset"); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate trims the request and enforces the required search term.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ScreenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Search = strings.TrimSpace(r.Search)
	if r.Search == "" {
		return dErrors.New(dErrors.CodeValidation, "search is required")
	}
	if len(r.Search) > maxSearchLength {
		return dErrors.New(dErrors.CodeValidation, "search must be at most 512 characters")
	}

	for _, field := range []*string{&r.SubjectType, &r.BirthDate, &r.Gender, &r.Country, &r.Nationality, &r.Address, &r.IMO} {
		*field = strings.TrimSpace(*field)
		if len(*field) > maxAttrLength {
			return dErrors.New(dErrors.CodeValidation, "attribute values must be at most 512 characters")
		}
	}
	r.Source = pstrings.DedupeAndTrimUpper(r.Source)
	return nil
}

// ToModel builds the service request, applying defaults: subject_type
// individual, exclude_whitelisted true, limit 50 (at least 1), offset 1.
func (r *ScreenRequest) ToModel(userID string) models.ScreeningRequest {
	country := r.Country
	if country == "" {
		country = r.Nationality
	}

	exclude := true
	if r.ExcludeWhitelisted != nil {
		exclude = *r.ExcludeWhitelisted
	}
	limit := 50
	if r.Limit != nil {
		limit = max(1, *r.Limit)
	}
	offset := 1
	if r.Offset != nil {
		offset = max(1, *r.Offset)
	}

	return models.ScreeningRequest{
		UserID:      userID,
		Search:      r.Search,
		SubjectType: models.ParseSubjectType(r.SubjectType),
		Attributes: models.Attributes{
			BirthDate:   r.BirthDate,
			Gender:      r.Gender,
			Nationality: country,
			Address:     r.Address,
			IMO:         r.IMO,
		},
		Sources:            r.Source,
		ConfidenceRating:   r.ConfidenceRating,
		ExcludeWhitelisted: exclude,
		Limit:              limit,
		Offset:             offset,
	}
}

// RecordLogRequest is the body of POST /screening-logs.
type RecordLogRequest struct {
	SearchString  string `json:"search_string"`
	ScreeningType string `json:"screening_type"`
	IsMatch       *bool  `json:"is_match"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RecordLogRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SearchString = strings.TrimSpace(r.SearchString)
	if r.SearchString == "" {
		return dErrors.New(dErrors.CodeValidation, "search_string is required")
	}
	r.ScreeningType = strings.ToLower(strings.TrimSpace(r.ScreeningType))
	if !models.SubjectType(r.ScreeningType).Known() {
		return dErrors.New(dErrors.CodeValidation, "screening_type must be one of individual, entity, vessel")
	}
	if r.IsMatch == nil {
		return dErrors.New(dErrors.CodeValidation, "is_match is required")
	}
	return nil
}

func (r *RecordLogRequest) ToModel(userID string) models.LogEntry {
	return models.LogEntry{
		UserID:        userID,
		SearchString:  r.SearchString,
		ScreeningType: r.ScreeningType,
		IsMatch:       *r.IsMatch,
	}
}

// LogFilterFromQuery reads screening log listing parameters. Dates accept
// YYYY-MM-DD or RFC 3339; a bare date_to covers that whole day.
func LogFilterFromQuery(q url.Values) (models.LogFilter, error) {
	filter := models.LogFilter{
		ScreeningType: strings.TrimSpace(q.Get("screening_type")),
		Search:        strings.TrimSpace(q.Get("search")),
	}

	if v := q.Get("is_match"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			return models.LogFilter{}, dErrors.New(dErrors.CodeValidation, "is_match must be a boolean")
		}
		filter.IsMatch = &b
	}

	if v := strings.TrimSpace(q.Get("date_from")); v != "" {
		from, _, err := parseDate(v)
		if err != nil {
			return models.LogFilter{}, dErrors.New(dErrors.CodeValidation, "date_from must be YYYY-MM-DD or RFC 3339")
		}
		filter.DateFrom = &from
	}
	if v := strings.TrimSpace(q.Get("date_to")); v != "" {
		to, dateOnly, err := parseDate(v)
		if err != nil {
			return models.LogFilter{}, dErrors.New(dErrors.CodeValidation, "date_to must be YYYY-MM-DD or RFC 3339")
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		filter.DateTo = &to
	}

	limit, err := optionalInt(q, "limit")
	if err != nil {
		return models.LogFilter{}, err
	}
	if limit != nil {
		filter.Limit = max(1, *limit)
	}
	offset, err := optionalInt(q, "offset")
	if err != nil {
		return models.LogFilter{}, err
	}
	if offset != nil {
		filter.Offset = max(1, *offset)
	}
	return filter, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func optionalInt(q url.Values, key string) (*int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, key+" must be an integer")
	}
	return &n, nil
}

// parseBool accepts the usual form encodings of a boolean.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	}
	return false, false
}
