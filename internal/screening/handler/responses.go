package handler

import (
	"watchlist/internal/screening/models"
)

const statusSuccess = "success"

// Envelope wraps every successful response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ScreenResponse is the data of a screening response.
type ScreenResponse struct {
	SearchedFor         string                `json:"searched_for"`
	SubjectType         string                `json:"subject_type"`
	ConfidenceThreshold float64               `json:"confidence_threshold"`
	TotalCandidates     int                   `json:"total_candidates"`
	FilteredResults     int                   `json:"filtered_results"`
	IsMatch             bool                  `json:"is_match"`
	BestBySource        []SourceGroupResponse `json:"best_by_source"`
	Data                []CandidateResponse   `json:"data"`
}

// SourceGroupResponse holds the best candidates of one source; Data entries
// are null when the source has fewer matches than slots.
type SourceGroupResponse struct {
	Source         string               `json:"source"`
	BestConfidence *float64             `json:"best_confidence"`
	Data           []*CandidateResponse `json:"data"`
}

// CandidateResponse is one scored subject.
type CandidateResponse struct {
	ID          int64              `json:"id"`
	Source      string             `json:"source"`
	SubjectType string             `json:"subject_type"`
	Name        string             `json:"name"`
	DOB         string             `json:"dob"`
	Gender      string             `json:"gender"`
	Nationality string             `json:"nationality"`
	Address     string             `json:"address"`
	Confidence  float64            `json:"confidence"`
	Breakdown   map[string]float64 `json:"breakdown"`
}

// LogPageResponse is the data of a screening log listing.
type LogPageResponse struct {
	Items  []models.LogEntry `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// FromResult converts a screening result to its HTTP representation.
func FromResult(result *models.ScreeningResult) *ScreenResponse {
	resp := &ScreenResponse{
		SearchedFor:         result.SearchedFor,
		SubjectType:         result.SubjectType.String(),
		ConfidenceThreshold: result.ConfidenceThreshold,
		TotalCandidates:     result.TotalCandidates,
		FilteredResults:     result.FilteredResults,
		IsMatch:             result.IsMatch,
		BestBySource:        make([]SourceGroupResponse, 0, len(result.BestBySource)),
		Data:                make([]CandidateResponse, 0, len(result.Page)),
	}
	for _, c := range result.Page {
		resp.Data = append(resp.Data, fromCandidate(c))
	}
	for _, g := range result.BestBySource {
		group := SourceGroupResponse{
			Source:         g.Source,
			BestConfidence: g.BestConfidence,
			Data:           make([]*CandidateResponse, len(g.Data)),
		}
		for i, c := range g.Data {
			if c != nil {
				cr := fromCandidate(*c)
				group.Data[i] = &cr
			}
		}
		resp.BestBySource = append(resp.BestBySource, group)
	}
	return resp
}

func fromCandidate(c models.ScoredCandidate) CandidateResponse {
	return CandidateResponse{
		ID:          c.Subject.ID,
		Source:      c.Subject.Source,
		SubjectType: c.Subject.SubjectType,
		Name:        c.Subject.Name,
		DOB:         c.Subject.DOB,
		Gender:      c.Subject.Gender,
		Nationality: c.Subject.Nationality,
		Address:     c.Subject.Address,
		Confidence:  c.Confidence,
		Breakdown:   c.Breakdown,
	}
}

// FromLogPage converts a log page to its HTTP representation.
func FromLogPage(page *models.LogPage) *LogPageResponse {
	items := page.Items
	if items == nil {
		items = []models.LogEntry{}
	}
	return &LogPageResponse{Items: items, Total: page.Total, Limit: page.Limit, Offset: page.Offset}
}
