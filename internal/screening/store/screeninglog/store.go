// Package screeninglog stores the append-only record of screening invocations.
package screeninglog

import (
	"math"
	"strings"

	"watchlist/internal/screening/models"
)

const (
	// DefaultLimit is the page size used when a listing does not ask for one.
	DefaultLimit = 15
	// MaxLimit bounds a single listing page.
	MaxLimit = 500
	// maxSkip bounds the rows skipped before a page so the offset stays a valid int.
	maxSkip = math.MaxInt32
)

// Normalize applies listing defaults: limit 15 (capped at 500), page 1.
// Pages past the addressable range collapse onto the last one, which is empty.
func Normalize(f models.LogFilter) models.LogFilter {
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	f.Limit = min(f.Limit, MaxLimit)
	if f.Offset < 1 {
		f.Offset = 1
	}
	f.Offset = min(f.Offset, maxSkip/f.Limit+1)
	f.Search = strings.TrimSpace(f.Search)
	f.ScreeningType = strings.ToLower(strings.TrimSpace(f.ScreeningType))
	return f
}

func skip(f models.LogFilter) int {
	return (f.Offset - 1) * f.Limit
}

func matches(f models.LogFilter, e models.LogEntry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.ScreeningType != "" && e.ScreeningType != f.ScreeningType {
		return false
	}
	if f.IsMatch != nil && e.IsMatch != *f.IsMatch {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(e.SearchString), strings.ToLower(f.Search)) {
		return false
	}
	if f.DateFrom != nil && e.ScreeningDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !e.ScreeningDate.Before(*f.DateTo) {
		return false
	}
	return true
}
