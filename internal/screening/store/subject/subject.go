// Package subject persists normalized watchlist subjects.
package subject

import (
	"errors"
	"strings"

	"watchlist/internal/screening/match"
	"watchlist/internal/screening/models"
)

// SearchText is the normalized text indexed for full-text retrieval: name,
// aliases, address, remarks and other information.
func SearchText(s models.Subject) string {
	parts := make([]string, 0, 4+len(s.Aliases))
	parts = append(parts, s.Name)
	parts = append(parts, s.Aliases...)
	parts = append(parts, s.Address, s.Remarks, s.OtherInformation)
	return match.Normalize(strings.Join(parts, " "))
}

func validate(s models.Subject) error {
	switch {
	case strings.TrimSpace(s.Source) == "":
		return errors.New("subject source is required")
	case strings.TrimSpace(s.SourceRecordID) == "":
		return errors.New("subject source_record_id is required")
	case strings.TrimSpace(s.Name) == "":
		return errors.New("subject name is required")
	}
	return nil
}
