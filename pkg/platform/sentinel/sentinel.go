package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and index backends return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: subject or log entry does not exist in the store
//   - ErrConflict: a unique key (source, source_record_id) is already taken
//   - ErrUnavailable: backing store or index cannot be reached
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
