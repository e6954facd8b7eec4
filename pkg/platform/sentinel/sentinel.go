package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Backend adapters and guards return
// these (optionally wrapped) so services can decide how a fact affects the
// login pipeline instead of pattern-matching on message text.
//
// - ErrNotFound: the upstream directory has no record for the key
// - ErrConflict: another request already claimed the resource
// - ErrUnavailable: the collaborator failed or returned garbage
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
