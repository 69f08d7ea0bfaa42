package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrEmptyScrape      = errors.New("scraper returned no entries")
	ErrSubtagCollision  = errors.New("subtag already registered under a different primary tag")
	ErrCorruptDocument  = errors.New("corrupt product document")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
