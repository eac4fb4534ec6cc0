package entities

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors wrap one of these so callers can classify
// failures with errors.Is without knowing every concrete error.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

var (
	ErrBookNotFound     = fmt.Errorf("book %w", ErrNotFound)
	ErrChapterNotFound  = fmt.Errorf("chapter %w", ErrNotFound)
	ErrBookmarkNotFound = fmt.Errorf("bookmark %w", ErrNotFound)

	ErrEmptyText      = fmt.Errorf("%w: text is empty", ErrInvalidInput)
	ErrLibraryFull    = fmt.Errorf("%w: library is full", ErrInvalidInput)
	ErrInvalidAnchor  = fmt.Errorf("%w: malformed anchor", ErrInvalidInput)
	ErrAnchorMode     = fmt.Errorf("%w: anchor does not match reader mode", ErrInvalidInput)
	ErrInvalidMode    = fmt.Errorf("%w: unknown reader mode", ErrInvalidInput)
	ErrInvalidMessage = fmt.Errorf("%w: malformed message", ErrInvalidInput)
	ErrBodyTooLarge   = fmt.Errorf("%w: request body too large", ErrInvalidInput)
	ErrNotText        = fmt.Errorf("%w: file is not UTF-8 text", ErrInvalidInput)
)

// StorageError wraps a persistence failure so it classifies as
// ErrStorageUnavailable while keeping the underlying cause.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
