package reflectdb

import (
	"errors"
	"fmt"
)

var (
	// ErrStream is wrapped by every error caused by a malformed or truncated
	// stream. Test for it with errors.Is, then for the specific cause.
	ErrStream = errors.New("reflectdb: invalid database stream")

	ErrTruncated        = errors.New("stream shorter than its header declares")
	ErrSizeMismatch     = errors.New("stream size inconsistent with its header")
	ErrDuplicateSection = errors.New("section appears more than once")
	ErrSectionLength    = errors.New("section length does not match its element count")
	ErrMissingSection   = errors.New("required section missing")
	ErrBadKind          = errors.New("record kind not allowed here")
	ErrBadOffset        = errors.New("pointer outside any section or off a record boundary")
	ErrBadText          = errors.New("text pointer not NUL terminated inside its blob")
	ErrUnsorted         = errors.New("array not ascending by name hash")
	ErrBadBloom         = errors.New("bloom section invalid")
	ErrSealMismatch     = errors.New("stream does not match its seal")

	ErrAllocation    = errors.New("reflectdb: block allocation failed")
	ErrAlreadyLoaded = errors.New("reflectdb: database already loaded")
)

// streamErr joins ErrStream with a specific cause and a detail message.
func streamErr(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: "+format, append([]any{ErrStream, cause}, args...)...)
}
