package zipreader

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is to test which kind a returned
// error belongs to; use errors.As with *ArchiveError to recover the
// offending file offset and a short description.
var (
	// ErrNotAnArchive means the end-of-central-directory signature was
	// not found anywhere in the trailing search window.
	ErrNotAnArchive = errors.New("zipreader: end of central directory not found")

	// ErrMalformedArchive means a signature mismatched at an expected
	// offset, a record's declared payload overran its container, or a
	// sentinel field had no ZIP64 override where one was required.
	ErrMalformedArchive = errors.New("zipreader: malformed archive")

	// ErrUnsupportedArchive means the archive spans multiple disks.
	ErrUnsupportedArchive = errors.New("zipreader: unsupported archive")

	// ErrUnsupportedEntry means Open was called on an entry that is
	// encrypted or uses a compression method other than Stored/Deflated.
	ErrUnsupportedEntry = errors.New("zipreader: unsupported entry")

	// ErrInvalidArgument means the windowed reader was called with an
	// out-of-range offset or size; this indicates a programming bug in
	// the core, not a property of the input file.
	ErrInvalidArgument = errors.New("zipreader: invalid argument")
)

// ArchiveError wraps one of the sentinel errors above with the file
// offset the violation was found at (when applicable) and a short
// human-readable detail describing which invariant was violated.
type ArchiveError struct {
	Kind   error
	Offset int64
	Detail string
}

func (e *ArchiveError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s (offset %d)", e.Kind, e.Detail, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ArchiveError) Unwrap() error {
	return e.Kind
}

func notAnArchive(detail string) error {
	return &ArchiveError{Kind: ErrNotAnArchive, Offset: -1, Detail: detail}
}

func malformedAt(offset int64, format string, args ...interface{}) error {
	return &ArchiveError{Kind: ErrMalformedArchive, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

func unsupportedArchiveAt(offset int64, detail string) error {
	return &ArchiveError{Kind: ErrUnsupportedArchive, Offset: offset, Detail: detail}
}

func unsupportedEntry(detail string) error {
	return &ArchiveError{Kind: ErrUnsupportedEntry, Offset: -1, Detail: detail}
}

func invalidArgument(detail string) error {
	return &ArchiveError{Kind: ErrInvalidArgument, Offset: -1, Detail: detail}
}
