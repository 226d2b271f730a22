package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("dataset offsets overlap")
	ErrOutOfBounds        = errors.New("dataset extends beyond data section")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrGroupNotFound      = errors.New("group not found")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrReaderClosed       = errors.New("reader is closed")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "out_of_bounds")
	Name    string // Primary group or dataset path involved
	Name2   string // Secondary path (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Name2 != "" {
		return fmt.Sprintf("%s: %q and %q: %s", e.Type, e.Name, e.Name2, e.Details)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %q: %s", e.Type, e.Name, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Is lets errors.Is match a ValidationError against the sentinel of its type.
func (e *ValidationError) Is(target error) bool {
	switch e.Type {
	case "offset_overlap":
		return target == ErrOffsetOverlap
	case "out_of_bounds":
		return target == ErrOutOfBounds
	}
	return false
}
