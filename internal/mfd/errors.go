package mfd

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed matches every FormatError via errors.Is.
	ErrMalformed = errors.New("malformed manufacturing data")

	// ErrMissingIV is returned when a decryption key was supplied but the
	// factory data has no IV record.
	ErrMissingIV = errors.New("missing AES IV information")
)

// FormatError describes a structural or checksum violation in a factory data blob.
type FormatError struct {
	// Section is the part of the blob being decoded ("secured", "raw", "record")
	Section string
	// Offset is the byte offset in the blob where the problem was detected
	Offset int
	// Reason is a short description of the violation
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s (section %s, offset %d)", ErrMalformed, e.Reason, e.Section, e.Offset)
}

// Is reports ErrMalformed as the target so callers can match the category.
func (e *FormatError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(section string, offset int, format string, args ...interface{}) error {
	return &FormatError{
		Section: section,
		Offset:  offset,
		Reason:  fmt.Sprintf(format, args...),
	}
}
