package ota

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultDigestAlgorithm is used when Header.DigestAlgorithm is empty.
const DefaultDigestAlgorithm = "sha256"

const (
	maxVersionStrLen   = 64
	maxReleaseNotesLen = 256
)

// DigestAlgorithms lists the digest names accepted by the Matter OTA tool.
var DigestAlgorithms = []string{
	"sha256", "sha256_128", "sha256_120", "sha256_96", "sha256_64", "sha256_32",
	"sha384", "sha512", "sha3_224", "sha3_256", "sha3_384", "sha3_512",
}

// Header holds the Matter OTA header attributes. Nil numeric fields are unset.
type Header struct {
	VendorID        *uint32
	ProductID       *uint32
	Version         *uint32
	VersionStr      string
	DigestAlgorithm string
	MinVersion      *uint32
	MaxVersion      *uint32
	ReleaseNotes    string
}

// HeaderError reports an invalid OTA header attribute.
type HeaderError struct {
	Field  string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid OTA header %s: %s", e.Field, e.Reason)
}

// ParseNumber parses an unsigned 32-bit value written in any base
// ("0x" hex, "0o" octal, "0b" binary or decimal).
func ParseNumber(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return uint32(v), nil
}

// Digest returns the digest algorithm, defaulted.
func (h *Header) Digest() string {
	if h.DigestAlgorithm == "" {
		return DefaultDigestAlgorithm
	}
	return h.DigestAlgorithm
}

// Validate checks the header the way the Matter OTA tool does.
func (h *Header) Validate() error {
	switch {
	case h.VendorID == nil:
		return &HeaderError{Field: "vendor-id", Reason: "is required"}
	case *h.VendorID == 0:
		return &HeaderError{Field: "vendor-id", Reason: "is zero"}
	case *h.VendorID > 0xffff:
		return &HeaderError{Field: "vendor-id", Reason: "does not fit in 16 bits"}
	case h.ProductID == nil:
		return &HeaderError{Field: "product-id", Reason: "is required"}
	case *h.ProductID == 0:
		return &HeaderError{Field: "product-id", Reason: "is zero"}
	case *h.ProductID > 0xffff:
		return &HeaderError{Field: "product-id", Reason: "does not fit in 16 bits"}
	case h.Version == nil:
		return &HeaderError{Field: "version", Reason: "is required"}
	case h.VersionStr == "":
		return &HeaderError{Field: "version-str", Reason: "is required"}
	case len(h.VersionStr) > maxVersionStrLen:
		return &HeaderError{Field: "version-str", Reason: fmt.Sprintf("is longer than %d bytes", maxVersionStrLen)}
	case len(h.ReleaseNotes) > maxReleaseNotesLen:
		return &HeaderError{Field: "release-notes", Reason: fmt.Sprintf("URL is longer than %d bytes", maxReleaseNotesLen)}
	}

	if !isDigestAlgorithm(h.Digest()) {
		return &HeaderError{
			Field:  "digest-algorithm",
			Reason: fmt.Sprintf("%q is not one of %s", h.DigestAlgorithm, strings.Join(DigestAlgorithms, ", ")),
		}
	}

	// Zero min/max versions count as unset, as in the Matter tool.
	minSet := h.MinVersion != nil && *h.MinVersion != 0
	maxSet := h.MaxVersion != nil && *h.MaxVersion != 0
	if minSet && *h.MinVersion >= *h.Version {
		return &HeaderError{Field: "min-version", Reason: "is greater or equal to software version"}
	}
	if maxSet && *h.MaxVersion >= *h.Version {
		return &HeaderError{Field: "max-version", Reason: "is greater or equal to software version"}
	}
	if minSet && maxSet && *h.MinVersion > *h.MaxVersion {
		return &HeaderError{Field: "min-version", Reason: "is greater than max-version"}
	}
	return nil
}

// Args renders the header as ota_image_tool.py "create" flags.
func (h *Header) Args() []string {
	args := []string{
		"-v", formatOptional(h.VendorID),
		"-p", formatOptional(h.ProductID),
		"-vn", formatOptional(h.Version),
		"-vs", h.VersionStr,
		"-da", h.Digest(),
	}
	if h.MinVersion != nil && *h.MinVersion != 0 {
		args = append(args, "-mi", formatOptional(h.MinVersion))
	}
	if h.MaxVersion != nil && *h.MaxVersion != 0 {
		args = append(args, "-ma", formatOptional(h.MaxVersion))
	}
	if h.ReleaseNotes != "" {
		args = append(args, "-rn", h.ReleaseNotes)
	}
	return args
}

func formatOptional(v *uint32) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func isDigestAlgorithm(name string) bool {
	for _, d := range DigestAlgorithms {
		if d == name {
			return true
		}
	}
	return false
}
