package flash

import "fmt"

// OptionError reports a missing or conflicting option.
type OptionError struct {
	// Option is the flag name without dashes; empty for combinations
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("invalid options: %s", e.Reason)
	}
	return fmt.Sprintf("invalid option --%s: %s", e.Option, e.Reason)
}

// DiscoveryError reports a file that could not be located by naming convention.
type DiscoveryError struct {
	// What describes the file (e.g. "boot2 image")
	What string
	// Dir is the directory that was searched
	Dir string
	// Found is the number of candidates when exactly one was required
	Found int
}

func (e *DiscoveryError) Error() string {
	if e.Found > 1 {
		return fmt.Sprintf("found %d %s files in %s, expected exactly one", e.Found, e.What, e.Dir)
	}
	return fmt.Sprintf("no %s found in %s", e.What, e.Dir)
}
