package toolchain

import (
	"fmt"
	"strings"
)

// ToolExecutionError represents a vendor tool that exited unsuccessfully.
type ToolExecutionError struct {
	// Tool is the executable that failed
	Tool string
	// ExitCode is the process exit code (-1 if it never started)
	ExitCode int
	// Stderr is the captured stderr output
	Stderr string
	// Underlying error if any
	Err error
}

func (e *ToolExecutionError) Error() string {
	msg := fmt.Sprintf("%s failed (exit code %d)", e.Tool, e.ExitCode)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\nstderr: " + stderr
	}
	return msg
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a tool run that exceeded its deadline.
type TimeoutError struct {
	Tool    string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s\n"+
		"Hint: Increase timeout with --timeout flag or check the serial connection",
		e.Tool, e.Timeout)
}

// PrerequisiteError represents a missing SDK, tool or environment setting.
type PrerequisiteError struct {
	// Prerequisite is the name of the missing prerequisite
	Prerequisite string
	// Details provides additional context
	Details string
	// Underlying error
	Err error
}

func (e *PrerequisiteError) Error() string {
	msg := fmt.Sprintf("missing prerequisite: %s", e.Prerequisite)
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\nError: %v", e.Err)
	}
	return msg
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}

// UnsupportedPlatformError represents a host the vendor tools do not run on.
type UnsupportedPlatformError struct {
	// Platform is the offending OS or CPU architecture
	Platform string
	Reason   string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %s: %s", e.Platform, e.Reason)
}

// ChipUnsupportedError represents a chip name missing from the catalog.
type ChipUnsupportedError struct {
	Chip      string
	Available []string
}

func (e *ChipUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported chip %q (known chips: %s)", e.Chip, strings.Join(e.Available, ", "))
}
