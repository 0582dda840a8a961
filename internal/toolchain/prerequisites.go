package toolchain

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
)

// Host identifies the machine the vendor tools will run on.
type Host struct {
	GOOS   string
	GOARCH string
}

// CurrentHost returns the running host.
func CurrentHost() Host {
	return Host{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

// CheckHost rejects hosts the vendor binaries are not built for.
// They are only shipped for x86_64.
func CheckHost(h Host) error {
	if h.GOARCH != "amd64" {
		return &UnsupportedPlatformError{
			Platform: h.GOOS + "/" + h.GOARCH,
			Reason:   "vendor flashing tools only run on x86_64 machines",
		}
	}
	return nil
}

// PrerequisiteCheck represents the result of checking a single prerequisite.
type PrerequisiteCheck struct {
	// Name is the human-readable name of the prerequisite
	Name string
	// Available indicates whether the prerequisite is available
	Available bool
	// Path is the resolved path (for binary checks)
	Path string
	// Message provides additional context (error message or success info)
	Message string
	// Error contains the underlying error if check failed
	Error error
}

// PrerequisiteResult contains the results of all prerequisite checks.
type PrerequisiteResult struct {
	// Checks contains individual check results
	Checks []PrerequisiteCheck
	// AllAvailable is true if all prerequisites are available
	AllAvailable bool
}

// ValidatePrerequisites checks the host and every tool executable and returns a report.
func ValidatePrerequisites(host Host, tools *Tools) *PrerequisiteResult {
	result := &PrerequisiteResult{
		Checks:       make([]PrerequisiteCheck, 0),
		AllAvailable: true,
	}

	hostCheck := PrerequisiteCheck{
		Name:      "Host platform",
		Available: true,
		Message:   fmt.Sprintf("%s/%s", host.GOOS, host.GOARCH),
	}
	if err := CheckHost(host); err != nil {
		hostCheck.Available = false
		hostCheck.Error = err
		hostCheck.Message = err.Error()
	}
	result.Checks = append(result.Checks, hostCheck)

	if tools != nil {
		roles := make([]string, 0, 2)
		paths := tools.Paths()
		for role := range paths {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			result.Checks = append(result.Checks, checkTool(role, paths[role]))
		}
	}

	for _, check := range result.Checks {
		if !check.Available {
			result.AllAvailable = false
		}
	}
	return result
}

// checkTool verifies that a tool exists and is executable.
func checkTool(name, path string) PrerequisiteCheck {
	check := PrerequisiteCheck{
		Name: name,
		Path: path,
	}

	if err := checkExecutable(path); err != nil {
		check.Error = err
		check.Message = err.Error()
		return check
	}

	check.Available = true
	check.Message = "Found"
	return check
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s not found", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// ValidateTools returns a *PrerequisiteError for the first missing tool.
func ValidateTools(tools *Tools) error {
	var missing []string
	for _, path := range []string{tools.FwProc, tools.FlashTool} {
		if path == "" {
			continue
		}
		if err := checkExecutable(path); err != nil {
			missing = append(missing, err.Error())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &PrerequisiteError{
		Prerequisite: string(tools.Kind) + " tools",
		Details: "Expecting tools as below:\n  " + strings.Join(missing, "\n  ") +
			"\nMake sure the SDK is installed and its root directory is exported.",
	}
}

// FormatPrerequisiteReport formats a PrerequisiteResult into a human-readable string.
func FormatPrerequisiteReport(result *PrerequisiteResult) string {
	var sb strings.Builder

	sb.WriteString("Toolchain Prerequisites Check:\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	for _, check := range result.Checks {
		if check.Available {
			sb.WriteString(fmt.Sprintf("✓ %s\n", check.Name))
			if check.Path != "" {
				sb.WriteString(fmt.Sprintf("  Path: %s\n", check.Path))
			}
			if check.Message != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", check.Message))
			}
		} else {
			sb.WriteString(fmt.Sprintf("✗ %s\n", check.Name))
			if check.Message != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", check.Message))
			}
		}
		sb.WriteString("\n")
	}

	if result.AllAvailable {
		sb.WriteString("All required prerequisites are available.\n")
	} else {
		sb.WriteString("Some prerequisites are missing. Please install them before proceeding.\n")
	}

	return sb.String()
}
