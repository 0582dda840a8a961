// Package ui renders terminal output for bflb-flash commands.
//
// Components are drawn with Lipgloss and follow a "print and move on"
// pattern rather than a full-screen TUI:
//
//   - Header: command banner with the chip, port and inputs
//   - Progress: a Bubbles progress bar and one line per step
//   - Result: success, failure or warning box
//   - ToolOutput: trailing vendor tool output shown in verbose mode
//
// A Runner strings them together for multi-step commands:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Flash bl616",
//	    Command: "bflb-flash flash",
//	    Steps:   flasher.Plan(),
//	    Verbose: verbose,
//	})
//	err := runner.Run(func(onStep ui.StepCallback) (map[string]string, []string, error) {
//	    onStep(1, "", ui.StepRunning, "")
//	    ...
//	})
//
// Two interactive pieces exist: PickPort, a Bubble Tea list for choosing a
// serial port, and ConfirmEfuseWrite, which requires typing a phrase before
// one-time programmable efuse bits are written.
//
// Logging is controlled separately through BFLB_LOG_LEVEL; with it unset
// zap is silent and only these components are printed.
package ui
