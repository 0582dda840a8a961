package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a multi-step command for display.
type RunnerConfig struct {
	Title   string            // e.g., "Flash bl616"
	Command string            // e.g., "bflb-flash flash"
	Params  map[string]string // shown in the header
	Steps   []string          // step names, in order
	Verbose bool              // show captured vendor tool output
	Output  io.Writer         // default: os.Stdout

	// Troubleshoot returns hints for a failure; nil means none.
	Troubleshoot func(error) []string
}

// Operation does the work and reports steps through onStep.
// It returns details and notes for the success box.
type Operation func(onStep StepCallback) (details map[string]string, notes []string, err error)

// Runner prints header, live step lines and a result box around an Operation.
type Runner struct {
	config     RunnerConfig
	header     *Header
	progress   *Progress
	toolOutput *ToolOutput
	output     io.Writer
	width      int
}

// NewRunner creates a Runner for config.
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	return &Runner{
		config:     config,
		header:     NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		progress:   NewProgress("", config.Steps).SetWidth(width),
		toolOutput: NewToolOutput(),
		output:     config.Output,
		width:      width,
	}
}

// ToolWriter is where vendor tool output should be copied.
func (r *Runner) ToolWriter() io.Writer {
	return r.toolOutput
}

// Progress exposes the step state, mainly for tests.
func (r *Runner) Progress() *Progress {
	return r.progress
}

// Run prints the header, runs op and prints the result. It returns op's error.
func (r *Runner) Run(op Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, notes, err := op(r.onStep)
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		var tips []string
		if r.config.Troubleshoot != nil {
			tips = r.config.Troubleshoot(err)
		}
		result := NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width)
		result.AddDetail("Duration", duration.String())
		_, _ = fmt.Fprintln(r.output, result.Render())
	} else {
		result := NewSuccessResult(r.config.Title+" complete", details).SetWidth(r.width)
		result.AddDetail("Duration", duration.String())
		for _, note := range notes {
			result.AddNote(note)
		}
		_, _ = fmt.Fprintln(r.output, result.Render())
	}

	if r.config.Verbose && !r.toolOutput.Empty() {
		_, _ = fmt.Fprintln(r.output)
		_, _ = fmt.Fprintln(r.output, r.toolOutput.Render(r.width))
	}
	return err
}

func (r *Runner) onStep(stepNumber int, name string, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}
	if name != "" {
		r.progress.Steps[stepNumber-1].Name = name
	}
	r.progress.UpdateStep(stepNumber, status, message)

	line := r.progress.RenderStep(r.progress.Steps[stepNumber-1])
	switch status {
	case StepRunning:
		// Overwritten by the final state of the step.
		_, _ = fmt.Fprint(r.output, line+"\r")
	case StepComplete, StepFailed, StepSkipped:
		_, _ = fmt.Fprintln(r.output, line)
	}
}
