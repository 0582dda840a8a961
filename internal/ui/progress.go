package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one line of the progress list.
type Step struct {
	Number  int // 1-based
	Name    string
	Status  StepStatus
	Message string // optional detail, e.g. "FW.ota" or "IV 0102..."
}

// StepCallback receives step updates from a running command.
type StepCallback func(stepNumber int, name string, status StepStatus, message string)

// stepNameColumn aligns step markers.
const stepNameColumn = 40

// Progress tracks a fixed list of steps and renders a bar plus step lines.
type Progress struct {
	Label   string
	Steps   []Step
	Current int
	Percent float64 // 0.0 - 1.0
	Width   int
	bar     progress.Model
}

// NewProgress creates a progress display with one step per name.
func NewProgress(label string, names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	p := &Progress{Label: label, Steps: steps}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth resizes the bar for the terminal width.
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return p
}

// Total returns the number of steps.
func (p *Progress) Total() int {
	return len(p.Steps)
}

// UpdateStep records a status change and recomputes the completed fraction.
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	step := &p.Steps[stepNumber-1]
	step.Status = status
	step.Message = message

	if status == StepRunning {
		p.Current = stepNumber
		return
	}

	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	if len(p.Steps) > 0 {
		p.Percent = float64(done) / float64(len(p.Steps))
	}
}

// Render returns the label, bar and step list.
func (p *Progress) Render() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}
	b.WriteString(p.RenderBar())
	b.WriteString("\n\n")

	lines := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		lines[i] = p.RenderStep(step)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// RenderBar renders the bar with percentage and step counter.
func (p *Progress) RenderBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, p.Current, p.Total()))
}

// RenderStep renders a single step line.
func (p *Progress) RenderStep(step Step) string {
	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	padding := stepNameColumn - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", step.Number, p.Total())
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
