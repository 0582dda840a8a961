package ui

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultToolOutputLines is how many trailing lines ToolOutput keeps.
const DefaultToolOutputLines = 200

// ToolOutput captures vendor tool output for display after a command.
// It implements io.Writer and keeps only the last MaxLines lines.
type ToolOutput struct {
	Title    string
	MaxLines int

	mu      sync.Mutex
	lines   []string
	partial bytes.Buffer
	dropped int
}

// NewToolOutput creates an empty capture box.
func NewToolOutput() *ToolOutput {
	return &ToolOutput{Title: "Vendor tool output", MaxLines: DefaultToolOutputLines}
}

// Write implements io.Writer.
func (t *ToolOutput) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		line, err := t.partial.ReadString('\n')
		if err != nil {
			// Keep the incomplete tail for the next write.
			t.partial.Reset()
			t.partial.WriteString(line)
			break
		}
		t.append(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (t *ToolOutput) append(line string) {
	t.lines = append(t.lines, line)
	if t.MaxLines > 0 && len(t.lines) > t.MaxLines {
		over := len(t.lines) - t.MaxLines
		t.lines = t.lines[over:]
		t.dropped += over
	}
}

// Lines returns the captured lines including an unterminated tail.
func (t *ToolOutput) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := append([]string(nil), t.lines...)
	if t.partial.Len() > 0 {
		lines = append(lines, t.partial.String())
	}
	return lines
}

// Empty reports whether nothing was captured.
func (t *ToolOutput) Empty() bool {
	return len(t.Lines()) == 0
}

// Render returns the captured output in a muted box.
func (t *ToolOutput) Render(width int) string {
	width = clampWidth(width)

	lines := t.Lines()
	t.mu.Lock()
	dropped := t.dropped
	t.mu.Unlock()
	if dropped > 0 {
		lines = append([]string{StepNoteStyle.Render(fmt.Sprintf("... (%d earlier lines omitted)", dropped))}, lines...)
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		ToolOutputTitleStyle.Render(t.Title),
		"",
		ToolOutputContentStyle.Render(strings.Join(lines, "\n")),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width - 4).
		Padding(0, 1).
		MarginLeft(2).
		Render(inner)
}
