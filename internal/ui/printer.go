package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Printer writes styled components for single-shot commands.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer for w; nil means os.Stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintFailure prints a failure box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	p.Newline()
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Println(NewWarningResult(title, details).SetWidth(p.width).Render())
}

// PrintTable prints rows with columns padded to the widest cell.
// The first row is the heading.
func (p *Printer) PrintTable(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for n, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(widths) && i < len(row)-1 {
				cell += strings.Repeat(" ", widths[i]-len(cell))
			}
			cells[i] = cell
		}
		line := "  " + strings.Join(cells, "  ")
		if n == 0 {
			line = TableHeadingStyle.Render(line)
		}
		p.Println(line)
	}
}

// PrintFailure prints a failure box to stdout.
func PrintFailure(title string, err error, troubleshooting []string) {
	NewPrinter(nil).PrintFailure(title, err, troubleshooting)
}
