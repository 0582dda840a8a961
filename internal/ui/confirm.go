package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase must be typed to accept a dangerous operation.
const ConfirmPhrase = "I AGREE"

// ConfirmDangerousOperation prints a warning box to out and reads one line
// from in. It returns true only if the line is ConfirmPhrase.
func ConfirmDangerousOperation(in io.Reader, out io.Writer, title string, warnings []string, disclaimer string) bool {
	width := GetTerminalWidth()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)), ""}
	for _, warning := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+warning))
	}
	lines = append(lines, "")

	if disclaimer != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width-12).
			PaddingLeft(3).
			Render(disclaimer), "")
	}

	_, _ = fmt.Fprintln(out, boxStyle(lipgloss.DoubleBorder(), WarningColor, width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}
	if strings.TrimSpace(input) == ConfirmPhrase {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// ConfirmEfuseWrite asks before efuse data is programmed. Efuse bits are
// one-time programmable.
func ConfirmEfuseWrite(in io.Reader, out io.Writer, chip, port string) bool {
	return ConfirmDangerousOperation(in, out,
		"EFUSE PROGRAMMING",
		[]string{
			fmt.Sprintf("The %s on %s will have efuse data written", chip, port),
			"Efuse bits cannot be cleared once set",
			"Locked key slots can no longer be read back or changed",
			"Do not interrupt the operation once started",
		},
		"The key and lock words are derived from --key and --sk. "+
			"Check them carefully: a wrong key makes encrypted factory data unreadable on this device for good.",
	)
}
