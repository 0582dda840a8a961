package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestProgress_UpdateStep(t *testing.T) {
	p := NewProgress("", []string{"Stage", "Post-process", "Program"})

	p.UpdateStep(1, StepRunning, "")
	if p.Current != 1 {
		t.Errorf("Current = %d, want 1", p.Current)
	}
	if p.Percent != 0 {
		t.Errorf("Percent = %v, want 0 while running", p.Percent)
	}

	p.UpdateStep(1, StepComplete, "FW.bin")
	p.UpdateStep(2, StepSkipped, "")
	if got, want := p.Percent, 2.0/3.0; got != want {
		t.Errorf("Percent = %v, want %v", got, want)
	}

	// Out of range updates are ignored.
	p.UpdateStep(0, StepFailed, "")
	p.UpdateStep(4, StepFailed, "")
	for _, s := range p.Steps {
		if s.Status == StepFailed {
			t.Errorf("step %d unexpectedly failed", s.Number)
		}
	}

	line := p.RenderStep(p.Steps[0])
	for _, want := range []string{"[1/3]", "Stage", "FW.bin"} {
		if !strings.Contains(line, want) {
			t.Errorf("RenderStep() = %q, missing %q", line, want)
		}
	}
}

func TestResult_Render(t *testing.T) {
	r := NewFailureResult("Flash failed", errors.New("BLFlashCommand failed (exit code 1)"), []string{"Check the cable"}).SetWidth(80)
	r.AddDetail("Chip", "bl616").AddNote("erase ignored")

	out := r.Render()
	for _, want := range []string{"FAILED", "Flash failed", "exit code 1", "Chip", "bl616", "erase ignored", "Troubleshooting", "Check the cable"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}

	ok := NewSuccessResult("Flash complete", map[string]string{"Firmware": "FW.bin"}).SetWidth(80).Render()
	if !strings.Contains(ok, "SUCCESS") || !strings.Contains(ok, "FW.bin") {
		t.Errorf("success Render() = %q", ok)
	}
}

func TestToolOutput_Write(t *testing.T) {
	out := NewToolOutput()
	fmt.Fprint(out, "line one\nline ")
	fmt.Fprint(out, "two\r\npartial")

	got := out.Lines()
	want := []string{"line one", "line two", "partial"}
	if len(got) != len(want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if out.Empty() {
		t.Error("Empty() = true after writes")
	}
}

func TestToolOutput_Truncates(t *testing.T) {
	out := NewToolOutput()
	out.MaxLines = 3
	for i := 0; i < 10; i++ {
		fmt.Fprintf(out, "line %d\n", i)
	}

	got := out.Lines()
	if len(got) != 3 || got[0] != "line 7" || got[2] != "line 9" {
		t.Errorf("Lines() = %q, want the last three lines", got)
	}
	if r := out.Render(80); !strings.Contains(r, "7 earlier lines omitted") {
		t.Errorf("Render() does not mention dropped lines: %q", r)
	}
}

func TestConfirmDangerousOperation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact phrase", "I AGREE\n", true},
		{"surrounding space", "  I AGREE  \n", true},
		{"no newline", "I AGREE", true},
		{"lower case", "i agree\n", false},
		{"empty", "", false},
		{"other", "yes\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := ConfirmEfuseWrite(strings.NewReader(tt.input), &out, "bl616", "/dev/ttyUSB0")
			if got != tt.want {
				t.Errorf("ConfirmEfuseWrite(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "/dev/ttyUSB0") {
				t.Error("warning does not name the port")
			}
		})
	}
}

func TestPortPickerModel_Update(t *testing.T) {
	m := NewPortPickerModel([]PortChoice{
		{Name: "/dev/ttyACM0"},
		{Name: "/dev/ttyUSB0", Detail: "USB 1a86:7523"},
	})

	press := func(m PortPickerModel, msg tea.KeyMsg) (PortPickerModel, tea.Cmd) {
		next, cmd := m.Update(msg)
		return next.(PortPickerModel), cmd
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d after down past the end, want 1", m.Cursor)
	}
	if !strings.Contains(m.View(), "USB 1a86:7523") {
		t.Error("View() does not show port details")
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Chosen != "/dev/ttyUSB0" {
		t.Errorf("Chosen = %q, want /dev/ttyUSB0", m.Chosen)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}

	cancelled, _ := press(NewPortPickerModel(nil), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !cancelled.Cancelled {
		t.Error("q should cancel the picker")
	}
}
