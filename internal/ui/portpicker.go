package ui

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrPickerCancelled is returned when the user leaves the picker without choosing.
var ErrPickerCancelled = errors.New("port selection cancelled")

// PortChoice is one row of the port picker.
type PortChoice struct {
	Name   string
	Detail string // e.g., "USB 1a86:7523, CH340"
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

// ShortHelp implements help.KeyMap
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Quit}
}

// FullHelp implements help.KeyMap
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Choose, k.Quit}}
}

// PortPickerModel is a Bubble Tea model that lets the user choose a serial port.
type PortPickerModel struct {
	Choices   []PortChoice
	Cursor    int
	Chosen    string
	Cancelled bool

	keys pickerKeyMap
	help help.Model
}

// NewPortPickerModel creates a picker over choices.
func NewPortPickerModel(choices []PortChoice) PortPickerModel {
	return PortPickerModel{
		Choices: choices,
		help:    help.New(),
		keys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "down"),
			),
			Choose: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "choose"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "cancel"),
			),
		},
	}
}

// Init implements tea.Model
func (m PortPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m PortPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.Cursor > 0 {
				m.Cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.Cursor < len(m.Choices)-1 {
				m.Cursor++
			}
		case key.Matches(msg, m.keys.Choose):
			if len(m.Choices) > 0 {
				m.Chosen = m.Choices[m.Cursor].Name
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// View implements tea.Model
func (m PortPickerModel) View() string {
	var b strings.Builder
	b.WriteString(HeaderTitleStyle.Render("SELECT SERIAL PORT"))
	b.WriteString("\n\n")

	if len(m.Choices) == 0 {
		b.WriteString(StepPendingStyle.Render("  No serial ports found."))
		b.WriteString("\n")
	}
	for i, c := range m.Choices {
		line := "  " + c.Name
		if c.Detail != "" {
			line += "  " + StepNoteStyle.Render(c.Detail)
		}
		if i == m.Cursor {
			line = SelectedStyle.Render("> " + c.Name)
			if c.Detail != "" {
				line += "  " + StepNoteStyle.Render(c.Detail)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

// PickPort runs the picker on the terminal and returns the chosen port name.
func PickPort(in io.Reader, out io.Writer, choices []PortChoice) (string, error) {
	program := tea.NewProgram(NewPortPickerModel(choices), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return "", err
	}
	m := final.(PortPickerModel)
	if m.Cancelled || m.Chosen == "" {
		return "", ErrPickerCancelled
	}
	return m.Chosen, nil
}
