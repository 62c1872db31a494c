// ABOUTME: Interactive TUI wizard for configuring readlist storage and reading list
// ABOUTME: 4-step bubbletea model collecting backend, data directory, source kind and location
package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harper/readlist/internal/config"
)

// Step represents the current wizard step.
type Step int

const (
	StepBackend Step = iota
	StepDataDir
	StepSourceKind
	StepSourceLocation
	StepDone
)

const stepCount = 4

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step     Step
	inputs   [stepCount]textinput.Model
	errMsg   string
	quitting bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// defaultDataDir returns the data directory used when none is configured.
func defaultDataDir() string {
	return (&config.Config{}).GetDataDir()
}

func newInput(placeholder, value string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Width = 60
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
// cfg may be nil for a first run.
func NewSetupModel(cfg *config.Config) SetupModel {
	if cfg == nil {
		cfg = &config.Config{}
	}
	location := cfg.Source.Path
	if cfg.Source.Kind == "feed" {
		location = cfg.Source.URL
	}

	m := SetupModel{
		step: StepBackend,
		inputs: [stepCount]textinput.Model{
			newInput("sqlite", cfg.Backend),
			newInput(defaultDataDir(), cfg.DataDir),
			newInput("file", cfg.Source.Kind),
			newInput("", location),
		},
	}
	m.inputs[StepBackend].Focus()
	return m
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) editing() bool {
	return m.step < StepDone
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			return m, tea.Quit
		}

		if m.editing() {
			return m.updateInput(msg)
		}
	default:
		// Forward other messages (e.g. cursor blink) to the active input
		if m.editing() {
			idx := int(m.step)
			var cmd tea.Cmd
			m.inputs[idx], cmd = m.inputs[idx].Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		return m.handleEnter()
	}

	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) handleEnter() (tea.Model, tea.Cmd) {
	idx := int(m.step)
	val := strings.TrimSpace(m.inputs[idx].Value())

	switch m.step {
	case StepBackend:
		val = strings.ToLower(val)
		if val == "" {
			val = "sqlite"
		}
		if val != "sqlite" && val != "charm" {
			m.errMsg = fmt.Sprintf("unknown backend %q", val)
			return m, nil
		}
	case StepDataDir:
		if val == "" {
			val = defaultDataDir()
		}
	case StepSourceKind:
		val = strings.ToLower(val)
		if val == "" {
			val = "file"
		}
		if val != "file" && val != "memory" && val != "feed" {
			m.errMsg = fmt.Sprintf("unknown reading list kind %q", val)
			return m, nil
		}
	case StepSourceLocation:
		if m.SourceKind() == "feed" {
			u, err := url.Parse(val)
			if val == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				m.errMsg = "enter an http or https feed URL"
				return m, nil
			}
		}
	}

	m.errMsg = ""
	m.inputs[idx].SetValue(val)
	m.inputs[idx].Blur()

	m.step++
	if m.step == StepSourceLocation && m.SourceKind() == "memory" {
		m.inputs[StepSourceLocation].SetValue("")
		m.step++
	}
	if m.step == StepDone {
		return m, tea.Quit
	}
	if m.step == StepSourceLocation {
		// A pre-filled location from another kind does not carry over.
		loc := m.inputs[StepSourceLocation].Value()
		isURL := strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
		if isURL != (m.SourceKind() == "feed") {
			m.inputs[StepSourceLocation].SetValue("")
		}
		m.inputs[StepSourceLocation].Placeholder = m.locationPlaceholder()
	}
	m.inputs[m.step].Focus()
	return m, textinput.Blink
}

// SourceKind returns the reading list kind entered so far.
func (m SetupModel) SourceKind() string {
	return m.inputs[StepSourceKind].Value()
}

func (m SetupModel) defaultSourcePath() string {
	cfg := &config.Config{DataDir: m.inputs[StepDataDir].Value()}
	return cfg.GetSourcePath()
}

func (m SetupModel) locationPlaceholder() string {
	if m.SourceKind() == "feed" {
		return "https://example.com/feed.xml"
	}
	return m.defaultSourcePath()
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   READLIST"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Configure local storage and the reading list to mirror.\n\n")

	if m.step > StepBackend && m.step < StepDone {
		b.WriteString(fmt.Sprintf("  Backend: %s\n", m.inputs[StepBackend].Value()))
	}
	if m.step > StepDataDir && m.step < StepDone {
		b.WriteString(fmt.Sprintf("  Data directory: %s\n", m.inputs[StepDataDir].Value()))
	}
	if m.step > StepSourceKind && m.step < StepDone {
		b.WriteString(fmt.Sprintf("  Reading list: %s\n", m.SourceKind()))
	}
	if m.step > StepBackend && m.step < StepDone {
		b.WriteString("\n")
	}

	switch m.step {
	case StepBackend:
		m.writeStep(&b, "Storage Backend", "(sqlite or charm, press Enter for default)")
	case StepDataDir:
		m.writeStep(&b, "Data Directory", fmt.Sprintf("(press Enter for default: %s)", defaultDataDir()))
	case StepSourceKind:
		m.writeStep(&b, "Reading List", "(file, memory or feed, press Enter for default)")
	case StepSourceLocation:
		if m.SourceKind() == "feed" {
			m.writeStep(&b, "Feed URL", "(required)")
		} else {
			m.writeStep(&b, "Reading List File", fmt.Sprintf("(press Enter for default: %s)", m.defaultSourcePath()))
		}
	case StepDone:
		b.WriteString(successStyle.Render("Setup complete!"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Backend:         %s\n", m.inputs[StepBackend].Value()))
		b.WriteString(fmt.Sprintf("  Data directory:  %s\n", m.inputs[StepDataDir].Value()))
		b.WriteString(fmt.Sprintf("  Reading list:    %s\n", m.SourceKind()))
		if loc := m.inputs[StepSourceLocation].Value(); loc != "" {
			b.WriteString(fmt.Sprintf("  Location:        %s\n", loc))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m SetupModel) writeStep(b *strings.Builder, title, hint string) {
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", int(m.step)+1, stepCount, title)))
	b.WriteString("\n")
	b.WriteString(promptStyle.Render(hint))
	b.WriteString("\n")
	b.WriteString(m.inputs[m.step].View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
}

// Apply copies the entered values onto cfg. An empty file location keeps
// the default reading list path.
func (m SetupModel) Apply(cfg *config.Config) {
	cfg.Backend = m.inputs[StepBackend].Value()
	cfg.DataDir = m.inputs[StepDataDir].Value()
	cfg.Source = config.SourceConfig{Kind: m.SourceKind()}

	loc := m.inputs[StepSourceLocation].Value()
	switch cfg.Source.Kind {
	case "file":
		cfg.Source.Path = loc
	case "feed":
		cfg.Source.URL = loc
	}
}

// ShouldSave returns true if the wizard completed and the user did not cancel.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
