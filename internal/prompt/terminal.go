package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"codeberg.org/snonux/deepledit/internal/provider"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const pickerHeight = 10

// Terminal prompts on a terminal. When in is not a terminal every value
// prompt is cancelled and every warning is printed and dismissed.
type Terminal struct {
	in          *os.File
	out         io.Writer
	interactive bool
}

// NewTerminal creates a terminal prompter reading from in and drawing to out
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		in:          in,
		out:         out,
		interactive: in != nil && term.IsTerminal(int(in.Fd())),
	}
}

// Interactive reports whether prompts can be shown
func (t *Terminal) Interactive() bool {
	return t.interactive
}

func (t *Terminal) APIKey(ctx context.Context) (string, error) {
	if !t.interactive {
		return "", ErrCancelled
	}
	final, err := t.run(ctx, newKeyModel())
	if err != nil {
		return "", err
	}
	m := final.(keyModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.value, nil
}

func (t *Terminal) Language(ctx context.Context, kind provider.LanguageKind, languages []provider.Language) (string, error) {
	if !t.interactive || len(languages) == 0 {
		return "", ErrCancelled
	}
	final, err := t.run(ctx, newPickerModel(Placeholder(kind), languages))
	if err != nil {
		return "", err
	}
	m := final.(pickerModel)
	if m.chosen == "" {
		return "", ErrCancelled
	}
	return m.chosen, nil
}

func (t *Terminal) Warning(ctx context.Context, message, detail string, actions ...string) (string, error) {
	if !t.interactive {
		fmt.Fprintln(t.out, warningStyle.Render(message))
		if detail != "" {
			fmt.Fprintln(t.out, mutedStyle.Render(detail))
		}
		return "", nil
	}
	final, err := t.run(ctx, newWarningModel(message, detail, actions))
	if err != nil {
		return "", err
	}
	return final.(warningModel).chosen, nil
}

func (t *Terminal) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrInterrupted) {
			return nil, ErrCancelled
		}
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}

type keyModel struct {
	input     textinput.Model
	value     string
	cancelled bool
}

func newKeyModel() keyModel {
	input := textinput.New()
	input.Placeholder = "API key"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.Focus()
	return keyModel{input: input}
}

func (m keyModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m keyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.value = strings.TrimSpace(m.input.Value())
			m.cancelled = m.value == ""
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m keyModel) View() string {
	return boxStyle.Render(titleStyle.Render(APIKeyTitle) + "\n\n" + m.input.View() + "\n\n" +
		mutedStyle.Render("Enter Confirm | Esc Cancel"))
}

type pickerModel struct {
	title     string
	filter    textinput.Model
	languages []provider.Language
	visible   []provider.Language
	selected  int
	scroll    int
	chosen    string
}

func newPickerModel(title string, languages []provider.Language) pickerModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter"
	filter.Focus()
	m := pickerModel{
		title:     title,
		filter:    filter,
		languages: languages,
	}
	m.applyFilter()
	return m
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
			m.ensureVisible()
			return m, nil
		case tea.KeyDown:
			if m.selected < len(m.visible)-1 {
				m.selected++
			}
			m.ensureVisible()
			return m, nil
		case tea.KeyEnter:
			if len(m.visible) > 0 {
				m.chosen = m.visible[m.selected].Code
			}
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.chosen = ""
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *pickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = make([]provider.Language, 0, len(m.languages))
	for _, lang := range m.languages {
		if query == "" ||
			strings.Contains(strings.ToLower(lang.Name), query) ||
			strings.HasPrefix(strings.ToLower(lang.Code), query) {
			m.visible = append(m.visible, lang)
		}
	}
	m.selected = 0
	m.scroll = 0
}

func (m *pickerModel) ensureVisible() {
	if m.selected < m.scroll {
		m.scroll = m.selected
	}
	if m.selected >= m.scroll+pickerHeight {
		m.scroll = m.selected - pickerHeight + 1
	}
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(mutedStyle.Render("No matching languages"))
		b.WriteString("\n")
	}
	for i := m.scroll; i < len(m.visible) && i < m.scroll+pickerHeight; i++ {
		line := fmt.Sprintf("  %s (%s)", m.visible[i].Name, m.visible[i].Code)
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Up/Down Navigate | Enter Select | Esc Cancel"))
	return boxStyle.Render(b.String())
}

type warningModel struct {
	message  string
	detail   string
	actions  []string
	selected int
	chosen   string
}

func newWarningModel(message, detail string, actions []string) warningModel {
	return warningModel{message: message, detail: detail, actions: actions}
}

func (m warningModel) Init() tea.Cmd {
	return nil
}

func (m warningModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyLeft, tea.KeyShiftTab:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyRight, tea.KeyTab:
		if m.selected < len(m.actions)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		if len(m.actions) > 0 {
			m.chosen = m.actions[m.selected]
		}
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyCtrlC:
		m.chosen = ""
		return m, tea.Quit
	}
	return m, nil
}

func (m warningModel) View() string {
	var b strings.Builder
	b.WriteString(warningStyle.Render(m.message))
	if m.detail != "" {
		b.WriteString("\n\n")
		b.WriteString(m.detail)
	}
	b.WriteString("\n\n")

	buttons := make([]string, 0, len(m.actions))
	for i, action := range m.actions {
		label := "[ " + action + " ]"
		if i == m.selected {
			label = selectedStyle.Render(label)
		}
		buttons = append(buttons, label)
	}
	b.WriteString(strings.Join(buttons, "  "))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Left/Right Choose | Enter Confirm | Esc Dismiss"))
	return boxStyle.Render(b.String())
}
