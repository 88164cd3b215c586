// Package sessionpicker is a small bubbletea program launched from the
// "/session pick" handler when the terminal supports full-screen mode:
// an interactive, scrollable list of saved sessions the user can select
// from with arrow keys and Enter. Selection is read back by the handler
// after the program exits, so the model only records an ID.
package sessionpicker

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clio-cli/clio/internal/chatsession"
)

type keyMap struct {
	up, down, enter, quit key.Binding
}

var defaultKeys = keyMap{
	up:    key.NewBinding(key.WithKeys("up", "k")),
	down:  key.NewBinding(key.WithKeys("down", "j")),
	enter: key.NewBinding(key.WithKeys("enter")),
	quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
}

// Model is the picker's bubbletea model.
//
// mu guards cursor and quitting, the only two fields mutated outside of
// Update's own goroutine-free call path — kept as a mutex (rather than
// plain fields) only because Selected() may be called by the parent
// program after the bubbletea run loop has exited, from a different
// goroutine than the one that ran Update.
type Model struct {
	mu       sync.Mutex
	sessions []chatsession.SessionSummary
	cursor   int
	quitting bool
	selected string
}

// New builds a picker over sessions.
func New(sessions []chatsession.SessionSummary) *Model {
	return &Model{sessions: sessions}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case key.Matches(keyMsg, defaultKeys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, defaultKeys.down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, defaultKeys.enter):
		if m.cursor < len(m.sessions) {
			m.selected = m.sessions[m.cursor].ID
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, defaultKeys.quit):
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quitting {
		return ""
	}
	if len(m.sessions) == 0 {
		return "no saved sessions\n"
	}

	header := lipgloss.NewStyle().Bold(true).Render("Select a session (enter to resume, q to cancel)")
	var rows []string
	for i, s := range m.sessions {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.cursor {
			cursor = "> "
			style = style.Bold(true)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s  %s  %s", cursor, s.ID[:8], s.UpdatedAt.Format("2006-01-02 15:04"), s.Preview)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header, ""}, rows...)...)
}

// Selected returns the chosen session ID, or "" if the user cancelled.
func (m *Model) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}
