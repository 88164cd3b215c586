// Package quotaview is a small bubbletea program launched from the
// "/billing dash" handler when the terminal supports full-screen mode: a
// periodically-refreshing dashboard of token usage and cost-multiplier
// state. The model is mutex-protected and reloaded on a tea.Tick poll,
// so totals recorded by a concurrent turn show up without a manual
// refresh.
package quotaview

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clio-cli/clio/internal/billing"
)

// RefreshInterval is how often the dashboard reloads the snapshot from
// disk.
const RefreshInterval = 2 * time.Second

type keyMap struct {
	quit, refresh key.Binding
}

var defaultKeys = keyMap{
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	refresh: key.NewBinding(key.WithKeys("r")),
}

type tickMsg time.Time

type snapshotMsg struct {
	snap *billing.Snapshot
	err  error
}

// Model is the quota dashboard's bubbletea model.
type Model struct {
	mu       sync.Mutex
	mgr      *billing.Manager
	snap     *billing.Snapshot
	err      error
	quitting bool
}

// New builds a dashboard backed by mgr.
func New(mgr *billing.Manager) *Model {
	return &Model{mgr: mgr}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.mgr.Load()
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(m.load(), tick())
	case snapshotMsg:
		m.mu.Lock()
		m.snap, m.err = msg.snap, msg.err
		m.mu.Unlock()
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, defaultKeys.quit):
			m.mu.Lock()
			m.quitting = true
			m.mu.Unlock()
			return m, tea.Quit
		case key.Matches(msg, defaultKeys.refresh):
			return m, m.load()
		}
	}
	return m, nil
}

func (m *Model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quitting {
		return ""
	}
	header := lipgloss.NewStyle().Bold(true).Render("Billing — live usage (r to refresh, q to quit)")
	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", fmt.Sprintf("error reading usage: %v", m.err))
	}
	if m.snap == nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", "loading…")
	}

	rowStyle := lipgloss.NewStyle().PaddingLeft(2)
	rows := []string{
		rowStyle.Render(fmt.Sprintf("prompt tokens:     %d", m.snap.PromptTokens)),
		rowStyle.Render(fmt.Sprintf("completion tokens: %d", m.snap.CompletionTokens)),
		rowStyle.Render(fmt.Sprintf("total tokens:      %d", m.snap.TotalTokens())),
		rowStyle.Render(fmt.Sprintf("premium requests:  %d", m.snap.PremiumRequests)),
		rowStyle.Render(fmt.Sprintf("last multiplier:   %s (x%.2f)", m.snap.LastMultiplier.Kind, m.snap.LastMultiplier.Rate)),
	}
	if m.snap.UpdatedAt != "" {
		rows = append(rows, rowStyle.Render("updated at:        "+m.snap.UpdatedAt))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header, ""}, rows...)...)
}
