// Package tui renders the aggregated views as a terminal dashboard. It
// receives plain data from the state container and contains no parsing
// logic.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qdblens/qdblens/internal/model"
	"github.com/qdblens/qdblens/internal/state"
)

// RefreshMsg asks the dashboard to re-read the store snapshot. Sent by
// the store subscription when a new ingestion batch is published.
type RefreshMsg struct{}

// Options configures the aggregate views the dashboard displays.
type Options struct {
	BucketInterval time.Duration
	TopQueryLimit  int
}

const sectionCount = 4

// DashboardModel is the bubbletea model for the dashboard.
type DashboardModel struct {
	store *state.Store
	opts  Options
	keys  KeyMap

	viewport      viewport.Model
	width         int
	height        int
	activeSection int
	ready         bool
}

// NewDashboard creates a dashboard over the given store.
func NewDashboard(store *state.Store, opts Options) *DashboardModel {
	if opts.BucketInterval <= 0 {
		opts.BucketInterval = model.DefaultBucketInterval
	}
	if opts.TopQueryLimit <= 0 {
		opts.TopQueryLimit = model.DefaultTopQueryLimit
	}
	return &DashboardModel{
		store: store,
		opts:  opts,
		keys:  DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m *DashboardModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 2
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.viewport.SetContent(m.renderContent())

	case RefreshMsg:
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextSection):
			m.activeSection = (m.activeSection + 1) % sectionCount
			m.viewport.SetContent(m.renderContent())
		case key.Matches(msg, m.keys.PrevSection):
			m.activeSection = (m.activeSection + sectionCount - 1) % sectionCount
			m.viewport.SetContent(m.renderContent())
		case key.Matches(msg, m.keys.Up):
			m.viewport.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.viewport.ScrollDown(1)
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m *DashboardModel) View() string {
	if !m.ready {
		return "Loading dashboard..."
	}
	help := helpStyle.Render("q quit · tab section · ↑/↓ scroll")
	return m.viewport.View() + "\n" + help
}
