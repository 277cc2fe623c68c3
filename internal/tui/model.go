package tui

import (
	"strings"
	"time"

	"macro-dashboard/internal/dashboard"
	"macro-dashboard/internal/widget"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshEvery = 2 * time.Second

// Dashboard is the read-only view of the running widgets a terminal session
// renders.
type Dashboard interface {
	PricesText() string
	MarketText() string
	FearGreedText() string
	NewsText() string
	Widgets() []widget.Live
}

type keyMap struct {
	Quit   key.Binding
	Redraw key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Redraw, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Redraw: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "redraw"),
	),
}

type tickMsg time.Time

// Model is a bubbletea program showing every widget as a panel.
type Model struct {
	dash    Dashboard
	user    string
	spinner spinner.Model
	help    help.Model
	now     func() time.Time

	width  int
	height int
	drawn  time.Time
}

func NewModel(dash Dashboard, user string) *Model {
	return &Model{
		dash:    dash,
		user:    user,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		now:     time.Now,
		width:   100,
		height:  30,
	}
}

// SetSize records the terminal dimensions reported by the session pty.
func (m *Model) SetSize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
}

func (m *Model) Init() tea.Cmd {
	m.drawn = m.now()
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Redraw):
			m.drawn = m.now()
			return m, tea.ClearScreen
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case tickMsg:
		m.drawn = time.Time(msg)
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	ready := m.readiness()

	// Three panels share the top row; each border and padding costs 4 columns.
	third := (m.width - 12) / 3
	if third < 20 {
		third = 20
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel("Crypto Prices", m.dash.PricesText(), ready.prices, third),
		m.panel("Market Stats", m.dash.MarketText(), ready.market, third),
		m.panel("Fear & Greed", m.dash.FearGreedText(), ready.fearGreed, third),
	)
	news := m.panel("News", m.dash.NewsText(), ready.news, lipgloss.Width(top)-4)

	header := headerStyle.Render("Macro & Crypto Dashboard")
	status := statusBarStyle.Render(m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		top,
		news,
		status,
		m.help.View(keys),
	)
}

func (m *Model) statusLine() string {
	parts := []string{"updated " + m.drawn.Format("15:04:05")}
	if m.user != "" {
		parts = append([]string{m.user}, parts...)
	}
	return strings.Join(parts, " · ")
}

func (m *Model) panel(title, body string, ready bool, width int) string {
	style := panelStyle
	heading := titleStyle.Render(title)
	if !ready {
		style = loadingPanelStyle
		heading = m.spinner.View() + " " + heading
	}
	return style.Width(width).Render(heading + "\n" + body)
}

type readiness struct {
	prices, market, fearGreed, news bool
}

func (m *Model) readiness() readiness {
	var r readiness
	for _, w := range m.dash.Widgets() {
		switch name := w.Name(); {
		case name == dashboard.PricesWidget:
			r.prices = w.Ready()
		case name == dashboard.MarketWidget:
			r.market = w.Ready()
		case name == dashboard.FearGreedWidget:
			r.fearGreed = w.Ready()
		case strings.HasPrefix(name, "news-"):
			r.news = r.news || w.Ready()
		}
	}
	return r
}
