package tui

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"macro-dashboard/internal/widget"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeDashboard struct {
	widgets []widget.Live
}

func (f *fakeDashboard) PricesText() string     { return "Bitcoin: $63,123.45" }
func (f *fakeDashboard) MarketText() string     { return "Total Market Cap: $2,400,000,000,000" }
func (f *fakeDashboard) FearGreedText() string  { return "Loading Fear & Greed Index…" }
func (f *fakeDashboard) NewsText() string       { return "Crypto News\n• Headline" }
func (f *fakeDashboard) Widgets() []widget.Live { return f.widgets }

func newLive(t *testing.T, name string, ok bool) widget.Live {
	t.Helper()
	w := widget.New(widget.Config{Name: name, Interval: time.Hour},
		func(context.Context) (string, error) {
			if !ok {
				return "", errors.New("down")
			}
			return "x", nil
		},
		func(s string) template.HTML { return template.HTML(s) })
	_ = w.Refresh(context.Background())
	t.Cleanup(w.Stop)
	return w
}

func TestViewRendersEveryPanel(t *testing.T) {
	dash := &fakeDashboard{widgets: []widget.Live{
		newLive(t, "prices", true),
		newLive(t, "market", true),
		newLive(t, "feargreed", false),
		newLive(t, "news-crypto-news", true),
	}}
	m := NewModel(dash, "alice")
	m.SetSize(120, 40)
	m.Init()

	view := m.View()
	for _, want := range []string{
		"Macro & Crypto Dashboard",
		"Crypto Prices",
		"Bitcoin: $63,123.45",
		"Market Stats",
		"Fear & Greed",
		"Loading Fear & Greed Index…",
		"Headline",
		"alice",
		"quit",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestReadinessTracksWidgets(t *testing.T) {
	dash := &fakeDashboard{widgets: []widget.Live{
		newLive(t, "prices", true),
		newLive(t, "market", false),
		newLive(t, "feargreed", true),
		newLive(t, "news-a", false),
		newLive(t, "news-b", true),
	}}
	r := NewModel(dash, "").readiness()
	if !r.prices || r.market || !r.fearGreed || !r.news {
		t.Fatalf("unexpected readiness %+v", r)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		m := NewModel(&fakeDashboard{}, "")
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: expected a command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected quit", msg)
		}
	}
}

func TestRedrawKeyStampsTime(t *testing.T) {
	m := NewModel(&fakeDashboard{}, "")
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected clear screen command")
	}
	if !m.drawn.Equal(fixed) {
		t.Fatalf("drawn = %v, want %v", m.drawn, fixed)
	}
	if !strings.Contains(m.statusLine(), "09:30:00") {
		t.Fatalf("status line %q", m.statusLine())
	}
}

func TestWindowSizeAndTick(t *testing.T) {
	m := NewModel(&fakeDashboard{}, "")
	m.Update(tea.WindowSizeMsg{Width: 150, Height: 50})
	if m.width != 150 || m.height != 50 {
		t.Fatalf("size = %dx%d", m.width, m.height)
	}

	m.SetSize(0, -1)
	if m.width != 150 || m.height != 50 {
		t.Fatal("non-positive sizes must be ignored")
	}

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, cmd := m.Update(tickMsg(at))
	if cmd == nil {
		t.Fatal("tick must schedule the next tick")
	}
	if !m.drawn.Equal(at) {
		t.Fatalf("drawn = %v", m.drawn)
	}
}
