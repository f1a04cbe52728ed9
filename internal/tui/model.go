// Package tui provides the Bubble Tea focus room.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/studo/internal/focus"
	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/planner"
	"github.com/verte-zerg/studo/internal/settings"
	"github.com/verte-zerg/studo/internal/stats"
)

const (
	eventBuffer  = 256
	quoteTimeout = 15 * time.Second
)

// DocumentSource provides the current document and later saves.
type DocumentSource interface {
	Load(ctx context.Context) (model.Document, error)
	Subscribe(fn func(doc model.Document)) (cancel func())
}

// QuoteSource supplies the motivational line under the clock.
type QuoteSource interface {
	Quote(ctx context.Context) string
}

type engineMsg struct {
	event focus.Event
}

type documentMsg struct {
	doc model.Document
}

type quoteMsg string

var (
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	quoteStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#8C8C8C"))
)

// Model implements the Bubble Tea focus room.
type Model struct {
	engine *focus.Engine
	quotes QuoteSource
	now    func() time.Time

	events      <-chan focus.Event
	docCh       chan model.Document
	unsubscribe func()

	doc   model.Document
	state focus.State
	theme settings.Theme
	bar   progress.Model

	quote   string
	notice  string
	failure string

	width  int
	height int
}

// NewModel constructs the focus room around engine. quotes may be nil.
func NewModel(engine *focus.Engine, docs DocumentSource, quotes QuoteSource) *Model {
	m := &Model{
		engine: engine,
		quotes: quotes,
		now:    time.Now,
		events: engine.Subscribe(eventBuffer),
		docCh:  make(chan model.Document, 1),
		state:  engine.Snapshot(),
	}
	doc, err := docs.Load(context.Background())
	if err != nil {
		logErrf("studo: %v; starting from defaults\n", err)
	}
	m.unsubscribe = docs.Subscribe(m.forward)
	m.setDocument(doc)
	return m
}

// Close detaches the room from the document source.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// forward keeps only the newest document for the UI loop.
func (m *Model) forward(doc model.Document) {
	for {
		select {
		case m.docCh <- doc:
			return
		default:
		}
		select {
		case <-m.docCh:
		default:
		}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.waitForDocument(), m.fetchQuote())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(60, msg.Width-8))
		return m, nil
	case engineMsg:
		m.handleEvent(msg.event)
		return m, m.waitForEvent()
	case documentMsg:
		m.setDocument(msg.doc)
		return m, m.waitForDocument()
	case quoteMsg:
		m.quote = string(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ", "enter":
		m.notice = ""
		m.engine.Toggle()
	case "r":
		m.notice = ""
		m.engine.Reset()
	case "1":
		m.engine.SwitchMode(model.ModeWork)
	case "2":
		m.engine.SwitchMode(model.ModeShortBreak)
	case "3":
		m.engine.SwitchMode(model.ModeLongBreak)
	case "t":
		m.engine.SetSelectedTask(nextTaskID(m.doc.Tasks, m.state.SelectedTaskID))
	default:
		return m, nil
	}
	m.state = m.engine.Snapshot()
	return m, nil
}

func (m *Model) handleEvent(event focus.Event) {
	m.state = event.State
	switch event.Type {
	case focus.EventComplete:
		m.notice = event.Message
	case focus.EventError:
		m.failure = event.Message
		logErrln("studo:", event.Message)
	case focus.EventLogged:
		m.failure = ""
	}
}

func (m *Model) setDocument(doc model.Document) {
	m.doc = doc
	m.theme = settings.ResolveTheme(doc.Settings)
	width := m.bar.Width
	m.bar = progress.New(progress.WithSolidFill(string(m.theme.Accent)), progress.WithoutPercentage())
	if width > 0 {
		m.bar.Width = width
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return engineMsg{event: event}
	}
}

func (m *Model) waitForDocument() tea.Cmd {
	ch := m.docCh
	return func() tea.Msg {
		return documentMsg{doc: <-ch}
	}
}

func (m *Model) fetchQuote() tea.Cmd {
	if m.quotes == nil {
		return nil
	}
	quotes := m.quotes
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quoteTimeout)
		defer cancel()
		return quoteMsg(quotes.Quote(ctx))
	}
}

// nextTaskID cycles through pending tasks, then back to no selection.
func nextTaskID(tasks []model.Task, current string) string {
	pending := planner.PendingTasks(tasks)
	if len(pending) == 0 {
		return ""
	}
	if current == "" {
		return pending[0].ID
	}
	for i, task := range pending {
		if task.ID == current {
			if i+1 < len(pending) {
				return pending[i+1].ID
			}
			return ""
		}
	}
	return pending[0].ID
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderRoom()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	return body + "\n" + footer
}

func (m *Model) renderRoom() string {
	accent := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true)
	clock := renderBigTime(focus.FormatTime(m.state.TimeLeft))
	if m.state.Active {
		clock = accent.Render(clock)
	}
	status := "Paused"
	if m.state.Active {
		status = "Running"
	}
	lines := []string{
		m.renderModes(),
		"",
		clock,
		"",
		m.bar.ViewAs(m.state.Progress / 100),
		footerStyle.Render(fmt.Sprintf("%s · %s", status, m.taskLabel())),
	}
	if m.notice != "" {
		lines = append(lines, "", accent.Render(m.notice))
	}
	if m.failure != "" {
		lines = append(lines, errorStyle.Render(m.failure))
	}
	if m.quote != "" {
		lines = append(lines, "", quoteStyle.Render(wrapQuote(m.quote, m.width)))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderModes() string {
	parts := make([]string, 0, len(model.Modes))
	for i, mode := range model.Modes {
		label := fmt.Sprintf("%d %s", i+1, mode.Label())
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(m.theme.Muted)
		if mode == m.state.Mode {
			style = style.Foreground(m.theme.Accent).Bold(true).Underline(true)
		}
		parts = append(parts, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) taskLabel() string {
	task, ok := m.doc.FindTask(m.state.SelectedTaskID)
	if !ok {
		return "No task selected"
	}
	return fmt.Sprintf("Working on: %s (%s)", task.Title, task.Subject)
}

func (m *Model) renderFooter() string {
	today := stats.MinutesSince(m.doc.Sessions, startOfDay(m.now()))
	total := stats.TotalMinutes(m.doc.Sessions)
	segments := []string{
		fmt.Sprintf("Today %s", stats.FormatMinutes(today)),
		fmt.Sprintf("Total %s", stats.FormatMinutes(total)),
		"space start/pause · r reset · 1/2/3 mode · t task · q quit",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
