// Package statsui provides the Bubble Tea study dashboard.
package statsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/planner"
	"github.com/verte-zerg/studo/internal/settings"
	"github.com/verte-zerg/studo/internal/stats"
)

const (
	tabOverview = iota
	tabPlanner
	tabExams
	tabNotes
)

// DocumentStore is the persistence the dashboard reads and edits.
type DocumentStore interface {
	Load(ctx context.Context) (model.Document, error)
	Update(ctx context.Context, fn func(doc *model.Document) error) error
	Subscribe(fn func(doc model.Document)) (cancel func())
}

type documentMsg struct {
	doc model.Document
}

type updateErrMsg struct {
	err error
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	urgentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E")).Bold(true)
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Strikethrough(true)
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	store DocumentStore
	now   func() time.Time

	doc    model.Document
	report stats.Report
	theme  settings.Theme
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	taskTable table.Model
	taskIDs   []string

	width  int
	height int

	searchMode  bool
	searchInput textinput.Model
	noteQuery   string

	docCh       chan model.Document
	unsubscribe func()
}

// NewModel constructs a dashboard over st. now defaults to time.Now.
func NewModel(st DocumentStore, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	m := &Model{
		store: st,
		now:   now,
		tabs:  []string{"Overview", "Planner", "Exams", "Notes"},
		docCh: make(chan model.Document, 1),
	}
	m.initViewports()
	m.initSearchInput()
	m.taskTable = table.New(table.WithFocused(false), table.WithStyles(taskTableStyles(m.theme.Accent)))

	doc, err := st.Load(context.Background())
	if err != nil {
		m.errMsg = err.Error()
	}
	m.unsubscribe = st.Subscribe(m.forward)
	m.setDocument(doc)
	return m
}

// Close detaches the dashboard from the store.
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

func (m *Model) waitForDocument() tea.Cmd {
	ch := m.docCh
	return func() tea.Msg {
		return documentMsg{doc: <-ch}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForDocument()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case documentMsg:
		m.setDocument(msg.doc)
		return m, m.waitForDocument()
	case updateErrMsg:
		m.errMsg = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.searchMode {
			return m.updateSearch(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "/":
		if m.activeTab == tabNotes {
			return m.startSearch()
		}
		return m, nil
	case " ", "x":
		if m.activeTab == tabPlanner {
			return m, m.toggleSelectedTask()
		}
		return m, nil
	case "g", "home":
		if m.activeTab == tabPlanner {
			m.taskTable.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if m.activeTab == tabPlanner {
			m.taskTable.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	}
	if m.activeTab == tabPlanner {
		var cmd tea.Cmd
		m.taskTable, cmd = m.taskTable.Update(msg)
		return m, cmd
	}
	vp := m.viewports[m.activeTab]
	var cmd tea.Cmd
	vp, cmd = vp.Update(msg)
	m.viewports[m.activeTab] = vp
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) setDocument(doc model.Document) {
	m.doc = doc
	m.theme = settings.ResolveTheme(doc.Settings)
	m.report = stats.BuildReport(doc, m.now(), stats.DefaultDays)
	m.taskTable.SetStyles(taskTableStyles(m.theme.Accent))
	m.refreshTaskTable()
	m.renderTabContents()
}

func (m *Model) toggleSelectedTask() tea.Cmd {
	cursor := m.taskTable.Cursor()
	if cursor < 0 || cursor >= len(m.taskIDs) {
		return nil
	}
	id := m.taskIDs[cursor]
	st := m.store
	return func() tea.Msg {
		err := st.Update(context.Background(), func(doc *model.Document) error {
			if !planner.ToggleTask(doc, id) {
				return fmt.Errorf("task %s no longer exists", id)
			}
			return nil
		})
		if err != nil {
			return updateErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initSearchInput() {
	input := textinput.New()
	input.Prompt = "Search: "
	input.Placeholder = "title or subject"
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	m.searchInput = input
}

func (m *Model) startSearch() (tea.Model, tea.Cmd) {
	m.searchMode = true
	m.searchInput.SetValue(m.noteQuery)
	m.searchInput.CursorEnd()
	return m, m.searchInput.Focus()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searchMode = false
		m.searchInput.Blur()
		m.noteQuery = strings.TrimSpace(m.searchInput.Value())
		m.renderTabContents()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(m.navStyle(true).Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.taskTable.SetWidth(m.width)
	m.taskTable.SetHeight(max(1, bodyHeight-2))
	m.taskTable.SetColumns(taskColumns(m.width))
	m.searchInput.Width = max(10, m.width-lipgloss.Width(m.searchInput.Prompt)-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabPlanner {
		m.taskTable.Focus()
	} else {
		m.taskTable.Blur()
	}
}

func (m *Model) navStyle(active bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder(), true)
	if active {
		return style.Bold(true).
			Foreground(m.theme.Foreground).
			BorderForeground(m.theme.Accent)
	}
	return style.Foreground(m.theme.Muted).BorderForeground(m.theme.Border)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		parts = append(parts, m.navStyle(i == m.activeTab).Render(tab))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	name := m.doc.Settings.UserName
	if name == "" {
		name = model.DefaultUserName
	}
	greeting := truncateLine(fmt.Sprintf("Hello, %s. %s focused today.", name, stats.FormatMinutes(m.report.TodayMinutes)), m.width)
	return tabs + "\n" + headerStyle.Render(greeting)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q"
	switch m.activeTab {
	case tabPlanner:
		help = "Nav: left/right  Move: up/down  Toggle done: space  Quit: q"
	case tabNotes:
		help = "Nav: left/right  Scroll: up/down  Search: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.searchMode {
		return headerStyle.Render("enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	switch {
	case m.activeTab == tabNotes && m.searchMode:
		body := m.searchInput.View() + "\n\n" + m.viewports[tabNotes].View()
		return fitLines(body, m.width, height)
	case m.activeTab == tabPlanner:
		if len(m.taskIDs) == 0 {
			return fitLines("No tasks yet. Add one with `studo tasks add`.", m.width, height)
		}
		summary := headerStyle.Render(fmt.Sprintf("%.0f%% complete", m.report.CompletionRate))
		return fitLines(summary+"\n"+m.taskTable.View(), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	now := m.now()
	m.viewports[tabOverview].SetContent(m.renderOverview(width, now))
	m.viewports[tabExams].SetContent(renderExams(m.doc.Exams, now))
	m.viewports[tabNotes].SetContent(renderNotes(m.doc.Notes, m.noteQuery, now))
}
