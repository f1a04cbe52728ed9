package statsui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/planner"
	"github.com/verte-zerg/studo/internal/stats"
)

const overviewBarWidth = 20

func (m *Model) renderOverview(width int, now time.Time) string {
	r := m.report
	cards := []string{
		m.metricCard("Total Focus", stats.FormatMinutes(r.TotalMinutes)),
		m.metricCard("Today", stats.FormatMinutes(r.TodayMinutes)),
		m.metricCard("Streak", fmt.Sprintf("%dd", r.Streak)),
		m.metricCard("Pending Tasks", fmt.Sprintf("%d", r.PendingTasks)),
		m.metricCard("Notes", fmt.Sprintf("%d", r.Notes)),
		m.metricCard("Exams", fmt.Sprintf("%d", r.Exams)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	sections := []string{summary, renderDaily(r.Daily), renderUpcoming(r.Upcoming, now)}
	return strings.TrimRight(strings.Join(sections, "\n\n"), "\n")
}

func (m *Model) metricCard(label, value string) string {
	valueStyle := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true)
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), valueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderDaily(daily []stats.DayMinutes) string {
	if len(daily) == 0 {
		return ""
	}
	peak := 0
	for _, d := range daily {
		peak = max(peak, d.Minutes)
	}
	lines := []string{headerStyle.Render("Focus this week  " + stats.Sparkline(stats.DailyValues(daily)))}
	for _, d := range daily {
		lines = append(lines, fmt.Sprintf("%s %4d %s", d.Day.Format("Mon"), d.Minutes, stats.Bar(d.Minutes, peak, overviewBarWidth)))
	}
	return strings.Join(lines, "\n")
}

func renderUpcoming(exams []model.Exam, now time.Time) string {
	lines := []string{headerStyle.Render("Upcoming exams")}
	if len(exams) == 0 {
		return strings.Join(append(lines, "Nothing scheduled."), "\n")
	}
	for _, exam := range exams {
		lines = append(lines, examLine(exam, now))
	}
	return strings.Join(lines, "\n")
}

func renderExams(exams []model.Exam, now time.Time) string {
	if len(exams) == 0 {
		return "No exams scheduled. Add one with `studo exams add`."
	}
	lines := make([]string, 0, len(exams))
	for _, exam := range planner.SortExams(exams) {
		lines = append(lines, examLine(exam, now))
	}
	return strings.Join(lines, "\n")
}

func examLine(exam model.Exam, now time.Time) string {
	days, ok := planner.DaysLeft(exam.Date, now)
	countdown := "?"
	switch {
	case !ok:
	case days < 0:
		countdown = "done"
	default:
		countdown = fmt.Sprintf("%dd", days)
	}
	line := fmt.Sprintf("%-6s %-20s %s  [%s]", countdown, exam.Subject, exam.Date, exam.Priority)
	if ok && planner.Urgent(days) {
		return urgentStyle.Render(line)
	}
	if ok && days < 0 {
		return doneStyle.Render(line)
	}
	return line
}

func renderNotes(notes []model.Note, query string, now time.Time) string {
	filtered := planner.FilterNotes(notes, query)
	var lines []string
	if query != "" {
		lines = append(lines, headerStyle.Render(fmt.Sprintf("Filter: %q (%d of %d)", query, len(filtered), len(notes))))
	}
	if len(filtered) == 0 {
		return strings.Join(append(lines, "No notes found."), "\n")
	}
	for _, note := range filtered {
		reviewed := time.UnixMilli(note.LastReviewed).In(now.Location()).Format("2006-01-02")
		line := fmt.Sprintf("%-28s %-14s reviewed %s", note.Title, note.Subject, reviewed)
		if planner.IsDecaying(note, now) {
			line = urgentStyle.Render(line + "  needs review")
		}
		lines = append(lines, line)
		for _, file := range note.Files {
			lines = append(lines, headerStyle.Render("    "+file.Name))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) refreshTaskTable() {
	now := m.now()
	sorted := planner.SortTasks(m.doc.Tasks)
	minutes := map[string]int{}
	for _, entry := range m.report.PerTask {
		minutes[entry.TaskID] += entry.Minutes
	}
	rows := make([]table.Row, 0, len(sorted))
	m.taskIDs = m.taskIDs[:0]
	for _, task := range sorted {
		done := "[ ]"
		if task.Completed {
			done = "[x]"
		}
		due := task.Deadline
		if !task.Completed {
			if label := planner.DeadlineLabel(task.Deadline, now); label != "" {
				due = label
			}
		}
		rows = append(rows, table.Row{done, task.Title, task.Subject, due, stats.FormatMinutes(minutes[task.ID])})
		m.taskIDs = append(m.taskIDs, task.ID)
	}
	cursor := m.taskTable.Cursor()
	if len(m.taskTable.Columns()) == 0 {
		m.taskTable.SetColumns(taskColumns(m.width))
	}
	m.taskTable.SetRows(rows)
	if cursor >= len(rows) {
		m.taskTable.SetCursor(max(0, len(rows)-1))
	}
}

func taskColumns(width int) []table.Column {
	if width <= 0 {
		width = 80
	}
	fixed := 3 + 14 + 14 + 8
	title := max(12, width-fixed-10)
	return []table.Column{
		{Title: "", Width: 3},
		{Title: "Task", Width: title},
		{Title: "Subject", Width: 14},
		{Title: "Due", Width: 14},
		{Title: "Focus", Width: 8},
	}
}

func taskTableStyles(accent lipgloss.Color) table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(accent).
		Bold(true)
	return styles
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
