package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/studo/internal/planner"
)

const (
	sparkChars = " .:-=+*#%@"
	barChar    = "█"
	barWidth   = 24
	trendSpan  = 3
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Bar renders value as a horizontal bar scaled so that peak fills width.
func Bar(value, peak, width int) string {
	if value <= 0 || peak <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(float64(value) / float64(peak) * float64(width)))
	return strings.Repeat(barChar, max(1, min(n, width)))
}

// FormatMinutes renders a minute count as "1h 05m" or "45m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", max(0, minutes))
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// DailyValues returns the minutes of each day as floats.
func DailyValues(daily []DayMinutes) []float64 {
	values := make([]float64, len(daily))
	for i, d := range daily {
		values[i] = float64(d.Minutes)
	}
	return values
}

// RenderReport prints the plain-text analytics report.
func RenderReport(w io.Writer, r Report) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Total focus: %s", FormatMinutes(r.TotalMinutes)),
		fmt.Sprintf("Today: %s", FormatMinutes(r.TodayMinutes)),
		fmt.Sprintf("Streak: %d days", r.Streak),
		fmt.Sprintf("Tasks: %d pending, %d done (%.0f%% complete)", r.PendingTasks, r.CompletedTasks, r.CompletionRate),
		fmt.Sprintf("Notes: %d (%d need review)", r.Notes, r.DecayingNotes),
		fmt.Sprintf("Exams: %d", r.Exams),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := renderDaily(w, r.Daily); err != nil {
		return err
	}
	if err := renderPerTask(w, r.PerTask); err != nil {
		return err
	}
	return renderUpcoming(w, r)
}

func renderDaily(w io.Writer, daily []DayMinutes) error {
	if len(daily) == 0 {
		return nil
	}
	values := DailyValues(daily)
	if _, err := fmt.Fprintf(w, "Daily Focus  %s\n", Sparkline(values)); err != nil {
		return err
	}
	peak := 0
	for _, d := range daily {
		peak = max(peak, d.Minutes)
	}
	trend := MovingAverage(values, trendSpan)
	rows := make([][]string, 0, len(daily))
	for i, d := range daily {
		rows = append(rows, []string{
			d.Day.Format("Mon 01-02"),
			fmt.Sprintf("%d", d.Minutes),
			fmt.Sprintf("%.1f", trend[i]),
			Bar(d.Minutes, peak, barWidth),
		})
	}
	return WriteTable(w, []string{"Day", "Minutes", "3d Avg", ""}, rows, map[int]bool{1: true, 2: true})
}

func renderPerTask(w io.Writer, perTask []TaskMinutes) error {
	if _, err := fmt.Fprintln(w, "Time per Task"); err != nil {
		return err
	}
	if len(perTask) == 0 {
		_, err := fmt.Fprint(w, "No focus sessions logged yet.\n\n")
		return err
	}
	rows := make([][]string, 0, len(perTask))
	for _, t := range perTask {
		rows = append(rows, []string{t.Label, t.Subject, FormatMinutes(t.Minutes)})
	}
	return WriteTable(w, []string{"Task", "Subject", "Time"}, rows, map[int]bool{2: true})
}

func renderUpcoming(w io.Writer, r Report) error {
	if _, err := fmt.Fprintln(w, "Upcoming Exams"); err != nil {
		return err
	}
	if len(r.Upcoming) == 0 {
		_, err := fmt.Fprintln(w, "No upcoming exams.")
		return err
	}
	rows := make([][]string, 0, len(r.Upcoming))
	for _, exam := range r.Upcoming {
		countdown := ""
		if days, ok := planner.DaysLeft(exam.Date, r.GeneratedAt); ok {
			countdown = CountdownLabel(days)
		}
		rows = append(rows, []string{exam.Subject, exam.Date, string(exam.Priority), countdown})
	}
	return WriteTable(w, []string{"Subject", "Date", "Priority", "In"}, rows, nil)
}

// WriteTable prints an aligned table followed by a blank line.
func WriteTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// CountdownLabel renders the whole days until an exam.
func CountdownLabel(days int) string {
	switch {
	case days < 0:
		return "done"
	case days == 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
