// Package stats computes focus analytics from the study document.
package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/planner"
)

const (
	// DefaultDays is the length of the daily minutes window.
	DefaultDays = 7
	// upcomingLimit caps the exams shown on the overview.
	upcomingLimit = 4
	// UnassignedLabel groups time logged without a resolvable task.
	UnassignedLabel = "Unassigned"
)

// TaskMinutes is the focus time credited to one task.
type TaskMinutes struct {
	TaskID  string
	Label   string
	Subject string
	Minutes int
}

// DayMinutes is the focus time logged on one local calendar day.
type DayMinutes struct {
	Day     time.Time
	Minutes int
}

// Report contains precomputed data for stats rendering.
type Report struct {
	GeneratedAt    time.Time
	UserName       string
	TotalMinutes   int
	TodayMinutes   int
	PendingTasks   int
	CompletedTasks int
	CompletionRate float64
	Notes          int
	DecayingNotes  int
	Exams          int
	Streak         int
	Upcoming       []model.Exam
	PerTask        []TaskMinutes
	Daily          []DayMinutes
}

// BuildReport summarises doc as seen at now. days sets the daily window;
// non-positive values use DefaultDays.
func BuildReport(doc model.Document, now time.Time, days int) Report {
	if days <= 0 {
		days = DefaultDays
	}
	report := Report{
		GeneratedAt:    now,
		UserName:       doc.Settings.UserName,
		TotalMinutes:   TotalMinutes(doc.Sessions),
		TodayMinutes:   MinutesSince(doc.Sessions, startOfDay(now)),
		CompletionRate: planner.CompletionRate(doc.Tasks),
		Notes:          len(doc.Notes),
		Exams:          len(doc.Exams),
		Upcoming:       planner.UpcomingExams(doc.Exams, now, upcomingLimit),
		PerTask:        MinutesPerTask(doc),
		Daily:          DailyMinutes(doc.Sessions, now, days),
	}
	for _, task := range doc.Tasks {
		if task.Completed {
			report.CompletedTasks++
		} else {
			report.PendingTasks++
		}
	}
	for _, note := range doc.Notes {
		if planner.IsDecaying(note, now) {
			report.DecayingNotes++
		}
	}
	report.Streak = Streak(doc.Sessions, now)
	return report
}

// TotalMinutes sums the duration of every record.
func TotalMinutes(sessions []model.SessionRecord) int {
	total := 0
	for _, s := range sessions {
		total += s.Duration
	}
	return total
}

// MinutesSince sums records created at or after since.
func MinutesSince(sessions []model.SessionRecord, since time.Time) int {
	total := 0
	cutoff := since.UnixMilli()
	for _, s := range sessions {
		if s.Timestamp >= cutoff {
			total += s.Duration
		}
	}
	return total
}

// MinutesPerTask groups logged time by task, most time first. Records with
// no task or a task that no longer exists are grouped as UnassignedLabel.
func MinutesPerTask(doc model.Document) []TaskMinutes {
	byID := map[string]*TaskMinutes{}
	var order []*TaskMinutes
	for _, s := range doc.Sessions {
		key := ""
		task, ok := doc.FindTask(s.TaskID)
		if ok {
			key = task.ID
		}
		entry, exists := byID[key]
		if !exists {
			entry = &TaskMinutes{TaskID: key, Label: UnassignedLabel}
			if ok {
				entry.Label = task.Title
				entry.Subject = task.Subject
			}
			byID[key] = entry
			order = append(order, entry)
		}
		entry.Minutes += s.Duration
	}
	out := make([]TaskMinutes, 0, len(order))
	for _, entry := range order {
		out = append(out, *entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// DailyMinutes returns one bucket per local day for the last days days,
// oldest first and ending with today.
func DailyMinutes(sessions []model.SessionRecord, now time.Time, days int) []DayMinutes {
	if days <= 0 {
		return nil
	}
	today := startOfDay(now)
	out := make([]DayMinutes, days)
	index := map[time.Time]int{}
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-days+1)
		out[i] = DayMinutes{Day: day}
		index[day] = i
	}
	for _, s := range sessions {
		day := startOfDay(s.Time().In(now.Location()))
		if i, ok := index[day]; ok {
			out[i].Minutes += s.Duration
		}
	}
	return out
}

// Streak counts consecutive days with logged focus, ending today. A day
// without focus yet today does not break a streak that ran until yesterday.
func Streak(sessions []model.SessionRecord, now time.Time) int {
	active := map[time.Time]bool{}
	for _, s := range sessions {
		if s.Duration > 0 {
			active[startOfDay(s.Time().In(now.Location()))] = true
		}
	}
	day := startOfDay(now)
	if !active[day] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for active[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
