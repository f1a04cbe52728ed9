// Package planner implements the task, exam and note collections of the
// study document.
package planner

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/studo/internal/model"
)

// DefaultSubject is used when an item is created without a subject.
const DefaultSubject = "General"

// DateLayout is the calendar date format used for deadlines and exams.
const DateLayout = "2006-01-02"

// newID is replaced in tests.
var newID = uuid.NewString

// TaskInput holds the user supplied fields of a new task.
type TaskInput struct {
	Title    string
	Subject  string
	Deadline string
}

// AddTask appends a task created at now. It returns false and leaves doc
// untouched when the title is empty.
func AddTask(doc *model.Document, input TaskInput, now time.Time) (model.Task, bool) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, false
	}
	task := model.Task{
		ID:       newID(),
		Title:    title,
		Subject:  subjectOrDefault(input.Subject),
		Date:     now.UTC().Format(time.RFC3339Nano),
		Deadline: strings.TrimSpace(input.Deadline),
	}
	doc.Tasks = append(doc.Tasks, task)
	return task, true
}

// ToggleTask flips the completion flag of the task with id.
func ToggleTask(doc *model.Document, id string) bool {
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			doc.Tasks[i].Completed = !doc.Tasks[i].Completed
			return true
		}
	}
	return false
}

// RemoveTask deletes the task with id. Session records that reference it are
// kept and show up as unassigned time.
func RemoveTask(doc *model.Document, id string) bool {
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

// SortTasks returns a copy of tasks in display order: incomplete before
// completed, then deadline ascending with dated tasks first, then newest
// first.
func SortTasks(tasks []model.Task) []model.Task {
	sorted := append([]model.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		aDue, aOK := parseDate(a.Deadline)
		bDue, bOK := parseDate(b.Deadline)
		switch {
		case aOK && bOK:
			if !aDue.Equal(bDue) {
				return aDue.Before(bDue)
			}
			return false
		case aOK:
			return true
		case bOK:
			return false
		}
		return createdAt(a).After(createdAt(b))
	})
	return sorted
}

// PendingTasks returns the incomplete tasks in display order.
func PendingTasks(tasks []model.Task) []model.Task {
	var pending []model.Task
	for _, task := range SortTasks(tasks) {
		if !task.Completed {
			pending = append(pending, task)
		}
	}
	return pending
}

// DaysRemaining counts whole days between the local midnight of now and the
// deadline. The boolean is false when there is no valid deadline.
func DaysRemaining(deadline string, now time.Time) (int, bool) {
	due, ok := parseDate(deadline)
	if !ok {
		return 0, false
	}
	today := midnight(now)
	due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Round(due.Sub(today).Hours() / 24)), true
}

// DeadlineLabel describes a deadline relative to now, e.g. "Due in 3d".
func DeadlineLabel(deadline string, now time.Time) string {
	days, ok := DaysRemaining(deadline, now)
	switch {
	case !ok:
		return ""
	case days < 0:
		return "Overdue (" + strconv.Itoa(-days) + "d)"
	case days == 0:
		return "Due today"
	}
	return "Due in " + strconv.Itoa(days) + "d"
}

// Imminent reports a deadline one or two days away.
func Imminent(days int) bool {
	return days > 0 && days <= 2
}

// CompletionRate returns the percentage of completed tasks.
func CompletionRate(tasks []model.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, task := range tasks {
		if task.Completed {
			done++
		}
	}
	return float64(done) / float64(len(tasks)) * 100
}

func createdAt(task model.Task) time.Time {
	t, err := time.Parse(time.RFC3339Nano, task.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func subjectOrDefault(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return DefaultSubject
	}
	return subject
}
