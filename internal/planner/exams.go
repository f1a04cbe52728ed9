package planner

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/studo/internal/model"
)

// urgentDays is the horizon within which an exam is flagged.
const urgentDays = 3

// ExamInput holds the user supplied fields of a new exam.
type ExamInput struct {
	Subject  string
	Date     string
	Priority model.Priority
}

// AddExam appends an exam. Subject and date are required; an unknown or
// empty priority becomes medium.
func AddExam(doc *model.Document, input ExamInput) (model.Exam, bool) {
	subject := strings.TrimSpace(input.Subject)
	date := strings.TrimSpace(input.Date)
	if subject == "" || date == "" {
		return model.Exam{}, false
	}
	exam := model.Exam{
		ID:       newID(),
		Subject:  subject,
		Date:     date,
		Priority: normalizePriority(input.Priority),
	}
	doc.Exams = append(doc.Exams, exam)
	return exam, true
}

// RemoveExam deletes the exam with id.
func RemoveExam(doc *model.Document, id string) bool {
	for i := range doc.Exams {
		if doc.Exams[i].ID == id {
			doc.Exams = append(doc.Exams[:i], doc.Exams[i+1:]...)
			return true
		}
	}
	return false
}

// SortExams returns a copy of exams ordered by date, earliest first.
// Exams with unreadable dates go last.
func SortExams(exams []model.Exam) []model.Exam {
	sorted := append([]model.Exam(nil), exams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aOK := parseDate(sorted[i].Date)
		b, bOK := parseDate(sorted[j].Date)
		if aOK != bOK {
			return aOK
		}
		return a.Before(b)
	})
	return sorted
}

// UpcomingExams returns up to limit exams dated today or later, earliest
// first. A non-positive limit returns all of them.
func UpcomingExams(exams []model.Exam, now time.Time, limit int) []model.Exam {
	today := midnight(now)
	var upcoming []model.Exam
	for _, exam := range SortExams(exams) {
		date, ok := parseDate(exam.Date)
		if !ok || date.Before(today) {
			continue
		}
		upcoming = append(upcoming, exam)
		if limit > 0 && len(upcoming) == limit {
			break
		}
	}
	return upcoming
}

// DaysLeft rounds the time until the start of the exam day up to whole days.
// The boolean is false when the date cannot be parsed.
func DaysLeft(date string, now time.Time) (int, bool) {
	t, ok := parseDate(date)
	if !ok {
		return 0, false
	}
	return int(math.Ceil(t.Sub(now).Hours() / 24)), true
}

// Urgent reports an exam zero to three days away.
func Urgent(days int) bool {
	return days >= 0 && days <= urgentDays
}

func normalizePriority(p model.Priority) model.Priority {
	switch model.Priority(strings.ToLower(string(p))) {
	case model.PriorityLow:
		return model.PriorityLow
	case model.PriorityHigh:
		return model.PriorityHigh
	}
	return model.PriorityMedium
}
