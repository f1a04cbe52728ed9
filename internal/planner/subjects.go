package planner

import (
	"strings"

	"github.com/verte-zerg/studo/internal/model"
)

// Subjects lists every distinct non-empty subject in doc, tasks first, then
// notes, then exams, in first-seen order.
func Subjects(doc model.Document) []string {
	seen := map[string]bool{}
	var subjects []string
	add := func(subject string) {
		subject = strings.TrimSpace(subject)
		if subject == "" || seen[subject] {
			return
		}
		seen[subject] = true
		subjects = append(subjects, subject)
	}
	for _, task := range doc.Tasks {
		add(task.Subject)
	}
	for _, note := range doc.Notes {
		add(note.Subject)
	}
	for _, exam := range doc.Exams {
		add(exam.Subject)
	}
	return subjects
}

// ResolveID matches an exact id or a unique id prefix, the way short ids are
// typed on the command line.
func ResolveID(ids []string, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	match := ""
	for _, id := range ids {
		if id == value {
			return id, true
		}
		if strings.HasPrefix(id, value) {
			if match != "" {
				return "", false
			}
			match = id
		}
	}
	return match, match != ""
}

// TaskIDs returns the ids of tasks.
func TaskIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

// ExamIDs returns the ids of exams.
func ExamIDs(exams []model.Exam) []string {
	ids := make([]string, len(exams))
	for i, exam := range exams {
		ids[i] = exam.ID
	}
	return ids
}

// NoteIDs returns the ids of notes.
func NoteIDs(notes []model.Note) []string {
	ids := make([]string, len(notes))
	for i, note := range notes {
		ids[i] = note.ID
	}
	return ids
}
