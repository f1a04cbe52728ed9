package planner

import (
	"strings"
	"time"

	"github.com/verte-zerg/studo/internal/model"
)

// decayAfter is how long a note may go unreviewed before it is flagged.
const decayAfter = 7 * 24 * time.Hour

// NoteInput holds the user supplied fields of a new note.
type NoteInput struct {
	Title   string
	Content string
	Subject string
	Files   []model.ResourceFile
}

// AddNote appends a note reviewed at now. It returns false when the title
// is empty.
func AddNote(doc *model.Document, input NoteInput, now time.Time) (model.Note, bool) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Note{}, false
	}
	note := model.Note{
		ID:           newID(),
		Title:        title,
		Content:      input.Content,
		Subject:      subjectOrDefault(input.Subject),
		LastReviewed: now.UnixMilli(),
	}
	if len(input.Files) > 0 {
		note.Files = append([]model.ResourceFile(nil), input.Files...)
	}
	doc.Notes = append(doc.Notes, note)
	return note, true
}

// DeleteNote removes the note with id.
func DeleteNote(doc *model.Document, id string) bool {
	for i := range doc.Notes {
		if doc.Notes[i].ID == id {
			doc.Notes = append(doc.Notes[:i], doc.Notes[i+1:]...)
			return true
		}
	}
	return false
}

// FindNote looks up a note by id.
func FindNote(doc model.Document, id string) (model.Note, bool) {
	for _, note := range doc.Notes {
		if note.ID == id {
			return note, true
		}
	}
	return model.Note{}, false
}

// MarkReviewed stamps the note with id as reviewed at now.
func MarkReviewed(doc *model.Document, id string, now time.Time) bool {
	for i := range doc.Notes {
		if doc.Notes[i].ID == id {
			doc.Notes[i].LastReviewed = now.UnixMilli()
			return true
		}
	}
	return false
}

// FilterNotes keeps notes whose title or subject contains query, ignoring
// case. An empty query keeps everything.
func FilterNotes(notes []model.Note, query string) []model.Note {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []model.Note
	for _, note := range notes {
		if query == "" ||
			strings.Contains(strings.ToLower(note.Title), query) ||
			strings.Contains(strings.ToLower(note.Subject), query) {
			out = append(out, note)
		}
	}
	return out
}

// IsDecaying reports a note last reviewed more than seven days before now.
func IsDecaying(note model.Note, now time.Time) bool {
	return now.Sub(time.UnixMilli(note.LastReviewed)) > decayAfter
}
