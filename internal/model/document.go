package model

import (
	"encoding/json"
	"fmt"
)

// Default values for a fresh document.
const (
	DefaultUserName    = "Student"
	DefaultAccentColor = "indigo"
)

// DefaultPomodoro returns the stock interval lengths.
func DefaultPomodoro() Pomodoro {
	return Pomodoro{Work: 25, Short: 5, Long: 15}
}

// DefaultSettings returns the stock preferences.
func DefaultSettings() Settings {
	return Settings{
		DarkMode:    false,
		UserName:    DefaultUserName,
		AccentColor: DefaultAccentColor,
		Pomodoro:    DefaultPomodoro(),
	}
}

// DefaultDocument returns the document used when nothing is stored yet.
func DefaultDocument() Document {
	return Document{
		Notes:    []Note{},
		Tasks:    []Task{},
		Exams:    []Exam{},
		Sessions: []SessionRecord{},
		Settings: DefaultSettings(),
	}
}

// presence mirrors the optional parts of a stored document so that
// DecodeDocument can tell a missing object from a zero one.
type presence struct {
	Settings *struct {
		Pomodoro *json.RawMessage `json:"pomodoro"`
	} `json:"settings"`
}

// DecodeDocument parses a stored document and applies the forward-compatible
// defaults: missing settings or settings.pomodoro are backfilled, nil lists
// become empty.
func DecodeDocument(data []byte) (Document, error) {
	var fields presence
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	switch {
	case fields.Settings == nil:
		doc.Settings = DefaultSettings()
	case fields.Settings.Pomodoro == nil:
		doc.Settings.Pomodoro = DefaultPomodoro()
	}
	doc.normalize()
	return doc, nil
}

// EncodeDocument serializes the document for storage.
func EncodeDocument(doc Document) ([]byte, error) {
	doc.normalize()
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the document so that subscribers cannot
// mutate each other's view.
func (d Document) Clone() Document {
	out := d
	out.Notes = make([]Note, len(d.Notes))
	for i, note := range d.Notes {
		out.Notes[i] = note
		if note.Files != nil {
			out.Notes[i].Files = append([]ResourceFile(nil), note.Files...)
		}
	}
	out.Tasks = append(make([]Task, 0, len(d.Tasks)), d.Tasks...)
	out.Exams = append(make([]Exam, 0, len(d.Exams)), d.Exams...)
	out.Sessions = append(make([]SessionRecord, 0, len(d.Sessions)), d.Sessions...)
	return out
}

func (d *Document) normalize() {
	if d.Notes == nil {
		d.Notes = []Note{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Exams == nil {
		d.Exams = []Exam{}
	}
	if d.Sessions == nil {
		d.Sessions = []SessionRecord{}
	}
}
