// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownMode is returned when a mode name does not match any timer mode.
var ErrUnknownMode = errors.New("unknown timer mode")

// Mode identifies which interval kind the focus timer represents.
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "short"
	ModeLongBreak  Mode = "long"
)

// Modes lists every timer mode in display order.
var Modes = []Mode{ModeWork, ModeShortBreak, ModeLongBreak}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeWork, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// Label returns a human readable name for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeWork:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	}
	return string(m)
}

// ParseMode maps user input such as "work", "short-break" or "long" to a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "work", "focus":
		return ModeWork, nil
	case "short", "short-break", "short_break":
		return ModeShortBreak, nil
	case "long", "long-break", "long_break":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
}

// Priority ranks an exam.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Pomodoro holds the configured interval lengths in minutes.
type Pomodoro struct {
	Work  int `json:"work" yaml:"work"`
	Short int `json:"short" yaml:"short"`
	Long  int `json:"long" yaml:"long"`
}

// Minutes returns the configured length of mode.
func (p Pomodoro) Minutes(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return p.Short
	case ModeLongBreak:
		return p.Long
	default:
		return p.Work
	}
}

// Seconds returns the configured length of mode in seconds.
func (p Pomodoro) Seconds(mode Mode) int {
	return p.Minutes(mode) * 60
}

// Settings holds user preferences.
type Settings struct {
	DarkMode    bool     `json:"darkMode" yaml:"darkMode"`
	UserName    string   `json:"userName" yaml:"userName"`
	AccentColor string   `json:"accentColor" yaml:"accentColor"`
	Pomodoro    Pomodoro `json:"pomodoro" yaml:"pomodoro"`
}

// ResourceFile is a file attached to a note.
type ResourceFile struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Note is a study note.
type Note struct {
	ID           string         `json:"id" yaml:"id"`
	Title        string         `json:"title" yaml:"title"`
	Content      string         `json:"content" yaml:"content"`
	Subject      string         `json:"subject" yaml:"subject"`
	LastReviewed int64          `json:"lastReviewed" yaml:"lastReviewed"`
	Files        []ResourceFile `json:"files,omitempty" yaml:"files,omitempty"`
}

// Task is a planner item.
type Task struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
	Subject   string `json:"subject" yaml:"subject"`
	Date      string `json:"date" yaml:"date"`
	Deadline  string `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

// Exam is a scheduled exam.
type Exam struct {
	ID       string   `json:"id" yaml:"id"`
	Subject  string   `json:"subject" yaml:"subject"`
	Date     string   `json:"date" yaml:"date"`
	Priority Priority `json:"priority" yaml:"priority"`
}

// SessionRecord is one credited minute of focus time.
type SessionRecord struct {
	ID        string `json:"id" yaml:"id"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Duration  int    `json:"duration" yaml:"duration"`
	TaskID    string `json:"taskId,omitempty" yaml:"taskId,omitempty"`
}

// Time returns the record creation instant.
func (r SessionRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Document is the single persisted aggregate.
type Document struct {
	Notes    []Note          `json:"notes" yaml:"notes"`
	Tasks    []Task          `json:"tasks" yaml:"tasks"`
	Exams    []Exam          `json:"exams" yaml:"exams"`
	Sessions []SessionRecord `json:"sessions" yaml:"sessions"`
	Settings Settings        `json:"settings" yaml:"settings"`
}

// FindTask resolves a task id against the current task list.
// An empty or dangling id resolves to false.
func (d Document) FindTask(id string) (Task, bool) {
	if id == "" {
		return Task{}, false
	}
	for _, task := range d.Tasks {
		if task.ID == id {
			return task, true
		}
	}
	return Task{}, false
}
