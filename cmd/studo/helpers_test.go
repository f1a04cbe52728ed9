package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/settings"
)

func TestParseResourceFiles(t *testing.T) {
	files, err := parseResourceFiles([]string{"slides=https://example.com/a.pdf", " notes = https://example.com/b "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(files) != 2 || files[0].Name != "slides" || files[1].URL != "https://example.com/b" {
		t.Fatalf("unexpected files: %+v", files)
	}
	for _, bad := range []string{"slides", "=https://x", "slides="} {
		if _, err := parseResourceFiles([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestApplySetting(t *testing.T) {
	doc := model.DefaultDocument()

	if err := applySetting(&doc, "long", "0"); err != nil {
		t.Fatalf("long: %v", err)
	}
	if doc.Settings.Pomodoro.Long != 1 {
		t.Fatalf("expected clamp to 1, got %d", doc.Settings.Pomodoro.Long)
	}
	if err := applySetting(&doc, "dark", "yes"); err == nil {
		t.Fatalf("expected error for non-bool dark value")
	}
	if err := applySetting(&doc, "dark", "true"); err != nil || !doc.Settings.DarkMode {
		t.Fatalf("expected dark mode on, err=%v", err)
	}
	if err := applySetting(&doc, "accent", "teal"); !errors.Is(err, settings.ErrUnknownAccent) {
		t.Fatalf("expected ErrUnknownAccent, got %v", err)
	}
	if err := applySetting(&doc, "work", "abc"); err == nil {
		t.Fatalf("expected error for non-numeric minutes")
	}
	err := applySetting(&doc, "volume", "3")
	if err == nil || !strings.Contains(err.Error(), "unknown setting") {
		t.Fatalf("expected unknown setting error, got %v", err)
	}
}

func TestValidateDate(t *testing.T) {
	if err := validateDate("--date", ""); err != nil {
		t.Fatalf("empty date should pass: %v", err)
	}
	if err := validateDate("--date", "2030-02-28"); err != nil {
		t.Fatalf("valid date: %v", err)
	}
	if err := validateDate("--date", "28/02/2030"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("unexpected short id %q", got)
	}
}
