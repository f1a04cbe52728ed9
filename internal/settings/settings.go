// Package settings edits user preferences and resolves the colour theme.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/studo/internal/model"
)

// ErrUnknownAccent is returned for accent names outside the palette.
var ErrUnknownAccent = errors.New("unknown accent color")

// minMinutes is the shortest configurable interval.
const minMinutes = 1

// Accents maps accent names to hex colours.
var Accents = map[string]string{
	"indigo":  "#4f46e5",
	"rose":    "#f43f5e",
	"emerald": "#10b981",
	"amber":   "#f59e0b",
	"purple":  "#a855f7",
}

// AccentNames lists the palette in display order.
var AccentNames = []string{"indigo", "rose", "emerald", "amber", "purple"}

// SetPomodoro sets the length of mode in minutes, clamped to at least one
// minute. It returns the stored value.
func SetPomodoro(doc *model.Document, mode model.Mode, minutes int) (int, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
	}
	if minutes < minMinutes {
		minutes = minMinutes
	}
	switch mode {
	case model.ModeWork:
		doc.Settings.Pomodoro.Work = minutes
	case model.ModeShortBreak:
		doc.Settings.Pomodoro.Short = minutes
	case model.ModeLongBreak:
		doc.Settings.Pomodoro.Long = minutes
	}
	return minutes, nil
}

// SetUserName stores the display name. A blank name restores the default.
func SetUserName(doc *model.Document, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultUserName
	}
	doc.Settings.UserName = name
}

// SetDarkMode toggles the dark palette.
func SetDarkMode(doc *model.Document, dark bool) {
	doc.Settings.DarkMode = dark
}

// SetAccent selects an accent from the palette.
func SetAccent(doc *model.Document, accent string) error {
	accent = strings.ToLower(strings.TrimSpace(accent))
	if _, ok := Accents[accent]; !ok {
		return fmt.Errorf("%w: %q (choose one of %s)", ErrUnknownAccent, accent, strings.Join(AccentNames, ", "))
	}
	doc.Settings.AccentColor = accent
	return nil
}

// Reset restores every preference to its default.
func Reset(doc *model.Document) {
	doc.Settings = model.DefaultSettings()
}

// Theme is the resolved palette used by the terminal UIs.
type Theme struct {
	Accent     lipgloss.Color
	AccentSoft lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Dark       bool
}

// AccentHex returns the hex colour of accent, falling back to indigo.
func AccentHex(accent string) string {
	if hex, ok := Accents[strings.ToLower(accent)]; ok {
		return hex
	}
	return Accents[model.DefaultAccentColor]
}

// ResolveTheme builds the palette for s. The soft accent is the accent hex
// with a 0x1a alpha suffix.
func ResolveTheme(s model.Settings) Theme {
	hex := AccentHex(s.AccentColor)
	theme := Theme{
		Accent:     lipgloss.Color(hex),
		AccentSoft: lipgloss.Color(hex + "1a"),
		Dark:       s.DarkMode,
	}
	if s.DarkMode {
		theme.Foreground = lipgloss.Color("#f1f5f9")
		theme.Muted = lipgloss.Color("#94a3b8")
		theme.Border = lipgloss.Color("#334155")
	} else {
		theme.Foreground = lipgloss.Color("#0f172a")
		theme.Muted = lipgloss.Color("#64748b")
		theme.Border = lipgloss.Color("#cbd5e1")
	}
	return theme
}
