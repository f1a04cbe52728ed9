package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// glyphs is a three-row block font for the countdown.
var glyphs = map[rune][3]string{
	'0': {"█▀█", "█ █", "▀▀▀"},
	'1': {" ▄█", "  █", "  ▀"},
	'2': {"▀▀█", "█▀▀", "▀▀▀"},
	'3': {"▀▀█", " ▀█", "▀▀▀"},
	'4': {"█ █", "▀▀█", "  ▀"},
	'5': {"█▀▀", "▀▀█", "▀▀▀"},
	'6': {"█▀▀", "█▀█", "▀▀▀"},
	'7': {"▀▀█", "  █", "  ▀"},
	'8': {"█▀█", "█▀█", "▀▀▀"},
	'9': {"█▀█", "▀▀█", "▀▀▀"},
	':': {" ", "▀", "▀"},
}

// renderBigTime draws an MM:SS string with the block font. Unknown runes
// are drawn in the middle row.
func renderBigTime(value string) string {
	var rows [3][]string
	for _, r := range value {
		glyph, ok := glyphs[r]
		if !ok {
			glyph = [3]string{" ", string(r), " "}
		}
		for i := range rows {
			rows[i] = append(rows[i], glyph[i])
		}
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, " ")
	}
	return strings.Join(lines, "\n")
}

// wrapQuote word-wraps text to 70% of the terminal width, measuring display
// cells so wide runes do not overflow.
func wrapQuote(text string, width int) string {
	limit := int(float64(width) * 0.70)
	if limit < 20 {
		limit = 20
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > limit {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		if w > limit {
			word = runewidth.Truncate(word, limit, "…")
			w = runewidth.StringWidth(word)
		}
		line.WriteString(word)
		lineWidth += w
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
