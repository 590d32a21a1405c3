package ui

import (
	"regexp"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape sequences.
func stripANSI(s string) string {
	return ansiRegexp.ReplaceAllString(s, "")
}

// ansiVisibleWidth calculates the visible width of a string with ANSI escape sequences.
func ansiVisibleWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

// padANSIToWidth pads s to the target width with spaces, accounting for ANSI escape sequences
// that don't contribute to visible width.
func padANSIToWidth(s string, targetWidth int) string {
	visible := ansiVisibleWidth(s)
	if visible >= targetWidth {
		return s
	}
	padding := targetWidth - visible
	return s + strings.Repeat(" ", padding)
}

// repeatToWidth repeats the fill string until reaching the requested display width.
func repeatToWidth(fill string, width int) string {
	if width <= 0 {
		return ""
	}
	if strings.TrimSpace(fill) == "" {
		fill = " "
	}
	var b strings.Builder
	for runewidth.StringWidth(b.String()) < width {
		b.WriteString(fill)
	}
	result := b.String()
	if w := runewidth.StringWidth(result); w > width {
		result = runewidth.Truncate(result, width, "")
	}
	return result
}

// flattenToLine collapses a possibly multi-line string into one line. CEL
// compile errors embed source snippets with newlines; the status bar has a
// single line to show them on.
func flattenToLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	fields := strings.Fields(strings.ReplaceAll(s, "\n", " "))
	return strings.Join(fields, " ")
}
