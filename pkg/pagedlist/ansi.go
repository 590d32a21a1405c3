package pagedlist

import (
	"regexp"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// visibleWidth calculates the display width of a string with ANSI escape
// sequences removed.
func visibleWidth(s string) int {
	plain := ansiRegexp.ReplaceAllString(s, "")
	return runewidth.StringWidth(plain)
}

// clampWidth trims a line to the provided max display width while preserving
// ANSI escape sequences.
// Handles both CSI (ESC [ ... letter) and OSC (ESC ] ... ST/BEL).
func clampWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	var out strings.Builder
	width := 0

	const (
		stNormal = iota
		stEsc    // just saw ESC, next char determines sequence type
		stCSI    // inside CSI sequence, waiting for terminating letter
		stOSC    // inside OSC sequence, waiting for ST (ESC \) or BEL
		stOSCEsc // inside OSC, just saw ESC (looking for \\ to end)
	)
	state := stNormal

	for _, r := range s {
		if r == '\n' {
			out.WriteRune(r)
			width = 0
			state = stNormal
			continue
		}

		switch state {
		case stNormal:
			if r == 0x1b { // ESC
				state = stEsc
				out.WriteRune(r)
				continue
			}
			w := runewidth.RuneWidth(r)
			if width+w > maxWidth {
				continue
			}
			out.WriteRune(r)
			width += w

		case stEsc:
			out.WriteRune(r)
			switch r {
			case '[':
				state = stCSI
			case ']':
				state = stOSC
			default:
				state = stNormal
			}

		case stCSI:
			out.WriteRune(r)
			// CSI sequences end with a letter.
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				state = stNormal
			}

		case stOSC:
			out.WriteRune(r)
			switch r {
			case 0x1b:
				state = stOSCEsc
			case 0x07: // BEL terminates OSC
				state = stNormal
			}

		case stOSCEsc:
			out.WriteRune(r)
			// ESC \ (ST) terminates OSC; anything else stays in OSC.
			if r == '\\' {
				state = stNormal
			} else {
				state = stOSC
			}
		}
	}

	return out.String()
}

// centerLine centers text within width by left padding. Wider text is
// clamped instead.
func centerLine(text string, width int) string {
	w := visibleWidth(text)
	if w >= width {
		return clampWidth(text, width)
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
