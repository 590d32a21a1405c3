package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
)

// StatusModel represents the status bar component. The left side carries a
// transient message or the committed search and filter, the right side the
// cursor position reported by the feed.
type StatusModel struct {
	Message      string
	Kind         string // "error", "success", or ""
	Query        string
	Filter       string
	FilterFields []string // field paths hinted when the filter hides every row
	Position     string
	NoColor      bool
	Width        int
}

// NewStatusModel creates a new status model
func NewStatusModel() StatusModel {
	return StatusModel{
		Width: 92, // Default width
	}
}

// SetMessage replaces the transient message. Kind selects the styling.
// Multi-line messages are flattened; the bar has one line.
func (m *StatusModel) SetMessage(kind, format string, args ...interface{}) {
	m.Kind = kind
	m.Message = flattenToLine(fmt.Sprintf(format, args...))
}

// ClearMessage drops the transient message.
func (m *StatusModel) ClearMessage() {
	m.Kind = ""
	m.Message = ""
}

// SetWidth sets the width of the status bar
func (m *StatusModel) SetWidth(width int) {
	m.Width = width
}

// View renders the status bar
func (m StatusModel) View() string {
	// Base styling for the status panel; derive from theme and avoid ANSI when no-color.
	baseStyle := lipgloss.NewStyle()
	if !m.NoColor {
		th := CurrentTheme()
		if th.FooterBG != nil {
			baseStyle = baseStyle.Background(th.FooterBG)
		}
		if th.FooterFG != nil {
			baseStyle = baseStyle.Foreground(th.FooterFG)
		}
	}

	left := m.Message
	kind := m.Kind
	if left == "" {
		kind = ""
		var parts []string
		if m.Query != "" {
			parts = append(parts, fmt.Sprintf("search %q", m.Query))
		}
		if m.Filter != "" {
			parts = append(parts, "filter "+m.Filter)
			if len(m.FilterFields) > 0 {
				parts = append(parts, "no matches (references: "+strings.Join(m.FilterFields, ", ")+")")
			}
		}
		left = strings.Join(parts, "  ")
	}

	statusStyle := baseStyle
	if !m.NoColor {
		th := CurrentTheme()
		switch kind {
		case "error":
			statusStyle = statusStyle.Foreground(th.StatusError)
		case "success":
			statusStyle = statusStyle.Foreground(th.StatusSuccess)
		default:
			statusStyle = statusStyle.Foreground(th.StatusColor)
		}
	}

	// Pad the status bar to the window width (fallback to 92 if unknown)
	target := 92
	if m.Width > 0 {
		target = m.Width
	}

	// Lay the line out as plain text so the padding math never has to
	// account for escape sequences. The position counter is right-justified
	// and always survives; the message is truncated to fit.
	right := m.Position
	rw := runewidth.StringWidth(right)
	maxLeft := target
	if rw > 0 {
		maxLeft = target - rw - 2
	}
	if maxLeft < 0 {
		right = ""
		rw = 0
		maxLeft = target
	}
	if runewidth.StringWidth(left) > maxLeft {
		left = truncateToWidth(left, maxLeft)
	}
	pad := target - runewidth.StringWidth(left) - rw
	if pad < 0 {
		pad = 0
	}
	padded := left + strings.Repeat(" ", pad) + right

	if m.NoColor {
		return padded
	}
	return statusStyle.Width(target).Render(padded)
}
