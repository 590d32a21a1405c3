package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// HelpModel represents the help overlay component
type HelpModel struct {
	Visible     bool
	NoColor     bool
	Width       int
	AboutTitle  string
	AboutLines  []string
	AboutAlign  string
	KeyMode     KeyMode
	AllowSearch bool
	AllowFilter bool
	AllowRemove bool
}

// helpRow is one key/description line. feature names the toggle that can
// hide the row; empty means always shown.
type helpRow struct {
	key     string
	desc    string
	feature string
}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{
		Width:       92, // Default width
		KeyMode:     DefaultKeyMode,
		AboutAlign:  "right",
		AllowSearch: true,
		AllowFilter: true,
		AllowRemove: true,
	}
}

// SetWidth sets the width of the help overlay
func (m *HelpModel) SetWidth(width int) {
	m.Width = width
}

// SetVisible sets the visibility of the help overlay
func (m *HelpModel) SetVisible(visible bool) {
	m.Visible = visible
}

// commandHelpRows returns the command keybinding rows for the key mode.
func commandHelpRows(keyMode KeyMode) []helpRow {
	switch keyMode {
	case KeyModeEmacs:
		return []helpRow{
			{"C-f/Enter", "open item", ""},
			{"C-b", "back", ""},
			{"C-s", "search", "search"},
			{"C-l", "filter (CEL)", "filter"},
			{"C-r", "refresh", ""},
			{"M-r", "reload from the top", ""},
			{"C-k", "remove item", "remove"},
			{"C-g", "cancel/clear", ""},
			{"F1", "toggle help", ""},
			{"C-q", "quit", ""},
		}
	case KeyModeFunction:
		return []helpRow{
			{"→/Enter", "open item", ""},
			{"←", "back", ""},
			{"F3", "search", "search"},
			{"F4", "filter (CEL)", "filter"},
			{"F5", "refresh", ""},
			{"F6", "reload from the top", ""},
			{"F8", "remove item", "remove"},
			{"Esc", "cancel/clear", ""},
			{"F1", "toggle help", ""},
			{"F10", "quit", ""},
		}
	default:
		return []helpRow{
			{"Enter/l", "open item", ""},
			{"h", "back", ""},
			{"/", "search", "search"},
			{"f", "filter (CEL)", "filter"},
			{"r", "refresh", ""},
			{"R", "reload from the top", ""},
			{"x", "remove item", "remove"},
			{"Esc", "cancel/clear", ""},
			{"?", "toggle help", ""},
			{"q", "quit", ""},
		}
	}
}

// navigationHelpRows returns the cursor movement rows for the key mode.
func navigationHelpRows(keyMode KeyMode) []helpRow {
	switch keyMode {
	case KeyModeEmacs:
		return []helpRow{
			{"C-n/C-p", "move down/up", ""},
			{"C-v/M-v", "page down/up", ""},
			{"M-</M->", "go to top/bottom", ""},
		}
	case KeyModeFunction:
		return []helpRow{
			{"↑/↓", "move up/down", ""},
			{"PgUp/PgDn", "page up/down", ""},
			{"Home/End", "go to top/bottom", ""},
		}
	default:
		return []helpRow{
			{"j/k", "move down/up", ""},
			{"C-d/C-u", "half page down/up", ""},
			{"gg/G", "go to top/bottom", ""},
		}
	}
}

// allowed reports whether a row's feature toggle is on.
func (m HelpModel) allowed(row helpRow) bool {
	switch row.feature {
	case "search":
		return m.AllowSearch
	case "filter":
		return m.AllowFilter
	case "remove":
		return m.AllowRemove
	}
	return true
}

// View renders the help overlay if visible
func (m HelpModel) View() string {
	if !m.Visible {
		return ""
	}

	leftStyle := lipgloss.NewStyle().PaddingLeft(1)
	rightStyle := lipgloss.NewStyle()
	boxStyle := lipgloss.NewStyle()
	aboutStyle := rightStyle
	if !m.NoColor {
		th := CurrentTheme()
		leftStyle = leftStyle.Foreground(th.HelpKey).Bold(true)
		rightStyle = rightStyle.Foreground(th.HelpValue)
		aboutStyle = aboutStyle.Foreground(th.HelpValue)
		boxStyle = boxStyle.Border(borderForTheme(th)).PaddingLeft(1).PaddingRight(1).AlignVertical(lipgloss.Top)
	} else {
		// In no-color mode still highlight key labels with true black on white
		leftStyle = leftStyle.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ffffff")).Bold(true)
		boxStyle = boxStyle.Border(borderForTheme(CurrentTheme())).PaddingLeft(1).PaddingRight(1).AlignVertical(lipgloss.Top)
	}

	lines := []string{}

	// Optional About section at the top
	if len(m.AboutLines) > 0 {
		alignment := strings.ToLower(m.AboutAlign)
		switch alignment {
		case "center", "middle":
			aboutStyle = aboutStyle.Align(lipgloss.Center)
		case "left":
			aboutStyle = aboutStyle.Align(lipgloss.Left)
		default:
			aboutStyle = aboutStyle.Align(lipgloss.Right)
		}
		if m.Width > 4 {
			aboutStyle = aboutStyle.Width(m.Width - 4)
		}
		for _, l := range m.AboutLines {
			lines = append(lines, aboutStyle.Render(l))
		}
		lines = append(lines, "")
	}

	for _, row := range commandHelpRows(m.KeyMode) {
		if !m.allowed(row) {
			continue
		}
		key := leftStyle.Render(fmt.Sprintf("%-16s", row.key))
		val := rightStyle.Render(row.desc)
		lines = append(lines, key+" "+val)
	}

	lines = append(lines, "")
	for _, row := range navigationHelpRows(m.KeyMode) {
		key := leftStyle.Render(fmt.Sprintf("%-16s", row.key))
		val := rightStyle.Render(row.desc)
		lines = append(lines, key+" "+val)
	}

	// Mode switch hint at the bottom
	lines = append(lines, "")
	lines = append(lines, rightStyle.Render(keyModeSwitchHint(m.KeyMode)))

	content := strings.Join(lines, "\n")
	box := boxStyle.Render(content)
	// Constrain width a bit so we do not overflow narrow terminals
	if m.Width > 0 && len(box) > m.Width {
		box = boxStyle.Width(m.Width - 2).Render(content)
	}

	return box + "\n"
}

// GenerateHelpText renders the key bindings as plain text for CLI help output.
func GenerateHelpText(keyMode KeyMode, allowSearch, allowFilter, allowRemove bool) string {
	scope := HelpModel{AllowSearch: allowSearch, AllowFilter: allowFilter, AllowRemove: allowRemove}

	lines := []string{"Keys"}
	for _, row := range commandHelpRows(keyMode) {
		if !scope.allowed(row) {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-16s %s", row.key, row.desc))
	}
	lines = append(lines, "", "Navigation")
	for _, row := range navigationHelpRows(keyMode) {
		lines = append(lines, fmt.Sprintf("  %-16s %s", row.key, row.desc))
	}
	lines = append(lines, "", keyModeSwitchHint(keyMode))
	return strings.Join(lines, "\n")
}

// keyModeSwitchHint returns a footer hint showing the current mode and how to switch.
func keyModeSwitchHint(mode KeyMode) string {
	var current string
	switch mode {
	case KeyModeVim:
		current = "vim"
	case KeyModeEmacs:
		current = "emacs"
	case KeyModeFunction:
		current = "function"
	default:
		current = string(mode)
	}
	return fmt.Sprintf("Keys: %s  (switch with --keys vim|emacs|function)", current)
}
