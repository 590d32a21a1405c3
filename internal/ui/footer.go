package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// FooterModel represents the footer line with the command key bindings for
// the active key mode. Entries for disabled features are left out.
type FooterModel struct {
	NoColor     bool
	Width       int
	KeyMode     KeyMode
	AllowSearch bool
	AllowFilter bool
	AllowRemove bool
}

// footerEntry carries one label with its key in each binding mode.
type footerEntry struct {
	label    string
	vim      string
	emacs    string
	function string
}

// NewFooterModel creates a new footer model
func NewFooterModel() FooterModel {
	return FooterModel{
		Width:       92, // Default width
		KeyMode:     DefaultKeyMode,
		AllowSearch: true,
		AllowFilter: true,
		AllowRemove: true,
	}
}

// SetWidth sets the width of the footer
func (m *FooterModel) SetWidth(width int) {
	m.Width = width
}

// View renders the footer with key bindings
func (m FooterModel) View() string {
	fkeyStyle := lipgloss.NewStyle()
	if !m.NoColor {
		// Grey background with white text across the whole footer
		fkeyStyle = fkeyStyle.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("240")).Bold(true)
	} else {
		// In no-color mode still highlight keys with true black on white
		fkeyStyle = fkeyStyle.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ffffff")).Bold(true)
	}

	entries := []footerEntry{
		{label: "help", vim: "?", emacs: "f1", function: "f1"},
		{label: "search", vim: "/", emacs: "ctrl+s", function: "f3"},
		{label: "filter", vim: "f", emacs: "ctrl+l", function: "f4"},
		{label: "refresh", vim: "r", emacs: "ctrl+r", function: "f5"},
		{label: "remove", vim: "x", emacs: "ctrl+k", function: "f8"},
		{label: "quit", vim: "q", emacs: "ctrl+q", function: "f10"},
	}

	parts := []string{}
	for _, entry := range entries {
		switch entry.label {
		case "search":
			if !m.AllowSearch {
				continue
			}
		case "filter":
			if !m.AllowFilter {
				continue
			}
		case "remove":
			if !m.AllowRemove {
				continue
			}
		}

		var key string
		switch m.KeyMode {
		case KeyModeVim:
			key = entry.vim
		case KeyModeEmacs:
			key = formatEmacsKey(entry.emacs)
		case KeyModeFunction:
			key = strings.ToUpper(entry.function)
		}
		if key != "" {
			parts = append(parts, fkeyStyle.Render(key), entry.label)
		}
	}

	helpLine := strings.Join(parts, " ")

	// Right-align the key mode indicator when there is room for it
	indicator := "[keys: " + string(m.KeyMode) + "]"
	indicatorStyle := lipgloss.NewStyle()
	if !m.NoColor {
		th := CurrentTheme()
		if th.StatusColor != nil {
			indicatorStyle = indicatorStyle.Foreground(th.StatusColor)
		}
	}
	helpLineLen := ansiVisibleWidth(helpLine)
	indicatorLen := len(indicator)
	if m.Width > helpLineLen+indicatorLen+2 {
		spacing := m.Width - helpLineLen - indicatorLen - 2
		helpLine = helpLine + strings.Repeat(" ", spacing) + indicatorStyle.Render(indicator)
	}

	return padANSIToWidth(helpLine, m.Width)
}

// formatEmacsKey converts internal key format to display format (ctrl+s -> C-s)
func formatEmacsKey(key string) string {
	if key == "" {
		return ""
	}
	// Uppercase F-keys (f1 -> F1)
	if len(key) >= 2 && (key[0] == 'f' || key[0] == 'F') && key[1] >= '0' && key[1] <= '9' {
		return strings.ToUpper(key)
	}
	key = strings.ReplaceAll(key, "ctrl+", "C-")
	key = strings.ReplaceAll(key, "alt+", "M-")
	return key
}
