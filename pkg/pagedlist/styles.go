package pagedlist

import "charm.land/lipgloss/v2"

// Styles holds the lipgloss styles the component applies around caller
// rendered rows. Row content itself is never restyled; selection is shown
// with a marker prefix so pre-styled content survives intact.
type Styles struct {
	Marker  lipgloss.Style // selection bar on the chosen row
	Footer  lipgloss.Style // busy footer text
	End     lipgloss.Style // end-of-feed footer text
	Empty   lipgloss.Style // empty placeholder text
	Loading lipgloss.Style // initial-load placeholder text
}

// DefaultStyles returns the stock look: teal selection bar, muted footers.
func DefaultStyles() Styles {
	return Styles{
		Marker:  lipgloss.NewStyle().Foreground(lipgloss.Color("24")),  // deep teal selection
		Footer:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")), // muted footer text
		End:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")), // subtle end marker
		Empty:   lipgloss.NewStyle().Foreground(lipgloss.Color("246")), // muted gray
		Loading: lipgloss.NewStyle().Foreground(lipgloss.Color("81")),  // cyan accent
	}
}
