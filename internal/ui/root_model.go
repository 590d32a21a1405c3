package ui

import (
	tea "charm.land/bubbletea/v2"
)

// Mode represents the current UI mode. The root uses it to decide where key
// presses go before any child sees them.
type Mode int

const (
	// NormalMode routes input to the current child model.
	NormalMode Mode = iota
	// HelpMode displays the help overlay and intercepts all input.
	HelpMode
)

// NavigateMsg asks the root to push the current view and switch to a new one.
type NavigateMsg struct {
	To ChildModel
}

// NavigateBackMsg asks the root to return to the previous view.
type NavigateBackMsg struct{}

// ShowHelpMsg asks the root to open the help overlay.
type ShowHelpMsg struct{}

// QuitRequestMsg asks the root to tear everything down and quit.
type QuitRequestMsg struct{}

// RootModel is the top-level model: it owns the view stack, the help
// overlay, and global concerns (quit, resize), and routes everything else to
// the current child.
type RootModel struct {
	mode Mode

	current ChildModel
	help    HelpModel
	stack   []ChildModel

	width    int
	height   int
	noColor  bool
	quitting bool
}

// NewRootModel creates a root model over the given initial view.
func NewRootModel(initial ChildModel) *RootModel {
	return &RootModel{
		mode:    NormalMode,
		current: initial,
		help:    NewHelpModel(),
		width:   80,
		height:  24,
	}
}

// Init initializes the root model and its current child.
func (m *RootModel) Init() tea.Cmd {
	if m.current == nil {
		return nil
	}
	return m.current.Init()
}

// Update handles global messages and routes the rest to the current child.
func (m *RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if sized, ok := m.current.(ModelWithSize); ok {
			sized.SetSize(m.width, m.height)
		}
		m.help.SetWidth(m.width)
		return m, nil

	case NavigateMsg:
		return m, m.navigateTo(msg.To)

	case NavigateBackMsg:
		m.navigateBack()
		return m, nil

	case ShowHelpMsg:
		m.openHelp()
		return m, nil

	case QuitRequestMsg:
		return m, m.quit()

	case tea.KeyPressMsg:
		key := msg.String()
		// Ctrl+C can arrive as the string form or the raw control character.
		if key == "ctrl+c" || msg.Key().Code == 0x03 {
			return m, m.quit()
		}

		if m.mode == HelpMode {
			switch key {
			case "esc", "f1", "?", "q":
				m.closeHelp()
			}
			return m, nil
		}
	}

	return m, m.routeToCurrent(msg)
}

func (m *RootModel) routeToCurrent(msg tea.Msg) tea.Cmd {
	if m.current == nil {
		return nil
	}
	var cmd tea.Cmd
	m.current, cmd = m.current.Update(msg)
	return cmd
}

func (m *RootModel) quit() tea.Cmd {
	m.quitting = true
	m.closeAll()
	return tea.Quit
}

// closeAll tears down every view on the stack so in-flight fetches unwind.
func (m *RootModel) closeAll() {
	if closer, ok := m.current.(ModelWithClose); ok {
		closer.Close()
	}
	for _, child := range m.stack {
		if closer, ok := child.(ModelWithClose); ok {
			closer.Close()
		}
	}
}

// View renders the current child, with the help overlay on top when open.
func (m *RootModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	view := ""
	if m.current != nil {
		view = m.current.View()
	}

	if m.mode == HelpMode {
		helpView := m.help.View()
		if view == "" {
			view = helpView
		} else {
			// Render help above the current view to simulate an overlay while
			// preserving the base.
			view = helpView + "\n" + view
		}
	}

	v := tea.NewView(view)
	v.AltScreen = true
	// Enable keyboard enhancements for proper modifier key detection (e.g. alt+<)
	v.KeyboardEnhancements.ReportEventTypes = true
	return v
}

// Mode returns the current UI mode.
func (m *RootModel) Mode() Mode {
	return m.mode
}

func (m *RootModel) openHelp() {
	if mode, ok := m.current.(interface{ KeyMode() KeyMode }); ok {
		m.help.KeyMode = mode.KeyMode()
	}
	m.help.SetWidth(m.width)
	m.help.SetVisible(true)
	m.mode = HelpMode
}

func (m *RootModel) closeHelp() {
	m.help.SetVisible(false)
	m.mode = NormalMode
}

// navigateTo pushes the current view and switches to the given one.
func (m *RootModel) navigateTo(next ChildModel) tea.Cmd {
	if next == nil {
		return nil
	}
	if m.current != nil {
		if focusable, ok := m.current.(ModelWithFocus); ok {
			focusable.Blur()
		}
		m.stack = append(m.stack, m.current)
	}
	m.current = next

	var cmds []tea.Cmd
	cmds = append(cmds, m.current.Init())
	if sized, ok := m.current.(ModelWithSize); ok {
		sized.SetSize(m.width, m.height)
	}
	if focusable, ok := m.current.(ModelWithFocus); ok {
		cmds = append(cmds, focusable.Focus())
	}
	return tea.Batch(cmds...)
}

// navigateBack pops the view stack. Returns false when already at the root
// view.
func (m *RootModel) navigateBack() bool {
	if len(m.stack) == 0 {
		return false
	}

	if closer, ok := m.current.(ModelWithClose); ok {
		closer.Close()
	}

	m.current = m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]

	if sized, ok := m.current.(ModelWithSize); ok {
		sized.SetSize(m.width, m.height)
	}
	if focusable, ok := m.current.(ModelWithFocus); ok {
		focusable.Focus()
	}
	return true
}

// CanNavigateBack returns true if there are views on the navigation stack.
func (m *RootModel) CanNavigateBack() bool {
	return len(m.stack) > 0
}

// SetNoColor enables/disables color output.
func (m *RootModel) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.help.NoColor = noColor
}

// SetHelpAbout fills the About section of the help overlay.
func (m *RootModel) SetHelpAbout(title string, lines []string, align string) {
	m.help.AboutTitle = title
	m.help.AboutLines = lines
	if align != "" {
		m.help.AboutAlign = align
	}
}

// SetHelpFeatures hides help rows for features that are switched off.
func (m *RootModel) SetHelpFeatures(search, filter, remove bool) {
	m.help.AllowSearch = search
	m.help.AllowFilter = filter
	m.help.AllowRemove = remove
}
