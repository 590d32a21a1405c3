package ui

import tea "charm.land/bubbletea/v2"

// ChildModel is the interface every view under the root model implements.
// The root owns a tree of these and routes messages to whichever one is
// current, so each view only handles its own domain and can be tested in
// isolation.
type ChildModel interface {
	// Init initializes the child model and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and updates the child model state.
	Update(msg tea.Msg) (ChildModel, tea.Cmd)

	// View renders the child model to a string.
	View() string
}

// ModelWithTitle is an optional interface that child models can implement
// to provide a title for display in the header.
type ModelWithTitle interface {
	// Title returns a human-readable title for this model.
	Title() string
}

// ModelWithSize is an optional interface that child models can implement
// to respond to resize events.
type ModelWithSize interface {
	// SetSize sets the available width and height for the model.
	SetSize(width, height int)
}

// ModelWithFocus is an optional interface that child models can implement
// to handle focus/blur events when navigation switches views.
type ModelWithFocus interface {
	// Focus is called when the model gains focus.
	Focus() tea.Cmd

	// Blur is called when the model loses focus.
	Blur()

	// Focused returns true if the model currently has focus.
	Focused() bool
}

// ModelWithClose is an optional interface for child models that hold
// resources (in-flight fetches, contexts) to release on teardown.
type ModelWithClose interface {
	// Close releases the model's resources. Idempotent.
	Close()
}
