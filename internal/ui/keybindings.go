package ui

import (
	"github.com/oakwood-commons/pagekit/pkg/pagedlist"
)

// KeyMode represents the keybinding mode for the UI.
type KeyMode string

const (
	// KeyModeVim enables vim-style keybindings (j/k navigation, / search).
	KeyModeVim KeyMode = "vim"
	// KeyModeEmacs enables emacs-style keybindings (ctrl/alt modifiers).
	KeyModeEmacs KeyMode = "emacs"
	// KeyModeFunction disables single-key shortcuts, uses function keys only.
	KeyModeFunction KeyMode = "function"
)

// DefaultKeyMode is the default keybinding mode.
const DefaultKeyMode = KeyModeVim

// ValidKeyModes lists all valid key modes for validation.
var ValidKeyModes = []KeyMode{KeyModeVim, KeyModeEmacs, KeyModeFunction}

// IsValidKeyMode checks if a key mode string is valid.
func IsValidKeyMode(mode string) bool {
	for _, m := range ValidKeyModes {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// Action represents a feed command triggered by a keybinding. Pure cursor
// movement is not an Action; those keys go straight to the list component.
type Action string

const (
	ActionNone     Action = ""
	ActionOpen     Action = "open"    // open the selected card's detail view
	ActionBack     Action = "back"    // leave the detail view
	ActionSearch   Action = "search"  // enter the text search bar
	ActionFilter   Action = "filter"  // enter the CEL filter bar
	ActionRefresh  Action = "refresh" // re-request page one, keep position
	ActionReload   Action = "reload"  // full reload, jump to top
	ActionRemove   Action = "remove"  // remove the selected card
	ActionTop      Action = "top"     // jump to the first card (gg)
	ActionHelp     Action = "help"    // toggle the help overlay
	ActionCancel   Action = "cancel"  // clear committed search/filter
	ActionQuit     Action = "quit"
	actionPendingG Action = "pending_g" // waiting for the second key of gg
)

// VimKeyBindings maps keys to actions for vim mode.
var VimKeyBindings = map[string]Action{
	"l":     ActionOpen,
	"enter": ActionOpen,
	"h":     ActionBack,
	"/":     ActionSearch,
	"f":     ActionFilter,
	"r":     ActionRefresh,
	"R":     ActionReload,
	"x":     ActionRemove,
	"g":     actionPendingG,
	"?":     ActionHelp,
	"esc":   ActionCancel,
	"q":     ActionQuit,
}

// EmacsKeyBindings maps keys to actions for emacs mode.
var EmacsKeyBindings = map[string]Action{
	"ctrl+f": ActionOpen,
	"enter":  ActionOpen,
	"ctrl+b": ActionBack,
	"ctrl+s": ActionSearch,
	"ctrl+l": ActionFilter,
	"ctrl+r": ActionRefresh,
	"alt+r":  ActionReload,
	"ctrl+k": ActionRemove,
	"f1":     ActionHelp,
	"ctrl+g": ActionCancel,
	"ctrl+q": ActionQuit,
}

// FunctionKeyBindings maps keys to actions for function mode.
var FunctionKeyBindings = map[string]Action{
	"right": ActionOpen,
	"enter": ActionOpen,
	"left":  ActionBack,
	"f1":    ActionHelp,
	"f3":    ActionSearch,
	"f4":    ActionFilter,
	"f5":    ActionRefresh,
	"f6":    ActionReload,
	"f8":    ActionRemove,
	"esc":   ActionCancel,
	"f10":   ActionQuit,
}

// Keymap resolves key presses to feed actions for one keybinding mode,
// tracking multi-key sequences (gg in vim mode).
type Keymap struct {
	mode     KeyMode
	bindings map[string]Action
	pending  string
}

// NewKeymap returns a resolver for the given mode. Unknown modes fall back
// to the default.
func NewKeymap(mode KeyMode) *Keymap {
	k := &Keymap{mode: mode}
	switch mode {
	case KeyModeEmacs:
		k.bindings = EmacsKeyBindings
	case KeyModeFunction:
		k.bindings = FunctionKeyBindings
	case KeyModeVim:
		k.bindings = VimKeyBindings
	default:
		k.mode = DefaultKeyMode
		k.bindings = VimKeyBindings
	}
	return k
}

// Mode returns the keybinding mode this resolver was built for.
func (k *Keymap) Mode() KeyMode {
	return k.mode
}

// Resolve maps a key press to its action. Returns ActionNone for keys with
// no binding; those should be forwarded to the list component.
func (k *Keymap) Resolve(keyStr string) Action {
	// A pending 'g' either completes the gg sequence or is consumed without
	// action before the new key is looked up on its own.
	if k.pending == "g" {
		k.pending = ""
		if keyStr == "g" {
			return ActionTop
		}
	}

	action, ok := k.bindings[keyStr]
	if !ok {
		return ActionNone
	}

	if action == actionPendingG {
		k.pending = "g"
		return ActionNone
	}

	return action
}

// componentKeys returns the navigation keymap handed to the list component
// for one keybinding mode. Arrow keys work everywhere; the single-letter and
// modifier variants follow the mode.
func componentKeys(mode KeyMode) pagedlist.KeyMap {
	switch mode {
	case KeyModeEmacs:
		return pagedlist.KeyMap{
			Up:       []string{"up", "ctrl+p"},
			Down:     []string{"down", "ctrl+n"},
			PageUp:   []string{"pgup", "alt+v"},
			PageDown: []string{"pgdown", "ctrl+v"},
			Top:      []string{"home", "alt+<"},
			Bottom:   []string{"end", "alt+>"},
		}
	case KeyModeFunction:
		return pagedlist.KeyMap{
			Up:       []string{"up"},
			Down:     []string{"down"},
			PageUp:   []string{"pgup"},
			PageDown: []string{"pgdown"},
			Top:      []string{"home"},
			Bottom:   []string{"end"},
		}
	default:
		// Vim: top is reached through the gg sequence, so the component only
		// binds home.
		return pagedlist.KeyMap{
			Up:       []string{"up", "k"},
			Down:     []string{"down", "j"},
			PageUp:   []string{"pgup", "ctrl+u"},
			PageDown: []string{"pgdown", "ctrl+d"},
			Top:      []string{"home"},
			Bottom:   []string{"end", "G"},
		}
	}
}
