package tui

import (
	"context"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pagekit/internal/ui"
)

// Config holds host-provided settings for running the feed TUI.
type Config struct {
	AppName   string // application name, used as the header title when Dataset is empty
	Dataset   string // dataset name shown in the header bar
	Version   string // shown right-aligned in the header bar
	Width     int    // 0 detects the terminal size
	Height    int
	NoColor   bool
	ThemeName string // theme to activate by name (dark, light, mono, or a loaded custom theme)
	KeyMode   string // keybinding mode: "vim" (default), "emacs", or "function"

	Limit          int    // records per fetch, 0 keeps the feed default
	EndReachedRows int    // rows from the bottom that trigger the next fetch, 0 keeps the default
	Filter         string // initial CEL filter over row data, e.g. `_.author == "sam"`

	AllowSearch *bool
	AllowFilter *bool
	AllowRemove *bool

	EndText        string // footer text once the feed is exhausted
	EmptyText      string // placeholder when the feed is empty
	LoadingText    string // footer text while a page is in flight
	RefreshingText string // footer text while a refresh is in flight

	// Feed simulation knobs, applied to the slice-backed source built by Run.
	Latency   time.Duration // artificial delay per fetch
	FailRate  float64       // fraction of fetches that fail, 0..1
	FailSeed  int64         // seed for the failure sequence
	FailPages []int         // 1-based pages that always fail

	HelpAboutTitle string
	HelpAboutLines []string
	HelpAboutAlign string // "left", "center", or "right"

	Ctx context.Context
	Log logr.Logger
}

// DefaultConfig returns a baseline TUI config with the same defaults as the CLI.
func DefaultConfig() Config {
	embedded, err := ui.EmbeddedDefaultConfig()

	allowSearch := true
	allowFilter := true
	allowRemove := true
	keyMode := string(ui.DefaultKeyMode)
	limit := 0
	endRows := 0
	endText := ""
	emptyText := ""
	loadingText := ""
	refreshingText := ""
	if err == nil {
		if embedded.Features.AllowSearch != nil {
			allowSearch = *embedded.Features.AllowSearch
		}
		if embedded.Features.AllowFilter != nil {
			allowFilter = *embedded.Features.AllowFilter
		}
		if embedded.Features.AllowRemove != nil {
			allowRemove = *embedded.Features.AllowRemove
		}
		if embedded.Features.KeyMode != nil && ui.IsValidKeyMode(*embedded.Features.KeyMode) {
			keyMode = *embedded.Features.KeyMode
		}
		if embedded.Feed.Limit != nil {
			limit = *embedded.Feed.Limit
		}
		if embedded.Feed.EndReachedRows != nil {
			endRows = *embedded.Feed.EndReachedRows
		}
		endText = embedded.Feed.EndText
		emptyText = embedded.Feed.EmptyText
		loadingText = embedded.Feed.LoadingText
		refreshingText = embedded.Feed.RefreshingText
	}

	return Config{
		AppName:        defaultAppName(),
		KeyMode:        keyMode,
		Limit:          limit,
		EndReachedRows: endRows,
		AllowSearch:    &allowSearch,
		AllowFilter:    &allowFilter,
		AllowRemove:    &allowRemove,
		EndText:        endText,
		EmptyText:      emptyText,
		LoadingText:    loadingText,
		RefreshingText: refreshingText,
	}
}

func defaultAppName() string {
	if embedded, err := ui.EmbeddedDefaultConfig(); err == nil {
		if name := strings.TrimSpace(embedded.About.Name); name != "" {
			return name
		}
	}
	return "pagekit"
}

// Apply applies the config to the UI globals.
// (Model-scoped fields like AllowSearch are applied in Run.)
func (c Config) Apply() {
	if c.ThemeName == "" {
		return
	}
	if err := ui.SetThemeByName(c.ThemeName); err == nil {
		return
	}
	// Themes may not be loaded yet when the host bypassed the CLI config
	// path. Load the embedded set and retry once.
	if embedded, err := ui.EmbeddedDefaultConfig(); err == nil {
		if err := ui.InitializeThemes(&embedded); err == nil {
			if err := ui.SetThemeByName(c.ThemeName); err == nil {
				return
			}
		}
	}
	if dark, ok := ui.GetTheme("dark"); ok {
		ui.SetTheme(dark)
	}
}
