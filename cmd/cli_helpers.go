package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	ui "github.com/oakwood-commons/pagekit/internal/ui"
)

type themeSelectionError struct {
	Selected     string
	Available    []string
	DefaultTheme string
}

func (e themeSelectionError) Error() string {
	return fmt.Sprintf("unknown theme %q\navailable themes: %v\ndefault theme: %s", e.Selected, e.Available, e.DefaultTheme)
}

func defaultThemeName(cfg ui.ConfigFile) string {
	if name := strings.TrimSpace(cfg.Theme.Default); name != "" {
		return name
	}
	return "dark"
}

// applyThemeFromConfig activates a theme. An explicit --theme flag wins over
// the config default; an unknown explicit name is an error rather than a
// silent fallback.
func applyThemeFromConfig(cfg ui.ConfigFile, cliTheme string, themeFlagSet bool) error {
	selectedTheme := strings.TrimSpace(cliTheme)
	if !themeFlagSet {
		selectedTheme = ""
	}
	if selectedTheme == "" {
		selectedTheme = defaultThemeName(cfg)
	}

	applyTheme := func(name string) bool {
		if name == "" {
			return false
		}
		if th, ok := cfg.Themes[name]; ok {
			ui.SetTheme(ui.ThemeFromConfig(th))
			return true
		}
		if th, ok := ui.GetTheme(name); ok {
			ui.SetTheme(th)
			return true
		}
		return false
	}

	if applyTheme(selectedTheme) {
		return nil
	}

	if !themeFlagSet {
		fallback := defaultThemeName(cfg)
		if fallback != selectedTheme && applyTheme(fallback) {
			return nil
		}
	}

	available := getAllAvailableThemes(&cfg)
	sort.Strings(available)
	return themeSelectionError{Selected: selectedTheme, Available: available, DefaultTheme: defaultThemeName(cfg)}
}

func printThemeSelectionError(w io.Writer, err error) {
	var themeErr themeSelectionError
	if errors.As(err, &themeErr) {
		fmt.Fprintf(w, "unknown theme %q\n", themeErr.Selected)
		fmt.Fprintf(w, "available themes: %v\n", themeErr.Available)
		fmt.Fprintf(w, "default theme: %s\n", themeErr.DefaultTheme)
		return
	}
	fmt.Fprintln(w, err)
}

// effectiveKeyMode resolves the keybinding mode: --keys flag, then config,
// then the built-in default.
func effectiveKeyMode(cfg ui.ConfigFile, cliMode string) ui.KeyMode {
	if cliMode != "" && ui.IsValidKeyMode(cliMode) {
		return ui.KeyMode(cliMode)
	}
	if cfg.Features.KeyMode != nil && ui.IsValidKeyMode(*cfg.Features.KeyMode) {
		return ui.KeyMode(*cfg.Features.KeyMode)
	}
	return ui.DefaultKeyMode
}

// datasetTitle picks the header title: the dataset's own name, then the file
// basename, then the app name.
func datasetTitle(metaName, path, appName string) string {
	if name := strings.TrimSpace(metaName); name != "" {
		return name
	}
	if path != "" && path != "-" {
		base := filepath.Base(path)
		if ext := filepath.Ext(base); ext != "" {
			base = strings.TrimSuffix(base, ext)
		}
		if base != "" && base != "." {
			return base
		}
	}
	return appName
}
