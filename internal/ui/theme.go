package ui

import (
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"
)

// Theme defines colors and styles used across the UI. Host apps can supply their own theme.
type Theme struct {
	Accent         color.Color // Card titles, selection marker, key highlights
	Text           color.Color // Primary body text
	Muted          color.Color // Secondary text (meta lines, end-of-feed marker)
	HeaderFG       color.Color // Header bar text
	HeaderBG       color.Color // Header bar background
	BorderStyle    string      // Border style (normal|rounded)
	SelectedFG     color.Color // Selected card foreground
	SelectedBG     color.Color // Selected card background
	SeparatorColor color.Color // Color for separator lines
	InputBG        color.Color // Search/filter bar background
	InputFG        color.Color // Search/filter bar text
	StatusColor    color.Color // Normal status bar text
	StatusError    color.Color // Error status bar text
	StatusSuccess  color.Color // Success status bar text
	FooterFG       color.Color // Footer text
	FooterBG       color.Color // Footer background
	HelpKey        color.Color // Help key labels
	HelpValue      color.Color // Help value text
}

var (
	defaultThemeOnce sync.Once
	defaultTheme     Theme
	currentTheme     Theme
)

// DefaultTheme returns the palette defined in the embedded default configuration.
// Falls back to the hard-coded palette only if the embedded config cannot be read.
func DefaultTheme() Theme {
	defaultThemeOnce.Do(func() {
		cfg, err := EmbeddedDefaultConfig()
		if err != nil {
			defaultTheme = fallbackDefaultTheme()
			return
		}

		base := fallbackDefaultTheme()
		selected := strings.TrimSpace(cfg.Theme.Default)
		if selected == "" {
			selected = "dark"
		}
		if themeCfg, ok := cfg.Themes[selected]; ok {
			defaultTheme = themeFromConfigWithBase(themeCfg, base)
			return
		}
		defaultTheme = base
	})

	return defaultTheme
}

// fallbackDefaultTheme is the palette of last resort when no config is readable.
func fallbackDefaultTheme() Theme {
	return Theme{
		Accent:         lipgloss.Color("81"),  // cyan accents for contrast
		Text:           lipgloss.Color("252"), // near-white body text
		Muted:          lipgloss.Color("245"), // muted gray meta text
		HeaderFG:       lipgloss.Color("81"),  // cyan title
		HeaderBG:       lipgloss.Color("236"), // charcoal header background
		BorderStyle:    "normal",              // default to square borders
		SelectedFG:     lipgloss.Color("250"), // muted light text on selection
		SelectedBG:     lipgloss.Color("24"),  // deep teal selection
		SeparatorColor: lipgloss.Color("238"), // subtle separators
		InputBG:        lipgloss.Color("236"), // match header/footer background
		InputFG:        lipgloss.Color("246"), // muted input text
		StatusColor:    lipgloss.Color("81"),  // cyan status
		StatusError:    lipgloss.Color("203"), // softer red for errors
		StatusSuccess:  lipgloss.Color("114"), // mint success
		FooterFG:       lipgloss.Color("244"), // muted footer text
		FooterBG:       lipgloss.Color("236"), // charcoal footer background
		HelpKey:        lipgloss.Color("81"),  // match accent
		HelpValue:      lipgloss.Color("245"), // muted gray help text
	}
}

// loadedThemes stores all available themes loaded from configuration.
// This is populated at startup by InitializeThemes() using default_config.yaml.
var loadedThemes = map[string]Theme{}

// SetTheme overrides the global theme.
func SetTheme(t Theme) {
	t.BorderStyle = normalizeBorderStyle(t.BorderStyle)
	currentTheme = t
}

// SetThemeByName sets the theme by name from loaded configuration.
// Returns an error if the theme name is not found in loaded themes.
// Themes must be initialized first via InitializeThemes() before this can be used.
func SetThemeByName(name string) error {
	if theme, ok := loadedThemes[name]; ok {
		SetTheme(theme)
		return nil
	}
	if len(loadedThemes) == 0 {
		return fmt.Errorf("no themes loaded; call InitializeThemes() before SetThemeByName()")
	}
	return fmt.Errorf("unknown theme %q (available: %s)", name, getAvailableThemeNames())
}

// getAvailableThemeNames returns a comma-separated list of available theme names.
func getAvailableThemeNames() string {
	if len(loadedThemes) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(loadedThemes))
	for name := range loadedThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// GetTheme returns a theme by name from loaded configuration.
// Returns the theme and true if found, or a zero Theme and false if not found.
func GetTheme(name string) (Theme, bool) {
	if theme, ok := loadedThemes[name]; ok {
		return theme, true
	}
	return Theme{}, false
}

// GetAvailableThemes returns a map of all available theme names to their Theme values.
func GetAvailableThemes() map[string]Theme {
	result := make(map[string]Theme, len(loadedThemes))
	for name, theme := range loadedThemes {
		result[name] = theme
	}
	return result
}

// CurrentTheme returns the currently configured theme.
func CurrentTheme() Theme {
	if currentTheme == (Theme{}) {
		currentTheme = DefaultTheme()
	}
	return currentTheme
}

// ColorValue stores a color token (number or name) and marshals numerics as YAML ints.
type ColorValue string

func (c ColorValue) MarshalYAML() (interface{}, error) {
	if c == "" {
		return "", nil
	}
	s := string(c)
	if _, err := strconv.Atoi(s); err == nil {
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: s,
		}, nil
	}
	return s, nil
}

func (c *ColorValue) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*c = ""
		return nil
	}
	// Accept both ints and strings; store the literal value.
	*c = ColorValue(value.Value)
	return nil
}

// ThemeConfig is a YAML-friendly theme configuration (colors accept ints or strings).
type ThemeConfig struct {
	Accent         ColorValue `yaml:"accent" yamlcomment:"Accent color (titles, markers)"`
	Text           ColorValue `yaml:"text" yamlcomment:"Primary body text color"`
	Muted          ColorValue `yaml:"muted" yamlcomment:"Secondary/meta text color"`
	HeaderFG       ColorValue `yaml:"header_fg" yamlcomment:"Header foreground"`
	HeaderBG       ColorValue `yaml:"header_bg" yamlcomment:"Header background"`
	BorderStyle    string     `yaml:"border_style" yamlcomment:"Border style (normal|rounded)"`
	SelectedFG     ColorValue `yaml:"selected_fg" yamlcomment:"Selected card foreground"`
	SelectedBG     ColorValue `yaml:"selected_bg" yamlcomment:"Selected card background"`
	SeparatorColor ColorValue `yaml:"separator_color" yamlcomment:"Separator line color"`
	InputBG        ColorValue `yaml:"input_bg" yamlcomment:"Search/filter bar background"`
	InputFG        ColorValue `yaml:"input_fg" yamlcomment:"Search/filter bar foreground"`
	StatusColor    ColorValue `yaml:"status_color" yamlcomment:"Status bar color"`
	StatusError    ColorValue `yaml:"status_error" yamlcomment:"Status error color"`
	StatusSuccess  ColorValue `yaml:"status_success" yamlcomment:"Status success color"`
	FooterFG       ColorValue `yaml:"footer_fg" yamlcomment:"Footer foreground"`
	FooterBG       ColorValue `yaml:"footer_bg" yamlcomment:"Footer background"`
	HelpKey        ColorValue `yaml:"help_key" yamlcomment:"Help key color"`
	HelpValue      ColorValue `yaml:"help_value" yamlcomment:"Help value color"`
}

// AboutConfig contains application metadata and information.
// Fields marked as dynamic are populated at runtime from build info.
type AboutConfig struct {
	Name        string `yaml:"name,omitempty" yamlcomment:"Application name"`
	Description string `yaml:"description,omitempty" yamlcomment:"Application description"`
	// Dynamic fields (populated at runtime, shown commented in default config)
	Version   string `yaml:"version,omitempty" yamlcomment:"Application version (dynamic: from build info)"`
	GoVersion string `yaml:"go_version,omitempty" yamlcomment:"Go version used to build (dynamic: from build info)"`
	BuildOS   string `yaml:"build_os,omitempty" yamlcomment:"Build operating system (dynamic: from build info)"`
	BuildArch string `yaml:"build_arch,omitempty" yamlcomment:"Build architecture (dynamic: from build info)"`
	GitCommit string `yaml:"git_commit,omitempty" yamlcomment:"Git commit hash (dynamic: from build info)"`
	// Static fields
	License          string   `yaml:"license,omitempty" yamlcomment:"License information"`
	RepositoryURL    string   `yaml:"repository_url,omitempty" yamlcomment:"Source code repository URL"`
	DocumentationURL string   `yaml:"documentation_url,omitempty" yamlcomment:"Documentation website URL"`
	Author           string   `yaml:"author,omitempty" yamlcomment:"Author or maintainer name"`
	Details          []string `yaml:"details,omitempty" yamlcomment:"Additional details (array of strings, supports templates)"`
}

// CLIConfig holds CLI-specific configuration.
type CLIConfig struct {
	HelpHeaderTemplate string `yaml:"help_header_template,omitempty" yamlcomment:"Template for CLI --help header (supports Go templates)"`
	HelpDescription    string `yaml:"help_description,omitempty" yamlcomment:"Description paragraph for CLI --help (supports Go templates)"`
	HelpUsage          string `yaml:"help_usage,omitempty" yamlcomment:"Usage instructions for CLI --help (supports Go templates)"`
}

// ThemeSelectionConfig holds theme selection configuration.
type ThemeSelectionConfig struct {
	Default string `yaml:"default,omitempty" yamlcomment:"Default theme name"`
}

// FeaturesConfig holds feature flags for UI features.
type FeaturesConfig struct {
	AllowSearch *bool   `yaml:"allow_search,omitempty" yamlcomment:"Enable the text search bar (/)"`
	AllowFilter *bool   `yaml:"allow_filter,omitempty" yamlcomment:"Enable the CEL filter bar (f)"`
	AllowRemove *bool   `yaml:"allow_remove,omitempty" yamlcomment:"Enable removing cards from the feed (x)"`
	KeyMode     *string `yaml:"key_mode,omitempty" yamlcomment:"Keybinding mode: vim (default), emacs, or function"`
}

// FeedConfig holds the paging and placeholder settings for the feed view.
type FeedConfig struct {
	Limit          *int   `yaml:"limit,omitempty" yamlcomment:"Records per page (default: 10)"`
	EndReachedRows *int   `yaml:"end_reached_rows,omitempty" yamlcomment:"How close to the bottom the cursor may get before the next page loads (default: 3)"`
	EndText        string `yaml:"end_text,omitempty" yamlcomment:"Footer text once the feed is exhausted"`
	EmptyText      string `yaml:"empty_text,omitempty" yamlcomment:"Placeholder when the feed is empty"`
	LoadingText    string `yaml:"loading_text,omitempty" yamlcomment:"Footer text while a page is loading"`
	RefreshingText string `yaml:"refreshing_text,omitempty" yamlcomment:"Footer text while a refresh is in flight"`
}

// AppConfig holds application-level configuration (not UI-specific).
type AppConfig struct {
	About AboutConfig `yaml:"about" yamlcomment:"Application metadata and information"`
	CLI   CLIConfig   `yaml:"cli" yamlcomment:"CLI-specific configuration"`
}

// Config holds UI-specific configuration.
type Config struct {
	Theme       ThemeSelectionConfig   `yaml:"theme" yamlcomment:"Theme selection and configuration"`
	Features    FeaturesConfig         `yaml:"features" yamlcomment:"Feature flags - enable/disable UI features"`
	Feed        FeedConfig             `yaml:"feed" yamlcomment:"Feed paging and placeholder settings"`
	Themes      map[string]ThemeConfig `yaml:"themes" yamlcomment:"Theme definitions"`
	LegacyTheme ThemeConfig            `yaml:",inline,omitempty"` // single-theme files without a themes map
}

// ConfigFile holds the complete merged configuration (app + ui).
type ConfigFile struct {
	About       AboutConfig            `yaml:"about" yamlcomment:"Application metadata and information"`
	CLI         CLIConfig              `yaml:"cli" yamlcomment:"CLI-specific configuration"`
	Theme       ThemeSelectionConfig   `yaml:"theme" yamlcomment:"Theme selection and configuration"`
	Features    FeaturesConfig         `yaml:"features" yamlcomment:"Feature flags - enable/disable UI features"`
	Feed        FeedConfig             `yaml:"feed" yamlcomment:"Feed paging and placeholder settings"`
	Themes      map[string]ThemeConfig `yaml:"themes" yamlcomment:"Theme definitions"`
	LegacyTheme ThemeConfig            `yaml:",inline,omitempty"` // single-theme files without a themes map
}

// ThemeFromConfig builds a Theme from a ThemeConfig, falling back to defaults when fields are empty.
func ThemeFromConfig(cfg ThemeConfig) Theme {
	// Use fallbackDefaultTheme as the base to avoid recursive DefaultTheme() calls
	// when ThemeFromConfig is invoked during DefaultTheme initialization.
	return themeFromConfigWithBase(cfg, fallbackDefaultTheme())
}

// themeFromConfigWithBase builds a Theme from a ThemeConfig using the provided base theme.
func themeFromConfigWithBase(cfg ThemeConfig, base Theme) Theme {
	th := base
	set := func(val ColorValue, dst *color.Color) {
		if val != "" {
			*dst = lipgloss.Color(string(val))
		}
	}
	set(cfg.Accent, &th.Accent)
	set(cfg.Text, &th.Text)
	set(cfg.Muted, &th.Muted)
	set(cfg.HeaderFG, &th.HeaderFG)
	set(cfg.HeaderBG, &th.HeaderBG)
	if cfg.BorderStyle != "" {
		th.BorderStyle = normalizeBorderStyle(cfg.BorderStyle)
	}
	set(cfg.SelectedFG, &th.SelectedFG)
	set(cfg.SelectedBG, &th.SelectedBG)
	set(cfg.SeparatorColor, &th.SeparatorColor)
	set(cfg.InputBG, &th.InputBG)
	set(cfg.InputFG, &th.InputFG)
	set(cfg.StatusColor, &th.StatusColor)
	set(cfg.StatusError, &th.StatusError)
	set(cfg.StatusSuccess, &th.StatusSuccess)
	set(cfg.FooterFG, &th.FooterFG)
	set(cfg.FooterBG, &th.FooterBG)
	set(cfg.HelpKey, &th.HelpKey)
	set(cfg.HelpValue, &th.HelpValue)
	th.BorderStyle = normalizeBorderStyle(th.BorderStyle)
	return th
}

// colorToColorValue converts a color.Color interface to a ColorValue string.
// Best effort: color.Color has no String() method, so this normalizes to hex.
func colorToColorValue(c color.Color) ColorValue { //nolint:gosec // RGBA values are 16-bit; explicit scaling to 8-bit is safe
	if c == nil {
		return ""
	}
	r, g, b, a := c.RGBA()
	if a == 0 && r == 0 && g == 0 && b == 0 {
		return ""
	}
	// Normalize to 8-bit per channel hex string; RGBA returns 16-bit values so divide by 257 to scale safely.
	r8 := r / 257
	g8 := g / 257
	b8 := b / 257
	return ColorValue(fmt.Sprintf("#%02x%02x%02x", r8, g8, b8))
}

// ThemeConfigFromTheme converts a Theme into its YAML-friendly config form.
func ThemeConfigFromTheme(th Theme) ThemeConfig {
	return ThemeConfig{
		Accent:         colorToColorValue(th.Accent),
		Text:           colorToColorValue(th.Text),
		Muted:          colorToColorValue(th.Muted),
		HeaderFG:       colorToColorValue(th.HeaderFG),
		HeaderBG:       colorToColorValue(th.HeaderBG),
		BorderStyle:    th.BorderStyle,
		SelectedFG:     colorToColorValue(th.SelectedFG),
		SelectedBG:     colorToColorValue(th.SelectedBG),
		SeparatorColor: colorToColorValue(th.SeparatorColor),
		InputBG:        colorToColorValue(th.InputBG),
		InputFG:        colorToColorValue(th.InputFG),
		StatusColor:    colorToColorValue(th.StatusColor),
		StatusError:    colorToColorValue(th.StatusError),
		StatusSuccess:  colorToColorValue(th.StatusSuccess),
		FooterFG:       colorToColorValue(th.FooterFG),
		FooterBG:       colorToColorValue(th.FooterBG),
		HelpKey:        colorToColorValue(th.HelpKey),
		HelpValue:      colorToColorValue(th.HelpValue),
	}
}

func normalizeBorderStyle(val string) string {
	v := strings.TrimSpace(strings.ToLower(val))
	switch v {
	case "", "normal", "square":
		return "normal"
	case "rounded", "round":
		return "rounded"
	default:
		return "normal"
	}
}

func borderForStyle(style string) lipgloss.Border {
	switch normalizeBorderStyle(style) {
	case "rounded":
		return lipgloss.RoundedBorder()
	default:
		return lipgloss.NormalBorder()
	}
}

func borderForTheme(th Theme) lipgloss.Border {
	return borderForStyle(th.BorderStyle)
}

// LoadThemeFile reads a YAML theme file and returns a Theme.
func LoadThemeFile(path string) (Theme, error) {
	var cfg ThemeConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Theme{}, err
	}
	return ThemeFromConfig(cfg), nil
}

// LoadConfigFile reads a config file that can contain multiple themes and settings.
// It supports the single-theme format and the themes map format.
func LoadConfigFile(path string) (ConfigFile, error) {
	var cfg ConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigFile{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ConfigFile{}, err
	}
	// If Themes map is empty but an inline theme is set, build a map entry for it.
	if len(cfg.Themes) == 0 && (cfg.LegacyTheme != ThemeConfig{}) {
		cfg.Themes = map[string]ThemeConfig{
			"default": cfg.LegacyTheme,
		}
	}
	if cfg.Theme.Default == "" {
		cfg.Theme.Default = "dark"
	}
	return cfg, nil
}

// InitializeThemes loads all themes from the provided configuration into loadedThemes.
// This is called at startup to populate themes from default_config.yaml and user config files.
// It should be called before any SetThemeByName() calls.
func InitializeThemes(cfg *ConfigFile) error {
	if cfg == nil {
		return fmt.Errorf("cannot initialize themes with nil configuration")
	}

	loadedThemes = make(map[string]Theme)

	if len(cfg.Themes) == 0 {
		return fmt.Errorf("no themes found in configuration")
	}

	for name, themeCfg := range cfg.Themes {
		loadedThemes[name] = ThemeFromConfig(themeCfg)
	}

	// Ensure at least a "dark" theme exists as fallback
	if _, ok := loadedThemes["dark"]; !ok {
		loadedThemes["dark"] = DefaultTheme()
	}

	return nil
}
