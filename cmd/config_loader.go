package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pagekit/internal/ui"
)

// configLoader centralizes config loading so callers avoid duplicating merge logic.
type configLoader struct {
	defaultConfig func() ([]byte, error)
}

var cfgLoader = configLoader{defaultConfig: loadDefaultConfigYAML}

func loadMergedConfig(cfgPath string) (ui.ConfigFile, error) {
	return cfgLoader.loadMergedConfig(cfgPath)
}

func loadDefaultConfigRaw() ([]byte, error) {
	return cfgLoader.loadDefaultConfigRaw()
}

func loadDefaultConfigYAML() ([]byte, error) {
	data := ui.DefaultConfigYAML()
	if len(data) == 0 {
		return nil, fmt.Errorf("embedded default config is empty")
	}
	return data, nil
}

// nestedConfig is the on-disk layout: an app section and a ui section.
type nestedConfig struct {
	App ui.AppConfig `yaml:"app"`
	UI  ui.Config    `yaml:"ui"`
}

func (l configLoader) loadMergedConfig(cfgPath string) (ui.ConfigFile, error) {
	var cfg ui.ConfigFile

	defaultData, err := l.loadDefaultConfigRaw()
	if err != nil {
		return cfg, fmt.Errorf("load default config: %w", err)
	}

	var defaults nestedConfig
	if err := yaml.Unmarshal(defaultData, &defaults); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}

	// The embedded default config is the authoritative source of defaults.
	cfg = mergeConfigFromNested(defaults, ui.ConfigFile{})
	if cfg.Theme.Default == "" || len(cfg.Themes) == 0 {
		return cfg, fmt.Errorf("default config is missing required theme defaults")
	}

	if cfgPath != "" {
		data, err := os.ReadFile(cfgPath)
		if err != nil {
			return cfg, err
		}

		var user nestedConfig
		if err := yaml.Unmarshal(data, &user); err == nil && nestedHasData(user) {
			cfg = mergeConfigFromNested(user, cfg)
		} else {
			// Legacy flat schema: top-level theme fields or a themes map.
			fileCfg, err := ui.LoadConfigFile(cfgPath)
			if err != nil {
				return cfg, err
			}
			cfg = mergeFlatConfig(fileCfg, cfg)
		}
	}

	// Clear inline legacy theme to avoid emitting empty placeholder fields
	cfg.LegacyTheme = ui.ThemeConfig{}

	applyBuildData(&cfg, buildVersionData(&cfg))
	cfg = processConfigTemplates(cfg)

	return cfg, nil
}

func (l configLoader) loadDefaultConfigRaw() ([]byte, error) {
	if l.defaultConfig != nil {
		return l.defaultConfig()
	}
	return loadDefaultConfigYAML()
}

// nestedHasData reports whether a decoded user file set anything in the
// nested layout. Empty means the file is either blank or legacy flat schema.
func nestedHasData(n nestedConfig) bool {
	if n.App.About.Name != "" || n.App.About.Description != "" || n.App.CLI.HelpHeaderTemplate != "" {
		return true
	}
	if n.UI.Theme.Default != "" || len(n.UI.Themes) > 0 {
		return true
	}
	f := n.UI.Features
	if f.AllowSearch != nil || f.AllowFilter != nil || f.AllowRemove != nil || f.KeyMode != nil {
		return true
	}
	fd := n.UI.Feed
	return fd.Limit != nil || fd.EndReachedRows != nil ||
		fd.EndText != "" || fd.EmptyText != "" || fd.LoadingText != "" || fd.RefreshingText != ""
}

func mergeConfigFromNested(nested nestedConfig, base ui.ConfigFile) ui.ConfigFile {
	cfg := base
	// App-level settings
	if nested.App.About.Name != "" {
		cfg.About.Name = nested.App.About.Name
	}
	if nested.App.About.Description != "" {
		cfg.About.Description = nested.App.About.Description
	}
	// Dynamic fields (version, go_version, build_os, build_arch, git_commit)
	// come from build info, not from config files.
	if nested.App.About.License != "" {
		cfg.About.License = nested.App.About.License
	}
	if nested.App.About.RepositoryURL != "" {
		cfg.About.RepositoryURL = nested.App.About.RepositoryURL
	}
	if nested.App.About.DocumentationURL != "" {
		cfg.About.DocumentationURL = nested.App.About.DocumentationURL
	}
	if nested.App.About.Author != "" {
		cfg.About.Author = nested.App.About.Author
	}
	if len(nested.App.About.Details) > 0 {
		cfg.About.Details = nested.App.About.Details
	}
	if nested.App.CLI.HelpHeaderTemplate != "" {
		cfg.CLI.HelpHeaderTemplate = nested.App.CLI.HelpHeaderTemplate
	}
	if nested.App.CLI.HelpDescription != "" {
		cfg.CLI.HelpDescription = nested.App.CLI.HelpDescription
	}
	if nested.App.CLI.HelpUsage != "" {
		cfg.CLI.HelpUsage = nested.App.CLI.HelpUsage
	}
	// UI-level settings
	if nested.UI.Theme.Default != "" {
		cfg.Theme.Default = nested.UI.Theme.Default
	}
	if nested.UI.Features.AllowSearch != nil {
		cfg.Features.AllowSearch = nested.UI.Features.AllowSearch
	}
	if nested.UI.Features.AllowFilter != nil {
		cfg.Features.AllowFilter = nested.UI.Features.AllowFilter
	}
	if nested.UI.Features.AllowRemove != nil {
		cfg.Features.AllowRemove = nested.UI.Features.AllowRemove
	}
	if nested.UI.Features.KeyMode != nil {
		cfg.Features.KeyMode = nested.UI.Features.KeyMode
	}
	if nested.UI.Feed.Limit != nil {
		cfg.Feed.Limit = nested.UI.Feed.Limit
	}
	if nested.UI.Feed.EndReachedRows != nil {
		cfg.Feed.EndReachedRows = nested.UI.Feed.EndReachedRows
	}
	if nested.UI.Feed.EndText != "" {
		cfg.Feed.EndText = nested.UI.Feed.EndText
	}
	if nested.UI.Feed.EmptyText != "" {
		cfg.Feed.EmptyText = nested.UI.Feed.EmptyText
	}
	if nested.UI.Feed.LoadingText != "" {
		cfg.Feed.LoadingText = nested.UI.Feed.LoadingText
	}
	if nested.UI.Feed.RefreshingText != "" {
		cfg.Feed.RefreshingText = nested.UI.Feed.RefreshingText
	}
	if len(nested.UI.Themes) > 0 {
		merged := make(map[string]ui.ThemeConfig, len(cfg.Themes)+len(nested.UI.Themes))
		for name, themeCfg := range cfg.Themes {
			merged[name] = themeCfg
		}
		for name, themeCfg := range nested.UI.Themes {
			merged[name] = mergeThemeConfig(merged[name], themeCfg)
		}
		cfg.Themes = merged
	}
	return cfg
}

// mergeFlatConfig folds a legacy flat config file into the merged defaults.
func mergeFlatConfig(file ui.ConfigFile, base ui.ConfigFile) ui.ConfigFile {
	return mergeConfigFromNested(nestedConfig{
		App: ui.AppConfig{About: file.About, CLI: file.CLI},
		UI: ui.Config{
			Theme:    file.Theme,
			Features: file.Features,
			Feed:     file.Feed,
			Themes:   file.Themes,
		},
	}, base)
}

func mergeThemeConfig(base, override ui.ThemeConfig) ui.ThemeConfig {
	out := base
	apply := func(src ui.ColorValue, dst *ui.ColorValue) {
		if src != "" {
			*dst = src
		}
	}
	if strings.TrimSpace(override.BorderStyle) != "" {
		out.BorderStyle = override.BorderStyle
	}
	apply(override.Accent, &out.Accent)
	apply(override.Text, &out.Text)
	apply(override.Muted, &out.Muted)
	apply(override.HeaderFG, &out.HeaderFG)
	apply(override.HeaderBG, &out.HeaderBG)
	apply(override.SelectedFG, &out.SelectedFG)
	apply(override.SelectedBG, &out.SelectedBG)
	apply(override.SeparatorColor, &out.SeparatorColor)
	apply(override.InputBG, &out.InputBG)
	apply(override.InputFG, &out.InputFG)
	apply(override.StatusColor, &out.StatusColor)
	apply(override.StatusError, &out.StatusError)
	apply(override.StatusSuccess, &out.StatusSuccess)
	apply(override.FooterFG, &out.FooterFG)
	apply(override.FooterBG, &out.FooterBG)
	apply(override.HelpKey, &out.HelpKey)
	apply(override.HelpValue, &out.HelpValue)
	return out
}

// processConfigTemplates processes Go templates in config string values.
// Templates can access:
//   - .config - the merged config structure
//   - .build - build information (version, go_version, build_os, build_arch, git_commit)
func processConfigTemplates(cfg ui.ConfigFile) ui.ConfigFile {
	templateData := configTemplateData(cfg)

	if len(cfg.About.Details) > 0 {
		processed := make([]string, 0, len(cfg.About.Details))
		for _, detail := range cfg.About.Details {
			processed = append(processed, processTemplateString(detail, templateData))
		}
		cfg.About.Details = processed
	}

	return cfg
}

func configTemplateData(cfg ui.ConfigFile) map[string]interface{} {
	return map[string]interface{}{
		"config": map[string]interface{}{
			"app": map[string]interface{}{
				"about": map[string]interface{}{
					"name":              cfg.About.Name,
					"description":       cfg.About.Description,
					"version":           cfg.About.Version,
					"go_version":        cfg.About.GoVersion,
					"build_os":          cfg.About.BuildOS,
					"build_arch":        cfg.About.BuildArch,
					"git_commit":        cfg.About.GitCommit,
					"license":           cfg.About.License,
					"repository_url":    cfg.About.RepositoryURL,
					"documentation_url": cfg.About.DocumentationURL,
					"author":            cfg.About.Author,
					"details":           cfg.About.Details,
				},
				"cli": map[string]interface{}{
					"help_header_template": cfg.CLI.HelpHeaderTemplate,
					"help_description":     cfg.CLI.HelpDescription,
					"help_usage":           cfg.CLI.HelpUsage,
				},
			},
			"ui": map[string]interface{}{
				"theme": map[string]interface{}{
					"default": cfg.Theme.Default,
				},
				"features": map[string]interface{}{
					"allow_search": cfg.Features.AllowSearch,
					"allow_filter": cfg.Features.AllowFilter,
					"allow_remove": cfg.Features.AllowRemove,
					"key_mode":     cfg.Features.KeyMode,
				},
				"feed": map[string]interface{}{
					"limit":            cfg.Feed.Limit,
					"end_reached_rows": cfg.Feed.EndReachedRows,
				},
			},
		},
		"build": map[string]interface{}{
			"version":    cfg.About.Version,
			"go_version": cfg.About.GoVersion,
			"build_os":   cfg.About.BuildOS,
			"build_arch": cfg.About.BuildArch,
			"git_commit": cfg.About.GitCommit,
		},
	}
}

// processTemplateString processes a template string, returning the original string if templating fails.
func processTemplateString(text string, data map[string]interface{}) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	tmpl, err := template.New("config").Parse(text)
	if err != nil {
		return text
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return text
	}

	return buf.String()
}

func applyBuildData(cfg *ui.ConfigFile, buildData map[string]interface{}) {
	if v, ok := buildData["Version"].(string); ok {
		cfg.About.Version = v
	}
	if v, ok := buildData["GoVersion"].(string); ok {
		cfg.About.GoVersion = v
	}
	if v, ok := buildData["BuildOS"].(string); ok {
		cfg.About.BuildOS = v
	}
	if v, ok := buildData["BuildArch"].(string); ok {
		cfg.About.BuildArch = v
	}
	if v, ok := buildData["GitCommit"].(string); ok {
		cfg.About.GitCommit = v
	}
}

// outputConfig mirrors ConfigFile in the nested on-disk layout for `config get`.
type outputConfig struct {
	App ui.AppConfig `yaml:"app,omitempty" json:"app,omitempty"`
	UI  ui.Config    `yaml:"ui,omitempty" json:"ui,omitempty"`
}

// sanitizeConfig strips dynamic fields so `config get` output matches what a
// user could actually put in a config file.
func sanitizeConfig(cfg ui.ConfigFile) outputConfig {
	about := ui.AboutConfig{
		Name:             cfg.About.Name,
		Description:      cfg.About.Description,
		License:          cfg.About.License,
		RepositoryURL:    cfg.About.RepositoryURL,
		DocumentationURL: cfg.About.DocumentationURL,
		Author:           cfg.About.Author,
		Details:          cfg.About.Details,
	}
	return outputConfig{
		App: ui.AppConfig{About: about, CLI: cfg.CLI},
		UI: ui.Config{
			Theme:    cfg.Theme,
			Features: cfg.Features,
			Feed:     cfg.Feed,
			Themes:   cfg.Themes,
		},
	}
}

// getAllAvailableThemes collects theme names from built-in presets and the merged config.
func getAllAvailableThemes(cfg *ui.ConfigFile) []string {
	seen := make(map[string]bool)
	for name := range ui.GetAvailableThemes() {
		seen[name] = true
	}
	if cfg != nil {
		for name := range cfg.Themes {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}
