package ui

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     ConfigFile
	embeddedConfigErr  error
)

// DefaultConfigYAML returns a copy of the embedded default config YAML bytes.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// EmbeddedDefaultConfig parses and returns the embedded default configuration.
// This is used as the single source of truth for default settings and themes.
func EmbeddedDefaultConfig() (ConfigFile, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = fmt.Errorf("embedded default config is empty")
			return
		}
		var raw struct {
			App AppConfig `yaml:"app"`
			UI  Config    `yaml:"ui"`
		}
		if err := yaml.Unmarshal(embeddedDefaultConfig, &raw); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
			return
		}
		embeddedConfig = ConfigFile{
			About:    raw.App.About,
			CLI:      raw.App.CLI,
			Theme:    raw.UI.Theme,
			Features: raw.UI.Features,
			Feed:     raw.UI.Feed,
			Themes:   raw.UI.Themes,
		}
		if embeddedConfig.Themes == nil {
			embeddedConfig.Themes = map[string]ThemeConfig{}
		}
	})
	return embeddedConfig, embeddedConfigErr
}
