package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pagekit/internal/ui"
)

func TestConfigLoaderLoadMergedConfigDefaults(t *testing.T) {
	cfg, err := loadMergedConfig("")
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Themes)
	require.NotEmpty(t, strings.TrimSpace(cfg.About.Name))
	require.NotEmpty(t, strings.TrimSpace(cfg.About.Version))
	require.NotEmpty(t, strings.TrimSpace(cfg.Theme.Default))
	require.NotNil(t, cfg.Feed.Limit)
	require.Equal(t, 10, *cfg.Feed.Limit)
	require.NotNil(t, cfg.Feed.EndReachedRows)
	require.NotNil(t, cfg.Features.KeyMode)
	require.Equal(t, "vim", *cfg.Features.KeyMode)
}

func TestConfigLoaderLoadMergedConfigNestedOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `app:
  about:
    name: custom-feed
ui:
  theme:
    default: midnight
  features:
    allow_remove: false
  feed:
    limit: 25
    end_text: "that's all"
  themes:
    midnight:
      accent: "#00ff00"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	cfg, err := loadMergedConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "custom-feed", cfg.About.Name)
	require.Equal(t, "midnight", cfg.Theme.Default)
	require.NotNil(t, cfg.Features.AllowRemove)
	require.False(t, *cfg.Features.AllowRemove)
	require.NotNil(t, cfg.Feed.Limit)
	require.Equal(t, 25, *cfg.Feed.Limit)
	require.Equal(t, "that's all", cfg.Feed.EndText)
	require.Contains(t, cfg.Themes, "midnight")
	require.Equal(t, ui.ColorValue("#00ff00"), cfg.Themes["midnight"].Accent)
	// Features the user did not touch keep the embedded defaults.
	require.NotNil(t, cfg.Features.AllowSearch)
	require.True(t, *cfg.Features.AllowSearch)
}

func TestConfigLoaderLegacyFlatConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `theme:
  default: ocean
themes:
  ocean:
    accent: "#0077cc"
    text: "#e0e0e0"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	cfg, err := loadMergedConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "ocean", cfg.Theme.Default)
	require.Contains(t, cfg.Themes, "ocean")
	require.Equal(t, ui.ColorValue("#0077cc"), cfg.Themes["ocean"].Accent)
	// Defaults still carried across from the embedded config.
	require.Contains(t, cfg.Themes, "dark")
	require.NotEmpty(t, cfg.About.Name)
}

func TestSanitizeConfigClearsDynamicFields(t *testing.T) {
	cfg, err := loadMergedConfig("")
	require.NoError(t, err)

	sanitized := sanitizeConfig(cfg)

	require.Empty(t, sanitized.App.About.Version)
	require.Empty(t, sanitized.App.About.GoVersion)
	require.Empty(t, sanitized.App.About.BuildOS)
	require.Empty(t, sanitized.App.About.BuildArch)
	require.Empty(t, sanitized.App.About.GitCommit)
	require.Equal(t, cfg.About.Name, sanitized.App.About.Name)
}

func TestConfigLoaderUserOverrideMergesWithDefaults(t *testing.T) {
	defaults, err := loadMergedConfig("")
	require.NoError(t, err)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	// User config: recolor one built-in theme, add a custom one.
	configYAML := `ui:
  themes:
    dark:
      accent: "#abcdef"
    midnight:
      accent: "#123456"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	cfg, err := loadMergedConfig(cfgPath)
	require.NoError(t, err)

	// Override applied on top of the built-in definition
	require.Equal(t, ui.ColorValue("#abcdef"), cfg.Themes["dark"].Accent)
	// Untouched fields of the overridden theme survive the merge
	require.NotEmpty(t, cfg.Themes["dark"].Text)
	// User addition is present
	require.Contains(t, cfg.Themes, "midnight")
	// Other built-in themes still present from defaults
	require.True(t, len(cfg.Themes) >= len(defaults.Themes), "user override should not remove other themes")
	// Default theme name still set (not cleared by partial override)
	require.NotEmpty(t, cfg.Theme.Default)
}

func TestConfigLoaderProcessesDetailTemplates(t *testing.T) {
	cfg, err := loadMergedConfig("")
	require.NoError(t, err)

	for _, detail := range cfg.About.Details {
		require.NotContains(t, detail, "{{", "details should have templates expanded: %s", detail)
	}
}

func TestConfigLoaderBrokenDefaultConfig(t *testing.T) {
	orig := cfgLoader
	t.Cleanup(func() { cfgLoader = orig })

	cfgLoader = configLoader{defaultConfig: func() ([]byte, error) {
		return []byte(":\nnot yaml ["), nil
	}}

	_, err := loadMergedConfig("")
	require.Error(t, err)
}

func TestConfigTemplateDataExposesBuildInfo(t *testing.T) {
	cfg, err := loadMergedConfig("")
	require.NoError(t, err)

	data := configTemplateData(cfg)
	build, ok := data["build"].(map[string]interface{})
	require.True(t, ok)
	require.NotEmpty(t, build["version"])
	require.NotEmpty(t, build["go_version"])
}

func TestProcessTemplateStringFallsBackOnBadTemplate(t *testing.T) {
	data := configTemplateData(ui.ConfigFile{})
	in := "broken {{.config.app"
	require.Equal(t, in, processTemplateString(in, data))
	require.Equal(t, "plain text", processTemplateString("plain text", data))
}
