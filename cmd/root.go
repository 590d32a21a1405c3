package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	rdebug "runtime/debug"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pagekit/internal/config"
	"github.com/oakwood-commons/pagekit/internal/filterexpr"
	"github.com/oakwood-commons/pagekit/internal/ui"
	"github.com/oakwood-commons/pagekit/pkg/loader"
	"github.com/oakwood-commons/pagekit/pkg/logger"
	"github.com/oakwood-commons/pagekit/pkg/settings"
	"github.com/oakwood-commons/pagekit/pkg/tui"
)

// errShowHelp is returned by loadInputData when no input is provided and help should be shown.
var errShowHelp = errors.New("no input provided")

func init() {
	// Custom help: prepend the about header, but only when help was explicitly
	// requested (flag or help command). Cobra also routes usage errors through
	// the help func and those should stay unadorned.
	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFlag := cmd.Flags().Lookup("help")
		helpRequested := (helpFlag != nil && helpFlag.Changed) || cmd.CalledAs() == "help" || cmd.Name() == "help"
		if !helpRequested {
			defaultHelp(cmd, args)
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), helpAboutHeader())
		defaultHelp(cmd, args)
	})
}

var (
	themeName      string
	configFile     string
	configOutput   string // for configCmd (default: yaml)
	keyMode        string // empty = use config, "vim"/"emacs"/"function" = override
	filterExpr     string
	noColor        bool
	logLevel       int8
	limitRecords   int
	feedLatency    time.Duration
	failRate       float64
	failSeed       int64
	renderSnapshot bool
	snapshotWidth  int
	snapshotHeight int
)

var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	stdoutIsPiped    = func() bool { stat, _ := os.Stdout.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
	newResizeTicker  = func(d time.Duration) resizeTicker { return realResizeTicker{Ticker: time.NewTicker(d)} }
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
)

type resizeTicker interface {
	C() <-chan time.Time
	Stop()
}

type realResizeTicker struct {
	*time.Ticker
}

func (t realResizeTicker) C() <-chan time.Time { return t.Ticker.C }

// rootCtx carries the run logger into the command handlers. It is replaced by
// PersistentPreRun once the log level is known.
var rootCtx = context.Background()

// loadInputData resolves the feed dataset: an explicit file argument, "-" for
// stdin, or piped stdin with no argument. No input at all signals errShowHelp.
// The logger is forwarded to the loader so fallback parse attempts are logged.
// The returned path is "-" for stdin input.
func loadInputData(args []string, lgr logr.Logger) (interface{}, string, error) {
	fromStdin := len(args) > 0 && args[0] == "-"
	if len(args) == 0 {
		if !stdinIsPiped() {
			return nil, "", errShowHelp
		}
		fromStdin = true
	}

	if fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, "", errors.New("empty input on stdin")
		}
		root, err := loader.LoadRootBytesWithLogger(data, lgr)
		if err != nil {
			return nil, "", err
		}
		return root, "-", nil
	}

	root, err := loader.LoadFileWithLogger(args[0], lgr)
	if err != nil {
		return nil, "", err
	}
	return root, args[0], nil
}

// validateFlags checks the feed simulation and keybinding flags before any
// config or data loading happens.
func validateFlags() error {
	if limitRecords < 0 {
		return fmt.Errorf("invalid --limit %d (must not be negative)", limitRecords)
	}
	if feedLatency < 0 {
		return fmt.Errorf("invalid --latency %s (must not be negative)", feedLatency)
	}
	if failRate < 0 || failRate > 1 {
		return fmt.Errorf("invalid --fail-rate %v (expected a probability between 0 and 1)", failRate)
	}
	if keyMode != "" && !ui.IsValidKeyMode(keyMode) {
		return fmt.Errorf("invalid --keys %q (expected 'vim', 'emacs', or 'function')", keyMode)
	}
	return nil
}

// buildVersionData assembles the build metadata exposed to config templates.
// Values stamped at link time via settings.VersionInformation win; anything
// left at its default falls back to the module build info recorded by the Go
// toolchain.
func buildVersionData(cfg *ui.ConfigFile) map[string]interface{} {
	version := settings.VersionInformation.BuildVersion
	gitCommit := settings.VersionInformation.Commit
	if gitCommit == "unknown" {
		gitCommit = ""
	}
	goVersion := runtime.Version()
	buildOS := runtime.GOOS
	buildArch := runtime.GOARCH

	if info, ok := rdebug.ReadBuildInfo(); ok {
		if version == "" || version == "v0.0.0-nightly" {
			if info.Main.Version != "" && info.Main.Version != "(devel)" {
				version = info.Main.Version
			}
		}
		if gitCommit == "" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					gitCommit = s.Value[:7]
					break
				}
			}
		}
		if info.GoVersion != "" {
			goVersion = info.GoVersion
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "GOOS":
				buildOS = s.Value
			case "GOARCH":
				buildArch = s.Value
			}
		}
	}

	name := settings.CliBinaryName
	if cfg != nil && cfg.About.Name != "" {
		name = cfg.About.Name
	}

	return map[string]interface{}{
		"Version":   version,
		"GoVersion": goVersion,
		"BuildOS":   buildOS,
		"BuildArch": buildArch,
		"GitCommit": gitCommit,
		"Name":      name,
	}
}

// cliVersionString builds a human-readable version string for CLI output and Cobra's --version flag.
func cliVersionString() string {
	cfg, _ := loadMergedConfig(resolveConfigPath(""))

	name := cfg.About.Name
	if name == "" {
		name = settings.CliBinaryName
	}
	version := cfg.About.Version
	if version == "" {
		version = settings.VersionInformation.BuildVersion
	}
	goVersion := cfg.About.GoVersion
	if goVersion == "" {
		goVersion = runtime.Version()
	}

	return fmt.Sprintf("%s %s (go %s)", name, version, goVersion)
}

// getCLIShortHelp returns the short help text from config
func getCLIShortHelp() string {
	cfg, _ := loadMergedConfig(resolveConfigPath(""))
	return fmt.Sprintf("%s - paging feed browser for YAML/JSON datasets", cfg.About.Name)
}

// getCLILongHelp returns the long help text from config
func getCLILongHelp() string {
	cfg, _ := loadMergedConfig(resolveConfigPath(""))
	templateData := configTemplateData(cfg)

	var long strings.Builder

	helpDescription := processTemplateString(cfg.CLI.HelpDescription, templateData)
	long.WriteString(fmt.Sprintf("%s is %s. %s\n\n", cfg.About.Name, cfg.About.Description, helpDescription))

	for _, detail := range cfg.About.Details {
		long.WriteString(processTemplateString(detail, templateData))
		long.WriteString("\n")
	}
	long.WriteString("\n")

	long.WriteString(processTemplateString(cfg.CLI.HelpUsage, templateData))

	return long.String()
}

// helpAboutHeader renders the configured header template, used to prefix --help output.
func helpAboutHeader() string {
	cfg, _ := loadMergedConfig(resolveConfigPath(""))
	return processTemplateString(cfg.CLI.HelpHeaderTemplate, configTemplateData(cfg)) + "\n"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pagekit version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println(cliVersionString()) //nolint:forbidigo
		return nil
	},
}

// configCmd groups configuration-related subcommands similar to gh-style CLIs.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pagekit configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when invoked without a subcommand (gh-style UX)
		return cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show merged configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConfigView(cmd)
	},
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runThemesList()
	},
}

var configThemeCmd = &cobra.Command{
	Use:   "theme",
	Short: "List available themes",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runThemesList()
	},
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runThemesList()
	},
}

// runThemesList prints the available themes from merged configuration
func runThemesList() error {
	resolvedPath := resolveConfigPath(configFile)
	merged, _ := loadMergedConfig(resolvedPath)
	names := getAllAvailableThemes(&merged)
	sort.Strings(names)
	fmt.Printf("Available themes (default: %s):\n", defaultThemeName(merged)) //nolint:forbidigo
	for _, name := range names {
		fmt.Printf(" - %s\n", name) //nolint:forbidigo
	}
	return nil
}

// runConfigView prints the configuration honoring --output. The yaml and json
// outputs show the merged effective config with dynamic build fields stripped;
// raw prints the user's config file verbatim (or the embedded default when no
// user config exists), preserving comments.
func runConfigView(_ *cobra.Command) error {
	resolved := resolveConfigPath(configFile)

	if configOutput == "raw" {
		var raw []byte
		var err error
		if resolved != "" {
			raw, err = os.ReadFile(resolved)
			if err != nil {
				return fmt.Errorf("failed to read config file %s: %w", resolved, err)
			}
		} else {
			raw, err = loadDefaultConfigRaw()
			if err != nil {
				return fmt.Errorf("failed to read default config: %w", err)
			}
		}
		printRawConfig(raw)
		return nil
	}

	merged, err := loadMergedConfig(resolved)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	sanitized := sanitizeConfig(merged)

	switch configOutput {
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(sanitized); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_ = enc.Close()
		fmt.Print(buf.String()) //nolint:forbidigo
		return nil
	case "json":
		// Round-trip through YAML so the JSON keys match the on-disk layout.
		data, err := yaml.Marshal(sanitized)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		obj, err := decodeYAMLLenient(data)
		if err != nil {
			return fmt.Errorf("failed to decode config for json view: %w", err)
		}
		out, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(out) + "\n") //nolint:forbidigo
		return nil
	default:
		return fmt.Errorf("invalid output for config: %s (use yaml|json|raw)", configOutput)
	}
}

// printRawConfig writes data with a guaranteed trailing newline for clean CLI output.
func printRawConfig(data []byte) {
	if len(data) == 0 {
		fmt.Print("\n") //nolint:forbidigo
		return
	}
	if data[len(data)-1] == '\n' {
		fmt.Print(string(data)) //nolint:forbidigo
		return
	}
	fmt.Printf("%s\n", string(data)) //nolint:forbidigo
}

// getProgramOptions handles piped stdin by reopening the terminal for interactive input/output.
// This allows Bubble Tea to keep receiving keyboard input and resize events when the dataset
// arrives on a pipe, on platforms like Windows included.
// Returns tea.ProgramOption values (plus a cleanup) that should be passed to tea.NewProgram.
func getProgramOptions() ([]tea.ProgramOption, func()) {
	isPiped := stdinIsPiped()
	cleanup := func() {}

	if !isPiped {
		// Normal terminal input - use default behavior
		return nil, cleanup
	}

	// Piped input detected: open real terminal devices for interactive control
	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		// /dev/tty not available (e.g., in some CI environments)
		// Silently fall back to piped stdin - the feed renders but arrow keys/resize won't work
		return nil, cleanup
	}
	cleanup = func() {
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut), withTTYResizeWatcher(ctx, ttyOut))
	}

	return opts, func() {
		cancel()
		cleanup()
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}

	if out == "" || out == in {
		return input, input, nil
	}

	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		return input, nil, err
	}

	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}

	return "/dev/tty", "/dev/tty"
}

// withTTYResizeWatcher polls terminal size and sends resize messages when signals are unreliable
// (e.g., piped stdin on Windows). This is best-effort and stops when the context is canceled.
func withTTYResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if ctx == nil || out == nil {
			return
		}

		go func() {
			t := newResizeTicker(250 * time.Millisecond)
			defer t.Stop()

			lastW, lastH := 0, 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C():
					w, h, err := termGetSize(int(out.Fd()))
					if err != nil {
						continue
					}
					if w == lastW && h == lastH {
						continue
					}
					lastW, lastH = w, h
					sendWindowSize(p, tea.WindowSizeMsg{Width: w, Height: h})
				}
			}
		}()
	}
}

var rootCmd = &cobra.Command{
	Use:     "pagekit [file]",
	Short:   getCLIShortHelp(),
	Long:    getCLILongHelp(),
	Example: "\n  pagekit feed.yaml\n  pagekit posts.json --filter '_.author == \"sam\"'\n  pagekit posts.json --latency 300ms --fail-rate 0.2\n  cat feed.json | pagekit -\n  pagekit feed.yaml --snapshot --width 100 --height 30",
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// Initialize structured logging with JSON output on stderr.
		lgr := logger.Get(logLevel)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		rootCtx = logger.WithLogger(context.Background(), lgr)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateFlags(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		// Reject a broken filter before any data loads; the same expression is
		// compiled again when the browser starts.
		if strings.TrimSpace(filterExpr) != "" {
			if _, err := filterexpr.Compile(filterExpr); err != nil {
				fmt.Fprintf(os.Stderr, "filter expression error: %v\n", err)
				os.Exit(2)
			}
		}

		themeFlagSet := cmd.Flags().Changed("theme")
		lgr := logger.FromContext(rootCtx)

		configFile = resolveConfigPath(configFile)
		cfg, err := loadMergedConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		}
		// Initialize themes from configuration (must be done before theme selection)
		if err := ui.InitializeThemes(&cfg); err != nil {
			// Log warning but continue - will use fallback dark theme
			fmt.Fprintf(os.Stderr, "Warning: Failed to initialize themes: %v\n", err)
		}
		if err := applyThemeFromConfig(cfg, themeName, themeFlagSet); err != nil {
			printThemeSelectionError(os.Stderr, err)
			os.Exit(2)
		}

		root, sourcePath, err := loadInputData(args, *lgr)
		if err != nil {
			if errors.Is(err, errShowHelp) {
				_ = cmd.Help()
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		ds := config.Split(root)
		lgr.V(1).Info("dataset loaded",
			"source", sourcePath,
			"rows", len(ds.Rows),
			"name", ds.Meta.Name,
			"version", ds.Meta.Version)

		appName := cfg.About.Name
		if appName == "" {
			appName = settings.CliBinaryName
		}

		params := settings.NewCliParams()
		params.MinLogLevel = logLevel
		params.Theme = themeName
		params.KeyMode = string(effectiveKeyMode(cfg, keyMode))
		params.Filter = filterExpr
		params.NoColor = noColor
		params.Feed.Path = sourcePath
		if limitRecords > 0 {
			params.Feed.Limit = limitRecords
		} else if cfg.Feed.Limit != nil && *cfg.Feed.Limit > 0 {
			params.Feed.Limit = *cfg.Feed.Limit
		}
		params.Feed.Latency = feedLatency
		params.Feed.FailRate = failRate
		params.Feed.FailSeed = failSeed
		runCtx := settings.IntoContext(rootCtx, params)

		endRows := 0
		if cfg.Feed.EndReachedRows != nil {
			endRows = *cfg.Feed.EndReachedRows
		}

		// Respect explicit width/height flags; zero lets the terminal probe decide.
		runW, runH := 0, 0
		if cmd.Flags().Changed("width") {
			runW = snapshotWidth
		}
		if cmd.Flags().Changed("height") {
			runH = snapshotHeight
		}

		tcfg := tui.Config{
			AppName:        appName,
			Dataset:        datasetTitle(ds.Meta.Name, sourcePath, appName),
			Version:        ds.Meta.Version,
			Width:          runW,
			Height:         runH,
			NoColor:        params.NoColor,
			KeyMode:        params.KeyMode,
			Limit:          params.Feed.Limit,
			EndReachedRows: endRows,
			Filter:         params.Filter,
			AllowSearch:    cfg.Features.AllowSearch,
			AllowFilter:    cfg.Features.AllowFilter,
			AllowRemove:    cfg.Features.AllowRemove,
			EndText:        cfg.Feed.EndText,
			EmptyText:      cfg.Feed.EmptyText,
			LoadingText:    cfg.Feed.LoadingText,
			RefreshingText: cfg.Feed.RefreshingText,
			Latency:        params.Feed.Latency,
			FailRate:       params.Feed.FailRate,
			FailSeed:       params.Feed.FailSeed,
			HelpAboutTitle: appName,
			HelpAboutLines: cfg.About.Details,
			Ctx:            runCtx,
			Log:            *lgr,
		}

		// A piped stdout cannot host the interactive program; render one frame
		// instead, same as an explicit --snapshot.
		if renderSnapshot || stdoutIsPiped() {
			if stdoutIsPiped() {
				tcfg.NoColor = true
			}
			frame, err := tui.Snapshot(ds.Rows, tcfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			fmt.Print(frame) //nolint:forbidigo
			if !strings.HasSuffix(frame, "\n") {
				fmt.Println() //nolint:forbidigo
			}
			return
		}

		opts, cleanup := getProgramOptions()
		defer cleanup()
		if err := tui.Run(ds.Rows, tcfg, opts...); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.Flags().StringVar(&filterExpr, "filter", "", "CEL row filter using '_' as the row. Examples: '_.author == \"sam\"', '_.score > 10'")
	rootCmd.Flags().IntVar(&limitRecords, "limit", 0, "records per page (default from config: 10)")
	rootCmd.Flags().DurationVar(&feedLatency, "latency", 0, "simulated fetch latency per page (e.g. 300ms)")
	rootCmd.Flags().Float64Var(&failRate, "fail-rate", 0, "simulated fetch failure probability per page (0..1)")
	rootCmd.Flags().Int64Var(&failSeed, "fail-seed", 0, "seed for the simulated failure sequence (0 = random)")
	// No static default here so help doesn't misstate it; default comes from config
	rootCmd.Flags().StringVar(&themeName, "theme", "", "theme name (default from config; see 'pagekit config theme')")
	rootCmd.Flags().StringVar(&keyMode, "keys", "", "keybinding mode: vim (default), emacs, or function")
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file (themes, settings)")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.Flags().Int8Var(&logLevel, "log-level", 0, "minimum level for the JSON logs on stderr (-1 enables debug)")
	rootCmd.Flags().BoolVar(&renderSnapshot, "snapshot", false, "render a single feed frame and exit; honors --width/--height")
	rootCmd.Flags().IntVar(&snapshotWidth, "width", 0, "output width in columns (0 = detect)")
	rootCmd.Flags().IntVar(&snapshotHeight, "height", 0, "output height in rows (0 = detect)")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	// Wire config command group
	configCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (themes, settings)")
	// Provide output format specifically for `pagekit config` (default yaml)
	configCmd.PersistentFlags().StringVarP(&configOutput, "output", "o", "yaml", "output format: yaml|json|raw")
	configCmd.AddCommand(configGetCmd)
	// Add both 'theme' and 'themes' (hidden) for listing
	configCmd.AddCommand(configThemeCmd)
	configThemesCmd.Hidden = true
	configCmd.AddCommand(configThemesCmd)
	rootCmd.AddCommand(configCmd)
	// Keep a top-level themes shortcut but hide it
	themesCmd.Hidden = true
	rootCmd.AddCommand(themesCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// resolveConfigPath returns the explicit configFile if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/pagekit/config.yaml) or ~/.config/pagekit/config.yaml if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// decodeYAMLLenient decodes YAML into a generic interface while allowing duplicate keys by
// keeping the last occurrence. This is used for json rendering of configs so we can
// display user files verbatim even if they contain duplicates that would normally fail
// strict unmarshaling.
func decodeYAMLLenient(raw []byte) (interface{}, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return yamlNodeToInterface(doc.Content[0]), nil
}

func yamlNodeToInterface(n *yaml.Node) interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return yamlNodeToInterface(n.Content[0])
		}
		return nil
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i < len(n.Content)-1; i += 2 {
			keyNode := n.Content[i]
			valNode := n.Content[i+1]
			key := fmt.Sprint(yamlNodeToInterface(keyNode))
			var val interface{}
			if err := valNode.Decode(&val); err != nil {
				val = yamlNodeToInterface(valNode)
			}
			m[key] = val // last one wins on duplicate keys
		}
		return m
	case yaml.SequenceNode:
		arr := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			var val interface{}
			if err := c.Decode(&val); err != nil {
				val = yamlNodeToInterface(c)
			}
			arr = append(arr, val)
		}
		return arr
	case yaml.ScalarNode:
		var val interface{}
		if err := n.Decode(&val); err != nil {
			return n.Value
		}
		return val
	case yaml.AliasNode:
		if n.Alias != nil {
			return yamlNodeToInterface(n.Alias)
		}
		return nil
	default:
		return nil
	}
}
