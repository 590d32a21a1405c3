// Package tui runs the fullscreen feed browser over host-provided rows.
// It wraps the internal UI behind a small Config surface so applications
// can embed the browser without touching Bubble Tea directly.
package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/pagekit/internal/ui"
	"github.com/oakwood-commons/pagekit/pkg/pager"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely, returns generous defaults (120, 24) to avoid
// overly narrow output in CI or non-TTY environments.
//
// This is useful for library consumers who want auto-sizing behavior:
//
//	width, height := tui.DetectTerminalSize()
//	frame, err := tui.Snapshot(rows, tui.Config{Width: width, Height: height})
//
// Run performs the same detection when Config.Width is zero.
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// Run starts the fullscreen feed browser over the provided rows.
// Rows are the decoded documents of a dataset; each row becomes one card.
// Run blocks until the user quits. Host applications can pass optional
// tea.ProgramOption values to control IO.
func Run(rows []interface{}, cfg Config, opts ...tea.ProgramOption) error {
	root, err := buildRoot(rows, cfg)
	if err != nil {
		return err
	}
	prog := tea.NewProgram(root, opts...)
	_, err = prog.Run()
	return err
}

// Snapshot renders a single frame of the feed browser and returns it as a
// string. Startup commands run synchronously first, so the frame shows the
// first page of rows already applied. Useful for non-interactive output when
// stdout is not a terminal.
func Snapshot(rows []interface{}, cfg Config) (string, error) {
	cfg.Latency = 0 // the synchronous drive below should not sleep
	root, err := buildRoot(rows, cfg)
	if err != nil {
		return "", err
	}
	var model tea.Model = root
	model = drive(model, model.Init(), 0)
	snap, ok := model.(*ui.RootModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type %T", model)
	}
	return fmt.Sprint(snap.View().Content), nil
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}

// buildRoot assembles the browser and root models from a Config.
func buildRoot(rows []interface{}, cfg Config) (*ui.RootModel, error) {
	cfg.Apply()

	header := strings.TrimSpace(cfg.Dataset)
	if header == "" {
		header = strings.TrimSpace(cfg.AppName)
	}
	if header == "" {
		header = defaultAppName()
	}

	var srcOpts []pager.SliceOption
	if cfg.Latency > 0 {
		srcOpts = append(srcOpts, pager.WithLatency(cfg.Latency))
	}
	if cfg.FailRate > 0 {
		srcOpts = append(srcOpts, pager.WithFailRate(cfg.FailRate, cfg.FailSeed))
	}
	if len(cfg.FailPages) > 0 {
		srcOpts = append(srcOpts, pager.WithFailPages(cfg.FailPages...))
	}
	source := pager.FromSlice(ui.ItemsFromRows(rows), srcOpts...)

	keyMode := ui.DefaultKeyMode
	if cfg.KeyMode != "" && ui.IsValidKeyMode(cfg.KeyMode) {
		keyMode = ui.KeyMode(cfg.KeyMode)
	}

	allow := func(v *bool) bool { return v == nil || *v }

	browser, err := ui.NewBrowserModel(ui.BrowserOptions{
		Source:         source,
		Dataset:        header,
		Version:        cfg.Version,
		Limit:          cfg.Limit,
		EndReachedRows: cfg.EndReachedRows,
		KeyMode:        keyMode,
		Filter:         cfg.Filter,
		AllowSearch:    allow(cfg.AllowSearch),
		AllowFilter:    allow(cfg.AllowFilter),
		AllowRemove:    allow(cfg.AllowRemove),
		EndText:        cfg.EndText,
		EmptyText:      cfg.EmptyText,
		LoadingText:    cfg.LoadingText,
		RefreshingText: cfg.RefreshingText,
		NoColor:        cfg.NoColor,
		Ctx:            cfg.Ctx,
		Log:            cfg.Log,
	})
	if err != nil {
		return nil, err
	}

	root := ui.NewRootModel(browser)
	root.SetNoColor(cfg.NoColor)
	root.SetHelpFeatures(allow(cfg.AllowSearch), allow(cfg.AllowFilter), allow(cfg.AllowRemove))
	if strings.TrimSpace(cfg.HelpAboutTitle) != "" || len(cfg.HelpAboutLines) > 0 {
		root.SetHelpAbout(cfg.HelpAboutTitle, cfg.HelpAboutLines, cfg.HelpAboutAlign)
	}

	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		dw, dh := DetectTerminalSize()
		w = dw
		if h <= 0 {
			h = dh
		}
	}
	if h <= 0 {
		h = 24
	}
	root.Update(tea.WindowSizeMsg{Width: w, Height: h})

	return root, nil
}

// drive executes a command tree synchronously, feeding resulting messages
// back into the model. Spinner ticks are dropped so the loop terminates.
func drive(m tea.Model, cmd tea.Cmd, depth int) tea.Model {
	if cmd == nil || depth > 32 {
		return m
	}
	msg := cmd()
	switch v := msg.(type) {
	case nil:
		return m
	case tea.BatchMsg:
		for _, c := range v {
			m = drive(m, c, depth+1)
		}
		return m
	case spinner.TickMsg:
		return m
	case tea.QuitMsg:
		return m
	default:
		next, nextCmd := m.Update(msg)
		return drive(next, nextCmd, depth+1)
	}
}
