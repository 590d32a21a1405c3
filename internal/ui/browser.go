package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/pagekit/internal/filterexpr"
	"github.com/oakwood-commons/pagekit/pkg/pagedlist"
	"github.com/oakwood-commons/pagekit/pkg/pager"
)

// inputMode says which text prompt owns the keyboard.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputFilter
)

// searchDebounce is how long typing has to pause before a search query is
// applied to the feed.
const searchDebounce = 150 * time.Millisecond

// SearchDebounceMsg is sent after the debounce delay. The ID is compared
// against the model's counter so only the latest query is applied.
type SearchDebounceMsg struct {
	ID    int
	Query string
}

// debouncedSearch returns a tea.Cmd that waits for the debounce delay then
// sends SearchDebounceMsg.
func debouncedSearch(id int, query string) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(searchDebounce)
		return SearchDebounceMsg{ID: id, Query: query}
	}
}

// BrowserOptions configures the feed browser.
type BrowserOptions struct {
	Source         pager.Source[Item]
	Dataset        string // shown in the header bar
	Version        string // shown right-aligned in the header bar
	Limit          int    // items per page, 0 keeps the pager default
	EndReachedRows int    // rows from the bottom that trigger the next page
	KeyMode        KeyMode
	Filter         string // initial CEL filter, compiled at startup
	AllowSearch    bool
	AllowFilter    bool
	AllowRemove    bool
	EndText        string
	EmptyText      string
	LoadingText    string
	RefreshingText string
	NoColor        bool
	Ctx            context.Context
	Log            logr.Logger
}

// BrowserModel is the feed view: a paged list of items with search, CEL
// filtering and item removal on top. Pure cursor movement stays inside the
// list component; everything command-like resolves through the keymap.
type BrowserModel struct {
	feed    *pagedlist.Model[Item]
	keymap  *Keymap
	keyMode KeyMode

	searchInput textinput.Model
	filterInput textinput.Model
	input       inputMode
	inputPrior  string // committed query when the search prompt opened

	searchQuery  string
	pendingQuery string
	debounceID   int

	filter *filterexpr.Filter

	status StatusModel
	footer FooterModel

	dataset string
	version string

	allowSearch bool
	allowFilter bool
	allowRemove bool

	width   int
	height  int
	focused bool
	noColor bool
	log     logr.Logger
}

// NewBrowserModel builds the feed view. The initial filter expression is
// compiled here so a bad --filter flag fails before the program starts.
func NewBrowserModel(opts BrowserOptions) (*BrowserModel, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("feed source is required")
	}

	keymap := NewKeymap(opts.KeyMode)
	b := &BrowserModel{
		keymap:      keymap,
		keyMode:     keymap.Mode(),
		dataset:     opts.Dataset,
		version:     opts.Version,
		allowSearch: opts.AllowSearch,
		allowFilter: opts.AllowFilter,
		allowRemove: opts.AllowRemove,
		noColor:     opts.NoColor,
		log:         opts.Log,
		status:      NewStatusModel(),
		footer:      NewFooterModel(),
	}
	b.footer.KeyMode = b.keyMode
	b.footer.NoColor = b.noColor
	b.footer.AllowSearch = b.allowSearch
	b.footer.AllowFilter = b.allowFilter
	b.footer.AllowRemove = b.allowRemove
	b.status.NoColor = b.noColor

	if opts.Filter != "" {
		f, err := filterexpr.Compile(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", opts.Filter, err)
		}
		b.filter = f
	}

	listOpts := []pagedlist.Option[Item]{
		pagedlist.WithKeyMap[Item](componentKeys(b.keyMode)),
		pagedlist.WithStyles[Item](feedStyles(b.noColor)),
		pagedlist.WithLogger[Item](opts.Log),
	}
	if opts.Limit > 0 {
		listOpts = append(listOpts, pagedlist.WithLimit[Item](opts.Limit))
	}
	if opts.EndReachedRows > 0 {
		listOpts = append(listOpts, pagedlist.WithEndReachedRows[Item](opts.EndReachedRows))
	}
	if opts.EndText != "" {
		listOpts = append(listOpts, pagedlist.WithEndText[Item](opts.EndText))
	}
	if opts.EmptyText != "" {
		listOpts = append(listOpts, pagedlist.WithEmptyText[Item](opts.EmptyText))
	}
	if opts.LoadingText != "" {
		listOpts = append(listOpts, pagedlist.WithLoadingText[Item](opts.LoadingText))
	}
	if opts.RefreshingText != "" {
		listOpts = append(listOpts, pagedlist.WithRefreshText[Item](opts.RefreshingText))
	}
	if opts.Ctx != nil {
		listOpts = append(listOpts, pagedlist.WithContext[Item](opts.Ctx))
	}

	b.feed = pagedlist.New(opts.Source,
		func(it Item) string { return renderCard(it, b.cardWidth(), b.noColor) },
		func(it Item) string { return it.Key },
		listOpts...)

	b.searchInput = textinput.New()
	b.searchInput.Placeholder = "search"
	b.searchInput.CharLimit = 200
	b.searchInput.SetWidth(80) // adjusted in layout
	b.searchInput.Prompt = "/ "
	if b.keyMode != KeyModeVim {
		b.searchInput.Prompt = "search: "
	}

	b.filterInput = textinput.New()
	b.filterInput.Placeholder = `_.author == "sam"`
	b.filterInput.CharLimit = 500
	b.filterInput.SetWidth(80)
	b.filterInput.Prompt = "filter: "

	b.applyPredicates()
	b.syncComponents()
	return b, nil
}

// Init kicks off the initial full load.
func (b *BrowserModel) Init() tea.Cmd {
	return b.feed.Init()
}

// Update handles messages for the browser.
func (b *BrowserModel) Update(msg tea.Msg) (ChildModel, tea.Cmd) {
	// Keep View() free of mutations by syncing subcomponent state here.
	defer b.syncComponents()

	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return b.handleKey(msg)

	case SearchDebounceMsg:
		// Only apply if this is the latest debounce request
		if msg.ID == b.debounceID && msg.Query == b.pendingQuery {
			b.searchQuery = msg.Query
			b.applyPredicates()
		}
		return b, nil

	default:
		var cmd tea.Cmd
		b.feed, cmd = b.feed.Update(msg)
		return b, cmd
	}
}

func (b *BrowserModel) handleKey(msg tea.KeyPressMsg) (ChildModel, tea.Cmd) {
	key := msg.String()

	if b.input != inputNone {
		switch key {
		case "esc", "ctrl+g":
			b.cancelInput()
			return b, nil
		case "enter":
			b.commitInput()
			return b, nil
		}
		var cmd tea.Cmd
		switch b.input {
		case inputSearch:
			prev := b.searchInput.Value()
			b.searchInput, cmd = b.searchInput.Update(msg)
			if v := b.searchInput.Value(); v != prev {
				b.debounceID++
				b.pendingQuery = v
				cmd = tea.Batch(cmd, debouncedSearch(b.debounceID, v))
			}
		case inputFilter:
			b.filterInput, cmd = b.filterInput.Update(msg)
		}
		return b, cmd
	}

	switch b.keymap.Resolve(key) {
	case ActionOpen:
		if it, ok := b.feed.SelectedItem(); ok {
			detail := NewDetailModel(it, b.noColor)
			return b, func() tea.Msg { return NavigateMsg{To: detail} }
		}
		return b, nil

	case ActionBack:
		return b, func() tea.Msg { return NavigateBackMsg{} }

	case ActionSearch:
		if !b.allowSearch {
			return b, nil
		}
		return b, b.startInput(inputSearch)

	case ActionFilter:
		if !b.allowFilter {
			return b, nil
		}
		return b, b.startInput(inputFilter)

	case ActionRefresh:
		return b, b.feed.Refresh()

	case ActionReload:
		return b, b.feed.Reload()

	case ActionRemove:
		if !b.allowRemove {
			return b, nil
		}
		if it, ok := b.feed.RemoveSelected(); ok {
			b.log.V(1).Info("removed item", "key", it.Key)
			b.status.SetMessage("success", "removed %s", itemLabel(it))
		}
		return b, nil

	case ActionTop:
		b.feed.SetCursor(0)
		return b, nil

	case ActionHelp:
		return b, func() tea.Msg { return ShowHelpMsg{} }

	case ActionCancel:
		// Esc clears the committed search and filter
		changed := b.searchQuery != "" || b.filter != nil
		b.searchQuery = ""
		b.pendingQuery = ""
		b.filter = nil
		b.searchInput.SetValue("")
		b.filterInput.SetValue("")
		b.status.ClearMessage()
		if changed {
			b.applyPredicates()
		}
		return b, nil

	case ActionQuit:
		return b, func() tea.Msg { return QuitRequestMsg{} }

	default:
		// Not a command; cursor movement belongs to the feed component
		var cmd tea.Cmd
		b.feed, cmd = b.feed.Update(msg)
		return b, cmd
	}
}

func (b *BrowserModel) startInput(mode inputMode) tea.Cmd {
	b.input = mode
	b.status.ClearMessage()
	b.layout()
	switch mode {
	case inputSearch:
		b.inputPrior = b.searchQuery
		b.searchInput.SetValue(b.searchQuery)
		return b.searchInput.Focus()
	case inputFilter:
		if b.filter != nil {
			b.filterInput.SetValue(b.filter.Expr())
		} else {
			b.filterInput.SetValue("")
		}
		return b.filterInput.Focus()
	}
	return nil
}

func (b *BrowserModel) commitInput() {
	switch b.input {
	case inputSearch:
		b.searchQuery = strings.TrimSpace(b.searchInput.Value())
		b.searchInput.Blur()
		b.input = inputNone
		b.applyPredicates()

	case inputFilter:
		expr := strings.TrimSpace(b.filterInput.Value())
		if expr == "" {
			b.filter = nil
			b.filterInput.Blur()
			b.input = inputNone
			b.applyPredicates()
			break
		}
		f, err := filterexpr.Compile(expr)
		if err != nil {
			// Stay in the prompt so the expression can be fixed
			b.status.SetMessage("error", "%v", err)
			return
		}
		b.log.V(1).Info("filter applied", "expr", expr, "fields", f.Fields())
		b.filter = f
		b.filterInput.Blur()
		b.input = inputNone
		b.status.ClearMessage()
		b.applyPredicates()
	}
	b.layout()
}

func (b *BrowserModel) cancelInput() {
	switch b.input {
	case inputSearch:
		b.searchInput.Blur()
		b.searchQuery = b.inputPrior
		b.pendingQuery = ""
		b.debounceID++ // invalidate any pending debounce
		b.applyPredicates()
	case inputFilter:
		b.filterInput.Blur()
	}
	b.input = inputNone
	b.status.ClearMessage()
	b.layout()
}

// applyPredicates pushes the combined CEL filter and substring search down to
// the feed as one render-only predicate.
func (b *BrowserModel) applyPredicates() {
	f := b.filter
	q := strings.ToLower(strings.TrimSpace(b.searchQuery))
	if f == nil && q == "" {
		b.feed.ClearFilter()
		return
	}
	b.feed.SetFilter(func(it Item) bool {
		if f != nil && !f.Match(it.Data) {
			return false
		}
		if q != "" && !itemMatchesQuery(it, q) {
			return false
		}
		return true
	})
}

// filterMatchesNone reports whether the committed filter alone rejects every
// loaded row. The field hint keys to this, not to the combined predicate, so
// a view emptied by the search query alone reports nothing.
func (b *BrowserModel) filterMatchesNone() bool {
	if b.filter == nil {
		return false
	}
	rows := b.feed.Rows()
	if len(rows) == 0 {
		return false
	}
	for _, it := range rows {
		if b.filter.Match(it.Data) {
			return false
		}
	}
	return true
}

// itemMatchesQuery reports whether the lowercased query appears in any of the
// item's text fields.
func itemMatchesQuery(it Item, query string) bool {
	for _, s := range []string{it.Title, it.Meta, it.Body, it.Key} {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// itemLabel returns a short display label for status messages.
func itemLabel(it Item) string {
	if it.Title != "" {
		return truncateToWidth(it.Title, 40)
	}
	return it.Key
}

// syncComponents mirrors browser state into the status and footer models.
func (b *BrowserModel) syncComponents() {
	b.status.NoColor = b.noColor
	b.status.Query = b.searchQuery
	if b.filter != nil {
		b.status.Filter = b.filter.Expr()
		// A filter that hides everything names the fields it reads.
		if b.filterMatchesNone() {
			b.status.FilterFields = b.filter.Fields()
		} else {
			b.status.FilterFields = nil
		}
	} else {
		b.status.Filter = ""
		b.status.FilterFields = nil
	}
	b.status.Position = b.feed.StatusLine()
	if b.width > 0 {
		b.status.Width = b.width
		b.footer.Width = b.width
	}
	b.footer.KeyMode = b.keyMode
	b.footer.NoColor = b.noColor
}

// View renders the header, the optional input prompt, the feed, the status
// bar and the footer.
func (b *BrowserModel) View() string {
	sections := []string{b.headerView()}
	if b.input != inputNone {
		sections = append(sections, b.inputView())
	}
	sections = append(sections, b.feed.View())
	sections = append(sections, b.status.View())
	sections = append(sections, b.footer.View())
	return strings.Join(sections, "\n")
}

func (b *BrowserModel) headerView() string {
	width := b.width
	if width <= 0 {
		width = 80
	}
	left := " " + b.Title()
	right := b.version
	if right != "" {
		right = right + " "
	}
	pad := width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if pad < 1 {
		left = truncateToWidth(left, width-runewidth.StringWidth(right)-1)
		pad = width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
		if pad < 0 {
			pad = 0
		}
	}
	line := left + strings.Repeat(" ", pad) + right

	if b.noColor {
		return line
	}
	th := CurrentTheme()
	return lipgloss.NewStyle().Foreground(th.HeaderFG).Background(th.HeaderBG).Bold(true).Render(line)
}

func (b *BrowserModel) inputView() string {
	switch b.input {
	case inputSearch:
		return b.searchInput.View()
	case inputFilter:
		return b.filterInput.View()
	}
	return ""
}

// layout recomputes the feed height from the fixed chrome around it.
func (b *BrowserModel) layout() {
	if b.width <= 0 || b.height <= 0 {
		return
	}
	chrome := 3 // header, status, footer
	if b.input != inputNone {
		chrome++
	}
	fh := b.height - chrome
	if fh < 1 {
		fh = 1
	}
	b.feed.SetSize(b.width, fh)

	iw := b.width - 12
	if iw < 10 {
		iw = 10
	}
	b.searchInput.SetWidth(iw)
	b.filterInput.SetWidth(iw)
}

func (b *BrowserModel) cardWidth() int {
	if b.width > 0 {
		return b.width
	}
	return 80
}

// Title implements ModelWithTitle.
func (b *BrowserModel) Title() string {
	if b.dataset != "" {
		return b.dataset
	}
	return "feed"
}

// KeyMode reports the active key binding mode for the help overlay.
func (b *BrowserModel) KeyMode() KeyMode {
	return b.keyMode
}

// Feed exposes the underlying list component.
func (b *BrowserModel) Feed() *pagedlist.Model[Item] {
	return b.feed
}

// SetSize implements ModelWithSize.
func (b *BrowserModel) SetSize(width, height int) {
	b.width = width
	b.height = height
	b.layout()
	b.syncComponents()
}

// Focus implements ModelWithFocus.
func (b *BrowserModel) Focus() tea.Cmd {
	b.focused = true
	b.feed.Focus()
	return nil
}

// Blur implements ModelWithFocus.
func (b *BrowserModel) Blur() {
	b.focused = false
	b.feed.Blur()
}

// Focused implements ModelWithFocus.
func (b *BrowserModel) Focused() bool {
	return b.focused
}

// Close tears the feed down and discards any in-flight page.
func (b *BrowserModel) Close() {
	b.feed.Close()
}

// feedStyles derives the list component styles from the active theme.
func feedStyles(noColor bool) pagedlist.Styles {
	if noColor {
		return pagedlist.Styles{
			Marker:  lipgloss.NewStyle(),
			Footer:  lipgloss.NewStyle(),
			End:     lipgloss.NewStyle(),
			Empty:   lipgloss.NewStyle(),
			Loading: lipgloss.NewStyle(),
		}
	}
	th := CurrentTheme()
	return pagedlist.Styles{
		Marker:  lipgloss.NewStyle().Foreground(th.Accent),
		Footer:  lipgloss.NewStyle().Foreground(th.Muted),
		End:     lipgloss.NewStyle().Foreground(th.Muted),
		Empty:   lipgloss.NewStyle().Foreground(th.Muted),
		Loading: lipgloss.NewStyle().Foreground(th.Accent),
	}
}
