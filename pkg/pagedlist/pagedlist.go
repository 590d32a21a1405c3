// Package pagedlist provides a generic Bubble Tea component for paginated
// lists: an embeddable Model that fetches pages through a pager.Engine,
// renders caller-supplied rows with cursor navigation, and loads more as the
// cursor approaches the bottom.
//
// The component owns the paging lifecycle (initial load, refresh, load-more,
// fencing of stale responses) and leaves row appearance entirely to the
// caller's render function.
package pagedlist

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pagekit/pkg/pager"
)

// DefaultEndReachedRows is how close to the bottom the cursor must get, in
// rows, before the next page is requested.
const DefaultEndReachedRows = 3

// KeyMap defines the navigation keys the component handles itself. Hosts
// keep command keys (refresh, remove, quit) to themselves and call the
// corresponding methods.
type KeyMap struct {
	Up       []string
	Down     []string
	PageUp   []string
	PageDown []string
	Top      []string
	Bottom   []string
}

// DefaultKeyMap returns arrow plus vim-style navigation.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       []string{"up", "k"},
		Down:     []string{"down", "j"},
		PageUp:   []string{"pgup", "ctrl+u"},
		PageDown: []string{"pgdown", "ctrl+d"},
		Top:      []string{"home", "g"},
		Bottom:   []string{"end", "G"},
	}
}

func keyMatches(key string, candidates []string) bool {
	for _, c := range candidates {
		if key == c {
			return true
		}
	}
	return false
}

// pageMsg carries a completed fetch back into the component. Hosts route
// every message through Update, so the type stays unexported.
type pageMsg[T any] struct {
	out pager.Outcome[T]
}

// Model is a generic paginated list component.
//
// Type parameter T is the row type. Rows are rendered by the caller's render
// function (possibly multi-line); identity for removal and cursor anchoring
// comes from the caller's key function.
type Model[T any] struct {
	engine *pager.Engine[T]
	render func(T) string
	keyOf  func(T) string

	ctx    context.Context
	cancel context.CancelFunc
	log    logr.Logger

	spinner spinner.Model
	styles  Styles
	keys    KeyMap

	filter      func(T) bool
	endText     string
	endView     func(width int) string
	emptyText   string
	emptyView   func(width, height int) string
	loadingText string
	refreshText string

	// engine construction knobs, consumed by New
	limit    int
	external bool
	onChange func([]T)
	baseCtx  context.Context

	threshold int
	width     int
	height    int
	cursor    int
	top       int
	focused   bool
}

// Option configures the Model.
type Option[T any] func(*Model[T])

// WithLimit sets the page size. Values below 1 keep the engine default.
func WithLimit[T any](limit int) Option[T] {
	return func(m *Model[T]) {
		m.limit = limit
	}
}

// WithEndReachedRows sets how many rows from the bottom the cursor may be
// before the next page is requested. Zero requests only on the last row.
func WithEndReachedRows[T any](rows int) Option[T] {
	return func(m *Model[T]) {
		if rows >= 0 {
			m.threshold = rows
		}
	}
}

// WithStyles replaces the component styles.
func WithStyles[T any](s Styles) Option[T] {
	return func(m *Model[T]) {
		m.styles = s
	}
}

// WithKeyMap replaces the navigation keys.
func WithKeyMap[T any](k KeyMap) Option[T] {
	return func(m *Model[T]) {
		m.keys = k
	}
}

// WithSpinner sets the spinner used in the loading footer.
func WithSpinner[T any](sp spinner.Spinner) Option[T] {
	return func(m *Model[T]) {
		m.spinner.Spinner = sp
	}
}

// WithFilter installs a render-only predicate: rows failing it are hidden
// from the view but stay in the sequence and in page arithmetic.
func WithFilter[T any](keep func(T) bool) Option[T] {
	return func(m *Model[T]) {
		m.filter = keep
	}
}

// WithExternalRows switches the underlying engine to external ownership:
// commits hand the computed next array to onChange instead of retaining it.
// Push authoritative data back with SetRows.
func WithExternalRows[T any](onChange func([]T)) Option[T] {
	return func(m *Model[T]) {
		m.external = true
		m.onChange = onChange
	}
}

// WithContext sets the base context for fetches. Close cancels the derived
// context, so in-flight sources unwind promptly.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(m *Model[T]) {
		if ctx != nil {
			m.baseCtx = ctx
		}
	}
}

// WithLogger sets the logger handed to the engine.
func WithLogger[T any](log logr.Logger) Option[T] {
	return func(m *Model[T]) {
		m.log = log
	}
}

// WithEndText sets the end-of-feed footer text.
func WithEndText[T any](text string) Option[T] {
	return func(m *Model[T]) {
		m.endText = text
	}
}

// WithEndView sets a caller-rendered end-of-feed footer. It wins over
// WithEndText.
func WithEndView[T any](view func(width int) string) Option[T] {
	return func(m *Model[T]) {
		m.endView = view
	}
}

// WithEmptyText sets the empty placeholder text.
func WithEmptyText[T any](text string) Option[T] {
	return func(m *Model[T]) {
		m.emptyText = text
	}
}

// WithEmptyView sets a caller-rendered empty placeholder. It wins over
// WithEmptyText.
func WithEmptyView[T any](view func(width, height int) string) Option[T] {
	return func(m *Model[T]) {
		m.emptyView = view
	}
}

// WithLoadingText sets the busy footer label.
func WithLoadingText[T any](text string) Option[T] {
	return func(m *Model[T]) {
		m.loadingText = text
	}
}

// WithRefreshText sets the footer label shown while a refresh is in flight.
func WithRefreshText[T any](text string) Option[T] {
	return func(m *Model[T]) {
		m.refreshText = text
	}
}

// New creates a paginated list over the given source.
//
// render converts a row to its display text and may return multiple lines;
// keyOf extracts a stable identity used for removal and for keeping the
// cursor on the same row across refreshes (nil disables both).
func New[T any](source pager.Source[T], render func(T) string, keyOf func(T) string, opts ...Option[T]) *Model[T] {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model[T]{
		render:      render,
		keyOf:       keyOf,
		log:         logr.Discard(),
		spinner:     sp,
		styles:      DefaultStyles(),
		keys:        DefaultKeyMap(),
		endText:     "— end of feed —",
		emptyText:   "Nothing here yet",
		loadingText: "Loading…",
		refreshText: "Refreshing…",
		baseCtx:     context.Background(),
		threshold:   DefaultEndReachedRows,
		width:       80,
		height:      0,
		focused:     true,
	}
	for _, opt := range opts {
		opt(m)
	}

	eopts := []pager.Option[T]{pager.WithLogger[T](m.log)}
	if m.limit >= 1 {
		eopts = append(eopts, pager.WithLimit[T](m.limit))
	}
	if keyOf != nil {
		eopts = append(eopts, pager.WithEqual(func(a, b T) bool {
			return keyOf(a) == keyOf(b)
		}))
	}
	if m.external {
		eopts = append(eopts, pager.WithExternalRows(m.onChange))
	}
	m.engine = pager.New(source, eopts...)

	m.ctx, m.cancel = context.WithCancel(m.baseCtx)
	return m
}

// Init starts the initial full load and the spinner.
func (m *Model[T]) Init() tea.Cmd {
	return m.reload(pager.FullLoad)
}

// Reload issues a full load: the commit will replace the sequence and jump
// back to the top.
func (m *Model[T]) Reload() tea.Cmd {
	return m.reload(pager.FullLoad)
}

// Refresh issues a refresh: the commit will replace the sequence but keep
// the cursor position, re-anchored by key where possible.
func (m *Model[T]) Refresh() tea.Cmd {
	return m.reload(pager.Refresh)
}

func (m *Model[T]) reload(mode pager.Mode) tea.Cmd {
	req, ok := m.engine.Reload(mode)
	if !ok {
		return nil
	}
	return tea.Batch(m.fetchCmd(req), m.spinner.Tick)
}

// fetchCmd runs the source off the update loop and delivers the outcome as
// a message. Errors ride inside the outcome; the command never fails.
func (m *Model[T]) fetchCmd(req pager.Request) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return pageMsg[T]{out: m.engine.Fetch(ctx, req)}
	}
}

// maybeLoadMore requests the next page when the cursor sits within the
// threshold of the bottom. The engine guard makes repeats no-ops.
func (m *Model[T]) maybeLoadMore() tea.Cmd {
	rows := m.display()
	if len(rows) == 0 || m.cursor < len(rows)-1-m.threshold {
		return nil
	}
	req, ok := m.engine.LoadMore()
	if !ok {
		return nil
	}
	return tea.Batch(m.fetchCmd(req), m.spinner.Tick)
}

// Update handles messages and returns the updated model.
func (m *Model[T]) Update(msg tea.Msg) (*Model[T], tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.spinning() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case pageMsg[T]:
		return m, m.applyOutcome(msg.out)

	case tea.KeyPressMsg:
		if !m.focused {
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model[T]) spinning() bool {
	return m.engine.Busy() || m.engine.More() == pager.MoreLoading
}

func (m *Model[T]) applyOutcome(out pager.Outcome[T]) tea.Cmd {
	// Remember the selected row before the sequence changes, so a refresh
	// can keep the cursor on it.
	var prevKey string
	if m.keyOf != nil {
		if item, ok := m.SelectedItem(); ok {
			prevKey = m.keyOf(item)
		}
	}

	res := m.engine.Apply(out)
	if !res.Applied {
		return nil
	}

	switch {
	case res.ResetScroll:
		m.cursor = 0
		m.top = 0
	case out.Req.Mode == pager.Refresh && prevKey != "":
		rows := m.display()
		for i := range rows {
			if m.keyOf(rows[i]) == prevKey {
				m.cursor = i
				break
			}
		}
	}

	m.clampCursor()
	return nil
}

func (m *Model[T]) handleKey(msg tea.KeyPressMsg) (*Model[T], tea.Cmd) {
	key := msg.String()
	switch {
	case keyMatches(key, m.keys.Down):
		m.MoveCursor(1)
		return m, m.maybeLoadMore()
	case keyMatches(key, m.keys.Up):
		m.MoveCursor(-1)
	case keyMatches(key, m.keys.PageDown):
		m.MoveCursor(m.stride())
		return m, m.maybeLoadMore()
	case keyMatches(key, m.keys.PageUp):
		m.MoveCursor(-m.stride())
	case keyMatches(key, m.keys.Top):
		m.SetCursor(0)
	case keyMatches(key, m.keys.Bottom):
		m.SetCursor(len(m.display()) - 1)
		return m, m.maybeLoadMore()
	}
	return m, nil
}

// stride is the cursor jump for page up/down: the number of rows currently
// in view, at least one.
func (m *Model[T]) stride() int {
	if m.height <= 1 {
		return 10
	}
	blocks := m.renderBlocks(m.display())
	n := visibleCount(blocks, m.top, m.bodyHeight())
	if n < 1 {
		n = 1
	}
	return n
}

// display returns the rows the view shows: the engine sequence with the
// render filter applied. Hidden rows stay in the sequence and in page
// arithmetic.
func (m *Model[T]) display() []T {
	rows := m.engine.Rows()
	if m.filter == nil {
		return rows
	}
	kept := make([]T, 0, len(rows))
	for _, r := range rows {
		if m.filter(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// MoveCursor moves the cursor by delta, clamped to the displayed rows.
func (m *Model[T]) MoveCursor(delta int) {
	m.SetCursor(m.cursor + delta)
}

// SetCursor positions the cursor, clamped to the displayed rows.
func (m *Model[T]) SetCursor(pos int) {
	m.cursor = pos
	m.clampCursor()
}

func (m *Model[T]) clampCursor() {
	n := len(m.display())
	if n == 0 {
		m.cursor = 0
		m.top = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.top > m.cursor {
		m.top = m.cursor
	}
	if m.top < 0 {
		m.top = 0
	}
}

// Cursor returns the cursor position within the displayed rows.
func (m *Model[T]) Cursor() int { return m.cursor }

// SelectedItem returns the row under the cursor.
func (m *Model[T]) SelectedItem() (T, bool) {
	rows := m.display()
	if m.cursor < 0 || m.cursor >= len(rows) {
		var zero T
		return zero, false
	}
	return rows[m.cursor], true
}

// Remove deletes the first row equal to item from the sequence and clamps
// the cursor. Inert in external mode.
func (m *Model[T]) Remove(item T) bool {
	removed := m.engine.Remove(item)
	if removed {
		m.clampCursor()
	}
	return removed
}

// RemoveSelected removes the row under the cursor and returns it.
func (m *Model[T]) RemoveSelected() (T, bool) {
	item, ok := m.SelectedItem()
	if !ok {
		var zero T
		return zero, false
	}
	if !m.Remove(item) {
		var zero T
		return zero, false
	}
	return item, true
}

// SetRows pushes an externally owned sequence into the engine mirror.
// Internal-mode components own their rows, so the call is a no-op there.
func (m *Model[T]) SetRows(rows []T) {
	m.engine.SetMirror(rows)
	m.clampCursor()
}

// SetFilter installs or replaces the render-only predicate.
func (m *Model[T]) SetFilter(keep func(T) bool) {
	m.filter = keep
	m.clampCursor()
}

// ClearFilter removes the render-only predicate.
func (m *Model[T]) ClearFilter() {
	m.filter = nil
	m.clampCursor()
}

// Rows returns the full sequence, before filtering.
func (m *Model[T]) Rows() []T { return m.engine.Rows() }

// VisibleRows returns the displayed rows, after filtering.
func (m *Model[T]) VisibleRows() []T { return m.display() }

// Engine exposes the underlying pager engine for state queries.
func (m *Model[T]) Engine() *pager.Engine[T] { return m.engine }

// SetSize sets the component dimensions. Height includes the footer line.
func (m *Model[T]) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Focus lets the component handle navigation keys.
func (m *Model[T]) Focus() { m.focused = true }

// Blur stops the component from handling keys.
func (m *Model[T]) Blur() { m.focused = false }

// Focused reports whether the component handles keys.
func (m *Model[T]) Focused() bool { return m.focused }

// Close cancels in-flight fetches and freezes the engine; outcomes that
// still arrive are discarded.
func (m *Model[T]) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.engine.Close()
}

// StatusLine returns a short position summary for host status bars, e.g.
// "3/14 · page 2".
func (m *Model[T]) StatusLine() string {
	rows := m.display()
	if len(rows) == 0 {
		return fmt.Sprintf("0 items · page %d", m.engine.Page())
	}
	return fmt.Sprintf("%d/%d · page %d", m.cursor+1, len(rows), m.engine.Page())
}

func (m *Model[T]) bodyHeight() int {
	if m.height <= 0 {
		return 0
	}
	// One line is always reserved for the footer so the layout stays stable
	// across idle/loading/exhausted transitions.
	return m.height - 1
}

// View renders the windowed rows plus the footer line.
func (m *Model[T]) View() string {
	rows := m.display()
	body := m.viewBody(rows)
	footer := m.viewFooter(len(rows))

	if m.height <= 0 {
		if body == "" {
			return footer
		}
		return body + "\n" + footer
	}
	return body + "\n" + footer
}

func (m *Model[T]) viewBody(rows []T) string {
	avail := m.bodyHeight()

	// Cold start: the first full load is in flight and nothing is on screen
	// yet. The empty placeholder must not flash here.
	if m.engine.Loading() && len(rows) == 0 {
		return m.placeBody(m.styles.Loading.Render(m.spinner.View()+" "+m.loadingText), avail)
	}

	if len(rows) == 0 {
		// The placeholder keys to the displayed sequence: a filter hiding
		// every fetched row reads as empty too, so rows is what gets counted
		// here, not the engine's unfiltered sequence.
		if m.engine.Attempted() && !m.engine.Busy() {
			if m.emptyView != nil {
				return m.emptyView(m.width, avail)
			}
			return m.placeBody(m.styles.Empty.Render(m.emptyText), avail)
		}
		return m.placeBody("", avail)
	}

	blocks := m.renderBlocks(rows)

	if avail <= 0 {
		// Unsized: render everything.
		return strings.Join(blocks, "\n")
	}

	vis := m.ensureVisible(blocks, avail)
	end := m.top + vis
	if end > len(blocks) {
		end = len(blocks)
	}

	var lines []string
	for i := m.top; i < end; i++ {
		lines = append(lines, strings.Split(blocks[i], "\n")...)
	}
	// A single block taller than the body still renders, clipped.
	if len(lines) > avail {
		lines = lines[:avail]
	}
	for len(lines) < avail {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderBlocks renders every displayed row with its selection prefix. The
// marker sits on the first line of the selected block; continuation lines
// are indented to match.
func (m *Model[T]) renderBlocks(rows []T) []string {
	blocks := make([]string, len(rows))
	for i, row := range rows {
		selected := i == m.cursor
		lines := strings.Split(m.render(row), "\n")
		for j, line := range lines {
			prefix := "  "
			if selected && j == 0 {
				prefix = m.styles.Marker.Render("│") + " "
			}
			line = prefix + line
			if m.width > 0 {
				line = clampWidth(line, m.width)
			}
			lines[j] = line
		}
		blocks[i] = strings.Join(lines, "\n")
	}
	return blocks
}

// visibleCount returns how many blocks fit within avail lines starting at
// start, always at least one so the cursor row can render.
func visibleCount(blocks []string, start, avail int) int {
	used, count := 0, 0
	for i := start; i < len(blocks); i++ {
		h := strings.Count(blocks[i], "\n") + 1
		if used+h > avail {
			break
		}
		used += h
		count++
	}
	if count < 1 && start < len(blocks) {
		count = 1
	}
	return count
}

// ensureVisible adjusts the window top so the cursor block stays in view
// and returns how many blocks fit.
func (m *Model[T]) ensureVisible(blocks []string, avail int) int {
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.top < 0 {
		m.top = 0
	}
	vis := visibleCount(blocks, m.top, avail)
	for m.cursor >= m.top+vis && m.top < m.cursor {
		m.top++
		vis = visibleCount(blocks, m.top, avail)
	}
	return vis
}

// placeBody centers text in the body area, or returns it bare when the
// component is unsized.
func (m *Model[T]) placeBody(text string, avail int) string {
	if avail <= 0 {
		return text
	}
	lines := make([]string, avail)
	mid := (avail - 1) / 2
	if text != "" && m.width > 0 {
		lines[mid] = centerLine(text, m.width)
	} else if text != "" {
		lines[mid] = text
	}
	return strings.Join(lines, "\n")
}

// viewFooter renders the single footer line: the busy indicator while pages
// are in flight, the end-of-feed visual once the tail is exhausted, nothing
// while the feed is idle.
func (m *Model[T]) viewFooter(shown int) string {
	switch {
	case m.engine.More() == pager.MoreLoading:
		return m.styles.Footer.Render(m.spinner.View() + " " + m.loadingText)
	case m.engine.Refreshing():
		return m.styles.Footer.Render(m.spinner.View() + " " + m.refreshText)
	case m.engine.More() == pager.MoreExhausted && m.engine.Attempted() && shown > 0:
		if m.endView != nil {
			return m.endView(m.width)
		}
		return m.styles.End.Render(m.endText)
	default:
		return ""
	}
}
