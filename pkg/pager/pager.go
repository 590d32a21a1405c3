// Package pager implements the state machine behind paginated list loading:
// full loads, pull-style refreshes, and load-more requests issued against a
// page Source, with last-request-wins fencing for reloads and guard
// serialization for load-more.
//
// The package is UI-free. An Engine expects to live on a single goroutine
// (typically an event loop such as a Bubble Tea update loop); only the Source
// runs concurrently. Callers obtain a Request from Reload or LoadMore, run
// the source wherever they like (see Fetch), and feed the resulting Outcome
// back through Apply.
package pager

import (
	"context"
	"reflect"

	"github.com/go-logr/logr"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

// Mode identifies the kind of fetch a request performs.
type Mode int

const (
	// FullLoad replaces the sequence and resets scroll to the top.
	FullLoad Mode = iota
	// Refresh replaces the sequence but keeps the scroll position.
	Refresh
	// LoadMore appends the next page to the sequence.
	LoadMore
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case FullLoad:
		return "full_load"
	case Refresh:
		return "refresh"
	case LoadMore:
		return "load_more"
	default:
		return "unknown"
	}
}

// MoreState describes whether the tail of the sequence can be extended.
type MoreState int

const (
	// MoreIdle means the last page came back full; another page may exist.
	MoreIdle MoreState = iota
	// MoreLoading means a load-more request is in flight.
	MoreLoading
	// MoreExhausted means the last page came back short; the feed has ended
	// until the next reload. This is also the initial state, before any page
	// has been requested.
	MoreExhausted
)

// String returns the state name for logging.
func (s MoreState) String() string {
	switch s {
	case MoreIdle:
		return "idle"
	case MoreLoading:
		return "loading"
	case MoreExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Source produces one page of rows. Pages are 1-based. A short page (fewer
// than limit rows) marks the feed exhausted. Errors are swallowed by Apply
// and treated as empty pages; the engine never inspects them beyond logging.
type Source[T any] func(ctx context.Context, page, limit int) ([]T, error)

// Request identifies one fetch attempt. Seq is the engine's reload counter
// at issue time; reload outcomes are fenced against it so that only the
// newest reload can commit. Load-more requests carry Seq for logging only.
type Request struct {
	Seq   uint64
	Mode  Mode
	Page  int
	Limit int
}

// Outcome is a completed attempt: the request it answers plus whatever the
// source produced.
type Outcome[T any] struct {
	Req  Request
	Rows []T
	Err  error
}

// Result reports what Apply did with an outcome.
type Result struct {
	Applied     bool // the outcome mutated state
	ResetScroll bool // the view should jump back to the top
}

// Engine drives paginated loading for one list.
//
// Engines are not safe for concurrent use. All methods belong on the owning
// goroutine; the Source alone runs elsewhere.
type Engine[T any] struct {
	source   Source[T]
	limit    int
	eq       func(a, b T) bool
	external bool
	onChange func([]T)
	log      logr.Logger

	rows       []T // owned sequence, or the external-mode mirror
	page       int
	seq        uint64
	loading    bool
	refreshing bool
	more       MoreState
	attempted  bool
	closed     bool
}

// Option configures the Engine.
type Option[T any] func(*Engine[T])

// WithLimit sets the page size. Values below 1 keep the default.
func WithLimit[T any](limit int) Option[T] {
	return func(e *Engine[T]) {
		if limit >= 1 {
			e.limit = limit
		}
	}
}

// WithEqual sets the equality used by Remove. The default compares with
// reflect.DeepEqual.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(e *Engine[T]) {
		if eq != nil {
			e.eq = eq
		}
	}
}

// WithExternalRows switches the engine to external ownership: the embedder
// owns the sequence, and every commit hands the computed next array to
// onChange instead of retaining it as the engine's own. The choice is made
// at construction and never switches.
func WithExternalRows[T any](onChange func([]T)) Option[T] {
	return func(e *Engine[T]) {
		e.external = true
		e.onChange = onChange
	}
}

// WithLogger sets the logger used for dropped outcomes and swallowed errors.
func WithLogger[T any](log logr.Logger) Option[T] {
	return func(e *Engine[T]) {
		e.log = log
	}
}

// New creates an Engine over the given source.
func New[T any](source Source[T], opts ...Option[T]) *Engine[T] {
	e := &Engine[T]{
		source: source,
		limit:  DefaultLimit,
		page:   1,
		more:   MoreExhausted,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.eq == nil {
		e.eq = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return e
}

// Reload issues a page-1 request that will replace the whole sequence.
// Overlapping reloads are legal: each bumps the sequence counter, and Apply
// commits only the outcome that still carries the newest value. Issuing a
// reload also supersedes any load-more in progress: the more-state drops
// back to idle and re-derives when the reload commits. LoadMore mode is
// normalized to FullLoad. Returns false only after Close.
func (e *Engine[T]) Reload(mode Mode) (Request, bool) {
	if e.closed {
		return Request{}, false
	}
	if mode == LoadMore {
		mode = FullLoad
	}
	e.seq++
	if mode == Refresh {
		e.refreshing = true
	} else {
		e.loading = true
	}
	e.more = MoreIdle
	return Request{Seq: e.seq, Mode: mode, Page: 1, Limit: e.limit}, true
}

// LoadMore issues a request for the page after the current one. The guard
// refuses unless the more-state is idle and no reload is in flight: while a
// load-more is in flight the state is MoreLoading, so repeated calls are
// no-ops; exhausted feeds stay quiet until a reload revives them; and
// MoreLoading never coexists with a pending reload.
func (e *Engine[T]) LoadMore() (Request, bool) {
	if e.closed || e.more != MoreIdle || e.loading || e.refreshing {
		return Request{}, false
	}
	e.more = MoreLoading
	return Request{Seq: e.seq, Mode: LoadMore, Page: e.page + 1, Limit: e.limit}, true
}

// Fetch runs the source for a request and packages the outcome. It is the
// only Engine method safe to call off the owning goroutine; it reads nothing
// but the immutable source.
func (e *Engine[T]) Fetch(ctx context.Context, req Request) Outcome[T] {
	rows, err := e.source(ctx, req.Page, req.Limit)
	return Outcome[T]{Req: req, Rows: rows, Err: err}
}

// Apply feeds a completed attempt back into the engine.
//
// Closed engines drop everything. Failed attempts are swallowed: logged,
// then treated as empty pages, which reads as exhaustion downstream. Reload
// outcomes commit only if their sequence is still current; load-more
// outcomes are not fenced (the guard already serialized them) and append to
// whatever the sequence is now.
func (e *Engine[T]) Apply(out Outcome[T]) Result {
	if e.closed {
		e.log.V(1).Info("dropping outcome after close",
			"mode", out.Req.Mode.String(), "page", out.Req.Page)
		return Result{}
	}

	rows := out.Rows
	if out.Err != nil {
		e.log.V(1).Info("source failed, treating page as empty",
			"mode", out.Req.Mode.String(), "page", out.Req.Page, "error", out.Err.Error())
		rows = nil
	}

	if out.Req.Mode == LoadMore {
		e.commitMore(out.Req, rows)
		return Result{Applied: true}
	}

	if out.Req.Seq != e.seq {
		e.log.V(1).Info("dropping superseded reload",
			"mode", out.Req.Mode.String(), "seq", out.Req.Seq, "current", e.seq)
		return Result{}
	}

	e.commitReload(out.Req, rows)
	return Result{Applied: true, ResetScroll: out.Req.Mode == FullLoad}
}

func (e *Engine[T]) commitReload(req Request, rows []T) {
	next := make([]T, len(rows))
	copy(next, rows)
	e.commit(next)
	e.page = 1
	e.more = tailState(len(rows), req.Limit)
	e.loading = false
	e.refreshing = false
	e.attempted = true
}

func (e *Engine[T]) commitMore(req Request, rows []T) {
	next := make([]T, 0, len(e.rows)+len(rows))
	next = append(next, e.rows...)
	next = append(next, rows...)
	e.commit(next)
	// An empty page extends nothing: the counter holds so the next load-more
	// asks for the same page again after a reload revives the feed.
	if len(rows) > 0 {
		e.page = req.Page
	}
	e.more = tailState(len(rows), req.Limit)
	e.attempted = true
}

func (e *Engine[T]) commit(next []T) {
	e.rows = next
	if e.external && e.onChange != nil {
		e.onChange(next)
	}
}

// tailState derives the more-state from a committed page: a short page ends
// the feed.
func tailState(got, limit int) MoreState {
	if got < limit {
		return MoreExhausted
	}
	return MoreIdle
}

// Remove deletes the first row equal to item and reports whether anything
// was removed. In external mode the embedder owns the sequence, so Remove
// is inert.
func (e *Engine[T]) Remove(item T) bool {
	if e.closed || e.external {
		return false
	}
	for i := range e.rows {
		if e.eq(e.rows[i], item) {
			e.rows = append(e.rows[:i], e.rows[i+1:]...)
			return true
		}
	}
	return false
}

// SetMirror replaces the engine's view of an externally owned sequence, for
// embedders that mutate their copy directly. Internal-mode engines own their
// rows, so the call is a no-op there.
func (e *Engine[T]) SetMirror(rows []T) {
	if !e.external {
		return
	}
	e.rows = append([]T(nil), rows...)
}

// Rows returns the current sequence: the owned rows in internal mode, the
// mirror in external mode. Callers must treat it as read-only.
func (e *Engine[T]) Rows() []T { return e.rows }

// Page returns the highest committed page, at least 1.
func (e *Engine[T]) Page() int { return e.page }

// Limit returns the configured page size.
func (e *Engine[T]) Limit() int { return e.limit }

// More returns the load-more state of the sequence tail.
func (e *Engine[T]) More() MoreState { return e.more }

// Loading reports whether a full load is in flight.
func (e *Engine[T]) Loading() bool { return e.loading }

// Refreshing reports whether a refresh is in flight.
func (e *Engine[T]) Refreshing() bool { return e.refreshing }

// Busy reports whether any reload is in flight.
func (e *Engine[T]) Busy() bool { return e.loading || e.refreshing }

// Attempted reports whether at least one outcome has been applied. Issuing
// a request does not count; neither does a superseded reload.
func (e *Engine[T]) Attempted() bool { return e.attempted }

// External reports the ownership mode chosen at construction.
func (e *Engine[T]) External() bool { return e.external }

// Seq returns the current reload sequence value.
func (e *Engine[T]) Seq() uint64 { return e.seq }

// ShowEmpty reports whether an empty placeholder should render: at least one
// attempt has completed, nothing is in flight, and the sequence is empty.
// Rendering an empty state before the first outcome would flash it at every
// cold start. The check covers the engine's own sequence; views that filter
// rows count their displayed sequence instead.
func (e *Engine[T]) ShowEmpty() bool {
	return e.attempted && !e.loading && !e.refreshing && len(e.rows) == 0
}

// Close freezes the engine: pending outcomes are dropped on arrival and no
// further requests are issued. Idempotent.
func (e *Engine[T]) Close() {
	e.closed = true
}

// Closed reports whether Close has been called.
func (e *Engine[T]) Closed() bool { return e.closed }
