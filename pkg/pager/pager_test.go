package pager

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource serves fixed pages and errors, and records which pages were
// requested.
type scriptedSource struct {
	pages map[int][]string
	errs  map[int]error
	calls []int
}

func (s *scriptedSource) fetch(_ context.Context, page, limit int) ([]string, error) {
	s.calls = append(s.calls, page)
	if err := s.errs[page]; err != nil {
		return nil, err
	}
	rows := s.pages[page]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func rowsN(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	e := New(FromSlice([]string{}))

	assert.Equal(t, 1, e.Page())
	assert.Equal(t, DefaultLimit, e.Limit())
	assert.Empty(t, e.Rows())
	assert.Equal(t, MoreExhausted, e.More())
	assert.False(t, e.Loading())
	assert.False(t, e.Refreshing())
	assert.False(t, e.Busy())
	assert.False(t, e.Attempted())
	assert.False(t, e.External())
	assert.False(t, e.Closed())
	if e.ShowEmpty() {
		t.Error("ShowEmpty() must be false before the first attempt completes")
	}
}

func TestReloadSetsFlagsAndBumpsSeq(t *testing.T) {
	e := New(FromSlice([]string{}), WithLimit[string](5))

	req, ok := e.Reload(FullLoad)
	require.True(t, ok)
	assert.Equal(t, uint64(1), req.Seq)
	assert.Equal(t, FullLoad, req.Mode)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 5, req.Limit)
	assert.True(t, e.Loading())
	assert.False(t, e.Refreshing())

	req2, ok := e.Reload(Refresh)
	require.True(t, ok)
	assert.Equal(t, uint64(2), req2.Seq)
	assert.Equal(t, Refresh, req2.Mode)
	assert.True(t, e.Refreshing())
	// The earlier full load is still pending; its flag stays up until a
	// commit clears both.
	assert.True(t, e.Loading())
}

func TestReloadNormalizesLoadMoreMode(t *testing.T) {
	e := New(FromSlice([]string{}))

	req, ok := e.Reload(LoadMore)
	require.True(t, ok)
	assert.Equal(t, FullLoad, req.Mode)
	assert.Equal(t, 1, req.Page)
}

func TestFullLoadCommit(t *testing.T) {
	src := &scriptedSource{pages: map[int][]string{1: rowsN("a", 10)}}
	e := New(src.fetch, WithLimit[string](10))

	req, ok := e.Reload(FullLoad)
	require.True(t, ok)
	res := e.Apply(e.Fetch(context.Background(), req))

	assert.True(t, res.Applied)
	assert.True(t, res.ResetScroll)
	assert.Len(t, e.Rows(), 10)
	assert.Equal(t, 1, e.Page())
	assert.Equal(t, MoreIdle, e.More())
	assert.False(t, e.Busy())
	assert.True(t, e.Attempted())
}

func TestLoadMoreShortPageExhausts(t *testing.T) {
	src := &scriptedSource{pages: map[int][]string{
		1: rowsN("a", 10),
		2: rowsN("b", 4),
	}}
	e := New(src.fetch, WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))
	require.Equal(t, MoreIdle, e.More())

	more, ok := e.LoadMore()
	require.True(t, ok)
	assert.Equal(t, 2, more.Page)
	assert.Equal(t, MoreLoading, e.More())

	res := e.Apply(e.Fetch(context.Background(), more))
	assert.True(t, res.Applied)
	assert.False(t, res.ResetScroll)
	assert.Len(t, e.Rows(), 14)
	assert.Equal(t, 2, e.Page())
	assert.Equal(t, MoreExhausted, e.More())

	// The short page ended the feed; further load-more refuses.
	_, ok = e.LoadMore()
	assert.False(t, ok)
}

func TestOverlappingReloadsLastWins(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	reqA, _ := e.Reload(FullLoad)
	reqB, _ := e.Reload(FullLoad)

	// B completes first and commits.
	resB := e.Apply(Outcome[string]{Req: reqB, Rows: rowsN("b", 10)})
	require.True(t, resB.Applied)
	assert.Equal(t, "b-1", e.Rows()[0])

	// A arrives late; its sequence is stale, so it must not touch state.
	resA := e.Apply(Outcome[string]{Req: reqA, Rows: rowsN("a", 10)})
	assert.False(t, resA.Applied)
	assert.Equal(t, "b-1", e.Rows()[0])
	assert.Equal(t, MoreIdle, e.More())
}

func TestRefreshSupersedesPendingFullLoad(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	full, _ := e.Reload(FullLoad)
	refresh, _ := e.Reload(Refresh)
	require.True(t, e.Loading())
	require.True(t, e.Refreshing())

	res := e.Apply(Outcome[string]{Req: refresh, Rows: rowsN("r", 10)})
	assert.True(t, res.Applied)
	if res.ResetScroll {
		t.Error("refresh commit must not reset scroll")
	}
	// The commit clears both flags; the stale full load must not revive them.
	assert.False(t, e.Loading())
	assert.False(t, e.Refreshing())

	res = e.Apply(Outcome[string]{Req: full, Rows: rowsN("f", 10)})
	assert.False(t, res.Applied)
	assert.Equal(t, "r-1", e.Rows()[0])
}

func TestFullLoadAfterRefreshResetsScroll(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	refresh, _ := e.Reload(Refresh)
	full, _ := e.Reload(FullLoad)

	res := e.Apply(Outcome[string]{Req: full, Rows: rowsN("f", 10)})
	assert.True(t, res.Applied)
	assert.True(t, res.ResetScroll)

	res = e.Apply(Outcome[string]{Req: refresh, Rows: rowsN("r", 10)})
	assert.False(t, res.Applied)
	assert.Equal(t, "f-1", e.Rows()[0])
}

func TestLoadMoreGuardSerializes(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))
	require.Equal(t, MoreIdle, e.More())

	first, ok := e.LoadMore()
	require.True(t, ok)

	// Re-entry while in flight is a no-op, however often it fires.
	for i := 0; i < 5; i++ {
		if _, ok := e.LoadMore(); ok {
			t.Fatalf("LoadMore() issued a second request on call %d while one was in flight", i+1)
		}
	}

	e.Apply(e.Fetch(context.Background(), first))
	assert.Equal(t, 2, e.Page())

	// Page 2 of 30 came back full, so the guard opens again.
	_, ok = e.LoadMore()
	assert.True(t, ok)
}

func TestLoadMoreRefusesBeforeFirstLoad(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)))

	// Initial state is exhausted by construction: nothing to extend yet.
	_, ok := e.LoadMore()
	assert.False(t, ok)
}

func TestLoadMoreRefusedWhileReloadInFlight(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	require.True(t, e.Loading())

	// The first full load is still pending; extending the tail now would
	// race the replacement.
	_, ok := e.LoadMore()
	assert.False(t, ok)

	e.Apply(e.Fetch(context.Background(), req))
	require.Equal(t, MoreIdle, e.More())

	refresh, _ := e.Reload(Refresh)
	require.True(t, e.Refreshing())

	_, ok = e.LoadMore()
	assert.False(t, ok, "load-more must wait for the refresh to settle")
	assert.NotEqual(t, MoreLoading, e.More())

	// The guard reopens once the refresh commits a full page.
	e.Apply(e.Fetch(context.Background(), refresh))
	_, ok = e.LoadMore()
	assert.True(t, ok)
}

func TestReloadIssuanceClearsMoreState(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))

	_, ok := e.LoadMore()
	require.True(t, ok)
	require.Equal(t, MoreLoading, e.More())

	// A reload supersedes the in-flight load-more at issue time, not at
	// commit time.
	_, ok = e.Reload(Refresh)
	require.True(t, ok)
	assert.Equal(t, MoreIdle, e.More())

	// Idle more-state alone does not reopen the guard while the reload is
	// pending.
	_, ok = e.LoadMore()
	assert.False(t, ok)
}

func TestPageAdvancesOnePerCommit(t *testing.T) {
	e := New(FromSlice(rowsN("x", 35)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))

	wantPages := []int{2, 3, 4}
	for _, want := range wantPages {
		more, ok := e.LoadMore()
		require.True(t, ok)
		require.Equal(t, want, more.Page)
		e.Apply(e.Fetch(context.Background(), more))
		assert.Equal(t, want, e.Page())
	}
	assert.Len(t, e.Rows(), 35)
	assert.Equal(t, MoreExhausted, e.More())
}

func TestFailureSwallowedAsEmptyPage(t *testing.T) {
	src := &scriptedSource{errs: map[int]error{1: errors.New("boom")}}
	e := New(src.fetch, WithLimit[string](10))

	require.False(t, e.ShowEmpty(), "no placeholder before the first outcome")

	req, _ := e.Reload(FullLoad)
	require.False(t, e.ShowEmpty(), "no placeholder while the load is in flight")

	res := e.Apply(e.Fetch(context.Background(), req))
	assert.True(t, res.Applied)
	assert.Empty(t, e.Rows())
	assert.Equal(t, MoreExhausted, e.More())
	assert.True(t, e.Attempted())
	assert.True(t, e.ShowEmpty())
}

func TestLoadMoreFailureEndsFeed(t *testing.T) {
	src := &scriptedSource{
		pages: map[int][]string{1: rowsN("a", 10)},
		errs:  map[int]error{2: errors.New("boom")},
	}
	e := New(src.fetch, WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))

	more, _ := e.LoadMore()
	res := e.Apply(e.Fetch(context.Background(), more))

	assert.True(t, res.Applied)
	assert.Len(t, e.Rows(), 10, "failed page appends nothing")
	assert.Equal(t, 1, e.Page(), "failed page leaves the counter where it was")
	assert.Equal(t, MoreExhausted, e.More())
}

func TestLoadMoreEmptyPageKeepsPage(t *testing.T) {
	src := &scriptedSource{pages: map[int][]string{
		1: rowsN("a", 10),
		2: {},
	}}
	e := New(src.fetch, WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))
	require.Equal(t, 1, e.Page())

	more, ok := e.LoadMore()
	require.True(t, ok)
	res := e.Apply(e.Fetch(context.Background(), more))

	assert.True(t, res.Applied)
	assert.Equal(t, MoreExhausted, e.More())
	assert.Equal(t, 1, e.Page(), "an empty page must not advance the counter")
	assert.Len(t, e.Rows(), 10)
}

func TestLoadMoreCompletionAfterReloadStillAppends(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(e.Fetch(context.Background(), req))
	more, ok := e.LoadMore()
	require.True(t, ok)

	// A reload commits while the load-more is still in flight.
	reload, _ := e.Reload(FullLoad)
	e.Apply(Outcome[string]{Req: reload, Rows: rowsN("n", 10)})
	require.Len(t, e.Rows(), 10)

	// Load-more completions are serialized by the guard, not fenced by the
	// sequence: the straggler appends to the fresh rows exactly once.
	res := e.Apply(Outcome[string]{Req: more, Rows: rowsN("m", 10)})
	assert.True(t, res.Applied)
	assert.Len(t, e.Rows(), 20)
	assert.Equal(t, more.Page, e.Page())
}

func TestCloseDropsInFlightOutcomes(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Close()
	e.Close() // idempotent

	res := e.Apply(Outcome[string]{Req: req, Rows: rowsN("a", 10)})
	assert.False(t, res.Applied)
	assert.Empty(t, e.Rows())
	assert.False(t, e.Attempted())

	_, ok := e.Reload(FullLoad)
	assert.False(t, ok)
	_, ok = e.LoadMore()
	assert.False(t, ok)
	assert.True(t, e.Closed())
}

func TestRemoveFirstOccurrence(t *testing.T) {
	e := New(FromSlice([]string{}), WithLimit[string](10))
	req, _ := e.Reload(FullLoad)
	e.Apply(Outcome[string]{Req: req, Rows: []string{"a", "b", "a", "c"}})

	assert.True(t, e.Remove("a"))
	assert.Equal(t, []string{"b", "a", "c"}, e.Rows())

	assert.False(t, e.Remove("zzz"))
	assert.Equal(t, []string{"b", "a", "c"}, e.Rows())
}

func TestRemoveWithCustomEquality(t *testing.T) {
	type item struct {
		ID   int
		Name string
	}
	e := New(FromSlice([]item{}),
		WithLimit[item](10),
		WithEqual(func(a, b item) bool { return a.ID == b.ID }))

	req, _ := e.Reload(FullLoad)
	e.Apply(Outcome[item]{Req: req, Rows: []item{{1, "one"}, {2, "two"}}})

	removed := e.Remove(item{ID: 2})
	assert.True(t, removed)
	require.Len(t, e.Rows(), 1)
	assert.Equal(t, 1, e.Rows()[0].ID)
}

func TestExternalOwnership(t *testing.T) {
	var handed [][]string
	e := New(FromSlice(rowsN("x", 30)),
		WithLimit[string](10),
		WithExternalRows(func(rows []string) { handed = append(handed, rows) }))

	require.True(t, e.External())

	req, _ := e.Reload(FullLoad)
	e.Apply(Outcome[string]{Req: req, Rows: rowsN("a", 10)})
	require.Len(t, handed, 1)
	assert.Len(t, handed[0], 10)

	more, _ := e.LoadMore()
	e.Apply(Outcome[string]{Req: more, Rows: rowsN("b", 10)})
	require.Len(t, handed, 2)
	assert.Len(t, handed[1], 20, "append hands over the full next array")

	// The embedder owns the sequence; Remove must not fork it.
	assert.False(t, e.Remove("a-1"))
	assert.Len(t, e.Rows(), 20)

	// The embedder pushes its own mutation back through the mirror.
	e.SetMirror(handed[1][:5])
	assert.Len(t, e.Rows(), 5)
	assert.Len(t, handed, 2, "SetMirror must not echo back through onChange")
}

func TestInternalModeNeverCallsOnChange(t *testing.T) {
	e := New(FromSlice(rowsN("x", 30)), WithLimit[string](10))

	req, _ := e.Reload(FullLoad)
	e.Apply(Outcome[string]{Req: req, Rows: rowsN("a", 10)})

	// SetMirror belongs to external mode only.
	e.SetMirror([]string{"intruder"})
	assert.Equal(t, "a-1", e.Rows()[0])
	assert.Len(t, e.Rows(), 10)
}

func TestShowEmptyLifecycle(t *testing.T) {
	src := &scriptedSource{pages: map[int][]string{1: {}}}
	e := New(src.fetch, WithLimit[string](10))

	assert.False(t, e.ShowEmpty())

	req, _ := e.Reload(FullLoad)
	assert.False(t, e.ShowEmpty())

	e.Apply(e.Fetch(context.Background(), req))
	assert.True(t, e.ShowEmpty())

	// Rows arriving on a later reload clear the placeholder.
	src.pages[1] = rowsN("a", 3)
	req, _ = e.Reload(FullLoad)
	assert.False(t, e.ShowEmpty(), "in-flight reload suppresses the placeholder")
	e.Apply(e.Fetch(context.Background(), req))
	assert.False(t, e.ShowEmpty())
}

func TestFetchPackagesOutcome(t *testing.T) {
	src := &scriptedSource{
		pages: map[int][]string{1: rowsN("a", 3)},
		errs:  map[int]error{2: errors.New("boom")},
	}
	e := New(src.fetch, WithLimit[string](10))

	out := e.Fetch(context.Background(), Request{Seq: 9, Mode: FullLoad, Page: 1, Limit: 10})
	assert.Equal(t, uint64(9), out.Req.Seq)
	assert.Len(t, out.Rows, 3)
	require.NoError(t, out.Err)

	out = e.Fetch(context.Background(), Request{Seq: 9, Mode: LoadMore, Page: 2, Limit: 10})
	require.Error(t, out.Err)
	assert.Empty(t, out.Rows)
	assert.Equal(t, []int{1, 2}, src.calls)
}

func TestModeAndMoreStateStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "full load", got: FullLoad.String(), want: "full_load"},
		{name: "refresh", got: Refresh.String(), want: "refresh"},
		{name: "load more", got: LoadMore.String(), want: "load_more"},
		{name: "unknown mode", got: Mode(99).String(), want: "unknown"},
		{name: "idle", got: MoreIdle.String(), want: "idle"},
		{name: "loading", got: MoreLoading.String(), want: "loading"},
		{name: "exhausted", got: MoreExhausted.String(), want: "exhausted"},
		{name: "unknown state", got: MoreState(99).String(), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("String() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}
