package reference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/ragclient"
)

// fakeScheduler records scheduled functions; tests fire them explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (s *fakeScheduler) AfterFunc(_ time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every timer that has not been stopped and returns how many ran.
func (s *fakeScheduler) fire() int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

type call struct {
	query string
	page  int
}

// recordingSource serves from a Snapshot and records every call.
type recordingSource struct {
	mu    sync.Mutex
	calls []call
	snap  *Snapshot
	err   error
}

func (r *recordingSource) MedicineNames(ctx context.Context, page, size int) (*ragclient.NamesPage, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call{page: page})
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.snap.MedicineNames(ctx, page, size)
}

func (r *recordingSource) SearchMedicineNames(ctx context.Context, q string, page, size int) (*ragclient.NamesPage, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call{query: q, page: page})
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.snap.SearchMedicineNames(ctx, q, page, size)
}

func (r *recordingSource) recorded() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Lek %03d", i+1)
	}
	return out
}

func TestLoadPageAndNavigation(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot(names(45))}
	c := NewClient(src, logger.NewNopLogger())

	require.NoError(t, c.LoadPage(context.Background(), 1, ""))
	st := c.State()
	assert.Len(t, st.Names, 20)
	assert.Equal(t, 45, st.TotalCount)
	assert.Equal(t, 3, st.TotalPages)
	assert.True(t, st.HasNext)
	assert.False(t, st.HasPrevious)
	assert.False(t, st.Loading)

	assert.ErrorIs(t, c.PreviousPage(context.Background()), ErrNoPreviousPage)

	require.NoError(t, c.NextPage(context.Background()))
	assert.Equal(t, 2, c.State().Page)

	require.NoError(t, c.GoToPage(context.Background(), 3))
	st = c.State()
	assert.Equal(t, 3, st.Page)
	assert.Len(t, st.Names, 5)
	assert.ErrorIs(t, c.NextPage(context.Background()), ErrNoNextPage)

	assert.ErrorIs(t, c.GoToPage(context.Background(), 4), ErrPageOutOfRange)
	assert.ErrorIs(t, c.GoToPage(context.Background(), 0), ErrPageOutOfRange)
	assert.Equal(t, 3, c.State().Page)
}

func TestGoToPagePreservesQuery(t *testing.T) {
	all := append(names(5), "Apap", "Apap Extra", "Apap Noc")
	src := &recordingSource{snap: NewSnapshot(all)}
	c := NewClient(src, logger.NewNopLogger(), WithPageSize(2))

	require.NoError(t, c.LoadPage(context.Background(), 1, "apap"))
	require.NoError(t, c.GoToPage(context.Background(), 2))

	st := c.State()
	assert.Equal(t, "apap", st.Query)
	assert.Equal(t, []string{"Apap Noc"}, st.Names)
	assert.Equal(t, call{query: "apap", page: 2}, src.recorded()[1])
}

func TestLoadPageFailureRecordsError(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot(names(3)), err: errors.New("connection refused")}
	c := NewClient(src, logger.NewNopLogger())

	err := c.LoadPage(context.Background(), 1, "")
	require.Error(t, err)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Contains(t, st.Error, "connection refused")
	assert.Len(t, src.recorded(), 1, "no automatic retry")
}

// blockingSource lets a test decide the order in which responses complete.
type blockingSource struct {
	release map[int]chan struct{}
	started chan int
}

func (b *blockingSource) MedicineNames(_ context.Context, page, size int) (*ragclient.NamesPage, error) {
	b.started <- page
	<-b.release[page]
	return &ragclient.NamesPage{Names: []string{fmt.Sprintf("page-%d", page)}, Page: page, PageSize: size, TotalPages: 5, TotalCount: 100}, nil
}

func (b *blockingSource) SearchMedicineNames(ctx context.Context, _ string, page, size int) (*ragclient.NamesPage, error) {
	return b.MedicineNames(ctx, page, size)
}

type staleCounter struct {
	mu sync.Mutex
	n  int
}

func (s *staleCounter) StaleDiscarded(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	src := &blockingSource{
		release: map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})},
		started: make(chan int, 2),
	}
	stale := &staleCounter{}
	c := NewClient(src, logger.NewNopLogger(), WithStaleObserver(stale))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.LoadPage(context.Background(), 1, "") }()
	<-src.started
	go func() { defer wg.Done(); _ = c.LoadPage(context.Background(), 2, "") }()
	<-src.started

	// the later request completes first, the earlier one afterwards
	close(src.release[2])
	require.Eventually(t, func() bool { return c.State().Page == 2 && !c.State().Loading }, time.Second, time.Millisecond)
	close(src.release[1])
	wg.Wait()

	st := c.State()
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, []string{"page-2"}, st.Names)
	assert.Equal(t, 1, stale.n)
}

func TestSearchDebounceFiresOnceForFinalQuery(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot([]string{"Apap", "Ibuprom", "Ibuprofen Polfa", "Nurofen"})}
	sched := &fakeScheduler{}
	c := NewClient(src, logger.NewNopLogger(), WithDebounce(300*time.Millisecond, sched))

	for _, q := range []string{"i", "ib", "ibu", "ibup"} {
		c.Search(q)
	}
	assert.Empty(t, src.recorded(), "nothing runs before the delay elapses")

	assert.Equal(t, 1, sched.fire())
	assert.Equal(t, []call{{query: "ibup", page: 1}}, src.recorded())

	st := c.State()
	assert.Equal(t, "ibup", st.Query)
	assert.Equal(t, []string{"Ibuprom", "Ibuprofen Polfa"}, st.Names)
}

func TestSearchShortQueryFallsBackToUnfiltered(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot([]string{"Apap", "Ibuprom"})}
	sched := &fakeScheduler{}
	c := NewClient(src, logger.NewNopLogger(), WithDebounce(0, sched))

	c.Search("ibu")
	sched.fire()
	require.Equal(t, "ibu", c.State().Query)

	c.Search("ib")
	sched.fire()
	st := c.State()
	assert.Equal(t, "", st.Query)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, []string{"Apap", "Ibuprom"}, st.Names)

	c.Search("  ")
	sched.fire()
	assert.Equal(t, []call{{query: "ibu", page: 1}, {page: 1}, {page: 1}}, src.recorded())
}

func TestSearchMinLengthCountsRunes(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot([]string{"Żółć"})}
	sched := &fakeScheduler{}
	c := NewClient(src, logger.NewNopLogger(), WithDebounce(0, sched))

	c.Search("żół")
	sched.fire()
	assert.Equal(t, "żół", c.State().Query)
	assert.Equal(t, []string{"Żółć"}, c.State().Names)
}

func TestCloseCancelsPendingSearch(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot(names(2))}
	sched := &fakeScheduler{}
	c := NewClient(src, logger.NewNopLogger(), WithDebounce(0, sched))

	c.Search("lek 001")
	c.Close()
	assert.Equal(t, 0, sched.fire())
	assert.Empty(t, src.recorded())
}

func TestOnChangeReceivesLoadingAndResult(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot(names(2))}
	c := NewClient(src, logger.NewNopLogger())

	var seen []State
	c.OnChange(func(s State) { seen = append(seen, s) })
	require.NoError(t, c.LoadPage(context.Background(), 1, ""))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Len(t, seen[1].Names, 2)
}

func TestDebouncerCancelPending(t *testing.T) {
	sched := &fakeScheduler{}
	d := NewDebouncer(time.Second, sched)

	ran := 0
	d.Schedule(func() { ran++ })
	assert.True(t, d.Pending())
	d.CancelPending()
	assert.False(t, d.Pending())

	sched.fire()
	assert.Equal(t, 0, ran)

	d.Schedule(func() { ran++ })
	sched.fire()
	assert.Equal(t, 1, ran)
	assert.False(t, d.Pending())
}

func TestDebouncerWithRealTimer(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, nil)
	done := make(chan string, 3)
	for _, v := range []string{"a", "b", "c"} {
		v := v
		d.Schedule(func() { done <- v })
	}

	select {
	case v := <-done:
		assert.Equal(t, "c", v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	select {
	case v := <-done:
		t.Fatalf("unexpected extra call %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSnapshotPagination(t *testing.T) {
	s := NewSnapshot(names(45))
	ctx := context.Background()

	p, err := s.MedicineNames(ctx, 99, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page, "page is clamped to the last one")
	assert.Len(t, p.Names, 5)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrevious)

	p, _ = s.MedicineNames(ctx, -1, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Len(t, p.Names, 45)

	p, _ = s.MedicineNames(ctx, 1, 0)
	assert.Equal(t, 20, p.PageSize)

	p, _ = s.SearchMedicineNames(ctx, "LEK 04", 1, 20)
	assert.Equal(t, []string{"Lek 040", "Lek 041", "Lek 042", "Lek 043", "Lek 044", "Lek 045"}, p.Names)

	p, _ = s.SearchMedicineNames(ctx, "brak", 3, 20)
	assert.Empty(t, p.Names)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "names.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"names":["Apap","Ibuprom"],"total_count":2}`), 0o600))
	s, err := LoadSnapshot(good)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"names":[]}`), 0o600))
	_, err = LoadSnapshot(empty)
	assert.ErrorIs(t, err, ErrEmptySnapshot)

	_, err = LoadSnapshot(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

type hitCounter struct {
	mu         sync.Mutex
	hits, miss int
}

func (h *hitCounter) CacheLookup(hit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hit {
		h.hits++
	} else {
		h.miss++
	}
}

func TestCachedSource(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot(names(30))}
	obs := &hitCounter{}
	cached := NewCachedSource(src, time.Minute, obs)
	ctx := context.Background()

	first, err := cached.MedicineNames(ctx, 1, 20)
	require.NoError(t, err)
	first.Names[0] = "zmienione"

	second, err := cached.MedicineNames(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "Lek 001", second.Names[0])
	assert.Len(t, src.recorded(), 1)

	_, _ = cached.SearchMedicineNames(ctx, "Lek 01", 1, 20)
	_, _ = cached.SearchMedicineNames(ctx, " lek 01 ", 1, 20)
	assert.Len(t, src.recorded(), 2, "search keys are normalised")
	assert.Equal(t, 2, obs.hits)
	assert.Equal(t, 2, obs.miss)

	cached.Invalidate()
	assert.Equal(t, 0, cached.ItemCount())
	_, _ = cached.MedicineNames(ctx, 1, 20)
	assert.Len(t, src.recorded(), 3)
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	src := &recordingSource{snap: NewSnapshot(names(1)), err: errors.New("down")}
	cached := NewCachedSource(src, time.Minute, nil)

	_, err := cached.MedicineNames(context.Background(), 1, 20)
	require.Error(t, err)
	_, err = cached.MedicineNames(context.Background(), 1, 20)
	require.Error(t, err)
	assert.Len(t, src.recorded(), 2)
}
