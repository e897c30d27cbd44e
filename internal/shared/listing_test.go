package shared

import (
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListStateSearchResetsPage(t *testing.T) {
	state := NewListState(25).WithPage(4)
	require.Equal(t, 4, state.Page)

	state = state.WithSearch("cement")
	require.Equal(t, 1, state.Page)
	require.Equal(t, "cement", state.Search)

	// Re-applying the same term keeps the cursor.
	state = state.WithPage(3).WithSearch("cement")
	require.Equal(t, 3, state.Page)
}

func TestListStateFloorsPage(t *testing.T) {
	state := NewListState(0).WithPage(-2)
	require.Equal(t, 1, state.Page)
	require.Equal(t, 20, state.PerPage)
}

func TestListStateFromQuery(t *testing.T) {
	state := ListStateFromQuery(url.Values{
		"search": {"  cement "},
		"page":   {"3"},
		"limit":  {"50"},
	}, 10)
	require.Equal(t, "cement", state.Search)
	require.Equal(t, 3, state.Page)
	require.Equal(t, 50, state.PerPage)

	// Garbage and out-of-range values keep the defaults.
	state = ListStateFromQuery(url.Values{
		"page":  {"-4"},
		"limit": {"5000"},
	}, 10)
	require.Equal(t, 1, state.Page)
	require.Equal(t, 10, state.PerPage)

	state = ListStateFromQuery(url.Values{}, 20)
	require.Equal(t, 1, state.Page)
	require.Equal(t, 20, state.PerPage)
	require.Empty(t, state.Search)
}

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Value
	d := NewDebouncer(30*time.Millisecond, func(term string) {
		calls.Add(1)
		last.Store(term)
	})
	defer d.Stop()

	d.Update("c")
	d.Update("ce")
	d.Update("cem")

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "cem", last.Load())

	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func(string) { calls.Add(1) })
	d.Update("abc")
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 10, 45)
	require.Equal(t, 20, p.Offset())
	require.Equal(t, 5, p.TotalPages)

	p = NewPagination(0, 0, 0)
	require.Equal(t, 0, p.Offset())
	require.Equal(t, 1, p.Page)
}
