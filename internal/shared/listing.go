package shared

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxPerPage caps the client-supplied page size.
const maxPerPage = 100

// ListState is the page cursor and search term shared by every list screen.
// Changing the search term rewinds the cursor to the first page.
type ListState struct {
	Page    int
	PerPage int
	Search  string
}

// NewListState returns a state positioned on the first page.
func NewListState(perPage int) ListState {
	if perPage <= 0 {
		perPage = 20
	}
	return ListState{Page: 1, PerPage: perPage}
}

// WithPage moves the cursor to the given page (floored at 1).
func (s ListState) WithPage(page int) ListState {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// WithSearch replaces the search term and resets the cursor.
func (s ListState) WithSearch(term string) ListState {
	term = strings.TrimSpace(term)
	if term != s.Search {
		s.Page = 1
	}
	s.Search = term
	return s
}

// ListStateFromQuery builds a ListState from the common listing query
// parameters (`search`, `page`, `limit`). The page floors at 1; a limit
// outside 1..maxPerPage keeps the caller's default.
func ListStateFromQuery(q url.Values, perPage int) ListState {
	state := NewListState(perPage).WithSearch(q.Get("search"))
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 1 && limit <= maxPerPage {
		state.PerPage = limit
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		state = state.WithPage(page)
	}
	return state
}

// Debouncer coalesces rapid updates of a value (search keystrokes, save
// notifications) into a single callback after a fixed quiet period. Each
// Update cancels and restarts the pending timer.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func(value string)
}

// NewDebouncer returns a debouncer invoking fn after delay.
func NewDebouncer(delay time.Duration, fn func(value string)) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Update schedules fn(value), replacing any pending invocation.
func (d *Debouncer) Update(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(value)
	})
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
