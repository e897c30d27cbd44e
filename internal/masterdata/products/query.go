package products

import (
	"net/http"

	mdshared "github.com/procuredesk/procuredesk/internal/masterdata/shared"
	"github.com/procuredesk/procuredesk/internal/shared"
)

func listFiltersFromQuery(r *http.Request) mdshared.ListFilters {
	q := r.URL.Query()
	state := shared.ListStateFromQuery(q, 20)
	filters := mdshared.ListFilters{
		Search:  state.Search,
		Page:    state.Page,
		Limit:   state.PerPage,
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if raw := q.Get("active"); raw != "" {
		active := raw == "true" || raw == "1"
		filters.IsActive = &active
	}
	return filters
}
