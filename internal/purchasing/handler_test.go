package purchasing

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFiltersFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/purchases?search=+golden+&page=2&limit=25&deleted=true&available=true", nil)
	filters := listFiltersFromQuery(r)

	require.Equal(t, "golden", filters.Search)
	require.Equal(t, 2, filters.Page)
	require.Equal(t, 25, filters.Limit)
	require.True(t, filters.Deleted)
	require.True(t, filters.AvailableOnly)
}

func TestListFiltersFromQueryDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/purchases?page=-1&limit=9999", nil)
	filters := listFiltersFromQuery(r)

	require.Equal(t, 1, filters.Page)
	require.Equal(t, 10, filters.Limit)
	require.False(t, filters.Deleted)
	require.False(t, filters.AvailableOnly)
}
