package shared

import "strings"

// ListFilters carries listing parameters common to masterdata screens.
type ListFilters struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
	SortBy   string
	SortDir  string
}

// SortOrder returns a safe ORDER BY clause from whitelisted columns.
func SortOrder(sortBy, sortDir string, allowed map[string]string, fallback string) string {
	column, ok := allowed[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		column = fallback
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}
	return column + " " + dir
}
