// Package shared holds list-page plumbing common to the masterdata modules.
package shared

import (
	"net/http"
	"strconv"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool

	// Entity specific filters
	CompanyID  *int64
	BranchID   *int64
	CustomerID *int64
}

// FiltersFromQuery parses the common filter set from the request query.
func FiltersFromQuery(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	f := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		f.IsActive = &active
	}
	if id, err := strconv.ParseInt(q.Get("customer_id"), 10, 64); err == nil && id > 0 {
		f.CustomerID = &id
	}
	return f
}

// Offset computes the pagination offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}

// SortOrder returns a safe ORDER BY clause limited to the allowed columns.
func (f ListFilters) SortOrder(allowed map[string]bool, fallback string) string {
	col := fallback
	if allowed[f.SortBy] {
		col = f.SortBy
	}
	dir := "ASC"
	if f.SortDir == "desc" {
		dir = "DESC"
	}
	return col + " " + dir
}

// ListResult is the envelope list endpoints respond with.
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
