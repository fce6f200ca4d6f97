// Package listing implements the paginated list contract shared by every
// collection endpoint: page/pageSize/search/sortBy/sortOrder/status in,
// {data, pagination} out.
package listing

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps Offset within int range for any page size.
	MaxPage = math.MaxInt / MaxPageSize
)

// SortOrder is either ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Query is a parsed list request.
type Query struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    string
	SortOrder SortOrder
	Status    string
}

// Offset returns the number of records skipped before the page starts.
func (q Query) Offset() int {
	q = q.Normalize()
	return (q.Page - 1) * q.PageSize
}

// SortSpec lists the sortable fields of a resource and its default.
type SortSpec struct {
	Fields  []string
	Default string
}

func (s SortSpec) allows(field string) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ParseQuery reads list parameters, clamping out-of-range values instead of
// failing the request.
func ParseQuery(values url.Values, sort SortSpec) Query {
	q := Query{
		Page:      1,
		PageSize:  DefaultPageSize,
		Search:    strings.TrimSpace(values.Get("search")),
		SortBy:    sort.Default,
		SortOrder: Desc,
		Status:    strings.TrimSpace(values.Get("status")),
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 1 {
		q.Page = page
	}
	if size, err := strconv.Atoi(values.Get("pageSize")); err == nil && size > 0 {
		q.PageSize = min(size, MaxPageSize)
	}
	if sortBy := strings.TrimSpace(values.Get("sortBy")); sortBy != "" && sort.allows(sortBy) {
		q.SortBy = sortBy
	}
	if strings.EqualFold(strings.TrimSpace(values.Get("sortOrder")), string(Asc)) {
		q.SortOrder = Asc
	}
	return q.Normalize()
}

// Normalize fills defaults on a Query built in code.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortOrder != Asc {
		q.SortOrder = Desc
	}
	return q
}
