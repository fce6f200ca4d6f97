package listing

import (
	"cmp"
	"slices"
	"strings"
)

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// Page is one page of records plus its metadata.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes metadata for total records under q.
func NewPagination(q Query, total int) Pagination {
	q = q.Normalize()
	totalPages := 0
	if total > 0 {
		totalPages = (total + q.PageSize - 1) / q.PageSize
	}
	return Pagination{
		Total:       total,
		Page:        q.Page,
		PageSize:    q.PageSize,
		TotalPages:  totalPages,
		HasNext:     q.Page < totalPages,
		HasPrevious: q.Page > 1,
	}
}

// NewPage wraps data with pagination. A nil slice is replaced by an empty one
// so the JSON body always carries an array.
func NewPage[T any](q Query, data []T, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Pagination: NewPagination(q, total)}
}

// Accessors tells Apply how to read a record.
type Accessors[T any] struct {
	// Searchable returns the text fields matched by the search term.
	Searchable func(T) []string
	// Status returns the value compared against the status filter.
	Status func(T) string
	// Sorters compares two records by a sort field.
	Sorters map[string]func(a, b T) int
}

// Matches reports whether any of fields contains term, ignoring case.
func Matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Apply filters, sorts and slices items in memory.
func Apply[T any](items []T, q Query, acc Accessors[T]) Page[T] {
	q = q.Normalize()

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if q.Status != "" && acc.Status != nil && !strings.EqualFold(acc.Status(item), q.Status) {
			continue
		}
		if q.Search != "" && acc.Searchable != nil && !Matches(q.Search, acc.Searchable(item)...) {
			continue
		}
		filtered = append(filtered, item)
	}

	if less, ok := acc.Sorters[q.SortBy]; ok {
		slices.SortStableFunc(filtered, func(a, b T) int {
			if q.SortOrder == Asc {
				return less(a, b)
			}
			return less(b, a)
		})
	}

	total := len(filtered)
	start := min(q.Offset(), total)
	end := min(start+q.PageSize, total)
	return NewPage(q, filtered[start:end], total)
}

// CompareStrings is a case-insensitive string comparator for Sorters.
func CompareStrings(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
