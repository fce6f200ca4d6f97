package listing

import (
	"strconv"
	"strings"
)

// SQLSpec maps the list contract onto a table.
type SQLSpec struct {
	// SearchColumns are matched with ILIKE.
	SearchColumns []string
	// StatusColumn receives the status filter; empty disables it.
	StatusColumn string
	// SortColumns maps public sort fields to column names.
	SortColumns map[string]string
	// DefaultSort is the column used when the requested field is unknown.
	DefaultSort string
}

// SQLClause is the WHERE / ORDER BY / LIMIT part of a list query.
type SQLClause struct {
	Where     string
	WhereArgs []any
	Order     string
	Limit     string
	LimitArgs []any
}

// Args returns the arguments for a query using Where and Limit.
func (c SQLClause) Args() []any {
	args := make([]any, 0, len(c.WhereArgs)+len(c.LimitArgs))
	args = append(args, c.WhereArgs...)
	return append(args, c.LimitArgs...)
}

// BuildSQL renders q against spec. Conditions in extra may reference
// $1..$len(extraArgs); they are ANDed ahead of the status and search filters.
func BuildSQL(q Query, spec SQLSpec, extra []string, extraArgs ...any) SQLClause {
	q = q.Normalize()
	args := append([]any(nil), extraArgs...)
	placeholder := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	conds := append([]string(nil), extra...)
	if q.Status != "" && spec.StatusColumn != "" {
		conds = append(conds, spec.StatusColumn+" = "+placeholder(strings.ToUpper(q.Status)))
	}
	if q.Search != "" && len(spec.SearchColumns) > 0 {
		ph := placeholder("%" + escapeLike(q.Search) + "%")
		ors := make([]string, 0, len(spec.SearchColumns))
		for _, col := range spec.SearchColumns {
			ors = append(ors, col+" ILIKE "+ph)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	var c SQLClause
	if len(conds) > 0 {
		c.Where = " WHERE " + strings.Join(conds, " AND ")
	}
	c.WhereArgs = append([]any(nil), args...)

	col, ok := spec.SortColumns[q.SortBy]
	if !ok {
		col = spec.DefaultSort
	}
	dir := strings.ToUpper(string(q.SortOrder))
	c.Order = " ORDER BY " + col + " " + dir + ", id " + dir

	c.Limit = " LIMIT " + placeholder(q.PageSize) + " OFFSET " + placeholder(q.Offset())
	c.LimitArgs = append([]any(nil), args[len(c.WhereArgs):]...)
	return c
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
