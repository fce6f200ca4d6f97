package listing

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name      string
	Email     string
	Status    string
	CreatedAt time.Time
}

var sortSpec = SortSpec{Fields: []string{"name", "createdAt"}, Default: "createdAt"}

var accessors = Accessors[record]{
	Searchable: func(r record) []string { return []string{r.Name, r.Email} },
	Status:     func(r record) string { return r.Status },
	Sorters: map[string]func(a, b record) int{
		"name":      func(a, b record) int { return CompareStrings(a.Name, b.Name) },
		"createdAt": func(a, b record) int { return a.CreatedAt.Compare(b.CreatedAt) },
	},
}

func fixtures(n int) []record {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"Jane Doe", "John Smith", "Alice Jones", "Bob Stone", "Carol King"}
	out := make([]record, 0, n)
	for i := 0; i < n; i++ {
		status := "NEW"
		if i%2 == 1 {
			status = "QUALIFIED"
		}
		out = append(out, record{
			Name:      names[i%len(names)],
			Email:     "person" + string(rune('a'+i)) + "@example.com",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestParseQueryDefaults(t *testing.T) {
	q := ParseQuery(url.Values{}, sortSpec)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, "createdAt", q.SortBy)
	assert.Equal(t, Desc, q.SortOrder)
}

func TestParseQueryClampsAndWhitelists(t *testing.T) {
	q := ParseQuery(url.Values{
		"page":      {"0"},
		"pageSize":  {"5000"},
		"sortBy":    {"password"},
		"sortOrder": {"ASC"},
		"search":    {"  jane "},
		"status":    {"qualified"},
	}, sortSpec)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)
	assert.Equal(t, "createdAt", q.SortBy)
	assert.Equal(t, Asc, q.SortOrder)
	assert.Equal(t, "jane", q.Search)
	assert.Equal(t, "qualified", q.Status)

	q = ParseQuery(url.Values{"pageSize": {"-3"}, "page": {"abc"}}, sortSpec)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, 1, q.Page)
}

func TestApplyPageBeyondTotal(t *testing.T) {
	items := fixtures(25)
	page := Apply(items, Query{Page: 7, PageSize: 10}, accessors)

	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrevious)
}

func TestHugePageIsClampedNotOverflowed(t *testing.T) {
	q := ParseQuery(url.Values{"page": {"922337203685477590"}}, sortSpec)
	assert.Equal(t, MaxPage, q.Page)
	assert.Positive(t, q.Offset())

	page := Apply(fixtures(25), q, accessors)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.False(t, page.Pagination.HasNext)

	raw := Query{Page: 922337203685477590, PageSize: MaxPageSize}
	assert.Positive(t, raw.Offset())
	assert.Empty(t, Apply(fixtures(3), raw, accessors).Data)

	c := BuildSQL(q, SQLSpec{DefaultSort: "created_at"}, nil)
	require.Len(t, c.LimitArgs, 2)
	assert.Positive(t, c.LimitArgs[1].(int))
}

func TestApplyPagination(t *testing.T) {
	items := fixtures(25)
	first := Apply(items, Query{Page: 1, PageSize: 10, SortBy: "createdAt", SortOrder: Asc}, accessors)
	require.Len(t, first.Data, 10)
	assert.True(t, first.Pagination.HasNext)
	assert.False(t, first.Pagination.HasPrevious)
	assert.Equal(t, items[0].CreatedAt, first.Data[0].CreatedAt)

	last := Apply(items, Query{Page: 3, PageSize: 10, SortBy: "createdAt", SortOrder: Asc}, accessors)
	require.Len(t, last.Data, 5)
	assert.False(t, last.Pagination.HasNext)
}

func TestApplySearchIsCaseInsensitiveSubstring(t *testing.T) {
	page := Apply(fixtures(5), Query{Search: "jane"}, accessors)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Jane Doe", page.Data[0].Name)

	page = Apply(fixtures(5), Query{Search: "EXAMPLE.COM"}, accessors)
	assert.Len(t, page.Data, 5)
}

func TestApplyStatusFilterAndSort(t *testing.T) {
	page := Apply(fixtures(10), Query{Status: "qualified", SortBy: "name", SortOrder: Asc, PageSize: 50}, accessors)
	require.Len(t, page.Data, 5)
	for _, r := range page.Data {
		assert.Equal(t, "QUALIFIED", r.Status)
	}
	assert.LessOrEqual(t, CompareStrings(page.Data[0].Name, page.Data[1].Name), 0)
}

func TestEmptyResult(t *testing.T) {
	page := Apply[record](nil, Query{}, accessors)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.NotNil(t, page.Data)
}

func TestBuildSQL(t *testing.T) {
	spec := SQLSpec{
		SearchColumns: []string{"name", "email"},
		StatusColumn:  "status",
		SortColumns:   map[string]string{"name": "name", "createdAt": "created_at"},
		DefaultSort:   "created_at",
	}
	q := Query{Page: 3, PageSize: 20, Search: "50%_off", Status: "new", SortBy: "name", SortOrder: Asc}
	c := BuildSQL(q, spec, []string{"requester_ref = $1"}, "user-1")

	assert.Equal(t, " WHERE requester_ref = $1 AND status = $2 AND (name ILIKE $3 OR email ILIKE $3)", c.Where)
	assert.Equal(t, []any{"user-1", "NEW", `%50\%\_off%`}, c.WhereArgs)
	assert.Equal(t, " ORDER BY name ASC, id ASC", c.Order)
	assert.Equal(t, " LIMIT $4 OFFSET $5", c.Limit)
	assert.Equal(t, []any{20, 40}, c.LimitArgs)
	assert.Len(t, c.Args(), 5)
}

func TestBuildSQLDefaults(t *testing.T) {
	c := BuildSQL(Query{SortBy: "bogus"}, SQLSpec{DefaultSort: "created_at"}, nil)
	assert.Empty(t, c.Where)
	assert.Empty(t, c.WhereArgs)
	assert.Equal(t, " ORDER BY created_at DESC, id DESC", c.Order)
	assert.Equal(t, " LIMIT $1 OFFSET $2", c.Limit)
	assert.Equal(t, []any{10, 0}, c.LimitArgs)
}
