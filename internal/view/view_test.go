package view

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name   string
	Email  string
	Phone  string
	Role   string
	Status string
	Date   string
}

func personSpec() Spec[person] {
	return Spec[person]{
		Folded: []func(person) string{
			func(p person) string { return p.Name },
			func(p person) string { return p.Email },
		},
		Exact: []func(person) string{
			func(p person) string { return p.Phone },
		},
		Dimensions: map[string]func(person) string{
			"role":   func(p person) string { return p.Role },
			"status": func(p person) string { return p.Status },
		},
		Compare: map[Key]func(a, b person) int{
			SortName: func(a, b person) int { return strings.Compare(a.Name, b.Name) },
			SortDate: func(a, b person) int { return strings.Compare(b.Date, a.Date) },
			SortStatus: func(a, b person) int {
				return strings.Compare(a.Status, b.Status)
			},
		},
	}
}

func people(n int) []person {
	out := make([]person, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, person{
			Name:   fmt.Sprintf("Person %02d", i),
			Email:  fmt.Sprintf("person%02d@example.com", i),
			Phone:  fmt.Sprintf("+1 555 01%02d", i),
			Role:   "user",
			Status: "active",
			Date:   fmt.Sprintf("2024-01-%02d", i+1),
		})
	}
	return out
}

func TestComputeFilterExactness(t *testing.T) {
	spec := personSpec()
	items := []person{
		{Name: "Alice", Email: "alice@x.com", Role: "admin", Status: "active"},
		{Name: "Bob", Email: "bob@x.com", Role: "user", Status: "inactive"},
		{Name: "Carol", Email: "carol@x.com", Role: "admin", Status: "suspended"},
	}

	v := spec.Compute(items, Params{Filters: map[string]string{"role": "admin"}, PageSize: 10})
	require.Len(t, v.Items, 2)
	for _, item := range v.Items {
		assert.Equal(t, "admin", item.Role)
	}

	v = spec.Compute(items, Params{
		Filters:  map[string]string{"role": "admin", "status": "suspended"},
		PageSize: 10,
	})
	require.Len(t, v.Items, 1)
	assert.Equal(t, "Carol", v.Items[0].Name)

	// "all" is the no-constraint sentinel.
	v = spec.Compute(items, Params{Filters: map[string]string{"role": "all"}, PageSize: 10})
	assert.Len(t, v.Items, 3)
}

func TestComputeSearch(t *testing.T) {
	spec := personSpec()
	items := []person{
		{Name: "Jane Doe", Email: "jane@x.com", Phone: "+1 555 0100"},
		{Name: "John Smith", Email: "john@x.com", Phone: "+1 555 0200"},
	}

	tests := []struct {
		name   string
		search string
		want   int
	}{
		{"empty term matches all", "", 2},
		{"case-insensitive name", "JANE", 1},
		{"email substring", "john@", 1},
		{"phone verbatim", "555 0200", 1},
		{"no match", "zelda", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := spec.Compute(items, Params{Search: tt.search, PageSize: 10})
			assert.Len(t, v.Items, tt.want)
		})
	}
}

func TestComputePagination(t *testing.T) {
	spec := personSpec()
	items := people(13)

	v := spec.Compute(items, Params{Page: 1, PageSize: 6})
	assert.Equal(t, 3, v.Meta.TotalPages)
	assert.Equal(t, 13, v.Meta.TotalCount)
	assert.Len(t, v.Items, 6)
	assert.Equal(t, 1, v.Meta.FirstIndex)
	assert.Equal(t, 6, v.Meta.LastIndex)

	v = spec.Compute(items, Params{Page: 3, PageSize: 6})
	assert.Len(t, v.Items, 1)
	assert.Equal(t, 13, v.Meta.FirstIndex)
	assert.Equal(t, 13, v.Meta.LastIndex)

	// Out-of-range pages clamp to the last page.
	v = spec.Compute(items, Params{Page: 9, PageSize: 6})
	assert.Equal(t, 3, v.Meta.Page)
	assert.Len(t, v.Items, 1)
}

func TestComputeEmptyCollection(t *testing.T) {
	spec := personSpec()

	v := spec.Compute(nil, Params{Page: 1, PageSize: 6})
	assert.Equal(t, 0, v.Meta.TotalPages)
	assert.Equal(t, 0, v.Meta.TotalCount)
	assert.Equal(t, 0, v.Meta.FirstIndex)
	assert.Equal(t, 0, v.Meta.LastIndex)
	assert.Empty(t, v.Items)
}

func TestComputeSortOrders(t *testing.T) {
	spec := personSpec()
	items := []person{
		{Name: "Carol", Status: "suspended", Date: "2024-03-01"},
		{Name: "Alice", Status: "active", Date: "2024-01-01"},
		{Name: "Bob", Status: "inactive", Date: "2024-02-01"},
	}

	v := spec.Compute(items, Params{Sort: SortName, PageSize: 10})
	for i := 1; i < len(v.Items); i++ {
		assert.LessOrEqual(t, v.Items[i-1].Name, v.Items[i].Name)
	}

	v = spec.Compute(items, Params{Sort: SortDate, PageSize: 10})
	for i := 1; i < len(v.Items); i++ {
		assert.GreaterOrEqual(t, v.Items[i-1].Date, v.Items[i].Date)
	}

	v = spec.Compute(items, Params{Sort: SortStatus, PageSize: 10})
	for i := 1; i < len(v.Items); i++ {
		assert.LessOrEqual(t, v.Items[i-1].Status, v.Items[i].Status)
	}
}

func TestComputeSortIsStable(t *testing.T) {
	spec := personSpec()
	items := []person{
		{Name: "Same", Email: "first@x.com", Date: "2024-01-01"},
		{Name: "Same", Email: "second@x.com", Date: "2024-01-01"},
	}

	v := spec.Compute(items, Params{Sort: SortName, PageSize: 10})
	require.Len(t, v.Items, 2)
	assert.Equal(t, "first@x.com", v.Items[0].Email)
	assert.Equal(t, "second@x.com", v.Items[1].Email)
}

func TestRebaseResetsPage(t *testing.T) {
	prev := Params{Search: "rose", Page: 3, Filters: map[string]string{"role": "admin"}}

	// Same query keeps its page.
	next := Params{Search: "rose", Page: 3, Filters: map[string]string{"role": "admin"}}
	assert.Equal(t, 3, next.Rebase(prev).Page)

	// Changed search resets.
	next = Params{Search: "oud", Page: 3, Filters: map[string]string{"role": "admin"}}
	assert.Equal(t, 1, next.Rebase(prev).Page)

	// Changed filter resets.
	next = Params{Search: "rose", Page: 3, Filters: map[string]string{"role": "user"}}
	assert.Equal(t, 1, next.Rebase(prev).Page)

	// Dropping a filter back to the sentinel resets too.
	next = Params{Search: "rose", Page: 3, Filters: map[string]string{"role": "all"}}
	assert.Equal(t, 1, next.Rebase(prev).Page)
}

func TestRebaseKeepsPageOnSortChange(t *testing.T) {
	prev := Params{Search: "rose", Sort: SortName, Page: 3}

	// Re-ordering the same filtered set does not shrink it, so the page
	// stays valid and is preserved.
	next := Params{Search: "rose", Sort: SortDate, Page: 3}
	assert.Equal(t, 3, next.Rebase(prev).Page)
}

func TestComputeViewIsSubset(t *testing.T) {
	spec := personSpec()
	items := people(20)
	byEmail := make(map[string]person, len(items))
	for _, p := range items {
		byEmail[p.Email] = p
	}

	v := spec.Compute(items, Params{Search: "person1", Page: 1, PageSize: 5})
	for _, item := range v.Items {
		original, ok := byEmail[item.Email]
		require.True(t, ok, "view contains entity not present in collection")
		assert.Equal(t, original, item)
		assert.Contains(t, strings.ToLower(item.Name+item.Email), "person1")
	}
}
