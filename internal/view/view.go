// Package view implements the read side of the entity collections: search,
// multi-dimension filtering, stable sorting and pagination as one pure
// function over an in-memory collection.
package view

import (
	"math"
	"sort"
	"strings"
)

// Key selects the active sort order. One key at a time; switching keys
// re-sorts the whole filtered set.
type Key string

const (
	SortNone   Key = ""
	SortName   Key = "name"
	SortDate   Key = "date"
	SortStatus Key = "status"
	SortTotal  Key = "total"
)

const defaultPageSize = 20

// Params captures the caller's filter/sort/page state.
type Params struct {
	Search   string
	Filters  map[string]string
	Sort     Key
	Page     int
	PageSize int
}

// Meta describes the computed page.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
	FirstIndex int `json:"first_index"`
	LastIndex  int `json:"last_index"`
}

// View is the filtered, sorted, paginated slice of a collection.
type View[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Spec declares how the engine reads an entity type: which fields search
// folds over, which it matches verbatim, the filter dimensions, and the
// available sort comparators.
type Spec[T any] struct {
	Folded     []func(T) string
	Exact      []func(T) string
	Dimensions map[string]func(T) string
	Compare    map[Key]func(a, b T) int
}

// Rebase resets the page to 1 when the search term or any filter dimension
// changed relative to the previous query. Stale page numbers from a larger
// filtered set must never survive a filter change.
func (p Params) Rebase(prev Params) Params {
	if p.Search != prev.Search || !filtersEqual(p.Filters, prev.Filters) {
		p.Page = 1
	}
	return p
}

// Compute produces the view for the given collection and params. It never
// mutates the input slice.
func (s Spec[T]) Compute(items []T, p Params) View[T] {
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if s.matches(item, p) {
			filtered = append(filtered, item)
		}
	}

	if cmp, ok := s.Compare[p.Sort]; ok && cmp != nil {
		sort.SliceStable(filtered, func(i, j int) bool {
			return cmp(filtered[i], filtered[j]) < 0
		})
	}

	total := len(filtered)
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.PageSize)))
	}
	if totalPages > 0 && p.Page > totalPages {
		p.Page = totalPages
	}

	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	meta := Meta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
	if total > 0 && start < end {
		meta.FirstIndex = start + 1
		meta.LastIndex = end
	}

	return View[T]{Items: filtered[start:end], Meta: meta}
}

// matches applies the search term and every active filter dimension. An
// entity is included only when it passes all of them.
func (s Spec[T]) matches(item T, p Params) bool {
	if term := strings.TrimSpace(p.Search); term != "" {
		folded := strings.ToLower(term)
		hit := false
		for _, field := range s.Folded {
			if strings.Contains(strings.ToLower(field(item)), folded) {
				hit = true
				break
			}
		}
		if !hit {
			for _, field := range s.Exact {
				if strings.Contains(field(item), term) {
					hit = true
					break
				}
			}
		}
		if !hit {
			return false
		}
	}

	for dim, want := range p.Filters {
		if !active(want) {
			continue
		}
		accessor, ok := s.Dimensions[dim]
		if !ok {
			continue
		}
		if accessor(item) != want {
			return false
		}
	}

	return true
}

// active reports whether a filter value constrains the view. "all" is the
// sentinel for no constraint.
func active(value string) bool {
	return value != "" && value != "all"
}

func filtersEqual(a, b map[string]string) bool {
	for dim, v := range a {
		if active(v) && b[dim] != v {
			return false
		}
	}
	for dim, v := range b {
		if active(v) && a[dim] != v {
			return false
		}
	}
	return true
}
