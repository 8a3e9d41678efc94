package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plateful/menu-catalog/pkg/catalog"
)

// Namespace prefixes every menu items cache key.
const Namespace = "menu-items"

// Key identifies a cached first page by its filter parameters.
// The pagination cursor is deliberately not part of the key: only
// first pages are cacheable.
type Key struct {
	// Query is the free-text search query ("" when absent)
	Query string

	// Categories is the category filter set
	Categories []string

	// Cuisines is the cuisine filter set
	Cuisines []string

	// PriceRange bounds item prices (nil when absent)
	PriceRange *catalog.PriceRange
}

// KeyForFilter builds the cache key for a filter set.
func KeyForFilter(f catalog.Filter) Key {
	return Key{
		Query:      f.Query,
		Categories: f.Categories,
		Cuisines:   f.Cuisines,
		PriceRange: f.PriceRange,
	}
}

// String generates a deterministic cache key string.
// Format: menu-items:q=<query>:cat=<v1,v2>:cui=<v1,v2>:price=<min>-<max>
//
// Every segment is always present so a query string can never collide
// with a category segment. Filter sets are sorted before joining: two
// logically identical filters must map to the same key regardless of
// the order the caller assembled them in.
//
// Example:
//
//	menu-items:q=pizza:cat=fast-food:cui=:price=
func (k Key) String() string {
	parts := []string{
		Namespace,
		"q=" + k.Query,
		"cat=" + joinSorted(k.Categories),
		"cui=" + joinSorted(k.Cuisines),
	}

	if k.PriceRange != nil {
		parts = append(parts, fmt.Sprintf("price=%g-%g", k.PriceRange.Min, k.PriceRange.Max))
	} else {
		parts = append(parts, "price=")
	}

	return strings.Join(parts, ":")
}

// joinSorted renders a filter set as a comma-joined string in canonical
// (sorted) order. The input slice is not modified.
func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}

	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)

	return strings.Join(sorted, ",")
}
