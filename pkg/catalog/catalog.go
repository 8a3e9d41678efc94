// Package catalog defines the menu catalog domain types shared by the
// repository, the cache, and the data sources.
package catalog

import "github.com/google/uuid"

// MenuItem is a single dish or product in the menu catalog.
type MenuItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Cuisine     string    `json:"cuisine,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	Available   bool      `json:"available"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// PriceRange bounds item prices inclusively on both ends.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filter narrows a menu items fetch. Zero values mean "no constraint".
// Categories and Cuisines are sets; element order carries no meaning.
type Filter struct {
	Query      string
	Categories []string
	Cuisines   []string
	PriceRange *PriceRange
}

// Page is one page of an ordered result sequence.
type Page struct {
	Items []MenuItem `json:"items"`

	// NextCursor is the opaque continuation token for the following page.
	// Empty means end of results.
	NextCursor string `json:"next_cursor,omitempty"`
}

// HasMore reports whether another page can be fetched after this one.
func (p *Page) HasMore() bool {
	return p.NextCursor != ""
}
