// Package search implements the storefront suggestion engine: an
// in-memory catalog snapshot scanned per query for brand and product
// suggestions, plus the debounce, history, and panel state that drive
// a search-as-you-type widget.
package search

import (
	"strings"
	"unicode/utf8"
)

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Brand      Brand    `json:"brand"`
	PriceCents int64    `json:"price_cents"`
	ImageURLs  []string `json:"image_urls,omitempty"`
	Quantity   int      `json:"quantity"`
}

type Kind string

const (
	KindBrand   Kind = "brand"
	KindProduct Kind = "product"
)

type Suggestion struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	BrandName  string `json:"brand_name,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

const (
	minQueryRunes  = 2
	maxBrandHits   = 3
	maxProductHits = 6
)

// Normalize produces the canonical form a query is matched under.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Searchable reports whether the normalized query is long enough to match.
func Searchable(query string) bool {
	return utf8.RuneCountInString(Normalize(query)) >= minQueryRunes
}

// Match scans the catalog once and returns brand suggestions (deduplicated
// by brand ID, first occurrence wins, at most 3) followed by product
// suggestions (at most 6). Caps keep the first hits in catalog order; there
// is no relevance scoring. Queries shorter than two runes match nothing.
// Records with missing names or brand fields never match and never panic.
func Match(products []Product, query string) []Suggestion {
	q := Normalize(query)
	if utf8.RuneCountInString(q) < minQueryRunes {
		return nil
	}

	var (
		brands    []Suggestion
		prods     []Suggestion
		seenBrand = make(map[string]struct{})
	)

	for _, p := range products {
		nameHit := p.Name != "" && strings.Contains(strings.ToLower(p.Name), q)
		brandHit := p.Brand.Name != "" && strings.Contains(strings.ToLower(p.Brand.Name), q)

		if brandHit && p.Brand.ID != "" {
			if _, dup := seenBrand[p.Brand.ID]; !dup {
				seenBrand[p.Brand.ID] = struct{}{}
				if len(brands) < maxBrandHits {
					brands = append(brands, Suggestion{
						Kind: KindBrand,
						ID:   p.Brand.ID,
						Name: p.Brand.Name,
					})
				}
			}
		}

		if (nameHit || brandHit) && p.ID != "" && len(prods) < maxProductHits {
			s := Suggestion{
				Kind:       KindProduct,
				ID:         p.ID,
				Name:       p.Name,
				BrandName:  p.Brand.Name,
				PriceCents: p.PriceCents,
			}
			if len(p.ImageURLs) > 0 {
				s.ImageURL = p.ImageURLs[0]
			}
			prods = append(prods, s)
		}

		if len(brands) == maxBrandHits && len(prods) == maxProductHits {
			break
		}
	}

	if len(brands) == 0 && len(prods) == 0 {
		return nil
	}
	return append(brands, prods...)
}
