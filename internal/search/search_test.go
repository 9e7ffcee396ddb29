package search

import (
	"fmt"
	"testing"
)

func testCatalog() []Product {
	return []Product{
		{ID: "p1", Name: "Toner A", Brand: Brand{ID: "b1", Name: "Lancôme"}, PriceCents: 2990},
		{ID: "p2", Name: "Lotion B", Brand: Brand{ID: "b1", Name: "Lancôme"}, PriceCents: 3490},
		{ID: "p3", Name: "Vitamin C Serum", Brand: Brand{ID: "b2", Name: "The Ordinary"}, PriceCents: 1290},
		{ID: "p4", Name: "Cleansing Oil", Brand: Brand{ID: "b3", Name: "Hada Labo"}, PriceCents: 1590},
	}
}

func TestMatch_ShortQueryReturnsNothing(t *testing.T) {
	for _, q := range []string{"", " ", "a", " a ", "é"} {
		if got := Match(testCatalog(), q); got != nil {
			t.Fatalf("Match(%q) = %v, want nil", q, got)
		}
	}
}

func TestMatch_BrandScenario(t *testing.T) {
	got := Match(testCatalog(), "lan")

	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3: %v", len(got), got)
	}
	if got[0].Kind != KindBrand || got[0].ID != "b1" || got[0].Name != "Lancôme" {
		t.Fatalf("first suggestion = %+v, want brand b1 Lancôme", got[0])
	}
	if got[1].Kind != KindProduct || got[1].Name != "Toner A" {
		t.Fatalf("second suggestion = %+v, want product Toner A", got[1])
	}
	if got[2].Kind != KindProduct || got[2].Name != "Lotion B" {
		t.Fatalf("third suggestion = %+v, want product Lotion B", got[2])
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	got := Match(testCatalog(), "VITAMIN")

	if len(got) != 1 || got[0].Kind != KindProduct || got[0].ID != "p3" {
		t.Fatalf("got %v, want the Vitamin C Serum product", got)
	}
}

func TestMatch_Caps(t *testing.T) {
	var catalog []Product
	for i := 0; i < 20; i++ {
		catalog = append(catalog, Product{
			ID:    fmt.Sprintf("p%d", i),
			Name:  fmt.Sprintf("Serum %d", i),
			Brand: Brand{ID: fmt.Sprintf("b%d", i), Name: fmt.Sprintf("Serum House %d", i)},
		})
	}

	got := Match(catalog, "serum")

	var brands, products int
	seen := map[string]bool{}
	for _, s := range got {
		switch s.Kind {
		case KindBrand:
			brands++
			if seen[s.ID] {
				t.Fatalf("duplicate brand id %q", s.ID)
			}
			seen[s.ID] = true
		case KindProduct:
			products++
		}
	}

	if brands != 3 {
		t.Fatalf("brands = %d, want 3", brands)
	}
	if products != 6 {
		t.Fatalf("products = %d, want 6", products)
	}

	// Catalog-order FIFO: the first three brands and first six products win.
	if got[0].ID != "b0" || got[1].ID != "b1" || got[2].ID != "b2" {
		t.Fatalf("brand order = %v", got[:3])
	}
	if got[3].ID != "p0" || got[8].ID != "p5" {
		t.Fatalf("product order = %v", got[3:])
	}
}

func TestMatch_BrandDedup(t *testing.T) {
	catalog := []Product{
		{ID: "p1", Name: "Toner", Brand: Brand{ID: "b1", Name: "Lancôme"}},
		{ID: "p2", Name: "Lotion", Brand: Brand{ID: "b1", Name: "Lancôme"}},
		{ID: "p3", Name: "Serum", Brand: Brand{ID: "b1", Name: "Lancôme"}},
	}

	got := Match(catalog, "lancôme")

	var brands int
	for _, s := range got {
		if s.Kind == KindBrand {
			brands++
		}
	}
	if brands != 1 {
		t.Fatalf("brands = %d, want 1 deduplicated entry", brands)
	}
}

func TestMatch_GuardedFields(t *testing.T) {
	catalog := []Product{
		{},                          // fully empty record
		{ID: "p1"},                  // no name, no brand
		{Name: "Nameless Cleanser"}, // no id
		{ID: "p2", Name: "Cleanser", Brand: Brand{Name: "NoID House"}},
	}

	got := Match(catalog, "cleanser")

	for _, s := range got {
		if s.Kind == KindBrand {
			t.Fatalf("brand without id surfaced: %+v", s)
		}
	}
	if len(got) != 1 || got[0].ID != "p2" {
		t.Fatalf("got %v, want only product p2", got)
	}
}

func TestMatch_QueryIsTrimmedAndLowered(t *testing.T) {
	got := Match(testCatalog(), "  ToNeR  ")

	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("got %v, want Toner A", got)
	}
}
