package search

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

type staticFetcher struct {
	products []Product
	err      error
}

func (f staticFetcher) FetchProducts(context.Context) ([]Product, error) {
	return f.products, f.err
}

func loadedSnapshot(t *testing.T, products []Product) *Snapshot {
	t.Helper()
	s := NewSnapshot()
	s.Load(context.Background(), staticFetcher{products: products}, zap.NewNop())
	return s
}

func newTestPanel(t *testing.T) (*Panel, *History) {
	t.Helper()
	h := LoadHistory(NewMemStore(), DefaultOwner)
	// Zero interval: matches run synchronously, keeping tests deterministic.
	return NewPanel(loadedSnapshot(t, testCatalog()), h, 0, nil), h
}

func TestSnapshot_FetchFailureDegradesToEmpty(t *testing.T) {
	s := NewSnapshot()
	s.Load(context.Background(), staticFetcher{err: errors.New("boom")}, zap.NewNop())

	if !s.Loaded() {
		t.Fatal("snapshot not marked loaded")
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestSnapshot_LoadsAtMostOnce(t *testing.T) {
	s := NewSnapshot()
	s.Load(context.Background(), staticFetcher{products: testCatalog()}, nil)
	s.Load(context.Background(), staticFetcher{products: nil}, nil)

	if s.Len() != len(testCatalog()) {
		t.Fatalf("second load replaced the snapshot: len = %d", s.Len())
	}
}

func TestPanel_TypingShowsGroupedResults(t *testing.T) {
	p, _ := newTestPanel(t)
	defer p.Close()

	p.Input("lan")

	v := p.View()
	if !v.Open || v.Loading {
		t.Fatalf("view = %+v, want open and settled", v)
	}
	if len(v.Brands) != 1 || v.Brands[0].Name != "Lancôme" {
		t.Fatalf("brands = %v", v.Brands)
	}
	if len(v.Products) != 2 {
		t.Fatalf("products = %v", v.Products)
	}
	if v.NoResults {
		t.Fatal("NoResults set despite matches")
	}
}

func TestPanel_NoResultsState(t *testing.T) {
	p, _ := newTestPanel(t)
	defer p.Close()

	p.Input("zzzz")

	v := p.View()
	if !v.NoResults {
		t.Fatalf("view = %+v, want NoResults", v)
	}
	if len(v.Brands) != 0 || len(v.Products) != 0 {
		t.Fatalf("unexpected suggestions: %+v", v)
	}
}

func TestPanel_EmptyInputShowsRecents(t *testing.T) {
	p, h := newTestPanel(t)
	defer p.Close()

	h.Record("serum")
	h.Record("toner")

	p.Input("lan")
	p.Input("")

	v := p.View()
	if v.Loading || v.NoResults {
		t.Fatalf("view = %+v, want idle recents view", v)
	}
	if want := []string{"toner", "serum"}; !reflect.DeepEqual(v.Recents, want) {
		t.Fatalf("recents = %v, want %v", v.Recents, want)
	}
}

func TestPanel_SubmitRecordsAndNavigates(t *testing.T) {
	p, h := newTestPanel(t)
	defer p.Close()

	p.Input("vitamin c")
	target, ok := p.Submit()
	if !ok {
		t.Fatal("submit rejected")
	}
	if target != "/search?q=vitamin+c" {
		t.Fatalf("target = %q", target)
	}

	if got := h.Entries(); len(got) != 1 || got[0] != "vitamin c" {
		t.Fatalf("history = %v", got)
	}
	if p.View().Open {
		t.Fatal("panel still open after submit")
	}
}

func TestPanel_SubmitEmptyIsNoop(t *testing.T) {
	p, h := newTestPanel(t)
	defer p.Close()

	if _, ok := p.Submit(); ok {
		t.Fatal("blank submit accepted")
	}
	if len(h.Entries()) != 0 {
		t.Fatal("blank submit recorded history")
	}
}

func TestPanel_SelectSuggestionNavigates(t *testing.T) {
	p, h := newTestPanel(t)
	defer p.Close()

	p.Input("lan")
	v := p.View()

	target, ok := p.Select(v.Brands[0])
	if !ok || target != "/brand/b1" {
		t.Fatalf("brand target = %q ok=%v", target, ok)
	}
	if got := h.Entries(); len(got) != 1 || got[0] != "lan" {
		t.Fatalf("history = %v", got)
	}

	p.Input("vitamin")
	v = p.View()
	target, ok = p.Select(v.Products[0])
	if !ok || target != "/product/p3" {
		t.Fatalf("product target = %q ok=%v", target, ok)
	}
}

func TestPanel_SelectRecentMovesToFront(t *testing.T) {
	p, h := newTestPanel(t)
	defer p.Close()

	h.Record("serum")
	h.Record("toner")

	target, ok := p.SelectRecent("serum")
	if !ok || target != "/search?q=serum" {
		t.Fatalf("target = %q ok=%v", target, ok)
	}
	if want := []string{"serum", "toner"}; !reflect.DeepEqual(h.Entries(), want) {
		t.Fatalf("history = %v, want %v", h.Entries(), want)
	}
}

func TestPanel_ClearRecents(t *testing.T) {
	store := NewMemStore()
	h := LoadHistory(store, DefaultOwner)
	p := NewPanel(loadedSnapshot(t, testCatalog()), h, 0, nil)
	defer p.Close()

	h.Record("serum")
	p.ClearRecents()

	if len(h.Entries()) != 0 {
		t.Fatalf("history = %v, want empty", h.Entries())
	}
	persisted, _ := store.Load(DefaultOwner)
	if len(persisted) != 0 {
		t.Fatalf("persisted = %v, want empty", persisted)
	}
}

func TestPanel_DismissKeepsSearchState(t *testing.T) {
	p, _ := newTestPanel(t)
	defer p.Close()

	p.Input("lan")
	p.Dismiss()

	v := p.View()
	if v.Open {
		t.Fatal("panel open after dismiss")
	}
	if v.Query != "lan" {
		t.Fatalf("query = %q, dismiss must not mutate search state", v.Query)
	}
	if len(v.Brands)+len(v.Products) == 0 {
		t.Fatal("results dropped on dismiss")
	}
}

func TestPanel_DebouncedInputUsesFinalQuery(t *testing.T) {
	var views []View
	h := LoadHistory(NewMemStore(), DefaultOwner)
	done := make(chan View, 16)
	p := NewPanel(loadedSnapshot(t, testCatalog()), h, 20*time.Millisecond, func(v View) {
		if !v.Loading {
			done <- v
		}
	})
	defer p.Close()

	for _, q := range []string{"l", "la", "lan"} {
		p.Input(q)
	}

	select {
	case v := <-done:
		views = append(views, v)
	case <-time.After(time.Second):
		t.Fatal("no settled view after debounce window")
	}

	v := views[0]
	if v.Query != "lan" {
		t.Fatalf("settled query = %q, want the final keystroke", v.Query)
	}
	if len(v.Brands) != 1 {
		t.Fatalf("brands = %v", v.Brands)
	}

	// Only one match may have fired for the burst.
	select {
	case v := <-done:
		t.Fatalf("extra settled view: %+v", v)
	case <-time.After(80 * time.Millisecond):
	}
}
