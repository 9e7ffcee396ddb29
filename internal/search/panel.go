package search

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// View is what a search widget renders. Exactly one of the four dropdown
// states is active, chosen by precedence: Loading, result groups, NoResults,
// recents.
type View struct {
	Query     string       `json:"query"`
	Open      bool         `json:"open"`
	Loading   bool         `json:"loading"`
	Brands    []Suggestion `json:"brands,omitempty"`
	Products  []Suggestion `json:"products,omitempty"`
	NoResults bool         `json:"no_results,omitempty"`
	Recents   []string     `json:"recents,omitempty"`
}

// Panel drives one search widget instance: it owns the query text, the
// debounced match against the catalog snapshot, the dropdown state, and the
// owner's recent-search history. All mutation happens through its methods;
// the optional notify callback receives every new view.
type Panel struct {
	snapshot *Snapshot
	history  *History
	debounce *Debouncer
	notify   func(View)

	mu      sync.Mutex
	query   string
	open    bool
	loading bool
	results []Suggestion
}

func NewPanel(snapshot *Snapshot, history *History, interval time.Duration, notify func(View)) *Panel {
	return &Panel{
		snapshot: snapshot,
		history:  history,
		debounce: NewDebouncer(interval),
		notify:   notify,
	}
}

// Focus opens the panel without changing the query, so an empty input shows
// the recents view.
func (p *Panel) Focus() {
	p.mu.Lock()
	p.open = true
	v := p.viewLocked()
	p.mu.Unlock()
	p.emit(v)
}

// Input records a keystroke. Empty text clears suggestions immediately and
// cancels any pending match; otherwise a match is scheduled after the quiet
// interval, cancelling the previous pending one.
func (p *Panel) Input(text string) {
	p.mu.Lock()
	p.query = text
	p.open = true

	if strings.TrimSpace(text) == "" {
		p.loading = false
		p.results = nil
		v := p.viewLocked()
		p.mu.Unlock()
		p.debounce.Stop()
		p.emit(v)
		return
	}

	p.loading = true
	v := p.viewLocked()
	p.mu.Unlock()

	p.emit(v)
	p.debounce.Trigger(p.match)
}

// match always reads the query at fire time, so a late timer still computes
// against the latest text.
func (p *Panel) match() {
	p.mu.Lock()
	q := p.query
	if strings.TrimSpace(q) == "" {
		p.loading = false
		v := p.viewLocked()
		p.mu.Unlock()
		p.emit(v)
		return
	}

	p.results = Match(p.snapshot.Products(), q)
	p.loading = false
	v := p.viewLocked()
	p.mu.Unlock()
	p.emit(v)
}

// Submit commits the current query: it is recorded to history, the panel
// closes, and the full search results path is returned. A blank query is
// ignored.
func (p *Panel) Submit() (string, bool) {
	p.mu.Lock()
	q := strings.TrimSpace(p.query)
	p.mu.Unlock()

	if q == "" {
		return "", false
	}
	return p.commit(q, "/search?q="+url.QueryEscape(q)), true
}

// Select commits via a suggestion: the query text is recorded and the
// destination is the brand or product page.
func (p *Panel) Select(s Suggestion) (string, bool) {
	p.mu.Lock()
	q := strings.TrimSpace(p.query)
	p.mu.Unlock()

	var target string
	switch s.Kind {
	case KindBrand:
		target = "/brand/" + url.PathEscape(s.ID)
	case KindProduct:
		target = "/product/" + url.PathEscape(s.ID)
	default:
		return "", false
	}
	return p.commit(q, target), true
}

// SelectRecent re-runs a past search: the entry moves to the front of
// history and the full results page is the destination.
func (p *Panel) SelectRecent(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", false
	}
	return p.commit(entry, "/search?q="+url.QueryEscape(entry)), true
}

func (p *Panel) commit(query, target string) string {
	if p.history != nil && query != "" {
		p.history.Record(query)
	}

	p.mu.Lock()
	p.open = false
	p.loading = false
	v := p.viewLocked()
	p.mu.Unlock()

	p.debounce.Stop()
	p.emit(v)
	return target
}

// ClearRecents empties the history list and its persisted entry.
func (p *Panel) ClearRecents() {
	if p.history != nil {
		p.history.Clear()
	}
	p.mu.Lock()
	v := p.viewLocked()
	p.mu.Unlock()
	p.emit(v)
}

// Dismiss closes the panel without mutating any search state, the
// click-outside behavior.
func (p *Panel) Dismiss() {
	p.mu.Lock()
	p.open = false
	v := p.viewLocked()
	p.mu.Unlock()
	p.emit(v)
}

// Close tears the widget down, invalidating any pending match.
func (p *Panel) Close() {
	p.debounce.Stop()
}

// View returns the current render state.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Panel) viewLocked() View {
	v := View{
		Query:   p.query,
		Open:    p.open,
		Loading: p.loading,
	}
	if v.Loading {
		return v
	}

	if strings.TrimSpace(p.query) == "" {
		if p.history != nil {
			v.Recents = p.history.Entries()
		}
		return v
	}

	for _, s := range p.results {
		if s.Kind == KindBrand {
			v.Brands = append(v.Brands, s)
		} else {
			v.Products = append(v.Products, s)
		}
	}
	// A query below the match threshold is not a failed search.
	v.NoResults = len(p.results) == 0 && Searchable(p.query)
	return v
}

func (p *Panel) emit(v View) {
	if p.notify != nil {
		p.notify(v)
	}
}
