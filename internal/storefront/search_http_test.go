package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"SkinStore/internal/search"
)

type stubFetcher struct {
	products []search.Product
	err      error
	calls    int
}

func (f *stubFetcher) FetchProducts(ctx context.Context) ([]search.Product, error) {
	f.calls++
	return f.products, f.err
}

func demoProducts() []search.Product {
	lancome := search.Brand{ID: "b1", Name: "Lancôme"}
	ordinary := search.Brand{ID: "b2", Name: "The Ordinary"}
	return []search.Product{
		{ID: "p1", Name: "Hydrating Toner", Brand: lancome, PriceCents: 2990},
		{ID: "p2", Name: "Night Repair Lotion", Brand: lancome, PriceCents: 3490},
		{ID: "p3", Name: "Vitamin C Serum", Brand: ordinary, PriceCents: 1290},
	}
}

func newSearchTS(t *testing.T, fetcher search.Fetcher) *httptest.Server {
	t.Helper()

	api := &SearchAPI{
		Snapshot: search.NewSnapshot(),
		Catalog:  fetcher,
		Recents:  search.NewMemStore(),
		Metrics:  NewSearchMetrics(nil),
		Log:      zap.NewNop(),
	}

	r := chi.NewRouter()
	api.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func getSuggest(t *testing.T, url, q string) suggestResp {
	t.Helper()

	resp, err := http.Get(url + "/suggest?q=" + q)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("suggest status=%d", resp.StatusCode)
	}

	var sr suggestResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode suggest: %v", err)
	}
	return sr
}

func TestSuggest_GroupsBrandsAndProducts(t *testing.T) {
	ts := newSearchTS(t, &stubFetcher{products: demoProducts()})

	sr := getSuggest(t, ts.URL, "lan")
	if len(sr.Brands) != 1 || sr.Brands[0].ID != "b1" {
		t.Fatalf("brands = %+v", sr.Brands)
	}
	if len(sr.Products) != 2 {
		t.Fatalf("products = %+v", sr.Products)
	}
	if sr.NoResults {
		t.Fatalf("no_results set with hits present")
	}
}

func TestSuggest_ShortQueryIsNotNoResults(t *testing.T) {
	ts := newSearchTS(t, &stubFetcher{products: demoProducts()})

	sr := getSuggest(t, ts.URL, "l")
	if len(sr.Brands) != 0 || len(sr.Products) != 0 {
		t.Fatalf("short query matched: %+v", sr)
	}
	if sr.NoResults {
		t.Fatalf("short query flagged no_results")
	}
}

func TestSuggest_NoResults(t *testing.T) {
	ts := newSearchTS(t, &stubFetcher{products: demoProducts()})

	sr := getSuggest(t, ts.URL, "zzzz")
	if !sr.NoResults {
		t.Fatalf("want no_results for unmatched query")
	}
}

func TestSuggest_CatalogFetchedOnce(t *testing.T) {
	fetcher := &stubFetcher{products: demoProducts()}
	ts := newSearchTS(t, fetcher)

	getSuggest(t, ts.URL, "lan")
	getSuggest(t, ts.URL, "vitamin")

	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func TestSuggest_FetchFailureDegradesToEmpty(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("catalog down")}
	ts := newSearchTS(t, fetcher)

	sr := getSuggest(t, ts.URL, "lan")
	if len(sr.Brands) != 0 || len(sr.Products) != 0 || !sr.NoResults {
		t.Fatalf("degraded suggest = %+v", sr)
	}

	// No retry after the failed load.
	getSuggest(t, ts.URL, "lan")
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func commitSearch(t *testing.T, c *http.Client, url, query string) *http.Response {
	t.Helper()

	resp, err := c.Post(url+"/searches/recent", "application/json",
		strings.NewReader(fmt.Sprintf(`{"query":%q}`, query)))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRecents_CookieSessionFlow(t *testing.T) {
	ts := newSearchTS(t, &stubFetcher{products: demoProducts()})

	jar := newCookieClient(t)

	for _, q := range []string{"toner", "serum", "lotion", "oil", "mask", "toner"} {
		resp := commitSearch(t, jar, ts.URL, q)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("commit %q status=%d", q, resp.StatusCode)
		}
	}

	resp, err := jar.Get(ts.URL + "/searches/recent")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()

	var rr recentResp
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		t.Fatalf("decode recents: %v", err)
	}

	// Six commits with one duplicate: five entries, duplicate in front.
	want := []string{"toner", "mask", "oil", "lotion", "serum"}
	if len(rr.Searches) != len(want) {
		t.Fatalf("recents = %v, want %v", rr.Searches, want)
	}
	for i := range want {
		if rr.Searches[i] != want[i] {
			t.Fatalf("recents[%d] = %q, want %q", i, rr.Searches[i], want[i])
		}
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/searches/recent", nil)
	dresp, err := jar.Do(req)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	dresp.Body.Close()
	if dresp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear status=%d", dresp.StatusCode)
	}

	resp2, err := jar.Get(ts.URL + "/searches/recent")
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	defer resp2.Body.Close()
	var after recentResp
	if err := json.NewDecoder(resp2.Body).Decode(&after); err != nil {
		t.Fatalf("decode recents: %v", err)
	}
	if len(after.Searches) != 0 {
		t.Fatalf("recents after clear = %v", after.Searches)
	}
}

func TestRecents_SeparateVisitorsAreIsolated(t *testing.T) {
	ts := newSearchTS(t, &stubFetcher{products: demoProducts()})

	alice := newCookieClient(t)
	bob := newCookieClient(t)

	commitSearch(t, alice, ts.URL, "toner")

	resp, err := bob.Get(ts.URL + "/searches/recent")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()

	var rr recentResp
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		t.Fatalf("decode recents: %v", err)
	}
	if len(rr.Searches) != 0 {
		t.Fatalf("bob sees alice's searches: %v", rr.Searches)
	}
}

func TestRecents_BlankQueryRejected(t *testing.T) {
	ts := newSearchTS(t, &stubFetcher{products: demoProducts()})

	resp := commitSearch(t, newCookieClient(t), ts.URL, "   ")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank commit status=%d", resp.StatusCode)
	}
}
