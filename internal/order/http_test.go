package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newCatalogStub(t *testing.T, prices map[string]int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/products/"):]
		price, ok := prices[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"name":"Product","price_cents":%d,"quantity":10}`, id, price)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newOrderTS(t *testing.T, catalogURL string) *httptest.Server {
	t.Helper()
	srv := &Server{
		Store:   NewMemStore(),
		Catalog: NewCatalogClient(catalogURL),
		Log:     zap.NewNop(),
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func doAs(t *testing.T, userID, role, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Role", role)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCart_RequiresIdentity(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	resp := doAs(t, "", "", http.MethodGet, ts.URL+"/cart", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCart_SetUpdateRemove(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999, "p2": 2999})
	ts := newOrderTS(t, cat.URL)

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p1", Qty: 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set item status = %d, want 200", resp.StatusCode)
	}
	c := decode[Cart](t, resp)
	if len(c.Items) != 1 || c.Items[0].Qty != 2 {
		t.Fatalf("cart after set = %+v", c.Items)
	}

	// Setting the same product replaces the line, it does not add.
	resp = doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p1", Qty: 5})
	c = decode[Cart](t, resp)
	if len(c.Items) != 1 || c.Items[0].Qty != 5 {
		t.Fatalf("cart after update = %+v", c.Items)
	}

	resp = doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p2", Qty: 1})
	c = decode[Cart](t, resp)
	if len(c.Items) != 2 {
		t.Fatalf("cart after second product = %+v", c.Items)
	}

	// Qty <= 0 removes the line.
	resp = doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p1", Qty: 0})
	c = decode[Cart](t, resp)
	if len(c.Items) != 1 || c.Items[0].ProductID != "p2" {
		t.Fatalf("cart after qty=0 = %+v", c.Items)
	}

	resp = doAs(t, "u1", "customer", http.MethodDelete, ts.URL+"/cart/items/p2", nil)
	c = decode[Cart](t, resp)
	if len(c.Items) != 0 {
		t.Fatalf("cart after delete = %+v", c.Items)
	}
}

func TestCart_UnknownProductRejected(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "ghost", Qty: 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCart_IsolatedPerUser(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p1", Qty: 3})

	resp := doAs(t, "u2", "customer", http.MethodGet, ts.URL+"/cart", nil)
	c := decode[Cart](t, resp)
	if len(c.Items) != 0 {
		t.Fatalf("u2 cart = %+v, want empty", c.Items)
	}
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/checkout", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999, "p2": 2999})
	ts := newOrderTS(t, cat.URL)

	doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p1", Qty: 2})
	doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/items", cartItemReq{ProductID: "p2", Qty: 1})

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/cart/checkout", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout status = %d, want 201", resp.StatusCode)
	}
	o := decode[Order](t, resp)
	if o.TotalCents != 2*1999+2999 {
		t.Fatalf("total = %d, want %d", o.TotalCents, 2*1999+2999)
	}
	if o.Status != StatusNew {
		t.Fatalf("status = %q, want %q", o.Status, StatusNew)
	}

	resp = doAs(t, "u1", "customer", http.MethodGet, ts.URL+"/cart", nil)
	c := decode[Cart](t, resp)
	if len(c.Items) != 0 {
		t.Fatalf("cart after checkout = %+v, want empty", c.Items)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	cases := []struct {
		name  string
		items []Item
		want  int
	}{
		{"no items", nil, http.StatusBadRequest},
		{"zero qty", []Item{{ProductID: "p1", Qty: 0}}, http.StatusBadRequest},
		{"duplicate", []Item{{ProductID: "p1", Qty: 1}, {ProductID: "p1", Qty: 2}}, http.StatusBadRequest},
		{"unknown product", []Item{{ProductID: "ghost", Qty: 1}}, http.StatusBadRequest},
		{"valid", []Item{{ProductID: "p1", Qty: 1}}, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders", createReq{Items: tc.items})
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestCreateOrder_CatalogDown(t *testing.T) {
	cat := newCatalogStub(t, nil)
	ts := newOrderTS(t, cat.URL)
	cat.Close()

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders",
		createReq{Items: []Item{{ProductID: "p1", Qty: 1}}})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestGetOrder_Ownership(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders",
		createReq{Items: []Item{{ProductID: "p1", Qty: 1}}})
	o := decode[Order](t, resp)

	resp = doAs(t, "u1", "customer", http.MethodGet, ts.URL+"/orders/"+o.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner status = %d, want 200", resp.StatusCode)
	}

	resp = doAs(t, "u2", "customer", http.MethodGet, ts.URL+"/orders/"+o.ID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", resp.StatusCode)
	}

	resp = doAs(t, "root", "admin", http.MethodGet, ts.URL+"/orders/"+o.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", resp.StatusCode)
	}

	resp = doAs(t, "u1", "customer", http.MethodGet, ts.URL+"/orders/o_missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.StatusCode)
	}
}

func TestListOrders_FilterSortPaginate(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 100, "p2": 200, "p3": 300})
	ts := newOrderTS(t, cat.URL)

	for _, pid := range []string{"p1", "p2", "p3"} {
		resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders",
			createReq{Items: []Item{{ProductID: pid, Qty: 1}}})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d", resp.StatusCode)
		}
	}
	doAs(t, "u2", "customer", http.MethodPost, ts.URL+"/orders",
		createReq{Items: []Item{{ProductID: "p1", Qty: 1}}})

	resp := doAs(t, "u1", "customer", http.MethodGet, ts.URL+"/orders?sort=total_desc", nil)
	page := decode[pagedOrders](t, resp)
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3 (own orders only)", page.Total)
	}
	if page.Orders[0].TotalCents != 300 {
		t.Fatalf("first total = %d, want 300", page.Orders[0].TotalCents)
	}

	resp = doAs(t, "u1", "customer", http.MethodGet, ts.URL+"/orders?page=-5&per_page=1000&sort=bogus", nil)
	page = decode[pagedOrders](t, resp)
	if page.Page != 1 || page.PerPage != 100 {
		t.Fatalf("clamped page/per_page = %d/%d, want 1/100", page.Page, page.PerPage)
	}

	resp = doAs(t, "u1", "customer", http.MethodGet, ts.URL+"/orders?sort=total_asc&page=2&per_page=2", nil)
	page = decode[pagedOrders](t, resp)
	if len(page.Orders) != 1 || page.Orders[0].TotalCents != 300 {
		t.Fatalf("page 2 = %+v", page.Orders)
	}

	// Admins see everything unless they filter by user.
	resp = doAs(t, "root", "admin", http.MethodGet, ts.URL+"/orders", nil)
	page = decode[pagedOrders](t, resp)
	if page.Total != 4 {
		t.Fatalf("admin total = %d, want 4", page.Total)
	}
	resp = doAs(t, "root", "admin", http.MethodGet, ts.URL+"/orders?user_id=u2", nil)
	page = decode[pagedOrders](t, resp)
	if page.Total != 1 {
		t.Fatalf("admin filtered total = %d, want 1", page.Total)
	}
}

func TestCancelOrder(t *testing.T) {
	cat := newCatalogStub(t, map[string]int64{"p1": 1999})
	ts := newOrderTS(t, cat.URL)

	resp := doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders",
		createReq{Items: []Item{{ProductID: "p1", Qty: 1}}})
	o := decode[Order](t, resp)

	resp = doAs(t, "u2", "customer", http.MethodPost, ts.URL+"/orders/"+o.ID+"/cancel", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger cancel status = %d, want 403", resp.StatusCode)
	}

	resp = doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders/"+o.ID+"/cancel", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", resp.StatusCode)
	}
	got := decode[Order](t, resp)
	if got.Status != StatusCancelled {
		t.Fatalf("status = %q, want %q", got.Status, StatusCancelled)
	}

	resp = doAs(t, "u1", "customer", http.MethodPost, ts.URL+"/orders/"+o.ID+"/cancel", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second cancel status = %d, want 409", resp.StatusCode)
	}
}
