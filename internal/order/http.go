package order

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"SkinStore/pkg/kit"
)

type Server struct {
	Store   Store
	Catalog *CatalogClient
	Log     *zap.Logger
}

var (
	errBadItem         = errors.New("bad item")
	errDuplicateItem   = errors.New("duplicate product_id")
	errInvalidProduct  = errors.New("invalid product_id")
	errCatalogDown     = errors.New("catalog unavailable")
	errCatalogUpstream = errors.New("catalog error")
	errTotalOverflow   = errors.New("total overflow")
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(RequireUserHeaders)

		r.Get("/cart", s.getCart)
		r.Post("/cart/items", s.putCartItem)
		r.Delete("/cart/items/{productID}", s.removeCartItem)
		r.Delete("/cart", s.clearCart)
		r.Post("/cart/checkout", s.checkout)

		r.Post("/orders", s.create)
		r.Get("/orders", s.list)
		r.Get("/orders/{id}", s.get)
		r.Post("/orders/{id}/cancel", s.cancel)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	c, err := s.Store.GetCart(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, "get cart failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

type cartItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// putCartItem sets a line quantity; zero or negative removes the line.
func (s *Server) putCartItem(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	var req cartItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	pid := strings.TrimSpace(req.ProductID)
	if pid == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	if req.Qty > 0 {
		if _, err := s.Catalog.GetProduct(r.Context(), pid); err != nil {
			s.writeCatalogError(w, r, err, pid)
			return
		}
	}

	c, err := s.Store.GetCart(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, "get cart failed", err)
		return
	}

	c.Items = setLine(c.Items, pid, req.Qty)
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.PutCart(r.Context(), c); err != nil {
		s.serverError(w, r, "put cart failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func setLine(items []Item, productID string, qty int) []Item {
	out := make([]Item, 0, len(items)+1)
	for _, it := range items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	if qty > 0 {
		out = append(out, Item{ProductID: productID, Qty: qty})
	}
	return out
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	pid := chi.URLParam(r, "productID")

	c, err := s.Store.GetCart(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, "get cart failed", err)
		return
	}

	c.Items = setLine(c.Items, pid, 0)
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.PutCart(r.Context(), c); err != nil {
		s.serverError(w, r, "put cart failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	if err := s.Store.ClearCart(r.Context(), u.ID); err != nil {
		s.serverError(w, r, "clear cart failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	c, err := s.Store.GetCart(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, "get cart failed", err)
		return
	}
	if len(c.Items) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "cart empty", nil)
		return
	}

	o, err := s.placeOrder(r.Context(), u.ID, c.Items)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}

	if err := s.Store.ClearCart(r.Context(), u.ID); err != nil {
		// The order exists; a surviving cart is the lesser failure.
		if s.Log != nil {
			s.Log.Warn("clear cart after checkout failed", zap.Error(err), zap.String("user_id", u.ID))
		}
	}

	kit.WriteJSON(w, http.StatusCreated, o)
}

type createReq struct {
	Items []Item `json:"items"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if len(req.Items) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "items required", nil)
		return
	}

	o, err := s.placeOrder(r.Context(), u.ID, req.Items)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) placeOrder(ctx context.Context, userID string, items []Item) (Order, error) {
	totalCents, err := s.calculateTotal(ctx, items)
	if err != nil {
		return Order{}, err
	}

	o := Order{
		ID:         "o_" + uuid.NewString(),
		UserID:     userID,
		Items:      items,
		TotalCents: totalCents,
		Status:     StatusNew,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	id := chi.URLParam(r, "id")
	o, found, err := s.Store.GetOrder(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "get order failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if o.UserID != u.ID && !u.IsAdmin() {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, o)
}

type pagedOrders struct {
	Orders  []Order `json:"orders"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	q := ListQuery{
		UserID: u.ID,
		Status: r.URL.Query().Get("status"),
		Sort:   r.URL.Query().Get("sort"),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	// Admins may list any user's orders, or all of them.
	if u.IsAdmin() {
		q.UserID = r.URL.Query().Get("user_id")
	}

	orders, total, err := s.Store.ListOrders(r.Context(), q)
	if err != nil {
		s.serverError(w, r, "list orders failed", err)
		return
	}

	q = q.normalized()
	kit.WriteJSON(w, http.StatusOK, pagedOrders{
		Orders:  orders,
		Total:   total,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	id := chi.URLParam(r, "id")
	o, found, err := s.Store.GetOrder(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "get order failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if o.UserID != u.ID && !u.IsAdmin() {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}
	if o.Status != StatusNew {
		kit.WriteError(w, r, http.StatusConflict, "order not cancellable", map[string]any{"status": o.Status})
		return
	}

	if _, err := s.Store.UpdateOrderStatus(r.Context(), id, StatusCancelled); err != nil {
		s.serverError(w, r, "cancel order failed", err)
		return
	}

	o.Status = StatusCancelled
	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) calculateTotal(ctx context.Context, items []Item) (int64, error) {
	seen := make(map[string]struct{}, len(items))
	var total int64

	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if it.Qty <= 0 || pid == "" {
			return 0, errBadItem
		}
		if _, dup := seen[pid]; dup {
			return 0, errDuplicateItem
		}
		seen[pid] = struct{}{}

		p, err := s.Catalog.GetProduct(ctx, pid)
		if err != nil {
			switch err {
			case ErrCatalogNotFound:
				return 0, errInvalidProduct
			case ErrCatalogUnavailable:
				return 0, errCatalogDown
			default:
				if s.Log != nil {
					s.Log.Warn("catalog error", zap.Error(err), zap.String("product_id", pid))
				}
				return 0, errCatalogUpstream
			}
		}

		line := p.PriceCents * int64(it.Qty)
		if line < 0 || total > math.MaxInt64-line {
			return 0, errTotalOverflow
		}
		total += line
	}

	return total, nil
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case errBadItem:
		kit.WriteError(w, r, http.StatusBadRequest, "bad item", nil)
	case errDuplicateItem:
		kit.WriteError(w, r, http.StatusBadRequest, "duplicate product_id", nil)
	case errInvalidProduct:
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product_id", nil)
	case errCatalogDown:
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errCatalogUpstream:
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	case errTotalOverflow:
		kit.WriteError(w, r, http.StatusBadRequest, "total overflow", nil)
	default:
		if isTimeoutErr(err) {
			kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
			return
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error, pid string) {
	switch err {
	case ErrCatalogNotFound:
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product_id", map[string]any{"product_id": pid})
	case ErrCatalogUnavailable:
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	default:
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
