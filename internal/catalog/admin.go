package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"SkinStore/pkg/kit"
)

// Identity headers are injected by the storefront after JWT validation.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerUserID) == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
			return
		}
		if r.Header.Get(headerUserRole) != roleAdmin {
			kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type productReq struct {
	Name       string   `json:"name"`
	BrandID    string   `json:"brand_id"`
	BrandName  string   `json:"brand_name"`
	PriceCents int64    `json:"price_cents"`
	ImageURLs  []string `json:"image_urls"`
	Quantity   int      `json:"quantity"`
}

func (req productReq) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name required")
	}
	if strings.TrimSpace(req.BrandID) == "" || strings.TrimSpace(req.BrandName) == "" {
		return errors.New("brand_id/brand_name required")
	}
	if req.PriceCents < 0 {
		return errors.New("price_cents must be non-negative")
	}
	if req.Quantity < 0 {
		return errors.New("quantity must be non-negative")
	}
	return nil
}

func (req productReq) product(id string) Product {
	return Product{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Brand:      Brand{ID: strings.TrimSpace(req.BrandID), Name: strings.TrimSpace(req.BrandName)},
		PriceCents: req.PriceCents,
		ImageURLs:  req.ImageURLs,
		Quantity:   req.Quantity,
	}
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	p := req.product("p_" + uuid.NewString())
	if err := s.Store.CreateProduct(r.Context(), p); err != nil {
		if errors.Is(err, ErrExists) {
			kit.WriteError(w, r, http.StatusConflict, "already exists", nil)
			return
		}
		s.serverError(w, r, "create product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	p := req.product(id)
	found, err := s.Store.UpdateProduct(r.Context(), p)
	if err != nil {
		s.serverError(w, r, "update product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := s.Store.DeleteProduct(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "delete product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type questionReq struct {
	Prompt   string       `json:"prompt"`
	Position int          `json:"position"`
	Options  []QuizOption `json:"options"`
}

func (req questionReq) validate() error {
	if strings.TrimSpace(req.Prompt) == "" {
		return errors.New("prompt required")
	}
	for _, o := range req.Options {
		if strings.TrimSpace(o.Label) == "" {
			return errors.New("option label required")
		}
	}
	return nil
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	q := QuizQuestion{
		ID:       "q_" + uuid.NewString(),
		Prompt:   strings.TrimSpace(req.Prompt),
		Position: req.Position,
		Options:  req.Options,
	}
	if err := s.Store.CreateQuestion(r.Context(), q); err != nil {
		if errors.Is(err, ErrExists) {
			kit.WriteError(w, r, http.StatusConflict, "already exists", nil)
			return
		}
		s.serverError(w, r, "create question failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, q)
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req questionReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	q := QuizQuestion{
		ID:       id,
		Prompt:   strings.TrimSpace(req.Prompt),
		Position: req.Position,
		Options:  req.Options,
	}
	found, err := s.Store.UpdateQuestion(r.Context(), q)
	if err != nil {
		s.serverError(w, r, "update question failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, q)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := s.Store.DeleteQuestion(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "delete question failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type skinTypeReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createSkinType(w http.ResponseWriter, r *http.Request) {
	var req skinTypeReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "name required", nil)
		return
	}

	st := SkinType{
		ID:          "st_" + uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.Store.CreateSkinType(r.Context(), st); err != nil {
		if errors.Is(err, ErrExists) {
			kit.WriteError(w, r, http.StatusConflict, "already exists", nil)
			return
		}
		s.serverError(w, r, "create skin type failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, st)
}
