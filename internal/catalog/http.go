package catalog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"SkinStore/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)

	r.Get("/brands", s.listBrands)
	r.Get("/brands/{id}", s.getBrand)
	r.Get("/brands/{id}/products", s.listBrandProducts)

	r.Get("/quiz/questions", s.listQuestions)
	r.Get("/quiz/skin-types", s.listSkinTypes)

	r.Group(func(ar chi.Router) {
		ar.Use(RequireAdmin)
		ar.Post("/products", s.createProduct)
		ar.Put("/products/{id}", s.updateProduct)
		ar.Delete("/products/{id}", s.deleteProduct)
		ar.Post("/quiz/questions", s.createQuestion)
		ar.Put("/quiz/questions/{id}", s.updateQuestion)
		ar.Delete("/quiz/questions/{id}", s.deleteQuestion)
		ar.Post("/quiz/skin-types", s.createSkinType)
	})

	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListProducts(r.Context())
	if err != nil {
		s.serverError(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok, err := s.Store.GetProduct(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "get product failed", err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.Store.ListBrands(r.Context())
	if err != nil {
		s.serverError(w, r, "list brands failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, brands)
}

func (s *Server) getBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, ok, err := s.Store.GetBrand(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "get brand failed", err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) listBrandProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	all, err := s.Store.ListProducts(r.Context())
	if err != nil {
		s.serverError(w, r, "list brand products failed", err)
		return
	}

	out := make([]Product, 0, 8)
	for _, p := range all {
		if p.Brand.ID == id {
			out = append(out, p)
		}
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

type pagedQuestions struct {
	Questions []QuizQuestion `json:"questions"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PerPage   int            `json:"per_page"`
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	questions, total, err := s.Store.ListQuestions(r.Context(), params)
	if err != nil {
		s.serverError(w, r, "list questions failed", err)
		return
	}

	params = params.normalized()
	kit.WriteJSON(w, http.StatusOK, pagedQuestions{
		Questions: questions,
		Total:     total,
		Page:      params.Page,
		PerPage:   params.PerPage,
	})
}

func (s *Server) listSkinTypes(w http.ResponseWriter, r *http.Request) {
	skinTypes, err := s.Store.ListSkinTypes(r.Context())
	if err != nil {
		s.serverError(w, r, "list skin types failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, skinTypes)
}

func listParamsFromQuery(r *http.Request) ListParams {
	var p ListParams
	p.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	p.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	p.Sort = r.URL.Query().Get("sort")
	return p
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
