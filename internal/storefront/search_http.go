package storefront

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"SkinStore/internal/search"
	"SkinStore/pkg/kit"
)

const sidCookie = "sid"

// SearchAPI serves suggestions from the in-memory catalog snapshot and keeps
// per-visitor recent-search lists. Logged-in users keep their history across
// devices; anonymous visitors are keyed by a session cookie.
type SearchAPI struct {
	Snapshot *search.Snapshot
	Catalog  search.Fetcher
	Recents  search.Store
	Metrics  *SearchMetrics
	Emitter  *Emitter
	Log      *zap.Logger
}

func (a *SearchAPI) Routes(r chi.Router) {
	r.Get("/suggest", a.suggest)
	r.Get("/searches/recent", a.listRecent)
	r.Post("/searches/recent", a.commit)
	r.Delete("/searches/recent", a.clearRecent)
}

type suggestResp struct {
	Query     string              `json:"query"`
	Brands    []search.Suggestion `json:"brands"`
	Products  []search.Suggestion `json:"products"`
	NoResults bool                `json:"no_results"`
}

func (a *SearchAPI) suggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// The catalog is pulled whole on the first lookup and reused for the
	// life of the process; a failed pull leaves an empty snapshot.
	if !a.Snapshot.Loaded() {
		a.Snapshot.Load(r.Context(), a.Catalog, a.Log)
		a.Metrics.SetSnapshotSize(a.Snapshot.Len())
	}

	query := search.Normalize(r.URL.Query().Get("q"))
	hits := search.Match(a.Snapshot.Products(), query)

	resp := suggestResp{
		Query:    query,
		Brands:   []search.Suggestion{},
		Products: []search.Suggestion{},
	}
	for _, h := range hits {
		if h.Kind == search.KindBrand {
			resp.Brands = append(resp.Brands, h)
		} else {
			resp.Products = append(resp.Products, h)
		}
	}

	outcome := "results"
	if len(hits) == 0 {
		if search.Searchable(query) {
			resp.NoResults = true
			outcome = "none"
		} else {
			outcome = "short"
		}
	}

	a.Metrics.ObserveSuggest(outcome, time.Since(start))
	kit.WriteJSON(w, http.StatusOK, resp)
}

type recentResp struct {
	Searches []string `json:"searches"`
}

func (a *SearchAPI) listRecent(w http.ResponseWriter, r *http.Request) {
	owner := a.owner(w, r)
	h := search.LoadHistory(a.Recents, owner)
	kit.WriteJSON(w, http.StatusOK, recentResp{Searches: h.Entries()})
}

type commitReq struct {
	Query string `json:"query"`
}

func (a *SearchAPI) commit(w http.ResponseWriter, r *http.Request) {
	var req commitReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	query := search.Normalize(req.Query)
	if query == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "query required", nil)
		return
	}

	owner := a.owner(w, r)
	h := search.LoadHistory(a.Recents, owner)
	h.Record(query)

	a.Metrics.IncCommitted()
	a.Emitter.EmitCommitted(r.Context(), owner, query)

	kit.WriteJSON(w, http.StatusOK, recentResp{Searches: h.Entries()})
}

func (a *SearchAPI) clearRecent(w http.ResponseWriter, r *http.Request) {
	owner := a.owner(w, r)
	search.LoadHistory(a.Recents, owner).Clear()
	w.WriteHeader(http.StatusNoContent)
}

// owner keys histories by user ID when authenticated, else by a session
// cookie issued on first use.
func (a *SearchAPI) owner(w http.ResponseWriter, r *http.Request) string {
	if uid, ok := UserIDFromContext(r.Context()); ok && uid != "" {
		return "u:" + uid
	}

	if c, err := r.Cookie(sidCookie); err == nil && c.Value != "" {
		return "s:" + c.Value
	}

	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return "s:" + sid
}
