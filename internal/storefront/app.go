package storefront

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"SkinStore/internal/auth"
	"SkinStore/internal/search"
	"SkinStore/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	AuthURL    string
	CatalogURL string
	OrderURL   string
	JWTSecret  string

	// Recents persists recent-search lists; nil falls back to memory.
	Recents search.Store
	// Emitter publishes committed searches; nil drops them.
	Emitter *Emitter
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	authProxy, catalogProxy, orderProxy, err := buildProxies(deps, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	jwt := auth.NewTokenMaker(deps.JWTSecret)

	recents := deps.Recents
	if recents == nil {
		recents = search.NewMemStore()
	}

	searchAPI := &SearchAPI{
		Snapshot: search.NewSnapshot(),
		Catalog:  NewCatalogClient(deps.CatalogURL),
		Recents:  recents,
		Metrics:  NewSearchMetrics(httpDeps.Registry),
		Emitter:  deps.Emitter,
		Log:      httpDeps.Log,
	}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.Handle("/auth", authProxy)
	r.Handle("/auth/*", authProxy)

	for _, prefix := range []string{"/products", "/brands", "/quiz"} {
		r.Handle(prefix, catalogHandler(jwt, catalogProxy))
		r.Handle(prefix+"/*", catalogHandler(jwt, catalogProxy))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(jwt), InjectHeaders)
		pr.Handle("/cart", orderProxy)
		pr.Handle("/cart/*", orderProxy)
		pr.Handle("/orders", orderProxy)
		pr.Handle("/orders/*", orderProxy)
	})

	r.Group(func(sr chi.Router) {
		sr.Use(OptionalJWT(jwt))
		searchAPI.Routes(sr)
	})

	return r, nil
}

// catalogHandler lets admin tokens reach the catalog's write endpoints while
// anonymous reads pass straight through. Client-supplied identity headers
// are stripped either way.
func catalogHandler(jwt *auth.TokenMaker, proxy http.Handler) http.Handler {
	chain := InjectHeaders(proxy)
	return OptionalJWT(jwt)(chain)
}

func buildProxies(deps Deps, log *zap.Logger) (authProxy, catalogProxy, orderProxy http.Handler, err error) {
	ap, err := NewReverseProxy(deps.AuthURL, log)
	if err != nil {
		return nil, nil, nil, err
	}

	cp, err := NewReverseProxy(deps.CatalogURL, log)
	if err != nil {
		return nil, nil, nil, err
	}

	op, err := NewReverseProxy(deps.OrderURL, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return ap, cp, op, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	checks := []struct {
		name string
		url  string
	}{
		{"auth", deps.AuthURL + "/readyz"},
		{"catalog", deps.CatalogURL + "/readyz"},
		{"order", deps.OrderURL + "/readyz"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, c := range checks {
			if err := checkReady(ctx, c.url); err != nil {
				if log != nil {
					log.Warn("readyz failed: "+c.name, zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, c.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
