package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"SkinStore/internal/search"
	"SkinStore/internal/storefront"
	"SkinStore/internal/storefront/config"
	"SkinStore/pkg/kit"
)

func main() {
	service := "storefront"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	var recents search.Store
	if cfg.RecentsPath != "" {
		recents = search.NewFileStore(cfg.RecentsPath)
	}

	emitter, err := storefront.NewEmitter(cfg.Analytics.SeedBrokers, cfg.Analytics.Topic, log)
	if err != nil {
		log.Fatal("init analytics emitter failed", zap.Error(err))
	}
	defer emitter.Close()

	h, err := storefront.NewHandler(
		storefront.Deps{
			AuthURL:    cfg.AuthURL,
			CatalogURL: cfg.CatalogURL,
			OrderURL:   cfg.OrderURL,
			JWTSecret:  cfg.JWTSecret,
			Recents:    recents,
			Emitter:    emitter,
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       prometheus.NewRegistry(),
			MetricsEnabled: cfg.MetricsEnabled,
			MetricsToken:   cfg.MetricsToken,
		},
	)
	if err != nil {
		log.Fatal("init storefront handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(cfg.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
