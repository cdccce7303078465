package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/liquidaciones/internal/config"
	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	liqHttp "github.com/MrJamesThe3rd/liquidaciones/internal/http"
	exportHandler "github.com/MrJamesThe3rd/liquidaciones/internal/http/export"
	settlementHandler "github.com/MrJamesThe3rd/liquidaciones/internal/http/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/cabal"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/nacion"
	"github.com/MrJamesThe3rd/liquidaciones/internal/metrics"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rules, err := cfg.Rules()
	if err != nil {
		slog.Error("failed to build parser rules", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	collector := metrics.New(reg)

	var (
		settlementService = settlement.NewService(store.New(),
			settlement.WithKeepPartial(cfg.Session.KeepPartial),
			settlement.WithSizeObserver(collector),
		)
		importService = importer.NewService(
			importer.WithCabal(cabal.New(cabal.WithRules(rules), cabal.WithLogger(slog.Default()))),
			importer.WithNacion(nacion.New(nacion.WithLogger(slog.Default()))),
			importer.WithObserver(collector),
		)
		exportService = export.NewService(settlementService)
	)

	var (
		settlementH = settlementHandler.NewHandler(importService, settlementService, exportService, cfg.Server.UploadMaxBytes)
		exportH     = exportHandler.NewHandler(exportService)
	)

	router := liqHttp.New(settlementH, exportH, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "addr", server.Addr, "fee_policy", rules.Policy())

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
