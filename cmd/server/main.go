package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brandlane/brandlane/studio-go/internal/asset"
	"github.com/brandlane/brandlane/studio-go/internal/config"
	"github.com/brandlane/brandlane/studio-go/internal/document"
	documentapi "github.com/brandlane/brandlane/studio-go/internal/document/api"
	"github.com/brandlane/brandlane/studio-go/internal/export"
	"github.com/brandlane/brandlane/studio-go/internal/intent"
	"github.com/brandlane/brandlane/studio-go/internal/logger"
	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	mw "github.com/brandlane/brandlane/studio-go/internal/middleware"
	"github.com/brandlane/brandlane/studio-go/internal/session"
	"github.com/brandlane/brandlane/studio-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New(prometheus.DefaultRegisterer)

	repo := document.NewRepository(st, log)
	documentHandler := documentapi.NewHandler(repo, log, m, cfg.MaxNestDepth)

	saver := session.NewSaver(st, log, m)
	go saver.Run(ctx)

	preview := session.NewPreview(log)
	manager := session.NewManager(st, saver, preview, log, m)
	sessionHandler := session.NewHandler(manager, log, m, cfg.Origins())

	exportHandler := export.NewHandler(log, m)
	intentHandler := intent.NewHandler(log, m)

	assets, err := asset.NewStore(cfg.AssetsDir)
	if err != nil {
		log.Error().Err(err).Msg("open asset store")
		os.Exit(1)
	}
	assetHandler := asset.NewHandler(assets, log)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log))
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Documents
	api.HandleFunc("/documents", documentHandler.List).Methods("GET")
	api.HandleFunc("/documents", documentHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/documents/validate", documentHandler.Validate).Methods("POST", "OPTIONS")
	api.HandleFunc("/documents/{documentId}", documentHandler.Get).Methods("GET")
	api.HandleFunc("/documents/{documentId}", documentHandler.Update).Methods("PATCH")
	api.HandleFunc("/documents/{documentId}", documentHandler.Delete).Methods("DELETE")
	api.HandleFunc("/documents/{documentId}/snapshots", documentHandler.Snapshot).Methods("POST")
	api.HandleFunc("/snapshots/{snapshotId}", documentHandler.GetSnapshot).Methods("GET")

	// Editing sessions
	api.HandleFunc("/documents/{documentId}/session", sessionHandler.Open).Methods("POST")
	api.HandleFunc("/documents/{documentId}/session", sessionHandler.Close).Methods("DELETE")
	api.HandleFunc("/documents/{documentId}/scene", sessionHandler.GetScene).Methods("GET")
	api.HandleFunc("/documents/{documentId}/scene", sessionHandler.ReplaceScene).Methods("PUT")
	api.HandleFunc("/documents/{documentId}/patches", sessionHandler.SubmitPatch).Methods("POST")
	api.HandleFunc("/documents/{documentId}/undo", sessionHandler.Undo).Methods("POST")
	api.HandleFunc("/documents/{documentId}/redo", sessionHandler.Redo).Methods("POST")
	api.HandleFunc("/documents/{documentId}/translate", sessionHandler.Translate).Methods("POST")
	api.HandleFunc("/documents/{documentId}/save", sessionHandler.Save).Methods("POST")
	api.HandleFunc("/documents/{documentId}/snapshot", sessionHandler.Snapshot).Methods("POST")

	// Compile & export
	api.HandleFunc("/compile", intentHandler.Compile).Methods("POST", "OPTIONS")
	api.HandleFunc("/export/{format}", exportHandler.Export).Methods("POST", "OPTIONS")

	// Image uploads for layer assetRef and brand kit logoRef
	api.HandleFunc("/assets", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Live preview
	r.HandleFunc("/ws/documents/{documentId}/preview", sessionHandler.Preview)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		cancel()
	}()

	log.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case "sqlite":
		sq, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sq.Init(ctx); err != nil {
			sq.Close()
			return nil, nil, err
		}
		return sq, func() { sq.Close() }, nil

	case "memory":
		return store.NewMemory(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
