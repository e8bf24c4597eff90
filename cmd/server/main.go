package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pdfoutline/internal/api"
	"github.com/dgallion1/pdfoutline/internal/classifier"
	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/heading"
	"github.com/dgallion1/pdfoutline/internal/pipeline"
	"github.com/dgallion1/pdfoutline/internal/stats"
	"github.com/dgallion1/pdfoutline/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	thresholds, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		log.Error("invalid heuristics", "path", cfg.HeuristicsFile, "error", err)
		os.Exit(1)
	}

	var opts []heading.Option
	if cfg.ModelPath != "" {
		clf, err := classifier.Load(cfg.ModelPath, cfg.EncoderPath, log)
		if err != nil {
			log.Error("failed to load classifier", "path", cfg.ModelPath, "error", err)
			os.Exit(1)
		}
		opts = append(opts, heading.WithLabeler(clf))
	}
	extractor := heading.NewExtractor(thresholds, log, opts...)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open outline store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, extractor, st, stats.NewExtraction(cfg.StatsWindow), log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		st.Close()
	}()

	log.Info("starting outline service",
		"port", cfg.Port,
		"method", extractor.Method(),
		"workers", cfg.WorkerCount,
		"db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
