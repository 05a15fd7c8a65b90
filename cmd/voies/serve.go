package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lavilleavelo/carte-velo-lyon/internal/api"
	"github.com/lavilleavelo/carte-velo-lyon/internal/config"
	"github.com/lavilleavelo/carte-velo-lyon/internal/db"
	"github.com/lavilleavelo/carte-velo-lyon/internal/pipeline"
	"github.com/lavilleavelo/carte-velo-lyon/internal/static"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assembled datasets over HTTP, refreshing them periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runLog := openRunLog(ctx, cfg)
		if runLog != nil {
			defer runLog.Close()
		}

		p := newPipeline(cfg, runLog)
		datasets := api.NewDatasetStore()

		// Initial run immediately
		log.Println("Running initial assembly...")
		refreshOnce(ctx, p, datasets, runLog, cfg)

		go func() {
			ticker := time.NewTicker(cfg.RefreshInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					refreshOnce(ctx, p, datasets, runLog, cfg)
				case <-ctx.Done():
					log.Println("Refresh loop stopped")
					return
				}
			}
		}()

		handler := api.NewHandler(datasets, runLog, cfg.RefreshInterval)
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           api.NewRouter(handler, cfg.CORSAllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("API server starting on :%s", cfg.Port)
			for _, route := range api.Routes() {
				log.Printf("  %s", route)
			}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: graceful shutdown failed: %v", err)
		}
		log.Println("Goodbye!")
		return nil
	},
}

func refreshOnce(ctx context.Context, p *pipeline.Pipeline, datasets *api.DatasetStore, runLog db.Store, cfg *config.Config) {
	ds, err := p.Run(ctx)
	if err != nil {
		log.Printf("Assembly error: %v", err)
		return
	}
	datasets.Set(ds)

	manifest := filepath.Join(cfg.OutputDir, "manifest.json")
	if static.IsStaleOrMissing(manifest, time.Duration(cfg.StaticRefreshHours)*time.Hour) {
		if _, err := static.Export(ds, cfg.OutputDir); err != nil {
			log.Printf("Static export error: %v", err)
		}
	}

	if runLog != nil {
		if err := runLog.Cleanup(ctx, cfg.RetentionDuration); err != nil {
			log.Printf("Cleanup error: %v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
