package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lavilleavelo/carte-velo-lyon/internal/config"
	"github.com/lavilleavelo/carte-velo-lyon/internal/db"
	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
	"github.com/lavilleavelo/carte-velo-lyon/internal/pipeline"
	"github.com/lavilleavelo/carte-velo-lyon/internal/source"
)

var rootCmd = &cobra.Command{
	Use:   "voies",
	Short: "Consolidate the Voies Lyonnaises cycle lines",
	Long: `voies fetches the per-line geometries of the Voies Lyonnaises network,
detects the sections shared by several lines, and serves or exports the
annotated datasets together with their shield icons.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Printf("Config loaded: network=%q lines=%d refresh=%v", cfg.Network.Name, cfg.Network.TotalLines, cfg.RefreshInterval)
	return cfg, nil
}

// openRunLog opens the run log. The service keeps working without one.
func openRunLog(ctx context.Context, cfg *config.Config) db.Store {
	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Printf("Warning: run log unavailable, continuing without it: %v", err)
		return nil
	}
	return store
}

func newPipeline(cfg *config.Config, store db.Store) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Fetcher:    source.NewClient(cfg.Network.SourceURL, cfg.FetchTimeout),
		TotalLines: cfg.Network.TotalLines,
		Palette:    cfg.Network.LinePalette(),
		Store:      store,
	}
}

// runFromInput assembles a JSON object of per-line collections read from
// path, or fetches upstream when path is empty.
func runFromInput(ctx context.Context, p *pipeline.Pipeline, path string) (*pipeline.Dataset, error) {
	if path == "" {
		return p.Run(ctx)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	sources, err := lines.DecodeSources(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return p.RunSources(ctx, sources)
}
