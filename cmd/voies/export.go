package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lavilleavelo/carte-velo-lyon/internal/static"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the per-line GeoJSON, shields and manifest to disk",
	Long: `Export assembles the network and writes lines/<n>.geojson,
features.geojson, summary.json, shields/*.png and manifest.json. Without
--force nothing happens while the existing manifest is still fresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		input, _ := cmd.Flags().GetString("input")
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if output == "" {
			output = cfg.OutputDir
		}

		ctx := context.Background()
		runLog := openRunLog(ctx, cfg)
		if runLog != nil {
			defer runLog.Close()
		}
		p := newPipeline(cfg, runLog)

		if !force && input == "" {
			refreshed, err := static.RefreshIfStale(ctx, p, output, time.Duration(cfg.StaticRefreshHours)*time.Hour)
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			if refreshed {
				fmt.Printf("Exported Voies Lyonnaises data to %s\n", output)
			}
			return nil
		}

		ds, err := runFromInput(ctx, p, input)
		if err != nil {
			return err
		}
		manifest, err := static.Export(ds, output)
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		fmt.Printf("Exported %d lines and %d composite icons to %s\n", len(manifest.Lines), len(manifest.CompositeIcons), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output directory (default VL_OUTPUT_DIR)")
	exportCmd.Flags().StringP("input", "i", "", "JSON file of per-line collections keyed by line number, instead of fetching")
	exportCmd.Flags().BoolP("force", "f", false, "Export even if the manifest is fresh")
}
