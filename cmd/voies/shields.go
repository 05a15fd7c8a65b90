package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/lavilleavelo/carte-velo-lyon/internal/shield"
	"github.com/lavilleavelo/carte-velo-lyon/internal/transport"
)

var shieldsCmd = &cobra.Command{
	Use:   "shields",
	Short: "Render the line shields, and optionally transit network shields, to PNG files",
	Long: `Shields renders the single-line shields and every composite shield used
by the assembled network. --bus and --network add shields for a bus or
transit network GeoJSON file; the styled collection is written next to
the icons.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		input, _ := cmd.Flags().GetString("input")
		busFile, _ := cmd.Flags().GetString("bus")
		networkFile, _ := cmd.Flags().GetString("network")
		prefix, _ := cmd.Flags().GetString("prefix")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ds, err := runFromInput(context.Background(), newPipeline(cfg, nil), input)
		if err != nil {
			return err
		}
		atlas := ds.Atlas

		if err := os.MkdirAll(output, 0755); err != nil {
			return err
		}

		if busFile != "" {
			if err := styleTransport(atlas, busFile, "bus", output, transport.ProcessBusData); err != nil {
				return err
			}
		}
		if networkFile != "" {
			if err := styleTransport(atlas, networkFile, prefix, output, transport.ProcessTransportData); err != nil {
				return err
			}
		}

		for _, id := range atlas.IDs() {
			var buf bytes.Buffer
			if err := atlas.WritePNG(&buf, id); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(output, id+".png"), buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", id, err)
			}
		}

		fmt.Printf("Rendered %d shields to %s\n", atlas.Len(), output)
		return nil
	},
}

func styleTransport(atlas *shield.MemoryAtlas, path, prefix, output string, process func([]*geojson.Feature) *geojson.FeatureCollection) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	styled := process(fc.Features)
	if _, err := shield.LoadTransportShieldIcons(atlas, styled.Features, prefix); err != nil {
		return err
	}

	out, err := json.MarshalIndent(styled, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(output, prefix+".geojson"), out, 0644)
}

func init() {
	rootCmd.AddCommand(shieldsCmd)

	shieldsCmd.Flags().StringP("output", "o", "shields", "Output directory")
	shieldsCmd.Flags().StringP("input", "i", "", "JSON file of per-line collections keyed by line number, instead of fetching")
	shieldsCmd.Flags().String("bus", "", "Bus network GeoJSON (\"ligne\" property)")
	shieldsCmd.Flags().String("network", "", "Transit network GeoJSON (\"ligne\" and \"couleur\" properties)")
	shieldsCmd.Flags().String("prefix", "tcl", "Icon id prefix for --network shields")
}
