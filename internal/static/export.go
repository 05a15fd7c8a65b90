package static

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lavilleavelo/carte-velo-lyon/internal/pipeline"
)

// ManifestVersion is bumped when the exported layout changes
const ManifestVersion = "1.0"

// Manifest represents the manifest.json structure
type Manifest struct {
	GeneratedAt    string      `json:"generated_at"`
	Version        string      `json:"version"`
	RunID          string      `json:"run_id,omitempty"`
	Lines          []int       `json:"lines"`
	CompositeIcons []string    `json:"composite_icons"`
	Files          []FileEntry `json:"files,omitempty"`
}

// FileEntry describes one exported file
type FileEntry struct {
	Type   string `json:"type"`
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	SHA256 string `json:"sha256"`
}

// Export writes a dataset under outputDir:
//
//	lines/<n>.geojson   one collection per line
//	features.geojson    the flat annotated list
//	summary.json        per-line statistics
//	shields/<id>.png    every atlas image
//	manifest.json       written last
func Export(ds *pipeline.Dataset, outputDir string) (*Manifest, error) {
	linesDir := filepath.Join(outputDir, "lines")
	shieldsDir := filepath.Join(outputDir, "shields")
	for _, dir := range []string{linesDir, shieldsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{
		GeneratedAt:    ds.GeneratedAt.UTC().Format(time.RFC3339),
		Version:        ManifestVersion,
		RunID:          ds.RunID,
		Lines:          ds.Result.Lines(),
		CompositeIcons: ds.Result.CompositeIcons(),
	}
	if manifest.CompositeIcons == nil {
		manifest.CompositeIcons = []string{}
	}

	for _, line := range manifest.Lines {
		rel := "lines/" + strconv.Itoa(line) + ".geojson"
		sum, err := writeJSON(filepath.Join(outputDir, rel), ds.Result.Grouped[line])
		if err != nil {
			return nil, fmt.Errorf("failed to write line %d: %w", line, err)
		}
		manifest.Files = append(manifest.Files, FileEntry{Type: "line", Path: rel, Line: line, SHA256: sum})
	}

	sum, err := writeJSON(filepath.Join(outputDir, "features.geojson"), ds.Result.FlatCollection())
	if err != nil {
		return nil, fmt.Errorf("failed to write features: %w", err)
	}
	manifest.Files = append(manifest.Files, FileEntry{Type: "features", Path: "features.geojson", SHA256: sum})

	sum, err = writeJSON(filepath.Join(outputDir, "summary.json"), ds.Summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	manifest.Files = append(manifest.Files, FileEntry{Type: "summary", Path: "summary.json", SHA256: sum})

	for _, id := range ds.Atlas.IDs() {
		var buf bytes.Buffer
		if err := ds.Atlas.WritePNG(&buf, id); err != nil {
			return nil, fmt.Errorf("failed to encode shield %s: %w", id, err)
		}
		rel := "shields/" + id + ".png"
		if err := os.WriteFile(filepath.Join(outputDir, rel), buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("failed to write shield %s: %w", id, err)
		}
		manifest.Files = append(manifest.Files, FileEntry{Type: "shield", Path: rel, SHA256: sha256Sum(buf.Bytes())})
	}

	if _, err := writeJSON(filepath.Join(outputDir, "manifest.json"), manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	log.Printf("Static: exported %d lines and %d shields to %s", len(manifest.Lines), ds.Atlas.Len(), outputDir)
	return manifest, nil
}

// RefreshIfStale runs the pipeline and exports its dataset when the
// manifest under outputDir is missing or older than maxAge. Returns whether
// a refresh happened.
func RefreshIfStale(ctx context.Context, p *pipeline.Pipeline, outputDir string, maxAge time.Duration) (bool, error) {
	if !IsStaleOrMissing(filepath.Join(outputDir, "manifest.json"), maxAge) {
		log.Println("Static data is fresh, skipping refresh")
		return false, nil
	}

	log.Println("Refreshing Voies Lyonnaises static data...")
	ds, err := p.Run(ctx)
	if err != nil {
		return false, err
	}
	if _, err := Export(ds, outputDir); err != nil {
		return false, err
	}
	return true, nil
}

// IsStaleOrMissing reports whether the manifest needs regenerating
func IsStaleOrMissing(manifestPath string, maxAge time.Duration) bool {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		// File doesn't exist or can't be read
		return true
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return true
	}

	generatedAt, err := time.Parse(time.RFC3339, manifest.GeneratedAt)
	if err != nil {
		return true
	}

	return time.Since(generatedAt) > maxAge
}

func writeJSON(path string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return sha256Sum(data), nil
}

func sha256Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
