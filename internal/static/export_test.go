package static

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
	"github.com/lavilleavelo/carte-velo-lyon/internal/pipeline"
	"github.com/lavilleavelo/carte-velo-lyon/internal/source"
)

type staticFetcher struct {
	calls int
}

func (f *staticFetcher) FetchAll(ctx context.Context, totalLines int) (map[int]*geojson.FeatureCollection, []source.Outcome) {
	f.calls++

	segment := func(coords ...orb.Point) *geojson.Feature {
		feature := geojson.NewFeature(orb.LineString(coords))
		feature.Properties["id"] = "S1"
		return feature
	}
	line1 := geojson.NewFeatureCollection()
	line1.Append(segment(orb.Point{4.84, 45.76}, orb.Point{4.83, 45.75}))
	line2 := geojson.NewFeatureCollection()
	line2.Append(segment(orb.Point{4.83, 45.75}, orb.Point{4.84, 45.76}))

	return map[int]*geojson.FeatureCollection{1: line1, 2: line2}, []source.Outcome{
		{Line: 1, Status: source.StatusOK, Features: 1},
		{Line: 2, Status: source.StatusOK, Features: 1},
	}
}

func writeManifest(t *testing.T, path string, generatedAt string) {
	t.Helper()
	data, err := json.Marshal(Manifest{GeneratedAt: generatedAt, Version: ManifestVersion})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestIsStaleOrMissing_MissingFile(t *testing.T) {
	assert.True(t, IsStaleOrMissing(filepath.Join(t.TempDir(), "manifest.json"), time.Hour))
}

func TestIsStaleOrMissing_FreshManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	writeManifest(t, path, time.Now().UTC().Format(time.RFC3339))
	assert.False(t, IsStaleOrMissing(path, time.Hour))
}

func TestIsStaleOrMissing_StaleManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	writeManifest(t, path, time.Now().Add(-48*time.Hour).UTC().Format(time.RFC3339))
	assert.True(t, IsStaleOrMissing(path, 24*time.Hour))
}

func TestIsStaleOrMissing_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{invalid json"), 0644))
	assert.True(t, IsStaleOrMissing(path, time.Hour))
}

func TestIsStaleOrMissing_BadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	writeManifest(t, path, "yesterday")
	assert.True(t, IsStaleOrMissing(path, time.Hour))
}

func TestExport(t *testing.T) {
	p := &pipeline.Pipeline{Fetcher: &staticFetcher{}, TotalLines: 2, Palette: lines.DefaultPalette}
	ds, err := p.Run(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	manifest, err := Export(ds, dir)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, manifest.Lines)
	assert.Equal(t, []string{"1-2"}, manifest.CompositeIcons)
	// 2 lines + features + summary + 3 shields
	assert.Len(t, manifest.Files, 7)

	for _, rel := range []string{
		"lines/1.geojson", "lines/2.geojson", "features.geojson", "summary.json",
		"shields/line-shield-1.png", "shields/line-shield-2.png", "shields/line-shield-1-2.png",
		"manifest.json",
	} {
		assert.FileExists(t, filepath.Join(dir, rel))
	}

	data, err := os.ReadFile(filepath.Join(dir, "lines", "2.geojson"))
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "1-2", fc.Features[0].Properties["compositeIconName"])
	assert.EqualValues(t, 2, fc.Features[0].Properties["line"])

	assert.False(t, IsStaleOrMissing(filepath.Join(dir, "manifest.json"), time.Hour))
}

func TestRefreshIfStale(t *testing.T) {
	fetcher := &staticFetcher{}
	p := &pipeline.Pipeline{Fetcher: fetcher, TotalLines: 2, Palette: lines.DefaultPalette}
	dir := t.TempDir()

	refreshed, err := RefreshIfStale(context.Background(), p, dir, time.Hour)
	require.NoError(t, err)
	assert.True(t, refreshed)

	refreshed, err = RefreshIfStale(context.Background(), p, dir, time.Hour)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 1, fetcher.calls)
}
