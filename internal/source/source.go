package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

// Status of a single line fetch.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Client downloads per-line GeoJSON collections. The template holds a %d
// placeholder for the line number and is either an http(s) URL or a local
// file path.
type Client struct {
	httpClient *http.Client
	template   string
}

// NewClient creates a client with the given request timeout.
func NewClient(template string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		template:   template,
	}
}

// Location returns the URL or path of a line.
func (c *Client) Location(line int) string {
	return fmt.Sprintf(c.template, line)
}

// FetchLine downloads and decodes the collection of one line.
func (c *Client) FetchLine(ctx context.Context, line int) (*geojson.FeatureCollection, error) {
	data, err := c.fetch(ctx, c.Location(line))
	if err != nil {
		return nil, err
	}

	fc, err := lines.DecodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode line %d: %w", line, err)
	}
	return fc, nil
}

func (c *Client) fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", location, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, location)
	}

	return io.ReadAll(resp.Body)
}

// Outcome records how the fetch of one line went.
type Outcome struct {
	Line     int
	Status   string
	Features int
	Err      error
}

// FetchAll fetches lines 1..totalLines concurrently. A line that fails is
// logged and left out of the returned map; it never fails the others.
// Outcomes are ordered by line number.
func (c *Client) FetchAll(ctx context.Context, totalLines int) (map[int]*geojson.FeatureCollection, []Outcome) {
	if totalLines < 1 {
		return map[int]*geojson.FeatureCollection{}, nil
	}

	collections := make([]*geojson.FeatureCollection, totalLines)
	outcomes := make([]Outcome, totalLines)

	var g errgroup.Group
	g.SetLimit(totalLines)
	for i := 0; i < totalLines; i++ {
		line := i + 1
		g.Go(func() error {
			fc, err := c.FetchLine(ctx, line)
			if err != nil {
				log.Printf("Warning: failed to fetch line %d: %v", line, err)
				outcomes[line-1] = Outcome{Line: line, Status: StatusFailed, Err: err}
				return nil
			}
			collections[line-1] = fc
			outcomes[line-1] = Outcome{Line: line, Status: StatusOK, Features: len(fc.Features)}
			return nil
		})
	}
	_ = g.Wait()

	sources := make(map[int]*geojson.FeatureCollection, totalLines)
	for i, fc := range collections {
		if fc != nil {
			sources[i+1] = fc
		}
	}
	return sources, outcomes
}
