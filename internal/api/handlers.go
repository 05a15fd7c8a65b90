package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"

	"github.com/lavilleavelo/carte-velo-lyon/internal/db"
	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Handler serves the assembled datasets, the icon atlas and the run log
type Handler struct {
	store           *DatasetStore
	runs            db.Store
	refreshInterval time.Duration
}

// NewHandler creates a handler. runs may be nil when no run log is kept.
func NewHandler(store *DatasetStore, runs db.Store, refreshInterval time.Duration) *Handler {
	return &Handler{store: store, runs: runs, refreshInterval: refreshInterval}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status      string     `json:"status"`
	Database    string     `json:"database"`
	Freshness   string     `json:"freshness"`
	RunID       string     `json:"runId,omitempty"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
	Lines       int        `json:"lines"`
	Timestamp   time.Time  `json:"timestamp"`
}

// GetHealth handles GET /health
// Reports run log connectivity and the age of the served dataset
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC()
	response := HealthResponse{
		Status:    "ok",
		Database:  "disabled",
		Freshness: FreshnessUnavailable,
		Timestamp: now,
	}
	status := http.StatusOK

	if h.runs != nil {
		if err := h.runs.Ping(ctx); err != nil {
			response.Status = "error"
			response.Database = "disconnected"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "connected"
		}
	}

	ds, _ := h.store.Get()
	if ds == nil {
		response.Status = "error"
		status = http.StatusServiceUnavailable
	} else {
		generatedAt := ds.GeneratedAt.UTC()
		response.RunID = ds.RunID
		response.GeneratedAt = &generatedAt
		response.Lines = len(ds.Result.Grouped)
		response.Freshness = CalculateFreshnessStatus(now.Sub(generatedAt), h.refreshInterval)
	}

	writeJSON(w, status, response)
}

// GetAllLines handles GET /api/voies-lyonnaises
// Returns one feature collection per loaded line, keyed by line number
func (h *Handler) GetAllLines(w http.ResponseWriter, r *http.Request) {
	ds, _ := h.store.Get()
	if ds == nil {
		writeNotReady(w)
		return
	}

	setCacheHeaders(w)
	writeJSON(w, http.StatusOK, ds.Result.Grouped)
}

// GetLine handles GET /api/voies-lyonnaises/{line}
func (h *Handler) GetLine(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "line")
	line, err := strconv.Atoi(param)
	if err != nil || line < 1 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "line must be a positive integer",
			Details: map[string]interface{}{"line": param},
		})
		return
	}

	ds, _ := h.store.Get()
	if ds == nil {
		writeNotReady(w)
		return
	}

	fc, ok := ds.Result.Grouped[line]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Line not loaded",
			Details: map[string]interface{}{"line": line},
		})
		return
	}

	setCacheHeaders(w)
	writeJSON(w, http.StatusOK, fc)
}

// GetFeatures handles GET /api/voies-lyonnaises/features
// Returns the flat annotated list, filtered to ?bbox=minLon,minLat,maxLon,maxLat when given
func (h *Handler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	var bound *orb.Bound
	if raw := r.URL.Query().Get("bbox"); raw != "" {
		b, err := parseBBox(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid bbox",
				Details: map[string]interface{}{"bbox": raw, "internal": err.Error()},
			})
			return
		}
		bound = &b
	}

	ds, index := h.store.Get()
	if ds == nil {
		writeNotReady(w)
		return
	}

	features := ds.Result.Features
	if bound != nil {
		positions := index.Search(*bound)
		features = make([]lines.Segment, 0, len(positions))
		for _, i := range positions {
			features = append(features, ds.Result.Features[i])
		}
	}

	setCacheHeaders(w)
	writeJSON(w, http.StatusOK, lines.Collection(features))
}

// SummaryResponse is the JSON response for GET /api/voies-lyonnaises/summary
type SummaryResponse struct {
	RunID          string              `json:"runId"`
	GeneratedAt    time.Time           `json:"generatedAt"`
	Lines          []lines.LineSummary `json:"lines"`
	CompositeIcons []string            `json:"compositeIcons"`
}

// GetSummary handles GET /api/voies-lyonnaises/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ds, _ := h.store.Get()
	if ds == nil {
		writeNotReady(w)
		return
	}

	response := SummaryResponse{
		RunID:          ds.RunID,
		GeneratedAt:    ds.GeneratedAt.UTC(),
		Lines:          ds.Summaries,
		CompositeIcons: ds.Result.CompositeIcons(),
	}
	if response.Lines == nil {
		response.Lines = []lines.LineSummary{}
	}
	if response.CompositeIcons == nil {
		response.CompositeIcons = []string{}
	}

	writeJSON(w, http.StatusOK, response)
}

// ShieldsResponse is the JSON response for GET /api/shields
type ShieldsResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// GetShields handles GET /api/shields
func (h *Handler) GetShields(w http.ResponseWriter, r *http.Request) {
	ds, _ := h.store.Get()
	if ds == nil {
		writeNotReady(w)
		return
	}

	ids := ds.Atlas.IDs()
	writeJSON(w, http.StatusOK, ShieldsResponse{IDs: ids, Count: len(ids)})
}

// GetShieldPNG handles GET /api/shields/{id}.png
func (h *Handler) GetShieldPNG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ds, _ := h.store.Get()
	if ds == nil {
		writeNotReady(w)
		return
	}

	if !ds.Atlas.HasImage(id) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Shield not found",
			Details: map[string]interface{}{"id": id},
		})
		return
	}

	var buf bytes.Buffer
	if err := ds.Atlas.WritePNG(&buf, id); err != nil {
		log.Printf("Warning: failed to encode shield %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to encode shield",
			Details: map[string]interface{}{"id": id, "internal": err.Error()},
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// RunsResponse is the JSON response for GET /api/runs
type RunsResponse struct {
	Runs  []db.Run `json:"runs"`
	Count int      `json:"count"`
}

// GetRuns handles GET /api/runs
// Returns the latest assembly runs, newest first (?limit=, default 20)
func (h *Handler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "limit must be a positive integer",
				Details: map[string]interface{}{"limit": raw},
			})
			return
		}
		if n > maxRunsLimit {
			n = maxRunsLimit
		}
		limit = n
	}

	if h.runs == nil {
		writeJSON(w, http.StatusOK, RunsResponse{Runs: []db.Run{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runs, err := h.runs.RecentRuns(ctx, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to retrieve runs",
			Details: map[string]interface{}{"internal": err.Error()},
		})
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}

	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs)})
}

func parseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("expected 4 comma separated numbers, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}

	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("min must not exceed max")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func setCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Vary", "Accept-Encoding")
}

func writeNotReady(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
		Error: "Dataset not ready",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
