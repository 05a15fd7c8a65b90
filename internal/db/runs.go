package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Line fetch statuses
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// timeLayout is used for every stored timestamp. All values are UTC, so
// string order is chronological order.
const timeLayout = "2006-01-02T15:04:05Z"

// Run is one fetch and assembly pass
type Run struct {
	RunID              string      `json:"run_id"`
	StartedAt          time.Time   `json:"started_at"`
	FinishedAt         time.Time   `json:"finished_at"`
	LinesRequested     int         `json:"lines_requested"`
	LinesLoaded        int         `json:"lines_loaded"`
	FeatureCount       int         `json:"feature_count"`
	CompositeIconCount int         `json:"composite_icon_count"`
	Lines              []LineFetch `json:"lines"`
}

// LineFetch is the outcome of fetching one line during a run
type LineFetch struct {
	Line         int     `json:"line"`
	Status       string  `json:"status"`
	FeatureCount int     `json:"feature_count"`
	TotalMeters  float64 `json:"total_meters"`
	Error        string  `json:"error,omitempty"`
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Store persists assembly runs
type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	Cleanup(ctx context.Context, retention time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func nullableError(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
