package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/lavilleavelo/carte-velo-lyon/internal/db"
	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
	"github.com/lavilleavelo/carte-velo-lyon/internal/shield"
	"github.com/lavilleavelo/carte-velo-lyon/internal/source"
)

// Fetcher downloads the per-line collections of a network.
type Fetcher interface {
	FetchAll(ctx context.Context, totalLines int) (map[int]*geojson.FeatureCollection, []source.Outcome)
}

// Dataset is everything one run produces.
type Dataset struct {
	RunID       string
	GeneratedAt time.Time
	Result      lines.Result
	Summaries   []lines.LineSummary
	Atlas       *shield.MemoryAtlas
	Run         *db.Run
}

// Pipeline fetches every line, assembles them and renders the shields.
type Pipeline struct {
	Fetcher    Fetcher
	TotalLines int
	Palette    lines.Palette
	// Store is optional. Recording failures are logged, never returned.
	Store db.Store
}

// Run performs one fetch and assembly pass.
func (p *Pipeline) Run(ctx context.Context) (*Dataset, error) {
	start := time.Now()

	sources, outcomes := p.Fetcher.FetchAll(ctx, p.TotalLines)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run canceled: %w", err)
	}

	return p.build(ctx, start, sources, outcomes)
}

// RunSources assembles collections that were loaded elsewhere, for example
// from a file. Every present line counts as fetched.
func (p *Pipeline) RunSources(ctx context.Context, sources map[int]*geojson.FeatureCollection) (*Dataset, error) {
	outcomes := make([]source.Outcome, 0, p.TotalLines)
	for line := 1; line <= p.TotalLines; line++ {
		fc := sources[line]
		if fc == nil {
			outcomes = append(outcomes, source.Outcome{Line: line, Status: source.StatusFailed})
			continue
		}
		outcomes = append(outcomes, source.Outcome{Line: line, Status: source.StatusOK, Features: len(fc.Features)})
	}
	return p.build(ctx, time.Now(), sources, outcomes)
}

func (p *Pipeline) build(ctx context.Context, start time.Time, sources map[int]*geojson.FeatureCollection, outcomes []source.Outcome) (*Dataset, error) {
	result := lines.Assemble(sources)

	atlas := shield.NewMemoryAtlas()
	if _, err := shield.LoadShieldIcons(atlas, result.Features, p.Palette, p.TotalLines); err != nil {
		return nil, fmt.Errorf("failed to render shields: %w", err)
	}

	summaries := result.Summaries()
	run := newRun(start, p.TotalLines, result, summaries, outcomes)

	if p.Store != nil {
		if err := p.Store.RecordRun(ctx, run); err != nil {
			log.Printf("Warning: failed to record run: %v", err)
		}
	}
	if run.RunID == "" {
		run.RunID = db.NewRunID()
	}

	log.Printf("Pipeline: assembled %d features from %d/%d lines, %d composite icons in %v",
		run.FeatureCount, run.LinesLoaded, run.LinesRequested, run.CompositeIconCount,
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	return &Dataset{
		RunID:       run.RunID,
		GeneratedAt: run.FinishedAt,
		Result:      result,
		Summaries:   summaries,
		Atlas:       atlas,
		Run:         run,
	}, nil
}

func newRun(start time.Time, totalLines int, result lines.Result, summaries []lines.LineSummary, outcomes []source.Outcome) *db.Run {
	meters := make(map[int]float64, len(summaries))
	segments := make(map[int]int, len(summaries))
	for _, s := range summaries {
		meters[s.Line] = s.TotalMeters
		segments[s.Line] = s.Segments
	}

	run := &db.Run{
		StartedAt:          start,
		FinishedAt:         time.Now(),
		LinesRequested:     totalLines,
		FeatureCount:       len(result.Features),
		CompositeIconCount: len(result.CompositeIcons()),
	}

	for _, o := range outcomes {
		fetch := db.LineFetch{Line: o.Line, FeatureCount: segments[o.Line], TotalMeters: meters[o.Line]}
		switch {
		case o.Status != source.StatusOK:
			fetch.Status = db.StatusFailed
			if o.Err != nil {
				fetch.Error = o.Err.Error()
			}
		case segments[o.Line] == 0:
			// loaded but without any line geometry
			fetch.Status = db.StatusSkipped
		default:
			fetch.Status = db.StatusOK
		}
		if fetch.Status != db.StatusFailed {
			run.LinesLoaded++
		}
		run.Lines = append(run.Lines, fetch)
	}

	return run
}
