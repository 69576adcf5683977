// Package acquire runs the discovery pipeline: fetch → exclude → score →
// dedup → commit, across the keyword × source matrix.
package acquire

import (
	"context"
	"log/slog"
	"time"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
	"github.com/aminebalti55/ChemistryJobs/internal/score"
)

// sourcePause is the politeness gap between consecutive source fetches.
const sourcePause = 1 * time.Second

// Pipeline owns one full acquisition pass over all keywords and sources.
type Pipeline struct {
	sources  []model.SourceFetcher
	store    model.CandidateStore
	engine   *score.Engine
	keywords []string
	logger   *slog.Logger
}

// NewPipeline creates a pipeline wired with all its dependencies. keywords is
// the flattened, deduplicated vocabulary to query each source with.
func NewPipeline(
	sources []model.SourceFetcher,
	store model.CandidateStore,
	engine *score.Engine,
	keywords []string,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:  sources,
		store:    store,
		engine:   engine,
		keywords: keywords,
		logger:   logger,
	}
}

// Result summarizes one acquisition pass.
type Result struct {
	Added          int      // newly committed job records
	FailedKeywords []string // keywords for which every source failed
}

// Run executes one acquisition pass. A failing source/keyword combination is
// logged and skipped; it never aborts the rest of the matrix. The returned
// error is non-nil only on cancellation.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result

	// Links committed or rejected in this pass: different keywords surface
	// the same posting, and the store must only be asked once.
	seen := make(map[string]struct{})

	known := func(link string) bool {
		if _, ok := seen[link]; ok {
			return true
		}
		has, err := p.store.HasLink(link)
		if err != nil {
			p.logger.Error("link lookup failed", "link", link, "error", err)
			return false
		}
		return has
	}

	for i, keyword := range p.keywords {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		added, failures := p.runKeyword(ctx, keyword, known, seen)
		res.Added += added
		if failures == len(p.sources) {
			res.FailedKeywords = append(res.FailedKeywords, keyword)
		}

		if i < len(p.keywords)-1 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(sourcePause):
			}
		}
	}

	if err := p.store.LogAcquisition(res.Added); err != nil {
		p.logger.Error("recording acquisition cycle failed", "error", err)
	}

	p.logger.Info("acquisition pass complete",
		"keywords", len(p.keywords),
		"added", res.Added,
		"failed_keywords", len(res.FailedKeywords),
	)
	return res, nil
}

// runKeyword fetches one keyword from every source and commits the survivors.
// Returns the number of records added and how many sources failed outright.
func (p *Pipeline) runKeyword(ctx context.Context, keyword string, known model.KnownLinkFunc, seen map[string]struct{}) (int, int) {
	added := 0
	failures := 0
	for _, src := range p.sources {
		if ctx.Err() != nil {
			return added, failures
		}

		candidates, err := src.Fetch(ctx, keyword, known)
		if err != nil {
			failures++
			p.logger.Error("source fetch failed",
				"source", src.Name(),
				"keyword", keyword,
				"error", err,
			)
			continue
		}

		for _, c := range candidates {
			if _, dup := seen[c.Link]; dup {
				continue
			}
			seen[c.Link] = struct{}{}

			if p.evaluate(c) {
				added++
			}
		}
	}
	return added, failures
}

// evaluate runs exclusion and scoring, then upserts the candidate when it
// clears the threshold. Returns whether a new record was committed.
func (p *Pipeline) evaluate(c model.Candidate) bool {
	s, excluded := p.engine.Score(c.Title, c.Description)
	if excluded {
		p.logger.Debug("candidate excluded", "title", c.Title, "link", c.Link)
		return false
	}
	if !p.engine.Relevant(s) {
		p.logger.Debug("candidate below threshold", "title", c.Title, "score", s)
		return false
	}

	scored := model.ScoredCandidate{Candidate: c, Score: s}
	added, err := p.store.InsertDiscovered(scored.Candidate)
	if err != nil {
		p.logger.Error("persisting candidate failed", "link", c.Link, "error", err)
		return false
	}
	if added {
		p.logger.Info("job discovered", "title", c.Title, "score", s, "link", c.Link)
	}
	return added
}
