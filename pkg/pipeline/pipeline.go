// Package pipeline runs tender documents through acquisition, field
// extraction and summarization, and merges the results into one record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/internal/types"
	"github.com/xhad/tenders/pkg/extractor"
	"github.com/xhad/tenders/pkg/logger"
	"github.com/xhad/tenders/pkg/summary"
)

// ErrNoSource is returned by NewWithConfig when no text source is given.
var ErrNoSource = errors.New("pipeline: text source is required")

type PipelineConfig struct {
	Source    types.TextSource
	Extractor *extractor.Extractor // nil uses extractor defaults
	Summary   *summary.Builder     // nil disables summaries
	Store     types.RecordStore    // optional
	Logger    *zap.Logger

	// OnDone is called once per document by ProcessAll, possibly from
	// several goroutines at once.
	OnDone func(Result)
}

// Result is the outcome of running one document through the pipeline.
type Result struct {
	Source   string                         `json:"source"`
	Record   models.ExtractedRecord         `json:"record"`
	Outcomes map[string]models.FieldOutcome `json:"outcomes,omitempty"`
	Pages    int                            `json:"pages"`
	Duration time.Duration                  `json:"duration"`
	StoreID  string                         `json:"store_id,omitempty"`
	Err      error                          `json:"-"`
}

type Pipeline struct {
	source    types.TextSource
	extractor *extractor.Extractor
	summary   *summary.Builder
	store     types.RecordStore
	logger    *zap.Logger
	onDone    func(Result)
}

func NewWithConfig(config PipelineConfig) (*Pipeline, error) {
	if config.Source == nil {
		return nil, ErrNoSource
	}
	log := logger.OrNop(config.Logger)

	ext := config.Extractor
	if ext == nil {
		ext = extractor.New(extractor.Config{Logger: log})
	}
	builder := config.Summary
	if builder == nil {
		builder = summary.NewBuilder(nil, summary.Config{}, log)
	}

	return &Pipeline{
		source:    config.Source,
		extractor: ext,
		summary:   builder,
		store:     config.Store,
		logger:    log,
		onDone:    config.OnDone,
	}, nil
}

// Process acquires the document at path and extracts its record. Only
// acquisition errors are returned; missing fields and summarizer failures
// are reported through Result.Outcomes.
func (p *Pipeline) Process(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Source: path}

	doc, err := p.source.Extract(ctx, path)
	if err != nil {
		res.Err = fmt.Errorf("acquire %s: %w", path, err)
		res.Duration = time.Since(start)
		return res, res.Err
	}
	res.Pages = doc.Pages

	var (
		extraction extractor.Extraction
		summarized summary.Outcome
	)
	var g errgroup.Group
	g.Go(func() error {
		extraction = p.extractor.Extract(doc.Content)
		return nil
	})
	g.Go(func() error {
		summarized = p.summary.Build(ctx, doc.Content)
		return nil
	})
	_ = g.Wait()

	res.Record = extraction.Record.WithSummary(summarized.Summary)
	res.Outcomes = extraction.Outcomes
	res.Outcomes[models.FieldShortSummary] = summarized.Outcome

	if p.store != nil {
		id, err := p.store.Save(ctx, path, res.Record)
		if err != nil {
			p.logger.Error("failed to store record", zap.String("source", path), zap.Error(err))
		} else {
			res.StoreID = id
		}
	}

	res.Duration = time.Since(start)
	p.logger.Info("document processed",
		zap.String("source", path),
		zap.Int("pages", res.Pages),
		zap.Int("fields_found", res.Found()),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// ProcessAll processes paths with at most workers documents in flight.
// Results keep the order of paths; a failing document sets its own
// Result.Err and does not stop the others. The returned error is non-nil
// only when ctx is cancelled.
func (p *Pipeline) ProcessAll(ctx context.Context, paths []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			var res Result
			if err := gctx.Err(); err != nil {
				res = Result{Source: path, Err: err}
			} else {
				res, _ = p.Process(gctx, path)
			}
			results[i] = res
			if p.onDone != nil {
				p.onDone(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// Found counts the fields extracted successfully.
func (r Result) Found() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == models.StatusFound {
			n++
		}
	}
	return n
}

// Failed returns the results whose document could not be acquired.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
