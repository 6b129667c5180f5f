// Package pipeline restores punctuation and capitalization of whole texts:
// it cuts them into overlapping windows, labels the windows with an oracle
// and reconciles the overlapping predictions by margin-aware voting.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/punctuate/internal/labels"
	"github.com/ppiankov/punctuate/internal/logging"
	"github.com/ppiankov/punctuate/internal/model"
	"github.com/ppiankov/punctuate/internal/oracle"
	"github.com/ppiankov/punctuate/internal/segment"
	"github.com/ppiankov/punctuate/internal/vote"
	"github.com/ppiankov/punctuate/internal/worker"
)

// Pipeline orchestrates segmentation, labeling and reconciliation
type Pipeline struct {
	config    *model.Config
	oracle    oracle.Oracle
	processor *worker.BatchProcessor
	alphabet  labels.Alphabet
	resolver  vote.Resolver
	options   oracle.Options
	logger    *zap.Logger
}

// New creates a pipeline labeling with o. The configuration is validated
// first; a nil logger discards logs.
func New(cfg *model.Config, o oracle.Oracle, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errors.New("pipeline needs an oracle")
	}

	alphabet, err := labels.NewAlphabet(cfg.Labels.Capitalization)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	casing, err := vote.NewCasing(alphabet, cfg.Labels.Transforms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	retry := worker.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Backoff: cfg.Retry.Backoff}

	return &Pipeline{
		config:    cfg,
		oracle:    o,
		processor: worker.NewBatchProcessor(o, limiter, retry, cfg.Concurrency.Workers),
		alphabet:  alphabet,
		resolver:  vote.NewResolver(alphabet, casing),
		options:   oracle.OptionsFromModel(cfg),
		logger:    logging.Named(logger, "pipeline"),
	}, nil
}

// batch is one oracle request and the segments it carries
type batch struct {
	request  oracle.Request
	segments []model.SegmentID
}

// Punctuate restores every text. It returns one result per text in input
// order. A failed oracle batch fails only the texts with a window in it;
// those results carry the error and their original text. The returned
// error is reserved for cancellation.
func (p *Pipeline) Punctuate(ctx context.Context, texts []string) ([]model.Result, error) {
	queries := model.NewQueries(texts)
	segments := segment.Split(queries, p.config.Segmentation.MaxSeqLength, p.config.Segmentation.Step)

	batches := p.batch(segments)
	p.logger.Debug("dispatching oracle batches",
		zap.Int("texts", len(texts)),
		zap.Int("segments", len(segments)),
		zap.Int("batches", len(batches)),
		zap.String("oracle", p.oracle.Name()))

	requests := make([]oracle.Request, len(batches))
	for i, b := range batches {
		requests[i] = b.request
	}
	batchResults := p.processor.ProcessBatches(ctx, requests)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predicted := make(map[string]string, len(segments))
	failed := make(map[model.SegmentID]*model.BatchError)
	for i, r := range batchResults {
		if r.Error != nil {
			batchErr := &model.BatchError{Batch: i, Windows: batches[i].segments, Err: r.Error}
			for _, id := range batches[i].segments {
				failed[id] = batchErr
			}
			p.logger.Warn("oracle batch failed",
				zap.Int("batch", i),
				zap.String("request_id", r.RequestID),
				zap.Int("windows", len(batches[i].segments)),
				zap.Int("attempts", r.Attempts),
				zap.Error(r.Error))
			continue
		}
		for _, l := range r.Labels {
			predicted[l.ID] = l.Labels
		}
	}

	results := make([]model.Result, len(queries))
	groups := segment.ByQuery(segments, len(queries))

	var g errgroup.Group
	g.SetLimit(p.config.Concurrency.ResolveWorkers)
	for i, q := range queries {
		g.Go(func() error {
			results[i] = p.resolve(q, texts[i], groups[i], predicted, failed)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// batch groups segments into oracle requests of at most batch.size windows
func (p *Pipeline) batch(segments []model.Segment) []batch {
	size := p.config.Batch.Size

	var batches []batch
	for start := 0; start < len(segments); start += size {
		end := min(start+size, len(segments))

		b := batch{
			request: oracle.Request{
				ID:      uuid.NewString(),
				Windows: make([]oracle.Window, 0, end-start),
				Options: p.options,
			},
			segments: make([]model.SegmentID, 0, end-start),
		}
		for _, s := range segments[start:end] {
			b.request.Windows = append(b.request.Windows, oracle.Window{ID: s.SegmentID.String(), Words: s.Words})
			b.segments = append(b.segments, s.SegmentID)
		}
		batches = append(batches, b)
	}

	return batches
}

// resolve aligns, accumulates and resolves the windows of one query
func (p *Pipeline) resolve(q model.Query, original string, segments []model.Segment, predicted map[string]string, failed map[model.SegmentID]*model.BatchError) model.Result {
	result := model.Result{Index: q.Index, Text: original, Segments: len(segments)}

	windows := make([]vote.Window, 0, len(segments))
	for _, s := range segments {
		if batchErr, ok := failed[s.SegmentID]; ok {
			result.Error = batchErr
			return result
		}

		raw, ok := predicted[s.SegmentID.String()]
		if !ok {
			result.Error = fmt.Errorf("%w %s", model.ErrMissingLabels, s.SegmentID)
			return result
		}

		aligned, repair := p.alphabet.Align(raw, s.Len())
		if repair != labels.RepairNone {
			result.Repairs++
			p.logger.Debug("repaired window labels",
				zap.Stringer("window", s.SegmentID),
				zap.Stringer("repair", repair),
				zap.Int("words", s.Len()),
				zap.Int("tags", p.alphabet.Count(raw)))
		}
		windows = append(windows, vote.Window{Offset: s.Offset, Fields: p.alphabet.Split(aligned)})
	}

	tally := vote.NewTally(q.Len())
	if err := tally.Accumulate(windows, p.config.Segmentation.Margin); err != nil {
		result.Error = fmt.Errorf("accumulate votes: %w", err)
		return result
	}

	result.Text = p.resolver.Resolve(q.Words, tally)
	return result
}

// Failed counts the results carrying an error
func Failed(results []model.Result) int {
	n := 0
	for i := range results {
		if results[i].Error != nil {
			n++
		}
	}
	return n
}

// Texts returns the text of every result
func Texts(results []model.Result) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return texts
}
