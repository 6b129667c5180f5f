package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/punctuate/internal/oracle"
)

// RetryPolicy controls how often a failed batch is sent again.
type RetryPolicy struct {
	// MaxAttempts includes the first attempt
	MaxAttempts int

	// Backoff before the second attempt, doubled for each further one
	Backoff time.Duration
}

func (r RetryPolicy) delay(attempt int) time.Duration {
	if attempt <= 1 || r.Backoff <= 0 {
		return 0
	}
	return r.Backoff << (attempt - 2)
}

// LabelJob sends one batch of windows to an oracle
type LabelJob struct {
	Batch   int
	Request oracle.Request
	Oracle  oracle.Oracle
	Limiter *Limiter
	Retry   RetryPolicy
}

// Execute labels the batch, retrying failed attempts with backoff
func (j *LabelJob) Execute(ctx context.Context) Result {
	result := &BatchResult{Batch: j.Batch, RequestID: j.Request.ID}

	attempts := j.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt

		if err := j.wait(ctx, attempt); err != nil {
			result.Error = err
			return result
		}

		labels, err := j.Oracle.Label(ctx, j.Request)
		if err == nil {
			result.Labels = labels
			result.Error = nil
			return result
		}
		result.Error = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return result
		}
	}

	result.Error = fmt.Errorf("after %d attempts: %w", result.Attempts, result.Error)
	return result
}

func (j *LabelJob) wait(ctx context.Context, attempt int) error {
	delay := j.Retry.delay(attempt)
	if j.Limiter != nil {
		return j.Limiter.WaitWithDelay(ctx, j.Oracle.Name(), delay)
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BatchResult represents the result of a label job
type BatchResult struct {
	Batch     int
	RequestID string
	Labels    []oracle.Labeling
	Attempts  int
	Error     error
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor labels many batches concurrently
type BatchProcessor struct {
	oracle      oracle.Oracle
	limiter     *Limiter
	retry       RetryPolicy
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(o oracle.Oracle, limiter *Limiter, retry RetryPolicy, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		oracle:      o,
		limiter:     limiter,
		retry:       retry,
		concurrency: concurrency,
	}
}

// ProcessBatches labels every request and returns one result per request,
// ordered by batch index. A failed batch does not affect the others.
func (b *BatchProcessor) ProcessBatches(ctx context.Context, requests []oracle.Request) []*BatchResult {
	if len(requests) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := make([]bool, len(requests))
	aborted := false
	for i, req := range requests {
		job := &LabelJob{
			Batch:   i,
			Request: req,
			Oracle:  b.oracle,
			Limiter: b.limiter,
			Retry:   b.retry,
		}
		if err := pool.Submit(job); err != nil {
			aborted = true
			break
		}
		submitted[i] = true
	}

	var results []Result
	if aborted {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	batchResults := make([]*BatchResult, len(requests))
	for _, result := range results {
		r := result.(*BatchResult)
		batchResults[r.Batch] = r
	}

	// batches the pool never ran fail with the cancellation cause
	for i, r := range batchResults {
		if r != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		if submitted[i] {
			err = fmt.Errorf("batch dropped: %w", err)
		}
		batchResults[i] = &BatchResult{Batch: i, RequestID: requests[i].ID, Error: err}
	}

	return batchResults
}
