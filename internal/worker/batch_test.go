package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/punctuate/internal/oracle"
)

// flakyOracle fails the first failures calls per batch, or the batches
// listed in broken on every call.
type flakyOracle struct {
	mu       sync.Mutex
	calls    map[string]int
	failures int
	broken   map[string]bool
}

func newFlakyOracle(failures int, broken ...string) *flakyOracle {
	o := &flakyOracle{calls: make(map[string]int), failures: failures, broken: make(map[string]bool)}
	for _, id := range broken {
		o.broken[id] = true
	}
	return o
}

func (o *flakyOracle) Name() string { return "flaky" }

func (o *flakyOracle) Label(ctx context.Context, req oracle.Request) ([]oracle.Labeling, error) {
	o.mu.Lock()
	o.calls[req.ID]++
	n := o.calls[req.ID]
	o.mu.Unlock()

	if o.broken[req.ID] || n <= o.failures {
		return nil, errors.New("labeler unavailable")
	}

	out := make([]oracle.Labeling, len(req.Windows))
	for i, w := range req.Windows {
		out[i] = oracle.Labeling{ID: w.ID, Labels: strings.TrimSpace(strings.Repeat("O ", len(w.Words)))}
	}
	return out, nil
}

func (o *flakyOracle) callsFor(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[id]
}

func request(id string) oracle.Request {
	return oracle.Request{ID: id, Windows: []oracle.Window{{ID: id + "-w", Words: []string{"a", "b"}}}}
}

func TestRetryPolicy_Delay(t *testing.T) {
	r := RetryPolicy{MaxAttempts: 4, Backoff: 10 * time.Millisecond}
	want := []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, w := range want {
		if got := r.delay(i + 1); got != w {
			t.Errorf("attempt %d: expected delay %v, got %v", i+1, w, got)
		}
	}
}

func TestLabelJob_RetriesThenSucceeds(t *testing.T) {
	o := newFlakyOracle(2)
	job := &LabelJob{
		Batch:   3,
		Request: request("b3"),
		Oracle:  o,
		Limiter: NewLimiter(0, 1),
		Retry:   RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond},
	}

	res := job.Execute(context.Background()).(*BatchResult)
	if res.GetError() != nil {
		t.Fatalf("expected success on third attempt, got %v", res.GetError())
	}
	if res.Attempts != 3 || res.Batch != 3 || res.RequestID != "b3" {
		t.Errorf("unexpected result metadata: %+v", res)
	}
	if len(res.Labels) != 1 || res.Labels[0].Labels != "O O" {
		t.Errorf("unexpected labels: %+v", res.Labels)
	}
}

func TestLabelJob_GivesUp(t *testing.T) {
	o := newFlakyOracle(0, "b0")
	job := &LabelJob{Request: request("b0"), Oracle: o, Retry: RetryPolicy{MaxAttempts: 2}}

	res := job.Execute(context.Background())
	if res.GetError() == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !strings.Contains(res.GetError().Error(), "after 2 attempts") {
		t.Errorf("expected attempt count in error, got %v", res.GetError())
	}
	if o.callsFor("b0") != 2 {
		t.Errorf("expected 2 calls, got %d", o.callsFor("b0"))
	}
}

func TestLabelJob_StopsOnCancel(t *testing.T) {
	o := newFlakyOracle(0, "b0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &LabelJob{
		Request: request("b0"),
		Oracle:  o,
		Limiter: NewLimiter(0, 1),
		Retry:   RetryPolicy{MaxAttempts: 5, Backoff: time.Second},
	}
	res := job.Execute(ctx)
	if !errors.Is(res.GetError(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res.GetError())
	}
	if o.callsFor("b0") > 1 {
		t.Errorf("expected no retries after cancel, got %d calls", o.callsFor("b0"))
	}
}

func TestBatchProcessor_IsolatesFailures(t *testing.T) {
	o := newFlakyOracle(0, "b1")
	processor := NewBatchProcessor(o, NewLimiter(0, 1), RetryPolicy{MaxAttempts: 1}, 2)

	requests := []oracle.Request{request("b0"), request("b1"), request("b2"), request("b3")}
	results := processor.ProcessBatches(context.Background(), requests)

	if len(results) != len(requests) {
		t.Fatalf("expected %d results, got %d", len(requests), len(results))
	}
	for i, r := range results {
		if r.Batch != i || r.RequestID != requests[i].ID {
			t.Errorf("result %d out of place: %+v", i, r)
		}
		if i == 1 {
			if r.GetError() == nil {
				t.Error("expected batch 1 to fail")
			}
			continue
		}
		if r.GetError() != nil {
			t.Errorf("batch %d: unexpected error %v", i, r.GetError())
		}
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(newFlakyOracle(0), nil, RetryPolicy{}, 1)
	if got := processor.ProcessBatches(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

// countingOracle counts concurrent calls.
type countingOracle struct {
	current, peak int32
}

func (o *countingOracle) Name() string { return "counting" }

func (o *countingOracle) Label(ctx context.Context, req oracle.Request) ([]oracle.Labeling, error) {
	n := atomic.AddInt32(&o.current, 1)
	for {
		p := atomic.LoadInt32(&o.peak)
		if n <= p || atomic.CompareAndSwapInt32(&o.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&o.current, -1)
	return nil, nil
}

func TestBatchProcessor_BoundsConcurrency(t *testing.T) {
	o := &countingOracle{}
	processor := NewBatchProcessor(o, nil, RetryPolicy{MaxAttempts: 1}, 3)

	var requests []oracle.Request
	for i := 0; i < 30; i++ {
		requests = append(requests, oracle.Request{ID: "r"})
	}
	results := processor.ProcessBatches(context.Background(), requests)

	if len(results) != 30 {
		t.Fatalf("expected 30 results, got %d", len(results))
	}
	if peak := atomic.LoadInt32(&o.peak); peak > 3 {
		t.Errorf("expected at most 3 concurrent batches, saw %d", peak)
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(newFlakyOracle(0), nil, RetryPolicy{MaxAttempts: 1}, 1)
	results := processor.ProcessBatches(ctx, []oracle.Request{request("b0"), request("b1")})

	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d missing", i)
		}
		if r.GetError() == nil {
			t.Errorf("batch %d: expected cancellation error", i)
		}
	}
}
