// Package oracle talks to the sequence labelers that predict punctuation and
// capitalization for word windows.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Oracle labels batches of word windows.
//
// Label returns one Labeling per window it could label, keyed by the
// window's ID. Order is not significant. An error fails the whole batch.
type Oracle interface {
	// Name returns the provider name
	Name() string

	// Label predicts a label string for every window of the request
	Label(ctx context.Context, req Request) ([]Labeling, error)
}

// Window is one segment of words to label.
type Window struct {
	ID    string   `json:"id"`
	Words []string `json:"words"`
}

// Text joins the window's words with single spaces.
func (w Window) Text() string {
	return strings.Join(w.Words, " ")
}

// Request is one oracle call.
type Request struct {
	// ID identifies the batch for logging and request tracing
	ID      string
	Windows []Window
	Options Options
}

// Options tune decoding. Sequence-to-sequence labelers use the beam
// settings; chat providers only honour MaxOutputLength and
// AddSourceNumWords.
type Options struct {
	MaxOutputLength   int     `json:"max_output_length,omitempty"`
	BeamSize          int     `json:"beam_size,omitempty"`
	LengthPenalty     float64 `json:"length_penalty,omitempty"`
	MaxDeltaLength    int     `json:"max_delta_length,omitempty"`
	AddSourceNumWords bool    `json:"add_source_num_words,omitempty"`
}

// Key renders the options as a stable string for cache keys.
func (o Options) Key() string {
	return fmt.Sprintf("len=%d beam=%d pen=%g delta=%d nw=%t",
		o.MaxOutputLength, o.BeamSize, o.LengthPenalty, o.MaxDeltaLength, o.AddSourceNumWords)
}

// Labeling is the label string predicted for one window.
type Labeling struct {
	ID     string `json:"id"`
	Labels string `json:"labels"`
}

// labelFunc labels a single window.
type labelFunc func(ctx context.Context, w Window) (string, error)

// labelEach runs fn for every window with at most limit calls in flight and
// fails fast on the first error.
func labelEach(ctx context.Context, windows []Window, limit int, fn labelFunc) ([]Labeling, error) {
	out := make([]Labeling, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, w := range windows {
		g.Go(func() error {
			labels, err := fn(gctx, w)
			if err != nil {
				return fmt.Errorf("window %s: %w", w.ID, err)
			}
			out[i] = Labeling{ID: w.ID, Labels: labels}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// cleanLabels strips the wrapping chat models like to add around a bare
// label string, such as code fences or a trailing explanation.
func cleanLabels(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			// drop an info string such as ```text
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.TrimSpace(s)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
