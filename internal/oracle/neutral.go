package oracle

import (
	"context"
	"strings"

	"github.com/ppiankov/punctuate/internal/labels"
)

// NeutralOracle predicts the neutral tag for every word and no punctuation.
// It needs no model and makes the pipeline an identity transform.
type NeutralOracle struct {
	neutral string
}

// NewNeutralOracle creates an oracle for the given alphabet
func NewNeutralOracle(alphabet labels.Alphabet) *NeutralOracle {
	return &NeutralOracle{neutral: string(alphabet.Neutral())}
}

// Name returns the provider name
func (o *NeutralOracle) Name() string {
	return "neutral"
}

// Label returns neutral labels for every window
func (o *NeutralOracle) Label(ctx context.Context, req Request) ([]Labeling, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Labeling, 0, len(req.Windows))
	for _, w := range req.Windows {
		tags := make([]string, len(w.Words))
		for i := range tags {
			tags[i] = o.neutral
		}
		out = append(out, Labeling{ID: w.ID, Labels: strings.Join(tags, " ")})
	}
	return out, nil
}
