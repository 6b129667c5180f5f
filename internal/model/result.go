package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrMissingLabels is reported when an oracle answers a batch without
// labels for one of its windows.
var ErrMissingLabels = errors.New("oracle returned no labels for window")

// Result is the outcome for one input query.
type Result struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Error error  `json:"-"`

	Segments int `json:"segments"`
	Repairs  int `json:"repairs,omitempty"`
}

// BatchError reports an oracle batch that could not be labeled.
type BatchError struct {
	Batch   int
	Windows []SegmentID
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("oracle batch %d (%d windows): %v", e.Batch, len(e.Windows), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
