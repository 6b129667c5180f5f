package model

import (
	"fmt"
	"strings"
)

// Query is one input text split on whitespace.
type Query struct {
	Index int
	Words []string
}

// NewQueries splits every text into words. Indices follow input order.
func NewQueries(texts []string) []Query {
	queries := make([]Query, len(texts))
	for i, text := range texts {
		queries[i] = Query{Index: i, Words: strings.Fields(text)}
	}
	return queries
}

// Len returns the word count.
func (q Query) Len() int {
	return len(q.Words)
}

// SegmentID identifies a window by its owning query and the offset of its
// first word within that query.
type SegmentID struct {
	Query  int `json:"query"`
	Offset int `json:"offset"`
}

// String renders the id in the form used on the wire, e.g. "3@16".
func (id SegmentID) String() string {
	return fmt.Sprintf("%d@%d", id.Query, id.Offset)
}

// Segment is a contiguous window of a query's words.
type Segment struct {
	SegmentID
	Words []string
}

// Len returns the number of words in the segment.
func (s Segment) Len() int {
	return len(s.Words)
}

// Text joins the segment's words with single spaces.
func (s Segment) Text() string {
	return strings.Join(s.Words, " ")
}
