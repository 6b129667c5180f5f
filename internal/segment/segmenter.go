// Package segment cuts queries into overlapping word windows.
package segment

import (
	"github.com/ppiankov/punctuate/internal/model"
)

// Split cuts every query into windows of at most maxSeqLength words whose
// starts are step words apart. Windows are emitted while they fit entirely;
// if the last of them stops short of the end of the query, one more window
// covering the remaining tail is emitted at the next offset. Queries shorter
// than maxSeqLength yield a single window, empty queries yield none.
//
// Segments are returned grouped by query and ordered by offset.
func Split(queries []model.Query, maxSeqLength, step int) []model.Segment {
	var segments []model.Segment
	for _, q := range queries {
		segments = append(segments, Windows(q, maxSeqLength, step)...)
	}
	return segments
}

// Windows returns the windows of a single query.
func Windows(q model.Query, maxSeqLength, step int) []model.Segment {
	n := q.Len()
	if n == 0 || maxSeqLength <= 0 || step <= 0 {
		return nil
	}

	var (
		segments []model.Segment
		start    int
		covered  int // offset one past the last emitted word
	)
	for ; start+maxSeqLength <= n; start += step {
		segments = append(segments, window(q, start, start+maxSeqLength))
		covered = start + maxSeqLength
	}
	if covered < n {
		if start >= n {
			// only reachable when step > maxSeqLength
			start = max(n-maxSeqLength, 0)
		}
		segments = append(segments, window(q, start, n))
	}

	return segments
}

func window(q model.Query, from, to int) model.Segment {
	return model.Segment{
		SegmentID: model.SegmentID{Query: q.Index, Offset: from},
		Words:     q.Words[from:to:to],
	}
}

// ByQuery groups segments by owning query, preserving their order.
// The result has one entry per query index in [0, numQueries).
func ByQuery(segments []model.Segment, numQueries int) [][]model.Segment {
	groups := make([][]model.Segment, numQueries)
	for _, s := range segments {
		if s.Query < 0 || s.Query >= numQueries {
			continue
		}
		groups[s.Query] = append(groups[s.Query], s)
	}
	return groups
}
