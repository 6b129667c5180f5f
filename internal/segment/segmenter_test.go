package segment

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/punctuate/internal/model"
)

func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

func offsets(segments []model.Segment) []int {
	var out []int
	for _, s := range segments {
		out = append(out, s.Offset)
	}
	return out
}

func TestWindows_Offsets(t *testing.T) {
	tests := []struct {
		name       string
		numWords   int
		maxSeq     int
		step       int
		wantOffset []int
		wantLast   int // length of the last window
	}{
		{name: "shorter than window", numWords: 3, maxSeq: 5, step: 1, wantOffset: []int{0}, wantLast: 3},
		{name: "exactly one window", numWords: 3, maxSeq: 3, step: 1, wantOffset: []int{0}, wantLast: 3},
		{name: "full windows reach end", numWords: 6, maxSeq: 4, step: 2, wantOffset: []int{0, 2}, wantLast: 4},
		{name: "tail window", numWords: 7, maxSeq: 4, step: 2, wantOffset: []int{0, 2, 4}, wantLast: 3},
		{name: "step one", numWords: 4, maxSeq: 3, step: 1, wantOffset: []int{0, 1}, wantLast: 3},
		{name: "original defaults", numWords: 100, maxSeq: 64, step: 8, wantOffset: []int{0, 8, 16, 24, 32, 40}, wantLast: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := model.Query{Index: 0, Words: words(tt.numWords)}
			got := Windows(q, tt.maxSeq, tt.step)

			if diff := cmp.Diff(tt.wantOffset, offsets(got)); diff != "" {
				t.Fatalf("offsets mismatch (-want +got):\n%s", diff)
			}
			if last := got[len(got)-1]; last.Len() != tt.wantLast {
				t.Errorf("expected last window of %d words, got %d", tt.wantLast, last.Len())
			}
		})
	}
}

func TestWindows_Empty(t *testing.T) {
	if got := Windows(model.Query{Index: 0}, 4, 2); len(got) != 0 {
		t.Errorf("expected no windows for an empty query, got %d", len(got))
	}
}

func TestWindows_Text(t *testing.T) {
	q := model.Query{Index: 2, Words: strings.Fields("one two three four five")}
	got := Windows(q, 3, 2)

	want := []string{"one two three", "three four five"}
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.Text() != want[i] {
			t.Errorf("window %d: expected %q, got %q", i, want[i], s.Text())
		}
		if s.Query != 2 {
			t.Errorf("window %d: expected query 2, got %d", i, s.Query)
		}
	}
}

// Every word must fall inside the counted core of at least one window, and
// the windows together must cover the query without gaps.
func TestWindows_Coverage(t *testing.T) {
	for maxSeq := 1; maxSeq <= 12; maxSeq++ {
		for margin := 0; 2*margin < maxSeq; margin++ {
			for step := 1; step <= maxSeq-2*margin; step++ {
				for n := 0; n <= 40; n++ {
					q := model.Query{Words: words(n)}
					segments := Windows(q, maxSeq, step)
					checkCoverage(t, segments, n, maxSeq, step, margin)
				}
			}
		}
	}
}

func checkCoverage(t *testing.T, segments []model.Segment, n, maxSeq, step, margin int) {
	t.Helper()

	covered := make([]bool, n)
	core := make([]bool, n)
	for j, s := range segments {
		if s.Offset < 0 || s.Offset+s.Len() > n || s.Len() > maxSeq || s.Len() == 0 {
			t.Fatalf("n=%d L=%d step=%d: window %v out of bounds", n, maxSeq, step, s.SegmentID)
		}
		last := s.Offset+s.Len() >= n
		for k := 0; k < s.Len(); k++ {
			covered[s.Offset+k] = true
			if j > 0 && k+1 <= margin {
				continue
			}
			if !last && k+1 > s.Len()-margin {
				break
			}
			core[s.Offset+k] = true
		}
	}

	for i := 0; i < n; i++ {
		if !covered[i] {
			t.Fatalf("n=%d L=%d step=%d margin=%d: word %d not covered", n, maxSeq, step, margin, i)
		}
		if !core[i] {
			t.Fatalf("n=%d L=%d step=%d margin=%d: word %d outside every core region", n, maxSeq, step, margin, i)
		}
	}
}

func TestSplit_GroupsByQuery(t *testing.T) {
	queries := model.NewQueries([]string{"a b c d e", "", "f g"})
	segments := Split(queries, 3, 2)

	groups := ByQuery(segments, len(queries))
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if diff := cmp.Diff([]int{0, 2}, offsets(groups[0])); diff != "" {
		t.Errorf("query 0 offsets mismatch (-want +got):\n%s", diff)
	}
	if len(groups[1]) != 0 {
		t.Errorf("expected no windows for the empty query, got %d", len(groups[1]))
	}
	if len(groups[2]) != 1 || groups[2][0].Text() != "f g" {
		t.Errorf("expected a single window \"f g\", got %+v", groups[2])
	}
}
