package vote

import (
	"fmt"

	"github.com/ppiankov/punctuate/internal/labels"
)

// Tally holds the votes for one query. Punctuation[g] is the gap before word
// g, Punctuation[len(words)] the gap after the last word.
type Tally struct {
	Punctuation    []Counter[string]
	Capitalization []Counter[rune]
}

// NewTally returns an empty tally for a query of numWords words.
func NewTally(numWords int) *Tally {
	return &Tally{
		Punctuation:    make([]Counter[string], numWords+1),
		Capitalization: make([]Counter[rune], numWords),
	}
}

// NumWords returns the number of words the tally covers.
func (t *Tally) NumWords() int {
	return len(t.Capitalization)
}

// Window is one segment's aligned labels split into fields, placed at the
// offset of its first word in the query.
type Window struct {
	Offset int
	Fields labels.Fields
}

// Accumulate adds the votes of a query's windows. Windows must be given in
// increasing offset order; the first one is the query's first window.
//
// A window other than the first skips its leading margin words, and a window
// that does not reach the end of the query stops before its trailing margin
// words. Each counted word contributes its capitalization tag and the
// punctuation that follows it. The gap before the query's first word is
// voted by the first window only.
func (t *Tally) Accumulate(windows []Window, margin int) error {
	numWords := t.NumWords()

	for j, w := range windows {
		size := w.Fields.Len()
		if len(w.Fields.Punctuation) != size+1 {
			return fmt.Errorf("window at offset %d: %d punctuation fields for %d words", w.Offset, len(w.Fields.Punctuation), size)
		}
		if w.Offset < 0 || w.Offset+size > numWords {
			return fmt.Errorf("window at offset %d with %d words exceeds query of %d words", w.Offset, size, numWords)
		}

		first := j == 0
		last := w.Offset+size >= numWords

		if first {
			t.Punctuation[w.Offset].Add(w.Fields.Punctuation[0])
		}

		for k := 0; k < size; k++ {
			processed := k + 1
			if !first && processed <= margin {
				continue
			}
			if !last && processed > size-margin {
				break
			}
			t.Capitalization[w.Offset+k].Add(w.Fields.Capitalization[k])
			t.Punctuation[w.Offset+k+1].Add(w.Fields.Punctuation[k+1])
		}
	}

	return nil
}
