package vote

import (
	"strings"

	"github.com/ppiankov/punctuate/internal/labels"
)

// Resolver turns a completed tally into text.
type Resolver struct {
	neutral rune
	casing  Casing
}

// NewResolver returns a resolver for the given alphabet and casing.
func NewResolver(alphabet labels.Alphabet, casing Casing) Resolver {
	return Resolver{neutral: alphabet.Neutral(), casing: casing}
}

// Decision is the resolved label set of a query.
type Decision struct {
	Punctuation    []string
	Capitalization []rune
}

// Decide picks the winning label for every gap and word. Ties are broken in
// favour of no punctuation and the neutral tag.
func (r Resolver) Decide(t *Tally) Decision {
	d := Decision{
		Punctuation:    make([]string, len(t.Punctuation)),
		Capitalization: make([]rune, len(t.Capitalization)),
	}
	for g := range t.Punctuation {
		d.Punctuation[g] = t.Punctuation[g].Winner("")
	}
	for w := range t.Capitalization {
		d.Capitalization[w] = t.Capitalization[w].Winner(r.neutral)
	}
	return d
}

// Resolve rebuilds the query text: words cased by their winning tag, joined
// by single spaces, each punctuation mark attached to the word before it.
// A mark in the gap before the first word is attached to the first word.
func (r Resolver) Resolve(words []string, t *Tally) string {
	if len(words) == 0 {
		return ""
	}

	d := r.Decide(t)

	var b strings.Builder
	b.WriteString(d.Punctuation[0])
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.casing.Apply(d.Capitalization[i], w))
		b.WriteString(d.Punctuation[i+1])
	}
	return b.String()
}
