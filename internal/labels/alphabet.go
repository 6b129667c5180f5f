package labels

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultCapitalization is the tag alphabet used when none is configured:
// O leaves a word unchanged, u capitalizes its first letter, U uppercases it.
const DefaultCapitalization = "OuU"

// Alphabet is the set of capitalization tags an oracle interleaves with
// punctuation. The first tag is the neutral one.
type Alphabet struct {
	tags  []rune
	index map[rune]int
}

// NewAlphabet parses a tag alphabet. Tags must be distinct and must not be
// whitespace or punctuation, otherwise label strings would be ambiguous.
func NewAlphabet(tags string) (Alphabet, error) {
	if tags == "" {
		return Alphabet{}, fmt.Errorf("capitalization labels must not be empty")
	}

	a := Alphabet{index: make(map[rune]int)}
	for _, r := range tags {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return Alphabet{}, fmt.Errorf("capitalization label %q collides with punctuation or whitespace", r)
		}
		if _, dup := a.index[r]; dup {
			return Alphabet{}, fmt.Errorf("capitalization label %q appears more than once in %q", r, tags)
		}
		a.index[r] = len(a.tags)
		a.tags = append(a.tags, r)
	}

	return a, nil
}

// MustAlphabet is NewAlphabet for constant alphabets.
func MustAlphabet(tags string) Alphabet {
	a, err := NewAlphabet(tags)
	if err != nil {
		panic(err)
	}
	return a
}

// Neutral returns the tag that leaves a word unchanged.
func (a Alphabet) Neutral() rune {
	return a.tags[0]
}

// IsTag reports whether r is one of the alphabet's tags.
func (a Alphabet) IsTag(r rune) bool {
	_, ok := a.index[r]
	return ok
}

// Tags returns the tags in declaration order.
func (a Alphabet) Tags() []rune {
	out := make([]rune, len(a.tags))
	copy(out, a.tags)
	return out
}

// String returns the alphabet as it was configured.
func (a Alphabet) String() string {
	return string(a.tags)
}

// Count returns the number of tags in a label string, i.e. the number of
// words it labels.
func (a Alphabet) Count(labels string) int {
	n := 0
	for _, r := range labels {
		if a.IsTag(r) {
			n++
		}
	}
	return n
}

// Fields is a label string split on its tags. Punctuation has one entry
// more than Capitalization: Punctuation[k] precedes word k and
// Punctuation[len] follows the last word. Punctuation entries are trimmed,
// so "" means no punctuation.
type Fields struct {
	Punctuation    []string
	Capitalization []rune
}

// Len returns the number of words the fields label.
func (f Fields) Len() int {
	return len(f.Capitalization)
}

// Split splits a label string into alternating punctuation and
// capitalization fields.
func (a Alphabet) Split(labels string) Fields {
	var (
		f   Fields
		buf strings.Builder
	)
	for _, r := range labels {
		if a.IsTag(r) {
			f.Punctuation = append(f.Punctuation, strings.TrimSpace(buf.String()))
			f.Capitalization = append(f.Capitalization, r)
			buf.Reset()
			continue
		}
		buf.WriteRune(r)
	}
	f.Punctuation = append(f.Punctuation, strings.TrimSpace(buf.String()))

	return f
}
