package labels

import (
	"strings"
	"unicode/utf8"
)

// Repair describes how Align changed a label string.
type Repair int

const (
	RepairNone Repair = iota
	RepairPadded
	RepairTruncated
)

func (r Repair) String() string {
	switch r {
	case RepairPadded:
		return "padded"
	case RepairTruncated:
		return "truncated"
	default:
		return "none"
	}
}

// Align returns labels adjusted to carry exactly numWords tags.
//
// Missing tags are appended as neutral tags separated by spaces. Surplus
// tags are cut from the end: the string is truncated just before the
// (numWords+1)-th tag, keeping the punctuation that followed the last
// kept word.
func (a Alphabet) Align(labels string, numWords int) (string, Repair) {
	have := a.Count(labels)

	switch {
	case have < numWords:
		var b strings.Builder
		b.Grow(len(labels) + 2*(numWords-have) + 1)
		b.WriteString(labels)
		if labels != "" && !strings.HasSuffix(labels, " ") {
			b.WriteByte(' ')
		}
		pad := string(a.Neutral()) + " "
		for i := have; i < numWords; i++ {
			b.WriteString(pad)
		}
		return b.String(), RepairPadded

	case have > numWords:
		end := len(labels)
		for have > numWords {
			r, size := utf8.DecodeLastRuneInString(labels[:end])
			end -= size
			if a.IsTag(r) {
				have--
			}
		}
		return labels[:end], RepairTruncated
	}

	return labels, RepairNone
}
