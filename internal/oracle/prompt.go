package oracle

import (
	"fmt"
	"strings"

	"github.com/ppiankov/punctuate/internal/labels"
)

// systemPrompt instructs chat models to act as a sequence labeler.
const systemPrompt = "You restore punctuation and capitalization. You answer with a single label string and nothing else."

// Tagging pairs the tag alphabet with the casing transform each tag stands
// for, in alphabet order.
type Tagging struct {
	Alphabet   labels.Alphabet
	Transforms []string
}

// describe returns the instruction for the transform at position i
func (t Tagging) describe(i int) string {
	switch strings.ToLower(t.Transforms[i]) {
	case "title":
		return "capitalize the first letter"
	case "upper":
		return "write the whole word in upper case"
	case "lower":
		return "write the whole word in lower case"
	}
	return "leave the word as it is"
}

// titleTag returns the tag that capitalizes the first letter, or the neutral
// tag when no tag does.
func (t Tagging) titleTag() rune {
	tags := t.Alphabet.Tags()
	for i, name := range t.Transforms {
		if strings.EqualFold(name, "title") {
			return tags[i]
		}
	}
	return tags[0]
}

// BuildPrompt asks a chat model for the label string of one window. The
// label syntax replaces every word by a capitalization tag and keeps the
// punctuation between them, e.g. "u O O, O." for "The cat sat, purring."
func BuildPrompt(t Tagging, w Window, opts Options) string {
	var b strings.Builder

	tags := t.Alphabet.Tags()
	neutral := tags[0]
	b.WriteString("Label the words below for punctuation and capitalization.\n\n")
	b.WriteString("Replace every word by exactly one capitalization tag:\n")
	for i, tag := range tags {
		fmt.Fprintf(&b, "- %c: %s\n", tag, t.describe(i))
	}
	b.WriteString("\nWrite the tags separated by single spaces and put any punctuation mark ")
	b.WriteString("right after the tag of the word it follows. Do not write the words themselves.\n")
	fmt.Fprintf(&b, "Example: the words \"the cat sat purring\" become \"%c %c %c, %c.\"\n\n", t.titleTag(), neutral, neutral, neutral)

	if opts.AddSourceNumWords {
		fmt.Fprintf(&b, "There are %d words, so the answer must contain exactly %d tags.\n\n", len(w.Words), len(w.Words))
	}

	b.WriteString("Words:\n")
	b.WriteString(w.Text())
	b.WriteString("\n\nLabels:")

	return b.String()
}
