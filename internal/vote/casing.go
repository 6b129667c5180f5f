package vote

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/punctuate/internal/labels"
)

// Transform changes the casing of a word.
type Transform func(word string) string

var transforms = map[string]Transform{
	"keep":  func(w string) string { return w },
	"title": titleCase,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// TransformNames lists the transforms a capitalization tag can map to.
func TransformNames() []string {
	return []string{"keep", "title", "upper", "lower"}
}

func titleCase(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// Casing maps capitalization tags to transforms.
type Casing struct {
	byTag map[rune]Transform
}

// NewCasing pairs each tag of the alphabet with the transform named at the
// same position in names.
func NewCasing(alphabet labels.Alphabet, names []string) (Casing, error) {
	tags := alphabet.Tags()
	if len(names) != len(tags) {
		return Casing{}, fmt.Errorf("capitalization labels %q need %d transforms, got %d", alphabet, len(tags), len(names))
	}

	c := Casing{byTag: make(map[rune]Transform, len(tags))}
	for i, tag := range tags {
		fn, ok := transforms[strings.ToLower(names[i])]
		if !ok {
			return Casing{}, fmt.Errorf("unknown transform %q for label %q (supported: %s)", names[i], tag, strings.Join(TransformNames(), ", "))
		}
		c.byTag[tag] = fn
	}

	return c, nil
}

// Apply cases word according to tag. Unknown tags leave the word unchanged.
func (c Casing) Apply(tag rune, word string) string {
	if fn, ok := c.byTag[tag]; ok {
		return fn(word)
	}
	return word
}
