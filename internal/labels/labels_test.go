package labels

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewAlphabet(t *testing.T) {
	tests := []struct {
		name    string
		tags    string
		wantErr bool
	}{
		{name: "default", tags: DefaultCapitalization},
		{name: "single", tags: "N"},
		{name: "empty", tags: "", wantErr: true},
		{name: "duplicate", tags: "OuUu", wantErr: true},
		{name: "space", tags: "O U", wantErr: true},
		{name: "punctuation", tags: "O,U", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAlphabet(tt.tags)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAlphabet(%q) error = %v, wantErr %v", tt.tags, err, tt.wantErr)
			}
		})
	}
}

func TestAlphabet_Neutral(t *testing.T) {
	a := MustAlphabet("OuU")
	if a.Neutral() != 'O' {
		t.Errorf("expected neutral O, got %q", a.Neutral())
	}
	if !a.IsTag('U') || a.IsTag('x') {
		t.Error("IsTag misclassified a rune")
	}
}

func TestAlphabet_Split(t *testing.T) {
	a := MustAlphabet("OuU")

	tests := []struct {
		labels string
		want   Fields
	}{
		{
			labels: "O O O.",
			want: Fields{
				Punctuation:    []string{"", "", "", "."},
				Capitalization: []rune("OOO"),
			},
		},
		{
			labels: "u, O U?",
			want: Fields{
				Punctuation:    []string{"", ",", "", "?"},
				Capitalization: []rune("uOU"),
			},
		},
		{
			labels: "\"u O\"",
			want: Fields{
				Punctuation:    []string{"\"", "", "\""},
				Capitalization: []rune("uO"),
			},
		},
		{
			labels: "",
			want:   Fields{Punctuation: []string{""}},
		},
	}

	for _, tt := range tests {
		got := a.Split(tt.labels)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Split(%q) mismatch (-want +got):\n%s", tt.labels, diff)
		}
		if len(got.Punctuation) != got.Len()+1 {
			t.Errorf("Split(%q): expected %d punctuation fields, got %d", tt.labels, got.Len()+1, len(got.Punctuation))
		}
	}
}

func TestAlphabet_Align(t *testing.T) {
	a := MustAlphabet("OuU")

	tests := []struct {
		name       string
		labels     string
		numWords   int
		want       string
		wantRepair Repair
	}{
		{name: "exact", labels: "O O, u.", numWords: 3, want: "O O, u.", wantRepair: RepairNone},
		{name: "pad without trailing space", labels: "u O.", numWords: 4, want: "u O. O O ", wantRepair: RepairPadded},
		{name: "pad with trailing space", labels: "u O ", numWords: 3, want: "u O O ", wantRepair: RepairPadded},
		{name: "pad empty", labels: "", numWords: 2, want: "O O ", wantRepair: RepairPadded},
		{name: "truncate keeps trailing mark", labels: "O O, O.", numWords: 2, want: "O O, ", wantRepair: RepairTruncated},
		{name: "truncate many", labels: "u O O U O.", numWords: 1, want: "u ", wantRepair: RepairTruncated},
		{name: "truncate to nothing", labels: "O.", numWords: 0, want: "", wantRepair: RepairTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repair := a.Align(tt.labels, tt.numWords)
			if got != tt.want {
				t.Errorf("Align(%q, %d) = %q, want %q", tt.labels, tt.numWords, got, tt.want)
			}
			if repair != tt.wantRepair {
				t.Errorf("expected repair %s, got %s", tt.wantRepair, repair)
			}
			if n := a.Count(got); n != tt.numWords {
				t.Errorf("aligned labels carry %d tags, want %d", n, tt.numWords)
			}
		})
	}
}

func TestAlphabet_Align_Idempotent(t *testing.T) {
	a := MustAlphabet("OuU")
	inputs := []struct {
		labels   string
		numWords int
	}{
		{"O", 5},
		{"u, O O O O O O.", 3},
		{"", 0},
		{"O O O", 3},
	}

	for _, in := range inputs {
		once, _ := a.Align(in.labels, in.numWords)
		twice, repair := a.Align(once, in.numWords)
		if twice != once {
			t.Errorf("Align not idempotent for %q: %q then %q", in.labels, once, twice)
		}
		if repair != RepairNone {
			t.Errorf("expected no repair on aligned input %q, got %s", once, repair)
		}
	}
}
