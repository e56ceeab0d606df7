package vectorizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "simple", text: "This is great!", want: []string{"this", "is", "great"}},
		{name: "apostrophe splits", text: "Don't stop", want: []string{"don", "stop"}},
		{name: "single letters dropped", text: "I've seen it", want: []string{"ve", "seen", "it"}},
		{name: "accents stripped", text: "Café Münster", want: []string{"cafe", "munster"}},
		{name: "hyphens split", text: "over-the-top", want: []string{"over", "the", "top"}},
		{name: "digits and underscores", text: "well_done 42", want: []string{"well_done", "42"}},
		{name: "whitespace variants", text: "tab\tand\nnewline", want: []string{"tab", "and", "newline"}},
		{name: "control characters removed", text: "a\x00bc", want: []string{"abc"}},
		{name: "only short runs", text: "x y z", want: nil},
		{name: "empty", text: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNGrams(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		minN   int
		maxN   int
		want   []string
	}{
		{
			name:   "unigrams and bigrams",
			tokens: []string{"aa", "bb", "cc"},
			minN:   1, maxN: 2,
			want: []string{"aa", "bb", "cc", "aa bb", "bb cc"},
		},
		{
			name:   "unigrams only",
			tokens: []string{"aa", "bb"},
			minN:   1, maxN: 1,
			want: []string{"aa", "bb"},
		},
		{
			name:   "single token has no bigrams",
			tokens: []string{"aa"},
			minN:   1, maxN: 2,
			want: []string{"aa"},
		},
		{
			name:   "bigrams and trigrams",
			tokens: []string{"aa", "bb", "cc"},
			minN:   2, maxN: 3,
			want: []string{"aa bb", "bb cc", "aa bb cc"},
		},
		{
			name:   "no tokens",
			tokens: nil,
			minN:   1, maxN: 2,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ngrams(tt.tokens, tt.minN, tt.maxN)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ngrams(%v, %d, %d) = %v, want %v", tt.tokens, tt.minN, tt.maxN, got, tt.want)
			}
		})
	}
}
