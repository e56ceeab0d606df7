package vectorizer

import "strings"

// ngrams returns every contiguous n-gram of tokens for n in [minN, maxN],
// joined with single spaces. Shorter n-grams come first.
func ngrams(tokens []string, minN, maxN int) []string {
	var grams []string
	for n := minN; n <= maxN; n++ {
		if n < 1 || n > len(tokens) {
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}
