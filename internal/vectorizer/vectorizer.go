package vectorizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNotFitted is returned by Transform when the vectorizer has no
// vocabulary yet.
var ErrNotFitted = errors.New("vectorizer: not fitted")

// Params controls vocabulary construction.
type Params struct {
	MaxFeatures int     `json:"max_features"`  // keep at most this many terms (0 = unlimited)
	MinDocFreq  int     `json:"min_doc_freq"`  // drop terms seen in fewer documents
	MaxDocRatio float64 `json:"max_doc_ratio"` // drop terms seen in more than this fraction of documents
	NGramMin    int     `json:"ngram_min"`
	NGramMax    int     `json:"ngram_max"`
}

// DefaultParams returns the parameters used by the training pipeline:
// up to 1000 features, unigrams and bigrams, terms in over 80% of
// documents dropped.
func DefaultParams() Params {
	return Params{
		MaxFeatures: 1000,
		MinDocFreq:  1,
		MaxDocRatio: 0.8,
		NGramMin:    1,
		NGramMax:    2,
	}
}

func (p Params) validate() error {
	if p.NGramMin < 1 {
		return fmt.Errorf("vectorizer: ngram min must be >= 1, got %d", p.NGramMin)
	}
	if p.NGramMax < p.NGramMin {
		return fmt.Errorf("vectorizer: ngram max %d below ngram min %d", p.NGramMax, p.NGramMin)
	}
	if p.MinDocFreq < 1 {
		return fmt.Errorf("vectorizer: min doc freq must be >= 1, got %d", p.MinDocFreq)
	}
	if p.MaxDocRatio <= 0 || p.MaxDocRatio > 1 {
		return fmt.Errorf("vectorizer: max doc ratio must be in (0, 1], got %v", p.MaxDocRatio)
	}
	if p.MaxFeatures < 0 {
		return fmt.Errorf("vectorizer: max features must be >= 0, got %d", p.MaxFeatures)
	}
	return nil
}

// Vectorizer converts raw texts into L2-normalized TF-IDF feature vectors.
// The zero value is unusable; create one with New and call Fit before
// Transform.
type Vectorizer struct {
	Params Params         `json:"params"`
	Vocab  map[string]int `json:"vocabulary"` // term -> column index
	IDF    []float64      `json:"idf"`        // indexed by column
}

// New creates an unfitted Vectorizer with the given parameters.
func New(p Params) *Vectorizer {
	return &Vectorizer{Params: p}
}

// Fit builds the vocabulary and IDF weights from the given documents.
// Terms are pruned by document frequency, capped at MaxFeatures by corpus
// frequency (ties broken alphabetically), and the surviving terms are
// indexed in alphabetical order.
func (v *Vectorizer) Fit(texts []string) error {
	if err := v.Params.validate(); err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("vectorizer: fit: no documents")
	}

	nDocs := len(texts)
	docFreq := make(map[string]int)
	corpusCount := make(map[string]int)
	for _, text := range texts {
		grams := ngrams(tokenize(text), v.Params.NGramMin, v.Params.NGramMax)
		seen := make(map[string]bool, len(grams))
		for _, g := range grams {
			corpusCount[g]++
			if !seen[g] {
				seen[g] = true
				docFreq[g]++
			}
		}
	}

	// A term in strictly more than MaxDocRatio of documents is too common
	// to be informative.
	maxDocCount := v.Params.MaxDocRatio * float64(nDocs)
	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df < v.Params.MinDocFreq || float64(df) > maxDocCount {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return fmt.Errorf("vectorizer: fit: empty vocabulary after pruning")
	}

	if v.Params.MaxFeatures > 0 && len(kept) > v.Params.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			ci, cj := corpusCount[kept[i]], corpusCount[kept[j]]
			if ci != cj {
				return ci > cj
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.Params.MaxFeatures]
	}
	sort.Strings(kept)

	v.Vocab = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, term := range kept {
		v.Vocab[term] = i
		v.IDF[i] = math.Log(float64(1+nDocs)/float64(1+docFreq[term])) + 1
	}
	return nil
}

// Transform converts texts into rows of TF-IDF weights over the fitted
// vocabulary. Each row is L2-normalized; out-of-vocabulary terms are
// dropped. A text with no known terms yields an all-zero row.
func (v *Vectorizer) Transform(texts []string) ([][]float64, error) {
	if v.Vocab == nil || len(v.IDF) == 0 {
		return nil, ErrNotFitted
	}

	rows := make([][]float64, len(texts))
	for i, text := range texts {
		row := make([]float64, len(v.IDF))
		for _, g := range ngrams(tokenize(text), v.Params.NGramMin, v.Params.NGramMax) {
			if col, ok := v.Vocab[g]; ok {
				row[col]++
			}
		}
		var sq float64
		for col, tf := range row {
			if tf == 0 {
				continue
			}
			row[col] = tf * v.IDF[col]
			sq += row[col] * row[col]
		}
		if sq > 0 {
			norm := math.Sqrt(sq)
			for col := range row {
				row[col] /= norm
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// FitTransform fits the vocabulary on texts and returns their feature
// vectors.
func (v *Vectorizer) FitTransform(texts []string) ([][]float64, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	return v.Transform(texts)
}

// FeatureCount returns the number of terms in the fitted vocabulary.
func (v *Vectorizer) FeatureCount() int {
	return len(v.IDF)
}

// FeatureNames returns the vocabulary terms ordered by column index.
func (v *Vectorizer) FeatureNames() []string {
	names := make([]string, len(v.IDF))
	for term, col := range v.Vocab {
		names[col] = term
	}
	return names
}
