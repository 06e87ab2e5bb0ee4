// Package tfidf fits and applies the TF-IDF feature space shared by training,
// evaluation and serving.
package tfidf

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/sparse"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Options configures Fit.
type Options struct {
	MaxFeatures int    `json:"max_features" yaml:"max_features"` // 0 keeps every term
	StopWords   string `json:"stop_words" yaml:"stop_words"`     // "english" or ""
	NGramMin    int    `json:"ngram_min" yaml:"ngram_min"`
	NGramMax    int    `json:"ngram_max" yaml:"ngram_max"`
}

// DefaultOptions mirrors the production vectorizer: 10000 terms, English stop words,
// unigrams and bigrams.
func DefaultOptions() Options {
	return Options{MaxFeatures: 10000, StopWords: "english", NGramMin: 1, NGramMax: 2}
}

// Vectorizer is a fitted, frozen TF-IDF state. It is safe for concurrent use.
type Vectorizer struct {
	Version    string    `json:"version"`
	Options    Options   `json:"options"`
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`
	DocCount   int       `json:"doc_count"`

	index     map[string]int
	stopWords map[string]struct{}
}

// Fit builds the vocabulary and IDF weights from corpus.
func Fit(corpus []string, opts Options) (*Vectorizer, error) {
	if opts.NGramMin <= 0 {
		opts.NGramMin = 1
	}
	if opts.NGramMax < opts.NGramMin {
		opts.NGramMax = opts.NGramMin
	}
	stop, ok := stopWordSet(opts.StopWords)
	if !ok {
		return nil, fmt.Errorf("%w: unknown stop word list %q", apperr.ErrValidation, opts.StopWords)
	}

	v := &Vectorizer{Options: opts, DocCount: len(corpus), stopWords: stop}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range v.analyze(doc) {
			termFreq[term]++
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}
	if len(termFreq) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary; corpus contains only stop words or no tokens", apperr.ErrValidation)
	}

	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}
	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if termFreq[terms[i]] != termFreq[terms[j]] {
				return termFreq[terms[i]] > termFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	v.Vocabulary = terms
	v.IDF = make([]float64, len(terms))
	for i, t := range terms {
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	v.buildIndex()
	return v, nil
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Vocabulary))
	for i, t := range v.Vocabulary {
		v.index[t] = i
	}
	v.stopWords, _ = stopWordSet(v.Options.StopWords)
}

// analyze tokenizes, drops stop words, and expands n-grams.
func (v *Vectorizer) analyze(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := v.stopWords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	var terms []string
	for n := v.Options.NGramMin; n <= v.Options.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Dim returns the size of the feature space.
func (v *Vectorizer) Dim() int { return len(v.Vocabulary) }

// Transform maps text into the fitted feature space. Terms outside the vocabulary
// are ignored.
func (v *Vectorizer) Transform(text string) sparse.Vector {
	counts := make(map[int]float64)
	for _, term := range v.analyze(text) {
		if i, ok := v.index[term]; ok {
			counts[i]++
		}
	}
	for i := range counts {
		counts[i] *= v.IDF[i]
	}
	return sparse.NewVector(counts).Normalize()
}

// TransformAll transforms every document of corpus.
func (v *Vectorizer) TransformAll(corpus []string) sparse.Matrix {
	m := sparse.Matrix{Rows: make([]sparse.Vector, len(corpus)), Dim: v.Dim()}
	for i, doc := range corpus {
		m.Rows[i] = v.Transform(doc)
	}
	return m
}

// InverseTransform returns the vocabulary terms with non-zero weight, in index order.
func (v *Vectorizer) InverseTransform(vec sparse.Vector) []string {
	terms := make([]string, 0, vec.NNZ())
	for k, i := range vec.Indices {
		if vec.Values[k] != 0 && i < len(v.Vocabulary) {
			terms = append(terms, v.Vocabulary[i])
		}
	}
	return terms
}

// UnmarshalJSON restores the lookup tables after decoding.
func (v *Vectorizer) UnmarshalJSON(data []byte) error {
	type plain Vectorizer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Vocabulary) != len(p.IDF) {
		return fmt.Errorf("vocabulary has %d terms but idf has %d weights", len(p.Vocabulary), len(p.IDF))
	}
	if _, ok := stopWordSet(p.Options.StopWords); !ok {
		return fmt.Errorf("unknown stop word list %q", p.Options.StopWords)
	}
	*v = Vectorizer(p)
	v.buildIndex()
	return nil
}
