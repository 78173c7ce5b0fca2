// Package rank provides the exact-term reranking stage of retrieval.
// It scores a small candidate set with BM25 (Okapi variant), computing
// corpus statistics over the candidates at query time. Unlike the
// store's stemmed full-text stage, this stage matches tokens exactly,
// so "run" and "running" stay distinct.
package rank

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// BM25 parameters, matching the Okapi defaults.
const (
	k1      = 1.5
	b       = 0.75
	epsilon = 0.25
)

var wordRe = regexp.MustCompile(`[\pL\pN_]+`)

// Tokenize lowercases text, splits it into word tokens, and drops
// stopwords and single-character tokens.
func Tokenize(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	tokens := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// Corpus holds per-query BM25 statistics for a candidate set. It is
// immutable after construction and therefore safe to share between
// goroutines; each query builds its own Corpus so concurrent searches
// stay independent.
type Corpus struct {
	freqs  []map[string]int
	lens   []int
	avgLen float64
	idf    map[string]float64
}

// NewCorpus tokenizes the candidate texts and precomputes term
// statistics. An empty candidate set yields a corpus that scores
// everything zero.
func NewCorpus(texts []string) *Corpus {
	c := &Corpus{
		freqs: make([]map[string]int, len(texts)),
		lens:  make([]int, len(texts)),
		idf:   make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for tok := range freq {
			df[tok]++
		}
		c.freqs[i] = freq
		c.lens[i] = len(tokens)
		total += len(tokens)
	}
	if n := len(texts); n > 0 {
		c.avgLen = float64(total) / float64(n)
	}

	// Standard Okapi IDF goes negative for terms in more than half the
	// candidates; those are floored to a fraction of the average IDF so
	// common-but-present terms still contribute. Small pools can push
	// the average itself negative, so the floor is clamped positive: a
	// candidate containing a query term must always outscore one that
	// contains none.
	n := float64(len(texts))
	var idfSum float64
	var negative []string
	for tok, d := range df {
		idf := math.Log((n - float64(d) + 0.5) / (float64(d) + 0.5))
		c.idf[tok] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, tok)
		}
	}
	if len(c.idf) > 0 {
		floor := epsilon * idfSum / float64(len(c.idf))
		if floor <= 0 {
			floor = epsilon
		}
		for _, tok := range negative {
			c.idf[tok] = floor
		}
	}

	return c
}

// Len returns the number of candidate texts in the corpus.
func (c *Corpus) Len() int {
	return len(c.freqs)
}

// Scores computes the BM25 score of every candidate against the query,
// in candidate order. The query goes through the same tokenizer as the
// candidate texts.
func (c *Corpus) Scores(query string) []float64 {
	scores := make([]float64, len(c.freqs))
	if c.avgLen == 0 {
		return scores
	}
	tokens := Tokenize(query)
	for i, freq := range c.freqs {
		norm := k1 * (1 - b + b*float64(c.lens[i])/c.avgLen)
		var score float64
		for _, tok := range tokens {
			f := float64(freq[tok])
			if f == 0 {
				continue
			}
			score += c.idf[tok] * f * (k1 + 1) / (f + norm)
		}
		scores[i] = score
	}
	return scores
}
