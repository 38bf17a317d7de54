package store

import "math"

// BM25 tuning parameters. Standard values for term-frequency saturation
// and document-length normalization.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25Index ranks tokenized documents against tokenized queries. It is
// immutable once built; mutations rebuild the whole index from storage.
type bm25Index struct {
	termFreqs []map[string]int // per-document term counts
	docLens   []float64
	docFreq   map[string]int // documents containing each term
	avgLen    float64
	numDocs   int
}

// newBM25 builds an index over the corpus in its given (stable) order.
// Returns nil for an empty corpus.
func newBM25(corpus [][]string) *bm25Index {
	if len(corpus) == 0 {
		return nil
	}

	idx := &bm25Index{
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]float64, len(corpus)),
		docFreq:   make(map[string]int),
		numDocs:   len(corpus),
	}

	total := 0.0
	for i, tokens := range corpus {
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = float64(len(tokens))
		total += float64(len(tokens))
		for t := range tf {
			idx.docFreq[t]++
		}
	}
	idx.avgLen = total / float64(len(corpus))

	return idx
}

// idf favors rare terms. The +1 inside the log keeps it strictly positive,
// so document scores never go negative.
func (idx *bm25Index) idf(term string) float64 {
	df := float64(idx.docFreq[term])
	if df == 0 {
		return 0
	}
	return math.Log(1.0 + (float64(idx.numDocs)-df+0.5)/(df+0.5))
}

// scores returns one BM25 score per corpus document, in corpus order.
func (idx *bm25Index) scores(queryTokens []string) []float64 {
	out := make([]float64, idx.numDocs)
	if idx.avgLen == 0 {
		return out
	}

	for _, term := range queryTokens {
		termIDF := idx.idf(term)
		if termIDF == 0 {
			continue
		}
		for i, tf := range idx.termFreqs {
			count := float64(tf[term])
			if count == 0 {
				continue
			}
			denom := count + bm25K1*(1.0-bm25B+bm25B*(idx.docLens[i]/idx.avgLen))
			out[i] += termIDF * (count * (bm25K1 + 1.0)) / denom
		}
	}
	return out
}
