// Package fulltext implements BM25-scored full-text search and a
// trigram index for LIKE/ILIKE acceleration over arbitrary payload text.
package fulltext

import (
	"math"
	"sort"
	"sync"
)

// BM25 parameters, the standard textbook values.
const (
	k1 = 1.2
	b  = 0.75
)

// Result is one scored document from Search.
type Result struct {
	ID    uint64
	Score float64
}

// Index is a BM25-scored inverted index with an attached trigram index
// for LIKE/ILIKE acceleration. The zero value is not usable; construct
// with NewIndex.
type Index struct {
	mu sync.RWMutex

	postings    map[string]*posting       // term -> doc ids
	termFreq    map[uint64]map[string]int // docID -> term -> frequency
	docLength   map[uint64]int            // docID -> token count
	docText     map[uint64]string         // docID -> original text, for Remove/PhraseSearch
	totalLength uint64
	docCount    int

	trigram *TrigramIndex
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		postings:  make(map[string]*posting),
		termFreq:  make(map[uint64]map[string]int),
		docLength: make(map[uint64]int),
		docText:   make(map[uint64]string),
		trigram:   NewTrigramIndex(),
	}
}

// Add indexes (or re-indexes, if id was already present) text under id.
func (idx *Index) Add(id uint64, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return
	}
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for term := range tf {
		p, ok := idx.postings[term]
		if !ok {
			p = newPosting()
			idx.postings[term] = p
		}
		p.add(id)
	}
	idx.termFreq[id] = tf
	idx.docLength[id] = len(tokens)
	idx.docText[id] = text
	idx.totalLength += uint64(len(tokens))
	idx.docCount++
	idx.trigram.Add(id, text)
}

// Remove un-indexes id. A no-op if id was never indexed.
func (idx *Index) Remove(id uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *Index) removeLocked(id uint64) {
	tf, ok := idx.termFreq[id]
	if !ok {
		return
	}
	for term := range tf {
		if p, ok := idx.postings[term]; ok {
			p.remove(id)
			if p.cardinality() == 0 {
				delete(idx.postings, term)
			}
		}
	}
	idx.trigram.Remove(id, idx.docText[id])
	idx.totalLength -= uint64(idx.docLength[id])
	delete(idx.termFreq, id)
	delete(idx.docLength, id)
	delete(idx.docText, id)
	idx.docCount--
}

// Count returns the number of indexed documents.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.docCount
}

// Search scores every document containing at least one query term with
// BM25 and returns the top limit results, highest score first. limit <=
// 0 means unbounded.
func (idx *Index) Search(query string, limit int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.docCount == 0 {
		return nil
	}
	terms := uniqueStrings(Tokenize(query))
	if len(terms) == 0 {
		return nil
	}
	avgLen := float64(idx.totalLength) / float64(idx.docCount)

	scores := make(map[uint64]float64)
	for _, term := range terms {
		p, ok := idx.postings[term]
		if !ok {
			continue
		}
		idf := idx.idf(term, p)
		for _, id := range p.toSlice() {
			tf := float64(idx.termFreq[id][term])
			dl := float64(idx.docLength[id])
			denom := tf + k1*(1-b+b*(dl/avgLen))
			scores[id] += idf * (tf * (k1 + 1) / denom)
		}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// idf computes term's BM25 inverse document frequency using the
// Lucene/Elasticsearch +1 variant, which keeps the value non-negative
// even for terms appearing in the majority of documents.
func (idx *Index) idf(term string, p *posting) float64 {
	df := float64(p.cardinality())
	n := float64(idx.docCount)
	v := math.Log(1 + (n-df+0.5)/(df+0.5))
	if v < 0 {
		v = 0
	}
	return v
}

// LikeCandidates narrows an SQL LIKE/ILIKE pattern to the doc ids that
// could possibly match it via the trigram index. ok is false when the
// pattern has no literal run long enough to index against, meaning the
// caller must fall back to scanning every document's text directly.
func (idx *Index) LikeCandidates(pattern string) (ids []uint64, ok bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.trigram.Candidates(pattern)
}

// Text returns the original text indexed under id.
func (idx *Index) Text(id uint64) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	t, ok := idx.docText[id]
	return t, ok
}
