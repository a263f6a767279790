package fulltext

import "strings"

// TrigramIndex accelerates LIKE/ILIKE by indexing every 3-character
// substring of each document's text, so a pattern like '%report%' only
// needs to scan the (usually tiny) set of documents containing the
// "rep"/"epo"/"por"/"ort" trigrams instead of every document.
type TrigramIndex struct {
	postings map[string]*posting
}

// NewTrigramIndex returns an empty index.
func NewTrigramIndex() *TrigramIndex {
	return &TrigramIndex{postings: make(map[string]*posting)}
}

// Add indexes text's trigrams under id.
func (t *TrigramIndex) Add(id uint64, text string) {
	for _, g := range uniqueStrings(docTrigrams(text)) {
		p, ok := t.postings[g]
		if !ok {
			p = newPosting()
			t.postings[g] = p
		}
		p.add(id)
	}
}

// Remove un-indexes text's trigrams for id.
func (t *TrigramIndex) Remove(id uint64, text string) {
	for _, g := range uniqueStrings(docTrigrams(text)) {
		p, ok := t.postings[g]
		if !ok {
			continue
		}
		p.remove(id)
		if p.cardinality() == 0 {
			delete(t.postings, g)
		}
	}
}

// Candidates returns the doc ids that could possibly match pattern (an
// SQL LIKE/ILIKE pattern), by intersecting the postings of every literal
// trigram extractable from it. The caller must still run the real
// LIKE match over each candidate, since a trigram match doesn't prove
// substring order or adjacency across gram boundaries alone — it only
// narrows the candidate set. ok is false when pattern has no literal run
// of 3+ characters to index against (e.g. "a%" or "_"), meaning the
// caller must fall back to a full scan.
func (t *TrigramIndex) Candidates(pattern string) (ids []uint64, ok bool) {
	grams := uniqueStrings(patternTrigrams(pattern))
	if len(grams) == 0 {
		return nil, false
	}
	postings := make([]*posting, 0, len(grams))
	for _, g := range grams {
		p, exists := t.postings[g]
		if !exists {
			return nil, true // some trigram has zero documents: no candidates
		}
		postings = append(postings, p)
	}
	return intersectPostings(postings...), true
}

// docTrigrams extracts 3-grams from text, padded with two leading and
// trailing spaces so patterns anchored at a document's start/end can
// also be accelerated.
func docTrigrams(text string) []string {
	return ngrams("  "+strings.ToLower(text)+"  ", 3)
}

// patternTrigrams extracts 3-grams from the literal (non-wildcard) runs
// of an SQL LIKE/ILIKE pattern. % and _ break a run since neither
// contributes a known character; \ escapes the following character.
func patternTrigrams(pattern string) []string {
	var grams []string
	for _, run := range literalRuns(pattern) {
		grams = append(grams, ngrams(strings.ToLower(run), 3)...)
	}
	return grams
}

func literalRuns(pattern string) []string {
	var runs []string
	var cur strings.Builder
	runes := []rune(pattern)
	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
			}
		case '%', '_':
			flush()
		default:
			cur.WriteRune(runes[i])
		}
	}
	flush()
	return runs
}

func ngrams(s string, n int) []string {
	runes := []rune(s)
	if len(runes) < n {
		return nil
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
