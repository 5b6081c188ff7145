package index

import (
	"iter"
	"maps"

	"github.com/huandu/skiplist"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// MemoryIndex keeps the inverted mapping term -> document -> tf, the reverse
// mapping document -> term -> tf, and per-document metadata.
//
// A MemoryIndex is not safe for concurrent use. Callers that share one
// across goroutines must serialize writers against everything else.
type MemoryIndex struct {
	stopWords tokenizer.StopWords
	termDocs  map[string]Postings
	docTerms  map[int]map[string]float64
	docs      map[int]DocumentData
	ids       *skiplist.SkipList
}

func NewMemoryIndex(stopWords tokenizer.StopWords) *MemoryIndex {
	if stopWords == nil {
		stopWords = make(tokenizer.StopWords)
	}
	return &MemoryIndex{
		stopWords: stopWords,
		termDocs:  make(map[string]Postings),
		docTerms:  make(map[int]map[string]float64),
		docs:      make(map[int]DocumentData),
		ids:       skiplist.New(skiplist.Int),
	}
}

// AddStopWords extends the stop-word set. Already indexed documents are not
// re-tokenized.
func (m *MemoryIndex) AddStopWords(words tokenizer.StopWords) {
	m.stopWords = m.stopWords.Merge(words)
}

func (m *MemoryIndex) IsStopWord(word string) bool {
	return m.stopWords.IsStopWord(word)
}

// AddDocument indexes text under id. Every surviving token contributes
// 1/len(tokens) to its term, so a document's frequencies sum to 1. A text
// with no surviving tokens is stored with its metadata and no terms. On
// error the index is left untouched.
func (m *MemoryIndex) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return apperrors.InvalidArgument("invalid or duplicate id %d: negative", id)
	}
	if _, exists := m.docs[id]; exists {
		return apperrors.InvalidArgument("invalid or duplicate id %d: already indexed", id)
	}
	if !status.Valid() {
		return apperrors.InvalidArgument("unknown document status %d", int(status))
	}
	words, err := m.stopWords.Filter(text)
	if err != nil {
		return err
	}

	termFreqs := make(map[string]float64, len(words))
	if len(words) > 0 {
		weight := 1.0 / float64(len(words))
		for _, w := range words {
			termFreqs[w] += weight
		}
	}
	for term, tf := range termFreqs {
		postings, ok := m.termDocs[term]
		if !ok {
			postings = make(Postings)
			m.termDocs[term] = postings
		}
		postings[id] = tf
	}
	m.docTerms[id] = termFreqs
	m.docs[id] = DocumentData{
		Rating: averageRating(ratings),
		Status: status,
	}
	m.ids.Set(id, struct{}{})
	return nil
}

// RemoveDocument drops id from every term bucket it appears in, using the
// document's own term list. Buckets left empty are pruned.
func (m *MemoryIndex) RemoveDocument(id int) error {
	terms, ok := m.docTerms[id]
	if !ok {
		return apperrors.NotFound("document %d", id)
	}
	for term := range terms {
		postings := m.termDocs[term]
		delete(postings, id)
		if len(postings) == 0 {
			delete(m.termDocs, term)
		}
	}
	delete(m.docTerms, id)
	delete(m.docs, id)
	m.ids.Remove(id)
	return nil
}

func (m *MemoryIndex) Document(id int) (DocumentData, bool) {
	d, ok := m.docs[id]
	return d, ok
}

func (m *MemoryIndex) DocCount() int {
	return len(m.docs)
}

// DocumentIDs yields live ids in ascending order. The index must not be
// mutated while the sequence is being ranged over.
func (m *MemoryIndex) DocumentIDs() iter.Seq[int] {
	return func(yield func(int) bool) {
		for e := m.ids.Front(); e != nil; e = e.Next() {
			if !yield(e.Key().(int)) {
				return
			}
		}
	}
}

// DocFreq is the number of live documents containing term.
func (m *MemoryIndex) DocFreq(term string) int {
	return len(m.termDocs[term])
}

// Postings yields (document id, term frequency) pairs for term in
// unspecified order.
func (m *MemoryIndex) Postings(term string) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for id, tf := range m.termDocs[term] {
			if !yield(id, tf) {
				return
			}
		}
	}
}

// Contains reports whether document id holds term.
func (m *MemoryIndex) Contains(term string, id int) bool {
	_, ok := m.termDocs[term][id]
	return ok
}

// WordFrequencies returns a copy of the term -> tf map of document id.
func (m *MemoryIndex) WordFrequencies(id int) (map[string]float64, error) {
	terms, ok := m.docTerms[id]
	if !ok {
		return nil, apperrors.NotFound("document %d", id)
	}
	return maps.Clone(terms), nil
}

// TermCount is the number of distinct terms with at least one live document.
func (m *MemoryIndex) TermCount() int {
	return len(m.termDocs)
}

func averageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
