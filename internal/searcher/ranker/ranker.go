package ranker

import (
	"cmp"
	"iter"
	"math"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

const (
	MaxResultDocumentCount = 5

	// relevanceEpsilon is the distance below which two relevances are
	// treated as equal and rating decides the order.
	relevanceEpsilon = 1e-6
)

type ScoredDoc struct {
	DocID     int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// Predicate selects which documents may accumulate relevance.
type Predicate func(docID int, status index.Status, rating int) bool

// StatusIs matches documents with exactly the given status.
func StatusIs(status index.Status) Predicate {
	return func(_ int, s index.Status, _ int) bool {
		return s == status
	}
}

// Actual is the default predicate.
var Actual = StatusIs(index.StatusActual)

// Corpus is the read side of the index used for scoring.
type Corpus interface {
	DocCount() int
	DocFreq(term string) int
	Postings(term string) iter.Seq2[int, float64]
	Document(id int) (index.DocumentData, bool)
}

// FindAll scores every document that passes pred against the plus terms
// with TF-IDF and drops any document containing a minus term. The result is
// in ascending id order.
func FindAll(corpus Corpus, query *parser.Query, pred Predicate) []ScoredDoc {
	totalDocs := corpus.DocCount()
	if totalDocs == 0 || query.Empty() {
		return []ScoredDoc{}
	}
	relevance := make(map[int]float64)
	for _, term := range query.PlusTerms {
		docFreq := corpus.DocFreq(term)
		if docFreq == 0 {
			continue
		}
		idf := computeIDF(totalDocs, docFreq)
		for docID, tf := range corpus.Postings(term) {
			data, ok := corpus.Document(docID)
			if !ok || !pred(docID, data.Status, data.Rating) {
				continue
			}
			relevance[docID] += tf * idf
		}
	}
	for _, term := range query.MinusTerms {
		if corpus.DocFreq(term) == 0 {
			continue
		}
		for docID := range corpus.Postings(term) {
			delete(relevance, docID)
		}
	}

	result := make([]ScoredDoc, 0, len(relevance))
	for docID, rel := range relevance {
		data, _ := corpus.Document(docID)
		result = append(result, ScoredDoc{
			DocID:     docID,
			Relevance: rel,
			Rating:    data.Rating,
		})
	}
	slices.SortFunc(result, func(a, b ScoredDoc) int {
		return cmp.Compare(a.DocID, b.DocID)
	})
	return result
}

// Rank orders docs by relevance descending, breaking near-ties by rating
// descending, and keeps at most limit of them. A non-positive limit keeps
// everything.
func Rank(docs []ScoredDoc, limit int) []ScoredDoc {
	slices.SortStableFunc(docs, compareScored)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

// FindTop is FindAll followed by Rank with MaxResultDocumentCount.
func FindTop(corpus Corpus, query *parser.Query, pred Predicate) []ScoredDoc {
	return Rank(FindAll(corpus, query, pred), MaxResultDocumentCount)
}

func compareScored(a, b ScoredDoc) int {
	if math.Abs(a.Relevance-b.Relevance) < relevanceEpsilon {
		return cmp.Compare(b.Rating, a.Rating)
	}
	return cmp.Compare(b.Relevance, a.Relevance)
}

// computeIDF is ln(total/docFreq). Callers guarantee both are positive.
func computeIDF(totalDocs, docFreq int) float64 {
	return math.Log(float64(totalDocs) / float64(docFreq))
}
