package indexer

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// Engine is the search server: an in-memory index with query parsing,
// TF-IDF ranking, per-document matching and duplicate removal.
//
// An Engine is not safe for concurrent use; see the service package for a
// serialized wrapper.
type Engine struct {
	memIndex *index.MemoryIndex
	logger   *slog.Logger
}

// NewEngine creates an engine whose stop words are the whitespace-separated
// words of stopWords.
func NewEngine(stopWords string) (*Engine, error) {
	sw, err := tokenizer.ParseStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("parsing stop words: %w", err)
	}
	return newEngine(sw), nil
}

// NewEngineWithStopWords creates an engine from a list of stop words. Empty
// entries are ignored.
func NewEngineWithStopWords(stopWords []string) (*Engine, error) {
	sw, err := tokenizer.NewStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("parsing stop words: %w", err)
	}
	return newEngine(sw), nil
}

func newEngine(sw tokenizer.StopWords) *Engine {
	return &Engine{
		memIndex: index.NewMemoryIndex(sw),
		logger:   slog.Default().With("component", "indexer"),
	}
}

// SetStopWords adds the whitespace-separated words of text to the stop-word
// set. Documents already indexed keep their terms.
func (e *Engine) SetStopWords(text string) error {
	sw, err := tokenizer.ParseStopWords(text)
	if err != nil {
		return fmt.Errorf("parsing stop words: %w", err)
	}
	e.memIndex.AddStopWords(sw)
	return nil
}

func (e *Engine) AddDocument(id int, text string, status index.Status, ratings []int) error {
	if err := e.memIndex.AddDocument(id, text, status, ratings); err != nil {
		return err
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"status", status,
		"terms", e.memIndex.TermCount(),
		"docs", e.memIndex.DocCount(),
	)
	return nil
}

func (e *Engine) RemoveDocument(id int) error {
	if err := e.memIndex.RemoveDocument(id); err != nil {
		return err
	}
	e.logger.Debug("document removed", "doc_id", id, "docs", e.memIndex.DocCount())
	return nil
}

// FindTopDocuments returns up to ranker.MaxResultDocumentCount documents with
// status Actual, best first.
func (e *Engine) FindTopDocuments(rawQuery string) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocumentsFunc(rawQuery, ranker.Actual)
}

func (e *Engine) FindTopDocumentsByStatus(rawQuery string, status index.Status) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocumentsFunc(rawQuery, ranker.StatusIs(status))
}

// FindTopDocumentsFunc returns up to ranker.MaxResultDocumentCount documents
// accepted by pred, best first.
func (e *Engine) FindTopDocumentsFunc(rawQuery string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	query, err := parser.Parse(rawQuery, e.memIndex)
	if err != nil {
		return nil, err
	}
	return ranker.FindTop(e.memIndex, query, pred), nil
}

func (e *Engine) DocumentCount() int {
	return e.memIndex.DocCount()
}

// Document returns the stored rating and status of document id.
func (e *Engine) Document(id int) (index.DocumentData, bool) {
	return e.memIndex.Document(id)
}

// DocumentIDs iterates over the live document ids in ascending order. The
// engine must not be mutated during iteration.
func (e *Engine) DocumentIDs() iter.Seq[int] {
	return e.memIndex.DocumentIDs()
}

// MatchDocument returns the query's plus terms present in document id and
// the document's status. The term list is empty when the document contains
// any minus term.
func (e *Engine) MatchDocument(rawQuery string, id int) ([]string, index.Status, error) {
	query, err := parser.Parse(rawQuery, e.memIndex)
	if err != nil {
		return nil, 0, err
	}
	return matcher.Match(e.memIndex, query, id)
}

// WordFrequencies returns a copy of the term frequencies of document id.
func (e *Engine) WordFrequencies(id int) (map[string]float64, error) {
	return e.memIndex.WordFrequencies(id)
}

// RemoveDuplicates removes every document whose vocabulary equals that of a
// lower-id document and returns the removed ids in ascending order.
func (e *Engine) RemoveDuplicates() ([]int, error) {
	removed, err := dedup.RemoveDuplicates(e.memIndex)
	if err != nil {
		return removed, fmt.Errorf("removing duplicates: %w", err)
	}
	if len(removed) > 0 {
		e.logger.Info("duplicates removed", "count", len(removed), "docs", e.memIndex.DocCount())
	}
	return removed, nil
}
