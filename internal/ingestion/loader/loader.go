// Package loader fills the index from the documents table at startup. The
// table is read-only to this server; the index itself is never written back.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const selectDocuments = `SELECT id, body, status, ratings FROM documents ORDER BY id`

// Sink receives loaded documents. *service.Service implements it.
type Sink interface {
	AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int) error
}

// Stats summarizes one load.
type Stats struct {
	Loaded  int
	Skipped int
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type Loader struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB) *Loader {
	return &Loader{
		db:     db,
		logger: slog.Default().With("component", "corpus-loader"),
	}
}

// Load streams every row into sink in id order. Rows the index rejects as
// invalid (bad status, control characters, duplicate ids) are logged and
// skipped; any other failure aborts the load.
func (l *Loader) Load(ctx context.Context, sink Sink) (Stats, error) {
	rows, err := l.db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return Stats{}, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	stats, err := l.load(ctx, rows, sink)
	if err != nil {
		return stats, err
	}
	l.logger.Info("corpus loaded", "loaded", stats.Loaded, "skipped", stats.Skipped)
	return stats, nil
}

func (l *Loader) load(ctx context.Context, rows rowScanner, sink Sink) (Stats, error) {
	var stats Stats
	for rows.Next() {
		req, err := scanDocument(rows)
		if err == nil {
			err = validator.ValidateIngestRequest(&req)
		}
		if err == nil {
			err = sink.AddDocument(ctx, req.ID, req.Text, req.Status, req.Ratings)
		}
		if err != nil {
			if apperrors.IsInvalidArgument(err) {
				l.logger.Warn("skipping document", "doc_id", req.ID, "error", err)
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("loading document %d: %w", req.ID, err)
		}
		stats.Loaded++
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("reading documents: %w", err)
	}
	return stats, nil
}

func scanDocument(rows rowScanner) (ingestion.IngestRequest, error) {
	var (
		id      int64
		body    sql.NullString
		status  string
		ratings pq.Int64Array
	)
	if err := rows.Scan(&id, &body, &status, &ratings); err != nil {
		return ingestion.IngestRequest{}, fmt.Errorf("scanning document row: %w", err)
	}
	req := ingestion.IngestRequest{ID: int(id), Text: body.String}
	parsed, err := index.ParseStatus(status)
	if err != nil {
		return req, err
	}
	req.Status = parsed
	req.Ratings = make([]int, len(ratings))
	for i, r := range ratings {
		req.Ratings[i] = int(r)
	}
	return req, nil
}
