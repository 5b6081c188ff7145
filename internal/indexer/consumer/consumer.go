// Package consumer applies document-ingest events from Kafka to the index.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Indexer is the mutating side of the search service.
type Indexer interface {
	AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int) error
	RemoveDocument(ctx context.Context, id int) error
}

// IndexConsumer drives the index from a Kafka consumer.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

func (ic *IndexConsumer) Close() error {
	return ic.consumer.Close()
}

// HandleMessage returns a MessageHandler that applies each event to idx.
// Messages that can never succeed (undecodable, invalid, duplicate ids,
// unknown ids on removal) are logged and committed; other failures are
// returned so the message is left uncommitted.
func HandleMessage(idx Indexer, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event", "error", err, "key", string(key))
			m.IngestMessagesTotal.WithLabelValues("malformed").Inc()
			return nil
		}
		if err := validator.ValidateIngestEvent(&event); err != nil {
			logger.Warn("rejecting ingest event", "doc_id", event.ID, "error", err)
			m.IngestMessagesTotal.WithLabelValues("rejected").Inc()
			return nil
		}

		outcome := "indexed"
		if event.Op == ingestion.OpRemove {
			outcome = "removed"
			err = idx.RemoveDocument(ctx, event.ID)
		} else {
			err = idx.AddDocument(ctx, event.ID, event.Text, event.Status, event.Ratings)
		}
		if err != nil {
			if apperrors.IsInvalidArgument(err) || apperrors.IsNotFound(err) {
				logger.Warn("ingest event not applied", "op", event.Op, "doc_id", event.ID, "error", err)
				m.IngestMessagesTotal.WithLabelValues("rejected").Inc()
				return nil
			}
			return fmt.Errorf("applying %s event for document %d: %w", outcome, event.ID, err)
		}
		m.IngestMessagesTotal.WithLabelValues(outcome).Inc()
		logger.Debug("ingest event applied", "op", event.Op, "doc_id", event.ID)
		return nil
	}
}
