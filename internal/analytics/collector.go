package analytics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// Publisher sends a batch of events. *kafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Collector buffers events and publishes them in batches, when a batch is
// full or every flush interval. Track never blocks: events are dropped when
// the buffer is full.
type Collector struct {
	publisher     Publisher
	eventCh       chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan kafka.Event, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start runs the publish loop until Close is called. Every event tracked
// before Close is published.
func (c *Collector) Start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.flush(batch)
					return
				}
				batch = append(batch, event)
				if len(batch) >= c.batchSize {
					batch = c.flush(batch)
				}
			case <-ticker.C:
				batch = c.flush(batch)
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) TrackSearch(e SearchEvent) {
	c.track(kafka.Event{Key: e.Query, Value: e})
}

func (c *Collector) TrackDocument(e DocumentEvent) {
	c.track(kafka.Event{Key: strconv.Itoa(e.DocumentID), Value: e})
}

func (c *Collector) track(event kafka.Event) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the final flush. Start must
// have been called; Track must not be called after Close.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

// flush publishes batch with a bounded deadline and returns it emptied.
func (c *Collector) flush(batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.publisher.Publish(ctx, batch...); err != nil {
		c.logger.Error("failed to publish analytics batch", "batch_size", len(batch), "error", err)
	}
	return batch[:0]
}
