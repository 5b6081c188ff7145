// Package analytics publishes search and index activity to Kafka for
// offline analysis.
package analytics

import "time"

type EventType string

const (
	EventSearch           EventType = "search"
	EventZeroResult       EventType = "zero_result"
	EventIndexDoc         EventType = "index_document"
	EventRemoveDoc        EventType = "remove_document"
	EventDuplicateRemoved EventType = "duplicate_removed"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Status    string    `json:"status"`
	Returned  int       `json:"returned"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type DocumentEvent struct {
	Type       EventType `json:"type"`
	DocumentID int       `json:"document_id"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
