// Package ingestion defines the document payloads accepted over HTTP and
// Kafka.
package ingestion

import "github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"

// IngestRequest is the JSON body of POST /api/v1/documents and the document
// part of an IngestEvent. A missing status means ACTUAL.
type IngestRequest struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

// Op selects what an IngestEvent does to the index.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// IngestEvent is the Kafka message payload of the document-ingest topic. An
// empty op means add. Remove events only need the id.
type IngestEvent struct {
	Op Op `json:"op"`
	IngestRequest
}
