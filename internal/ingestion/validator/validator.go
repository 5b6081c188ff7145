// Package validator checks ingest payloads before they reach the index and
// reports every failing field at once.
package validator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const (
	maxTextLength  = 1 << 20
	maxRatingCount = 10000
)

// ValidationError holds per-field validation failure messages. It matches
// apperrors.ErrInvalidArgument under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidArgument
}

func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	if req.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	if len(req.Text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	} else if err := tokenizer.Validate(req.Text); err != nil {
		errs["text"] = "text must not contain control characters"
	}
	if !req.Status.Valid() {
		errs["status"] = fmt.Sprintf("unknown status %d", int(req.Status))
	}
	if len(req.Ratings) > maxRatingCount {
		errs["ratings"] = fmt.Sprintf("at most %d ratings allowed", maxRatingCount)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateIngestEvent checks the op and, for additions, the document.
func ValidateIngestEvent(event *ingestion.IngestEvent) error {
	switch event.Op {
	case "", ingestion.OpAdd:
		return ValidateIngestRequest(&event.IngestRequest)
	case ingestion.OpRemove:
		if event.ID < 0 {
			return &ValidationError{Fields: map[string]string{"id": "id must not be negative"}}
		}
		return nil
	default:
		return &ValidationError{Fields: map[string]string{"op": fmt.Sprintf("unknown op %q", event.Op)}}
	}
}
