package index

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Status is the lifecycle state of a document. Ranking treats it as opaque
// and only looks at it through the caller's predicate.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{"ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}

func (s Status) Valid() bool {
	return s >= StatusActual && s <= StatusRemoved
}

func (s Status) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// ParseStatus accepts the status names case-insensitively.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if strings.EqualFold(n, name) {
			return Status(i), nil
		}
	}
	return 0, apperrors.InvalidArgument("unknown document status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, apperrors.InvalidArgument("unknown document status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DocumentData is the per-document metadata stored next to the postings.
type DocumentData struct {
	Rating int
	Status Status
}

// Postings maps a document id to the term frequency of one term in it.
type Postings map[int]float64
