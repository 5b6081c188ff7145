package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

type fakeIndexer struct {
	docs      map[int]index.Status
	removeErr error
}

func (f *fakeIndexer) AddDocument(_ context.Context, id int, _ string, status index.Status, _ []int) error {
	if _, ok := f.docs[id]; ok {
		return apperrors.InvalidArgument("invalid or duplicate id %d", id)
	}
	f.docs[id] = status
	return nil
}

func (f *fakeIndexer) RemoveDocument(_ context.Context, id int) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.docs[id]; !ok {
		return apperrors.NotFound("document %d", id)
	}
	delete(f.docs, id)
	return nil
}

func TestHandleMessage(t *testing.T) {
	idx := &fakeIndexer{docs: make(map[int]index.Status)}
	m := metrics.New(prometheus.NewRegistry())
	handle := HandleMessage(idx, m)
	ctx := context.Background()

	messages := []string{
		`{"id":1,"text":"funny pet","status":"BANNED","ratings":[1,2]}`,
		`{"op":"add","id":2,"text":"nasty rat"}`,
		`{"op":"add","id":2,"text":"again"}`,
		`{"op":"remove","id":1}`,
		`{"op":"remove","id":1}`,
		`{"id":3,"text":"x","status":"ARCHIVED"}`,
		`{"op":"rename","id":4}`,
		`not json`,
	}
	for _, msg := range messages {
		if err := handle(ctx, nil, []byte(msg)); err != nil {
			t.Fatalf("handle(%s): %v", msg, err)
		}
	}

	if len(idx.docs) != 1 || idx.docs[2] != index.StatusActual {
		t.Fatalf("docs = %v", idx.docs)
	}
	counts := map[string]float64{"indexed": 2, "removed": 1, "rejected": 3, "malformed": 2}
	for outcome, want := range counts {
		if got := testutil.ToFloat64(m.IngestMessagesTotal.WithLabelValues(outcome)); got != want {
			t.Errorf("%s = %v, want %v", outcome, got, want)
		}
	}
}

func TestHandleMessageReturnsTransientErrors(t *testing.T) {
	boom := errors.New("lock timeout")
	idx := &fakeIndexer{docs: map[int]index.Status{1: index.StatusActual}, removeErr: boom}
	handle := HandleMessage(idx, metrics.New(prometheus.NewRegistry()))
	if err := handle(context.Background(), nil, []byte(`{"op":"remove","id":1}`)); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped %v", err, boom)
	}
}
