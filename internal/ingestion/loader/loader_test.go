package loader

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

type row struct {
	id      int64
	body    sql.NullString
	status  string
	ratings pq.Int64Array
}

type fakeRows struct {
	rows []row
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	f.pos++
	return f.pos <= len(f.rows)
}

func (f *fakeRows) Scan(dest ...any) error {
	r := f.rows[f.pos-1]
	*dest[0].(*int64) = r.id
	*dest[1].(*sql.NullString) = r.body
	*dest[2].(*string) = r.status
	*dest[3].(*pq.Int64Array) = r.ratings
	return nil
}

func (f *fakeRows) Err() error { return f.err }

type added struct {
	id      int
	text    string
	status  index.Status
	ratings []int
}

type sinkFunc func(ctx context.Context, id int, text string, status index.Status, ratings []int) error

func (f sinkFunc) AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int) error {
	return f(ctx, id, text, status, ratings)
}

func text(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestLoad(t *testing.T) {
	rows := &fakeRows{rows: []row{
		{1, text("funny pet and nasty rat"), "ACTUAL", pq.Int64Array{7, 2, 7}},
		{2, text("funny pet with curly hair"), "banned", pq.Int64Array{1, 2, 3}},
		{3, text("bad"), "ARCHIVED", nil},
		{4, sql.NullString{}, "IRRELEVANT", nil},
		{5, text("dup"), "ACTUAL", nil},
	}}
	var got []added
	sink := sinkFunc(func(_ context.Context, id int, text string, status index.Status, ratings []int) error {
		if id == 5 {
			return apperrors.InvalidArgument("invalid or duplicate id %d", id)
		}
		got = append(got, added{id, text, status, ratings})
		return nil
	})

	stats, err := New(nil).load(context.Background(), rows, sink)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Loaded != 3 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if got[1].status != index.StatusBanned || !slices.Equal(got[0].ratings, []int{7, 2, 7}) {
		t.Fatalf("added = %+v", got)
	}
	if got[2].id != 4 || got[2].text != "" {
		t.Fatalf("NULL body must load as empty text: %+v", got[2])
	}
}

func TestLoadAbortsOnSinkFailure(t *testing.T) {
	rows := &fakeRows{rows: []row{{1, text("pet"), "ACTUAL", nil}, {2, text("rat"), "ACTUAL", nil}}}
	boom := errors.New("disk on fire")
	calls := 0
	_, err := New(nil).load(context.Background(), rows, sinkFunc(func(context.Context, int, string, index.Status, []int) error {
		calls++
		return boom
	}))
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestLoadReportsRowsError(t *testing.T) {
	rows := &fakeRows{err: errors.New("connection reset")}
	if _, err := New(nil).load(context.Background(), rows, sinkFunc(func(context.Context, int, string, index.Status, []int) error {
		return nil
	})); err == nil {
		t.Fatal("expected error")
	}
}
