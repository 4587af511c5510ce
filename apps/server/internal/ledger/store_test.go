package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"sweeper-lite/dataset"
	"sweeper-lite/mines"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:", 3)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id string, player uint64, at time.Time) GameRecord {
	return GameRecord{
		GameID:   id,
		TableID:  "table_1",
		PlayerID: player,
		Preset:   "tiny",
		Rows:     4,
		Cols:     4,
		Mines:    3,
		Outcome:  mines.OutcomeInProgress,
		PlayedAt: at,
	}
}

func TestStore_RecordGameUpserts(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000).UTC()

	rec := record("g1", 7, at)
	if err := s.RecordGame(ctx, rec); err != nil {
		t.Fatalf("RecordGame err: %v", err)
	}
	rec.Outcome = mines.OutcomeWon
	rec.Moves = 5
	rec.AIMoves = 2
	rec.Examples = 5
	if err := s.RecordGame(ctx, rec); err != nil {
		t.Fatalf("RecordGame update err: %v", err)
	}

	items, err := s.ListRecent(ctx, 7, 10)
	if err != nil {
		t.Fatalf("ListRecent err: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one record after upsert, got %d", len(items))
	}
	if !reflect.DeepEqual(items[0], rec) {
		t.Fatalf("record mismatch:\n got %+v\nwant %+v", items[0], rec)
	}
}

func TestStore_ListRecentOrdersAndFilters(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"a", "b", "c", "d"} {
		player := uint64(1)
		if id == "c" {
			player = 2
		}
		if err := s.RecordGame(ctx, record(id, player, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("RecordGame %s err: %v", id, err)
		}
	}

	mine, err := s.ListRecent(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ListRecent err: %v", err)
	}
	if got := ids(mine); !reflect.DeepEqual(got, []string{"d", "b", "a"}) {
		t.Fatalf("unexpected order for player 1: %v", got)
	}

	// recent limit is 3, so asking for more is clamped.
	all, err := s.ListRecent(ctx, 0, 100)
	if err != nil {
		t.Fatalf("ListRecent err: %v", err)
	}
	if got := ids(all); !reflect.DeepEqual(got, []string{"d", "c", "b"}) {
		t.Fatalf("unexpected order for all players: %v", got)
	}
}

func TestStore_ExamplesAppendInOrder(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	if err := s.RecordGame(ctx, record("g1", 1, time.Now())); err != nil {
		t.Fatalf("RecordGame err: %v", err)
	}

	first := []dataset.Example{
		{Features: mines.FeatureVector{-2, -2, -2, 1, 0, -1, -1, -1}, Label: dataset.LabelSafe},
		{Features: mines.FeatureVector{-2, -2, -2, -2, -2, -2, -2, -2}, Label: dataset.LabelMine},
	}
	second := []dataset.Example{
		{Features: mines.FeatureVector{0, 1, 2, 3, 4, 5, 6, 7}, Label: dataset.LabelSafe},
	}
	if err := s.AppendExamples(ctx, "g1", first); err != nil {
		t.Fatalf("AppendExamples err: %v", err)
	}
	if err := s.AppendExamples(ctx, "g1", second); err != nil {
		t.Fatalf("AppendExamples err: %v", err)
	}
	if err := s.AppendExamples(ctx, "g1", nil); err != nil {
		t.Fatalf("empty append should be a no-op, got %v", err)
	}

	got, err := s.GetExamples(ctx, "g1")
	if err != nil {
		t.Fatalf("GetExamples err: %v", err)
	}
	want := append(append([]dataset.Example{}, first...), second...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("examples mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestStore_GetExamplesUnknownGame(t *testing.T) {
	s := openMemory(t)
	if _, err := s.GetExamples(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSink_FlushesRecorderIntoStore(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	if err := s.RecordGame(ctx, record("g1", 1, time.Now())); err != nil {
		t.Fatalf("RecordGame err: %v", err)
	}

	g, err := mines.NewGame(mines.Config{Rows: 4, Cols: 4, Mines: 3, Seed: 11})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	rec := dataset.NewRecorder()
	rec.Attach(g)
	g.Reveal(mines.Coord{Row: 0, Col: 0})

	n, err := rec.Flush(Sink(ctx, s, "g1"))
	if err != nil {
		t.Fatalf("Flush err: %v", err)
	}
	stored, err := s.GetExamples(ctx, "g1")
	if err != nil {
		t.Fatalf("GetExamples err: %v", err)
	}
	if n != 1 || len(stored) != 1 || stored[0].Label != dataset.LabelSafe {
		t.Fatalf("expected one safe example, flushed=%d stored=%v", n, stored)
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "x", 0); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func ids(items []GameRecord) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.GameID
	}
	return out
}
