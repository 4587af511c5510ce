package table

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sweeper-lite/apps/server/internal/ledger"
	"sweeper-lite/dataset"
	"sweeper-lite/mines"
	"sweeper-lite/wire"
)

type memLedger struct {
	mu       sync.Mutex
	games    map[string]ledger.GameRecord
	examples map[string][]dataset.Example
	records  int
}

func newMemLedger() *memLedger {
	return &memLedger{
		games:    make(map[string]ledger.GameRecord),
		examples: make(map[string][]dataset.Example),
	}
}

func (m *memLedger) RecordGame(_ context.Context, rec ledger.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records++
	m.games[rec.GameID] = rec
	return nil
}

func (m *memLedger) AppendExamples(_ context.Context, gameID string, ex []dataset.Example) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.examples[gameID] = append(m.examples[gameID], ex...)
	return nil
}

func (m *memLedger) ListRecent(context.Context, uint64, int) ([]ledger.GameRecord, error) {
	return nil, nil
}

func (m *memLedger) GetExamples(_ context.Context, gameID string) ([]dataset.Example, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.examples[gameID], nil
}

func (m *memLedger) Close() error { return nil }

type inbox struct {
	mu   sync.Mutex
	envs []*wire.ServerEnvelope
}

func (in *inbox) send(t *testing.T) Subscriber {
	return func(data []byte) {
		env, err := wire.UnmarshalServer(data)
		if err != nil {
			t.Errorf("subscriber got undecodable frame: %v", err)
			return
		}
		in.mu.Lock()
		in.envs = append(in.envs, env)
		in.mu.Unlock()
	}
}

func (in *inbox) types() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]string, len(in.envs))
	for i, env := range in.envs {
		out[i] = wire.PayloadType(env.Payload)
	}
	return out
}

const owner = 42

func newTestTable(t *testing.T, store ledger.Service) *Table {
	t.Helper()
	tbl, err := New("table_test", Config{
		Preset:  "tiny",
		Game:    mines.Config{Rows: 4, Cols: 4, Mines: 3, Seed: 5},
		Oracle:  "heuristic",
		OwnerID: owner,
	}, store)
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	t.Cleanup(tbl.Stop)
	return tbl
}

func count(types []string, want string) int {
	n := 0
	for _, ty := range types {
		if ty == want {
			n++
		}
	}
	return n
}

func TestJoin_SendsSnapshotFirst(t *testing.T) {
	tbl := newTestTable(t, nil)
	var in inbox
	if _, err := tbl.SubmitEvent(Event{Type: EventJoin, ConnID: "c1", Send: in.send(t)}); err != nil {
		t.Fatalf("join err: %v", err)
	}
	got := in.types()
	if len(got) != 1 || got[0] != "snapshot" {
		t.Fatalf("expected a single snapshot, got %v", got)
	}
	if tbl.Info().Subscribers != 1 {
		t.Fatalf("expected one subscriber")
	}
}

func TestReveal_FirstClickIsSafeAndBroadcast(t *testing.T) {
	tbl := newTestTable(t, nil)
	var in inbox
	if _, err := tbl.SubmitEvent(Event{Type: EventJoin, ConnID: "c1", Send: in.send(t)}); err != nil {
		t.Fatalf("join err: %v", err)
	}

	reply, err := tbl.SubmitEvent(Event{Type: EventReveal, PlayerID: owner, At: mines.Coord{Row: 1, Col: 1}})
	if err != nil {
		t.Fatalf("reveal err: %v", err)
	}
	if reply.Reveal == nil || reply.Reveal.Hit || !reply.Reveal.Changed {
		t.Fatalf("first reveal must open a safe cell, got %+v", reply.Reveal)
	}
	if !reply.Snapshot.FirstClickTaken || reply.Snapshot.Moves != 1 {
		t.Fatalf("snapshot not updated: %+v", reply.Snapshot)
	}
	if got := in.types(); len(got) < 2 || got[1] != "reveal" {
		t.Fatalf("expected reveal broadcast after snapshot, got %v", got)
	}
}

func TestReveal_RejectsOutOfBounds(t *testing.T) {
	tbl := newTestTable(t, nil)
	_, err := tbl.SubmitEvent(Event{Type: EventReveal, PlayerID: owner, At: mines.Coord{Row: 4, Col: 0}})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := tbl.SubmitEvent(Event{Type: EventFlag, PlayerID: owner, At: mines.Coord{Row: 0, Col: -1}}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds for flag, got %v", err)
	}
}

func TestMoves_OnlyFromOwner(t *testing.T) {
	tbl := newTestTable(t, nil)
	var in inbox
	if _, err := tbl.SubmitEvent(Event{Type: EventJoin, PlayerID: 7, ConnID: "watcher", Send: in.send(t)}); err != nil {
		t.Fatalf("non-owner must be able to join, got %v", err)
	}
	for _, ty := range []EventType{EventReveal, EventFlag, EventReset, EventAIStep, EventAutoPlay} {
		reply, err := tbl.SubmitEvent(Event{Type: ty, PlayerID: 7})
		if !errors.Is(err, ErrNotOwner) {
			t.Fatalf("%s by non-owner: expected ErrNotOwner, got %v", ty, err)
		}
		if reply.Snapshot.Moves != 0 {
			t.Fatalf("%s by non-owner changed the game: %+v", ty, reply.Snapshot)
		}
	}
	if got := in.types(); len(got) != 1 {
		t.Fatalf("rejected moves must not broadcast, got %v", got)
	}
	if _, err := tbl.SubmitEvent(Event{Type: EventReveal, PlayerID: owner}); err != nil {
		t.Fatalf("owner reveal err: %v", err)
	}
}

func TestFlag_TogglesAndBroadcasts(t *testing.T) {
	tbl := newTestTable(t, nil)
	var in inbox
	if _, err := tbl.SubmitEvent(Event{Type: EventJoin, ConnID: "c1", Send: in.send(t)}); err != nil {
		t.Fatalf("join err: %v", err)
	}
	at := mines.Coord{Row: 2, Col: 3}
	reply, err := tbl.SubmitEvent(Event{Type: EventFlag, PlayerID: owner, At: at})
	if err != nil || !reply.Flagged {
		t.Fatalf("expected flag set, reply=%+v err=%v", reply, err)
	}
	if reply.Snapshot.Cells[2][3].State != mines.CellFlagged {
		t.Fatalf("snapshot should show the flag")
	}
	reply, err = tbl.SubmitEvent(Event{Type: EventFlag, PlayerID: owner, At: at})
	if err != nil || reply.Flagged {
		t.Fatalf("expected flag cleared, reply=%+v err=%v", reply, err)
	}
	if got := count(in.types(), "flag"); got != 2 {
		t.Fatalf("expected two flag broadcasts, got %d", got)
	}
}

func TestAutoPlay_FinishesAndRecordsOnce(t *testing.T) {
	store := newMemLedger()
	tbl := newTestTable(t, store)
	var in inbox
	if _, err := tbl.SubmitEvent(Event{Type: EventJoin, ConnID: "c1", Send: in.send(t)}); err != nil {
		t.Fatalf("join err: %v", err)
	}

	reply, err := tbl.SubmitEvent(Event{Type: EventAutoPlay, PlayerID: owner})
	if err != nil {
		t.Fatalf("autoplay err: %v", err)
	}
	if reply.Play == nil || !reply.Play.Outcome.Terminal() {
		t.Fatalf("autoplay should end the game, got %+v", reply.Play)
	}
	gameID := reply.GameID

	types := in.types()
	if count(types, "gameEnd") != 1 {
		t.Fatalf("expected one gameEnd, got %v", types)
	}
	if count(types, "aiMove") != reply.Play.Moves {
		t.Fatalf("expected %d aiMove envelopes, got %v", reply.Play.Moves, types)
	}

	rec, ok := store.games[gameID]
	if !ok {
		t.Fatalf("game %s not recorded", gameID)
	}
	if rec.Outcome != reply.Play.Outcome || rec.AIMoves != reply.Play.Moves || rec.PlayerID != owner {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(store.examples[gameID]) != rec.Moves || rec.Examples != rec.Moves {
		t.Fatalf("expected one example per move, record=%+v stored=%d", rec, len(store.examples[gameID]))
	}

	if _, err := tbl.SubmitEvent(Event{Type: EventAIStep, PlayerID: owner}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver after the end, got %v", err)
	}

	reply, err = tbl.SubmitEvent(Event{Type: EventReset, PlayerID: owner})
	if err != nil {
		t.Fatalf("reset err: %v", err)
	}
	if store.records != 1 {
		t.Fatalf("finished game must be recorded once, got %d", store.records)
	}
	if reply.GameID == gameID || reply.Snapshot.FirstClickTaken {
		t.Fatalf("reset should start a fresh game, got %+v", reply)
	}
}

func TestAutoPlay_MaxMoves(t *testing.T) {
	tbl := newTestTable(t, nil)
	reply, err := tbl.SubmitEvent(Event{Type: EventAutoPlay, PlayerID: owner, MaxMoves: 1})
	if err != nil {
		t.Fatalf("autoplay err: %v", err)
	}
	if reply.Play.Moves != 1 || reply.Snapshot.Moves != 1 {
		t.Fatalf("expected exactly one move, got %+v", reply.Play)
	}
}

func TestStop_RecordsGameInProgress(t *testing.T) {
	store := newMemLedger()
	tbl, err := New("table_stop", Config{Game: mines.Config{Rows: 9, Cols: 9, Mines: 10, Seed: 3}}, store)
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	reply, err := tbl.SubmitEvent(Event{Type: EventAIStep, PlayerID: owner})
	if err != nil {
		t.Fatalf("ai step err: %v", err)
	}
	if reply.Move == nil {
		t.Fatalf("expected a move")
	}

	tbl.Stop()
	if !tbl.IsClosed() {
		t.Fatalf("table should be closed")
	}
	if _, err := tbl.SubmitEvent(Event{Type: EventReveal, PlayerID: owner}); !errors.Is(err, ErrTableClosed) {
		t.Fatalf("expected ErrTableClosed, got %v", err)
	}
	if store.records != 1 {
		t.Fatalf("expected the game in progress to be recorded, got %d", store.records)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New("bad", Config{Game: mines.Config{Rows: 2, Cols: 2, Mines: 4}}, nil); err == nil {
		t.Fatalf("expected config error")
	}
	if _, err := New("bad", Config{Game: mines.Config{Rows: 4, Cols: 4, Mines: 3}, Oracle: "nope"}, nil); err == nil {
		t.Fatalf("expected oracle error")
	}
}
