package replay

import (
	"errors"
	"reflect"
	"testing"

	"sweeper-lite/mines"
	"sweeper-lite/wire"
)

func TestGenerateReplayTape_IsDeterministic(t *testing.T) {
	spec := baseGameSpec()

	tapeA, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape A failed: %v", err)
	}
	tapeB, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape B failed: %v", err)
	}

	if !reflect.DeepEqual(tapeA.Wire(), tapeB.Wire()) {
		t.Fatalf("expected deterministic replay tape for the same GameSpec")
	}
	if tapeA.Events[0].Type != "snapshot" || tapeA.Events[len(tapeA.Events)-1].Type != "snapshot" {
		t.Fatalf("tape should open and close with a snapshot")
	}

	counts := map[string]int{}
	for i, e := range tapeA.Events {
		counts[e.Type]++
		if e.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, e.Seq)
		}
	}
	if counts["reveal"] != 2 || counts["flag"] != 5 || counts["aiMove"] != 1 {
		t.Fatalf("unexpected event mix %v", counts)
	}
}

func TestGenerateReplayTape_EnvelopesDecode(t *testing.T) {
	tape, err := GenerateReplayTape(baseGameSpec())
	if err != nil {
		t.Fatalf("GenerateReplayTape failed: %v", err)
	}
	for _, e := range tape.Wire().Events {
		env, err := e.Decode()
		if err != nil {
			t.Fatalf("decode %s: %v", e.Type, err)
		}
		if env.ServerSeq != e.Seq || wire.PayloadType(env.Payload) != e.Type {
			t.Fatalf("event %d decoded as %s seq=%d", e.Seq, wire.PayloadType(env.Payload), env.ServerSeq)
		}
	}
	first, _ := tape.Wire().Events[0].Decode()
	snap := first.Payload.(*wire.TableSnapshot)
	if snap.Phase != mines.PhaseCreated || len(snap.Cells) != 16 {
		t.Fatalf("opening snapshot should show a fresh 4x4 board, got %+v", snap)
	}
}

func TestGenerateReplayTape_ReturnsReplayErrorAfterGameOver(t *testing.T) {
	spec := GameSpec{
		Rows:  1,
		Cols:  2,
		Mines: 1,
		Seed:  3,
		Moves: []MoveSpec{
			{Kind: "reveal", Row: 0, Col: 0},
			{Kind: "reveal", Row: 0, Col: 1},
		},
	}
	_, err := GenerateReplayTape(spec)
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != ReasonGameOver || replayErr.StepIndex != 1 {
		t.Fatalf("unexpected error %+v", replayErr)
	}
	if replayErr.Expected == nil || replayErr.Expected.Outcome != "won" {
		t.Fatalf("expected replay error to report the finished game, got %+v", replayErr.Expected)
	}
}

func TestGenerateReplayTape_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GameSpec)
		reason string
		step   int32
	}{
		{"out of bounds", func(s *GameSpec) { s.Moves[1].Col = 4 }, "out_of_bounds", 1},
		{"bad kind", func(s *GameSpec) { s.Moves[0].Kind = "chord" }, "invalid_move", 0},
		{"too many mines", func(s *GameSpec) { s.Mines = 16 }, "invalid_config", -1},
		{"reveal flagged", func(s *GameSpec) { s.Moves[5] = MoveSpec{Kind: "reveal", Row: 3, Col: 3} }, "cell_not_hidden", 5},
		{"unknown oracle", func(s *GameSpec) { s.Oracle = "oracle-of-delphi" }, "oracle_init_failed", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := baseGameSpec()
			tc.mutate(&spec)
			_, err := GenerateReplayTape(spec)
			replayErr, ok := err.(*ReplayError)
			if !ok {
				t.Fatalf("expected ReplayError type, got %T (%v)", err, err)
			}
			if replayErr.Reason != tc.reason || replayErr.StepIndex != tc.step {
				t.Fatalf("got reason=%s step=%d, want %s/%d", replayErr.Reason, replayErr.StepIndex, tc.reason, tc.step)
			}
		})
	}
}

// baseGameSpec flags a whole row before the first reveal. With only three
// mines one flagged cell is safe, so the reveal cannot end the game and every
// later move stays legal whatever the layout.
func baseGameSpec() GameSpec {
	return GameSpec{
		Rows:   4,
		Cols:   4,
		Mines:  3,
		Seed:   42,
		Oracle: "heuristic",
		Moves: []MoveSpec{
			{Kind: "flag", Row: 3, Col: 0},
			{Kind: "flag", Row: 3, Col: 1},
			{Kind: "flag", Row: 3, Col: 2},
			{Kind: "flag", Row: 3, Col: 3},
			{Kind: "reveal", Row: 0, Col: 0},
			{Kind: "flag", Row: 3, Col: 3},
			{Kind: "ai"},
		},
	}
}
