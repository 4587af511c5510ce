package agent

import (
	"context"
	"errors"
	"testing"

	"sweeper-lite/mines"
)

func TestRunBatch_AccountsEveryGame(t *testing.T) {
	g, err := mines.NewGame(mines.Config{Rows: 4, Cols: 4, Mines: 3, Seed: 11})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	seen := 0
	stats, err := NewDriver(Heuristic{}).RunBatch(context.Background(), g, 25,
		func(i int, g *mines.Game, r PlayResult) error {
			if i != seen {
				t.Fatalf("hook called out of order: %d after %d games", i, seen)
			}
			if r.Outcome != g.Outcome() {
				t.Fatalf("hook should see the finished game")
			}
			seen++
			return nil
		})
	if err != nil {
		t.Fatalf("RunBatch err: %v", err)
	}
	if stats.Games != 25 || seen != 25 {
		t.Fatalf("expected 25 games, got stats=%d hook=%d", stats.Games, seen)
	}
	if stats.Wins+stats.Losses+stats.Stalled != stats.Games {
		t.Fatalf("every game must end one way: %+v", stats)
	}
	if stats.SafeMoves > stats.Moves || stats.Moves-stats.SafeMoves != stats.Losses {
		t.Fatalf("each loss costs exactly one unsafe move: %+v", stats)
	}
}

func TestRunBatch_StopsOnHookError(t *testing.T) {
	g, _ := mines.NewGame(mines.Config{Rows: 4, Cols: 4, Mines: 3, Seed: 12})
	stats, err := NewDriver(Heuristic{}).RunBatch(context.Background(), g, 10,
		func(i int, g *mines.Game, r PlayResult) error {
			if i == 2 {
				return context.DeadlineExceeded
			}
			return nil
		})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if stats.Games != 3 {
		t.Fatalf("expected 3 games counted before the failure, got %d", stats.Games)
	}
}

func TestBatchStats_Rates(t *testing.T) {
	s := BatchStats{Games: 4, Wins: 1, Moves: 10, SafeMoves: 7}
	if s.WinRate() != 0.25 || s.SafeMoveRate() != 0.7 {
		t.Fatalf("unexpected rates win=%v safe=%v", s.WinRate(), s.SafeMoveRate())
	}
	if (BatchStats{}).WinRate() != 0 || (BatchStats{}).SafeMoveRate() != 0 {
		t.Fatalf("empty stats should report zero rates")
	}
}
