package agent

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"sweeper-lite/mines"
)

var log = logrus.WithField("component", "agent")

// ErrInvalidScore is returned when an oracle scores a cell NaN.
var ErrInvalidScore = errors.New("oracle returned NaN")

// Move is the cell the driver picked and the score it won with.
type Move struct {
	Coord mines.Coord `json:"coord"`
	Score float64     `json:"score"`
}

// ChooseMove scans hidden, unflagged cells row-major and returns the one with
// the strictly highest score; ties keep the earliest cell. ok is false when no
// cell is eligible. An oracle error or a NaN score aborts the scan.
func ChooseMove(b *mines.Board, s *mines.RevealState, oracle MoveOracle) (Move, bool, error) {
	var (
		best  Move
		found bool
	)
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			at := mines.Coord{Row: r, Col: c}
			if !s.IsHidden(at) {
				continue
			}
			score, err := oracle.Score(mines.Extract(b, s, at))
			if err != nil {
				return Move{}, false, fmt.Errorf("score %s: %w", at, err)
			}
			if math.IsNaN(score) {
				return Move{}, false, fmt.Errorf("score %s: %w", at, ErrInvalidScore)
			}
			if !found || score > best.Score {
				best = Move{Coord: at, Score: score}
				found = true
			}
		}
	}
	return best, found, nil
}

// StepResult is one driver move and what the engine did with it.
type StepResult struct {
	Move   Move               `json:"move"`
	Reveal mines.RevealResult `json:"-"`
}

// PlayResult summarises one Play call.
type PlayResult struct {
	Outcome   mines.Outcome `json:"outcome"`
	Moves     int           `json:"moves"`
	SafeMoves int           `json:"safe_moves"`
	// Stalled is set when the game was still running but no cell was
	// eligible, i.e. every hidden cell carries a flag.
	Stalled bool `json:"stalled"`
}

// Driver plays a game with one oracle. It must be used from the goroutine
// that owns the game.
type Driver struct {
	Oracle MoveOracle
	// MaxMoves bounds one Play call; 0 means until the game ends.
	MaxMoves int
}

func NewDriver(oracle MoveOracle) *Driver {
	return &Driver{Oracle: oracle}
}

// Step makes a single move. ok is false when the game is over or no cell is
// eligible.
func (d *Driver) Step(g *mines.Game) (StepResult, bool, error) {
	if g.Outcome().Terminal() {
		return StepResult{}, false, nil
	}
	move, ok, err := ChooseMove(g.Board(), g.RevealState(), d.Oracle)
	if err != nil || !ok {
		return StepResult{}, false, err
	}
	res := g.Reveal(move.Coord)
	log.WithFields(logrus.Fields{
		"cell":    move.Coord.String(),
		"score":   move.Score,
		"hit":     res.Hit,
		"opened":  len(res.Revealed),
		"outcome": res.Outcome.String(),
	}).Debug("move")
	return StepResult{Move: move, Reveal: res}, true, nil
}

// Play moves until the game ends, no cell is eligible, or MaxMoves is
// reached. ctx is checked between moves only.
func (d *Driver) Play(ctx context.Context, g *mines.Game) (PlayResult, error) {
	var out PlayResult
	for !g.Outcome().Terminal() {
		if d.MaxMoves > 0 && out.Moves >= d.MaxMoves {
			break
		}
		if err := ctx.Err(); err != nil {
			out.Outcome = g.Outcome()
			return out, err
		}
		step, ok, err := d.Step(g)
		if err != nil {
			out.Outcome = g.Outcome()
			return out, err
		}
		if !ok {
			out.Stalled = true
			break
		}
		out.Moves++
		if !step.Reveal.Hit {
			out.SafeMoves++
		}
	}
	out.Outcome = g.Outcome()
	return out, nil
}
