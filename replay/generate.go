package replay

import (
	"encoding/base64"
	"fmt"

	"sweeper-lite/mines"
	"sweeper-lite/mines/agent"
	"sweeper-lite/wire"
)

const defaultTableID = "replay_local"

// GenerateReplayTape plays spec on a fresh engine and records every server
// message a client watching the game would have received. Equal specs give
// equal tapes.
func GenerateReplayTape(spec GameSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	game, err := mines.NewGame(ns.cfg)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: ReasonEngineInit, Message: err.Error()}
	}

	var driver *agent.Driver
	for _, m := range ns.moves {
		if m.kind == moveAI {
			oracle, err := agent.New(spec.Oracle)
			if err != nil {
				return nil, &ReplayError{StepIndex: -1, Reason: ReasonOracleInit, Message: err.Error()}
			}
			driver = agent.NewDriver(oracle)
			break
		}
	}

	builder := newTapeBuilder(defaultTableID)
	builder.push(wire.SnapshotFromGame(game.Snapshot()))

	for stepIdx, move := range ns.moves {
		if outcome := game.Outcome(); outcome.Terminal() {
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    ReasonGameOver,
				Message:   fmt.Sprintf("game already %s; no further moves are allowed", outcome),
				Expected:  expectedState(game, move.at, false),
			}
		}

		switch move.kind {
		case moveReveal:
			res := game.Reveal(move.at)
			if !res.Changed {
				return nil, &ReplayError{
					StepIndex: int32(stepIdx),
					Reason:    ReasonCellNotHidden,
					Message:   fmt.Sprintf("cell %s cannot be revealed", move.at),
					Expected:  expectedState(game, move.at, true),
				}
			}
			builder.addReveal(game, res)

		case moveFlag:
			if !game.ToggleFlag(move.at) {
				return nil, &ReplayError{
					StepIndex: int32(stepIdx),
					Reason:    ReasonCellRevealed,
					Message:   fmt.Sprintf("cell %s is revealed and cannot be flagged", move.at),
					Expected:  expectedState(game, move.at, true),
				}
			}
			builder.push(&wire.FlagResult{
				Row:     move.at.Row,
				Col:     move.at.Col,
				Flagged: game.RevealState().IsFlagged(move.at),
			})

		case moveAI:
			step, ok, err := driver.Step(game)
			if err != nil {
				return nil, &ReplayError{StepIndex: int32(stepIdx), Reason: ReasonOracleFailed, Message: err.Error()}
			}
			if !ok {
				return nil, &ReplayError{
					StepIndex: int32(stepIdx),
					Reason:    ReasonNoMove,
					Message:   "no hidden, unflagged cell is left",
					Expected:  expectedState(game, move.at, false),
				}
			}
			builder.push(&wire.AIMove{Row: step.Move.Coord.Row, Col: step.Move.Coord.Col, Score: step.Move.Score})
			builder.addReveal(game, step.Reveal)
		}
	}

	builder.push(wire.SnapshotFromGame(game.Snapshot()))
	return &ReplayTape{
		TapeVersion: 1,
		TableID:     builder.tableID,
		Rows:        ns.cfg.Rows,
		Cols:        ns.cfg.Cols,
		Events:      builder.events,
	}, nil
}

func expectedState(g *mines.Game, at mines.Coord, withStatus bool) *ExpectedState {
	cfg := g.Config()
	out := &ExpectedState{
		Rows:    cfg.Rows,
		Cols:    cfg.Cols,
		Phase:   g.Phase().String(),
		Outcome: g.Outcome().String(),
	}
	if withStatus {
		out.Status = g.RevealState().Status(at).String()
	}
	return out
}

type tapeBuilder struct {
	tableID string
	seq     uint64
	events  []ReplayEvent
}

func newTapeBuilder(tableID string) *tapeBuilder {
	return &tapeBuilder{
		tableID: tableID,
		events:  make([]ReplayEvent, 0, 32),
	}
}

// addReveal records a reveal and, when it ended the game, the game end.
func (b *tapeBuilder) addReveal(g *mines.Game, res mines.RevealResult) {
	b.push(wire.RevealFromGame(res, g.Board()))
	if res.Outcome.Terminal() {
		b.push(&wire.GameEnd{Outcome: res.Outcome, Moves: g.Moves(), Mines: g.Board().MineCoords()})
	}
}

func (b *tapeBuilder) push(payload wire.ServerPayload) {
	b.seq++
	env := &wire.ServerEnvelope{
		TableID:    b.tableID,
		ServerSeq:  b.seq,
		ServerTsMs: int64(b.seq),
		Payload:    payload,
	}
	b.events = append(b.events, ReplayEvent{
		Type:        wire.PayloadType(payload),
		Seq:         b.seq,
		Value:       env,
		EnvelopeB64: base64.StdEncoding.EncodeToString(wire.MarshalServer(env)),
	})
}
