package replay

import (
	"fmt"
	"strings"

	"sweeper-lite/mines"
)

// defaultSeed keeps tapes reproducible when a GameSpec leaves the seed out;
// the engine would otherwise seed from the clock.
const defaultSeed int64 = 1

type moveKind int

const (
	moveReveal moveKind = iota
	moveFlag
	moveAI
)

type normalizedMove struct {
	kind moveKind
	at   mines.Coord
}

type normalizedSpec struct {
	cfg   mines.Config
	moves []normalizedMove
}

func normalizeSpec(spec GameSpec) (normalizedSpec, error) {
	var out normalizedSpec
	out.cfg = mines.Config{Rows: spec.Rows, Cols: spec.Cols, Mines: spec.Mines, Seed: spec.Seed}
	if out.cfg.Seed == 0 {
		out.cfg.Seed = defaultSeed
	}
	if err := out.cfg.Validate(); err != nil {
		return out, &ReplayError{StepIndex: -1, Reason: ReasonInvalidConfig, Message: err.Error()}
	}

	out.moves = make([]normalizedMove, 0, len(spec.Moves))
	for i, m := range spec.Moves {
		kind, err := parseMoveKind(m.Kind)
		if err != nil {
			return out, &ReplayError{StepIndex: int32(i), Reason: ReasonInvalidMove, Message: err.Error()}
		}
		at := mines.Coord{Row: m.Row, Col: m.Col}
		if kind != moveAI && !inBounds(out.cfg, at) {
			return out, &ReplayError{
				StepIndex: int32(i),
				Reason:    ReasonOutOfBounds,
				Message:   fmt.Sprintf("cell %s outside %dx%d board", at, out.cfg.Rows, out.cfg.Cols),
				Expected:  &ExpectedState{Rows: out.cfg.Rows, Cols: out.cfg.Cols},
			}
		}
		out.moves = append(out.moves, normalizedMove{kind: kind, at: at})
	}
	return out, nil
}

func parseMoveKind(raw string) (moveKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "reveal", "r":
		return moveReveal, nil
	case "flag", "f":
		return moveFlag, nil
	case "ai":
		return moveAI, nil
	default:
		return 0, fmt.Errorf("unsupported move kind %q", raw)
	}
}

func inBounds(cfg mines.Config, c mines.Coord) bool {
	return c.Row >= 0 && c.Row < cfg.Rows && c.Col >= 0 && c.Col < cfg.Cols
}
