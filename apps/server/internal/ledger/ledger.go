// Package ledger persists finished games and the training examples recorded
// while they were played.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"sweeper-lite/dataset"
	"sweeper-lite/mines"
)

var log = logrus.WithField("component", "ledger")

const defaultRecentLimit = 50

var ErrNotFound = errors.New("not found")

// GameRecord is the summary of one finished (or abandoned) game.
type GameRecord struct {
	GameID   string        `json:"game_id"`
	TableID  string        `json:"table_id"`
	PlayerID uint64        `json:"player_id"`
	Preset   string        `json:"preset,omitempty"`
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	Mines    int           `json:"mines"`
	Outcome  mines.Outcome `json:"outcome"`
	Moves    int           `json:"moves"`
	AIMoves  int           `json:"ai_moves"`
	Examples int           `json:"examples"`
	PlayedAt time.Time     `json:"played_at"`
}

type Service interface {
	// RecordGame inserts rec, or updates the outcome and counters of an
	// existing record with the same GameID.
	RecordGame(ctx context.Context, rec GameRecord) error
	// AppendExamples adds examples after any already stored for gameID.
	AppendExamples(ctx context.Context, gameID string, examples []dataset.Example) error
	// ListRecent returns newest games first. playerID 0 lists every player.
	ListRecent(ctx context.Context, playerID uint64, limit int) ([]GameRecord, error)
	GetExamples(ctx context.Context, gameID string) ([]dataset.Example, error)
	Close() error
}

// Sink adapts one game's slot in svc to a dataset.Sink so a Recorder can
// flush straight into the ledger.
func Sink(ctx context.Context, svc Service, gameID string) dataset.Sink {
	return gameSink{ctx: ctx, svc: svc, gameID: gameID}
}

type gameSink struct {
	ctx    context.Context
	svc    Service
	gameID string
}

func (s gameSink) WriteExamples(examples []dataset.Example) error {
	return s.svc.AppendExamples(s.ctx, s.gameID, examples)
}

// Discard is a Service that stores nothing.
type Discard struct{}

func (Discard) RecordGame(context.Context, GameRecord) error { return nil }

func (Discard) AppendExamples(context.Context, string, []dataset.Example) error { return nil }

func (Discard) ListRecent(context.Context, uint64, int) ([]GameRecord, error) {
	return []GameRecord{}, nil
}

func (Discard) GetExamples(context.Context, string) ([]dataset.Example, error) {
	return nil, ErrNotFound
}

func (Discard) Close() error { return nil }

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
