package agent

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"sweeper-lite/mines"
)

// BatchStats aggregates many driver games.
type BatchStats struct {
	Games     int `json:"games"`
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	Stalled   int `json:"stalled"`
	Moves     int `json:"moves"`
	SafeMoves int `json:"safe_moves"`
}

func (s BatchStats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// SafeMoveRate is the share of driver moves that did not hit a mine.
func (s BatchStats) SafeMoveRate() float64 {
	if s.Moves == 0 {
		return 0
	}
	return float64(s.SafeMoves) / float64(s.Moves)
}

func (s BatchStats) String() string {
	return fmt.Sprintf("games=%d wins=%d win%%=%.2f safe%%=%.2f",
		s.Games, s.Wins, s.WinRate()*100, s.SafeMoveRate()*100)
}

func (s *BatchStats) add(r PlayResult) {
	s.Games++
	s.Moves += r.Moves
	s.SafeMoves += r.SafeMoves
	switch {
	case r.Outcome == mines.OutcomeWon:
		s.Wins++
	case r.Outcome == mines.OutcomeLost:
		s.Losses++
	case r.Stalled:
		s.Stalled++
	}
}

// GameHook runs after each batch game, before the session is reset.
type GameHook func(index int, g *mines.Game, r PlayResult) error

// RunBatch plays games sessions back to back on g, resetting it between
// games so every layout comes from g's seeded stream. Hooks registered on g
// stay attached throughout. onGame may be nil.
func (d *Driver) RunBatch(ctx context.Context, g *mines.Game, games int, onGame GameHook) (BatchStats, error) {
	var stats BatchStats
	for i := 0; i < games; i++ {
		if i > 0 {
			if err := g.Reset(); err != nil {
				return stats, err
			}
		}
		res, err := d.Play(ctx, g)
		if err != nil {
			return stats, fmt.Errorf("game %d: %w", i, err)
		}
		stats.add(res)
		if onGame != nil {
			if err := onGame(i, g, res); err != nil {
				return stats, fmt.Errorf("game %d: %w", i, err)
			}
		}
	}
	log.WithFields(logrus.Fields{
		"games":     stats.Games,
		"wins":      stats.Wins,
		"win_rate":  stats.WinRate(),
		"safe_rate": stats.SafeMoveRate(),
	}).Info("batch finished")
	return stats, nil
}
