package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"sweeper-lite/dataset"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	tableGames    = "games"
	tableExamples = "examples"
)

var featureColumns = []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7"}

var gameColumns = []string{
	"game_id", "table_id", "player_id", "preset", "board_rows", "board_cols",
	"mine_count", "outcome", "moves", "ai_moves", "examples", "played_at_ms",
}

type dialect struct {
	placeholder sq.PlaceholderFormat
	pragmas     []string
	schema      []string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		placeholder: sq.Question,
		pragmas: []string{
			`PRAGMA busy_timeout = 5000;`,
			`PRAGMA foreign_keys = ON;`,
		},
		schema: []string{
			`
CREATE TABLE IF NOT EXISTS games (
    game_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    player_id INTEGER NOT NULL,
    preset TEXT NOT NULL DEFAULT '',
    board_rows INTEGER NOT NULL,
    board_cols INTEGER NOT NULL,
    mine_count INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    moves INTEGER NOT NULL,
    ai_moves INTEGER NOT NULL,
    examples INTEGER NOT NULL DEFAULT 0,
    played_at_ms INTEGER NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_games_recent ON games(player_id, played_at_ms DESC)`,
			`
CREATE TABLE IF NOT EXISTS examples (
    game_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    f0 INTEGER NOT NULL, f1 INTEGER NOT NULL, f2 INTEGER NOT NULL, f3 INTEGER NOT NULL,
    f4 INTEGER NOT NULL, f5 INTEGER NOT NULL, f6 INTEGER NOT NULL, f7 INTEGER NOT NULL,
    label INTEGER NOT NULL,
    PRIMARY KEY (game_id, seq)
)`,
		},
	},
	DriverPostgres: {
		placeholder: sq.Dollar,
		schema: []string{
			`
CREATE TABLE IF NOT EXISTS games (
    game_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    player_id BIGINT NOT NULL,
    preset TEXT NOT NULL DEFAULT '',
    board_rows INTEGER NOT NULL,
    board_cols INTEGER NOT NULL,
    mine_count INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    moves INTEGER NOT NULL,
    ai_moves INTEGER NOT NULL,
    examples INTEGER NOT NULL DEFAULT 0,
    played_at_ms BIGINT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_games_recent ON games(player_id, played_at_ms DESC)`,
			`
CREATE TABLE IF NOT EXISTS examples (
    game_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    f0 SMALLINT NOT NULL, f1 SMALLINT NOT NULL, f2 SMALLINT NOT NULL, f3 SMALLINT NOT NULL,
    f4 SMALLINT NOT NULL, f5 SMALLINT NOT NULL, f6 SMALLINT NOT NULL, f7 SMALLINT NOT NULL,
    label SMALLINT NOT NULL,
    PRIMARY KEY (game_id, seq)
)`,
		},
	},
}

// Store is the SQL-backed Service shared by the sqlite and postgres drivers.
type Store struct {
	db          *sql.DB
	sb          sq.StatementBuilderType
	recentLimit int
}

// Open connects to driver/dsn and creates the schema when missing. For
// sqlite, dsn is a file path or ":memory:".
func Open(ctx context.Context, driver, dsn string, recentLimit int) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty %s dsn", driver)
	}
	if driver == DriverSQLite && dsn != ":memory:" {
		if parent := filepath.Dir(dsn); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" a single database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range append(d.pragmas, d.schema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init ledger schema: %w", err)
		}
	}

	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	log.WithFields(logrus.Fields{"driver": driver, "recent_limit": recentLimit}).Info("store ready")
	return &Store{
		db:          db,
		sb:          sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		recentLimit: recentLimit,
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) RecordGame(ctx context.Context, rec GameRecord) error {
	if strings.TrimSpace(rec.GameID) == "" {
		return errors.New("record game: empty game id")
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}
	query := s.sb.Insert(tableGames).
		Columns(gameColumns...).
		Values(
			rec.GameID, rec.TableID, int64(rec.PlayerID), rec.Preset, rec.Rows, rec.Cols,
			rec.Mines, rec.Outcome.String(), rec.Moves, rec.AIMoves, rec.Examples,
			rec.PlayedAt.UTC().UnixMilli(),
		).
		Suffix(`ON CONFLICT (game_id) DO UPDATE SET
    outcome = excluded.outcome,
    moves = excluded.moves,
    ai_moves = excluded.ai_moves,
    examples = excluded.examples`)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("record game %s: %w", rec.GameID, err)
	}
	return nil
}

func (s *Store) AppendExamples(ctx context.Context, gameID string, examples []dataset.Example) error {
	if len(examples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sqlStr, args, err := s.sb.Select("COALESCE(MAX(seq), -1)").
		From(tableExamples).
		Where(sq.Eq{"game_id": gameID}).
		ToSql()
	if err != nil {
		return err
	}
	var last int64
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&last); err != nil {
		return fmt.Errorf("examples tail for %s: %w", gameID, err)
	}

	insert := s.sb.Insert(tableExamples).
		Columns(append(append([]string{"game_id", "seq"}, featureColumns...), "label")...)
	for i, ex := range examples {
		row := make([]any, 0, 3+len(ex.Features))
		row = append(row, gameID, last+1+int64(i))
		for _, f := range ex.Features {
			row = append(row, f)
		}
		row = append(row, ex.Label)
		insert = insert.Values(row...)
	}
	sqlStr, args, err = insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("append examples for %s: %w", gameID, err)
	}
	return tx.Commit()
}

func (s *Store) ListRecent(ctx context.Context, playerID uint64, limit int) ([]GameRecord, error) {
	query := s.sb.Select(gameColumns...).
		From(tableGames).
		OrderBy("played_at_ms DESC", "game_id DESC").
		Limit(uint64(clampLimit(limit, s.recentLimit)))
	if playerID != 0 {
		query = query.Where(sq.Eq{"player_id": int64(playerID)})
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]GameRecord, 0)
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (s *Store) GetExamples(ctx context.Context, gameID string) ([]dataset.Example, error) {
	sqlStr, args, err := s.sb.Select("COUNT(*)").
		From(tableGames).
		Where(sq.Eq{"game_id": gameID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	sqlStr, args, err = s.sb.Select(append(append([]string{}, featureColumns...), "label")...).
		From(tableExamples).
		Where(sq.Eq{"game_id": gameID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dataset.Example, 0)
	for rows.Next() {
		var ex dataset.Example
		dest := make([]any, 0, len(ex.Features)+1)
		for i := range ex.Features {
			dest = append(dest, &ex.Features[i])
		}
		dest = append(dest, &ex.Label)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func scanGame(rows *sql.Rows) (GameRecord, error) {
	var (
		rec      GameRecord
		playerID int64
		outcome  string
		playedAt int64
	)
	if err := rows.Scan(
		&rec.GameID, &rec.TableID, &playerID, &rec.Preset, &rec.Rows, &rec.Cols,
		&rec.Mines, &outcome, &rec.Moves, &rec.AIMoves, &rec.Examples, &playedAt,
	); err != nil {
		return GameRecord{}, err
	}
	if err := rec.Outcome.UnmarshalText([]byte(outcome)); err != nil {
		return GameRecord{}, fmt.Errorf("game %s: %w", rec.GameID, err)
	}
	rec.PlayerID = uint64(playerID)
	rec.PlayedAt = time.UnixMilli(playedAt).UTC()
	return rec, nil
}

var (
	_ Service = (*Store)(nil)
	_ Service = Discard{}
)
