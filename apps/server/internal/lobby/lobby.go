// Package lobby keeps the set of live tables.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sweeper-lite/apps/server/internal/ledger"
	"sweeper-lite/apps/server/internal/table"
	"sweeper-lite/mines"
	"sweeper-lite/preset"
)

var log = logrus.WithField("component", "lobby")

// DefaultMaxCells caps rows*cols until SetMaxCells is called.
const DefaultMaxCells = 10000

var (
	ErrUnknownPreset = errors.New("unknown preset")
	ErrBoardTooLarge = errors.New("board too large")
)

// Request asks for a new table. A non-empty Preset wins over Rows, Cols and
// Mines; all of them empty falls back to the default preset.
type Request struct {
	Preset string `json:"preset,omitempty"`
	Rows   int    `json:"rows,omitempty"`
	Cols   int    `json:"cols,omitempty"`
	Mines  int    `json:"mines,omitempty"`
	Seed   int64  `json:"seed,omitempty"`
	Oracle string `json:"oracle,omitempty"`
}

type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
	nextID uint64

	maxCells      int
	presets       *preset.Set
	defaultOracle string
	ledger        ledger.Service
}

func New(presets *preset.Set, defaultOracle string, store ledger.Service) *Lobby {
	if presets == nil {
		presets = preset.Builtin()
	}
	return &Lobby{
		tables:        make(map[string]*table.Table),
		maxCells:      DefaultMaxCells,
		presets:       presets,
		defaultOracle: defaultOracle,
		ledger:        store,
	}
}

// SetMaxCells bounds the boards Create accepts, presets included. n <= 0
// restores DefaultMaxCells.
func (l *Lobby) SetMaxCells(n int) {
	if n <= 0 {
		n = DefaultMaxCells
	}
	l.mu.Lock()
	l.maxCells = n
	l.mu.Unlock()
}

func (l *Lobby) Presets() []preset.Preset {
	return l.presets.All()
}

func (l *Lobby) resolve(req Request) (string, mines.Config, error) {
	name, cfg, err := l.resolveConfig(req)
	if err != nil {
		return "", mines.Config{}, err
	}
	l.mu.RLock()
	limit := l.maxCells
	l.mu.RUnlock()
	if cells := cfg.Cells(); cells > limit {
		return "", mines.Config{}, fmt.Errorf("%w: %dx%d is %d cells, limit %d", ErrBoardTooLarge, cfg.Rows, cfg.Cols, cells, limit)
	}
	return name, cfg, nil
}

func (l *Lobby) resolveConfig(req Request) (string, mines.Config, error) {
	name := req.Preset
	if name == "" && req.Rows == 0 && req.Cols == 0 && req.Mines == 0 {
		name = preset.DefaultName
	}
	if name != "" {
		p, ok := l.presets.Get(name)
		if !ok {
			return "", mines.Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
		}
		return p.Name, p.Config(req.Seed), nil
	}
	cfg := mines.Config{Rows: req.Rows, Cols: req.Cols, Mines: req.Mines, Seed: req.Seed}
	return "", cfg, cfg.Validate()
}

// Create opens a table owned by ownerID.
func (l *Lobby) Create(ownerID uint64, req Request) (*table.Table, error) {
	name, cfg, err := l.resolve(req)
	if err != nil {
		return nil, err
	}
	oracle := req.Oracle
	if oracle == "" {
		oracle = l.defaultOracle
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := fmt.Sprintf("table_%d", l.nextID)
	t, err := table.New(id, table.Config{Preset: name, Game: cfg, Oracle: oracle, OwnerID: ownerID}, l.ledger)
	if err != nil {
		return nil, err
	}
	l.tables[id] = t
	log.WithFields(logrus.Fields{"table": id, "owner": ownerID, "preset": name}).Info("table opened")
	return t, nil
}

// Get returns a live table or nil.
func (l *Lobby) Get(id string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[id]
}

// List returns every live table, ordered by id.
func (l *Lobby) List() []table.Info {
	l.mu.RLock()
	tables := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		tables = append(tables, t)
	}
	l.mu.RUnlock()

	out := make([]table.Info, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reap stops and forgets tables that have been idle for ttl. It returns
// how many were removed.
func (l *Lobby) Reap(ttl time.Duration) int {
	l.mu.Lock()
	var idle []*table.Table
	for id, t := range l.tables {
		if t.IsIdleFor(ttl) {
			idle = append(idle, t)
			delete(l.tables, id)
		}
	}
	l.mu.Unlock()

	for _, t := range idle {
		t.Stop()
		log.WithField("table", t.ID).Info("idle table closed")
	}
	return len(idle)
}

// Run reaps idle tables every interval until ctx is done, then stops all
// remaining tables.
func (l *Lobby) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Reap(ttl)
		case <-ctx.Done():
			l.Close()
			return
		}
	}
}

// Close stops every table so games in progress reach the ledger.
func (l *Lobby) Close() {
	l.mu.Lock()
	tables := l.tables
	l.tables = make(map[string]*table.Table)
	l.mu.Unlock()
	for _, t := range tables {
		t.Stop()
	}
}
