// Package table runs one minesweeper game per actor goroutine and fans its
// updates out to subscribed connections as wire envelopes.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sweeper-lite/apps/server/internal/ledger"
	"sweeper-lite/dataset"
	"sweeper-lite/mines"
	"sweeper-lite/mines/agent"
	"sweeper-lite/wire"
)

var log = logrus.WithField("component", "table")

var (
	ErrTableClosed = errors.New("table closed")
	ErrGameOver    = errors.New("game is over")
	ErrOutOfBounds = errors.New("cell out of bounds")
	ErrNoMove      = errors.New("no eligible cell")
	ErrNotOwner    = errors.New("only the table owner can play")
)

const ledgerTimeout = 3 * time.Second

// Config describes the game a table hosts.
type Config struct {
	Preset string
	Game   mines.Config
	Oracle string
	// OwnerID is the only player whose moves the table accepts; others may
	// join and watch. 0 leaves the table open to everyone.
	OwnerID uint64
}

// Subscriber receives every encoded server envelope of a table. It must not
// block.
type Subscriber func(data []byte)

type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventReveal
	EventFlag
	EventReset
	EventAIStep
	EventAutoPlay
	EventClose
)

// mutates reports whether the event changes the game.
func (e EventType) mutates() bool {
	switch e {
	case EventReveal, EventFlag, EventReset, EventAIStep, EventAutoPlay:
		return true
	}
	return false
}

func (e EventType) String() string {
	switch e {
	case EventJoin:
		return "join"
	case EventLeave:
		return "leave"
	case EventReveal:
		return "reveal"
	case EventFlag:
		return "flag"
	case EventReset:
		return "reset"
	case EventAIStep:
		return "aiStep"
	case EventAutoPlay:
		return "autoPlay"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Event is a message to the table actor.
type Event struct {
	Type     EventType
	PlayerID uint64
	ConnID   string
	Send     Subscriber
	At       mines.Coord
	MaxMoves int

	response chan Reply
}

// Reply is what the actor did with one event.
type Reply struct {
	Snapshot mines.Snapshot
	GameID   string
	Reveal   *mines.RevealResult
	Flagged  bool
	Move     *agent.Move
	Play     *agent.PlayResult
	Err      error
}

// Info is a lobby listing entry.
type Info struct {
	ID          string        `json:"id"`
	Preset      string        `json:"preset,omitempty"`
	Rows        int           `json:"rows"`
	Cols        int           `json:"cols"`
	Mines       int           `json:"mines"`
	OwnerID     uint64        `json:"owner_id"`
	GameID      string        `json:"game_id"`
	Phase       mines.Phase   `json:"phase"`
	Outcome     mines.Outcome `json:"outcome"`
	Moves       int           `json:"moves"`
	Subscribers int           `json:"subscribers"`
}

// Table owns one mines.Game. All mutations go through the actor goroutine.
type Table struct {
	ID  string
	cfg Config

	mu       sync.RWMutex
	game     *mines.Game
	driver   *agent.Driver
	recorder *dataset.Recorder
	ledger   ledger.Service

	subscribers map[string]Subscriber
	closed      bool
	stopOnce    sync.Once
	lastActive  time.Time

	gameSeq   int
	gameID    string
	startedAt time.Time
	aiMoves   int
	recorded  bool

	serverSeq uint64

	events chan Event
	done   chan struct{}
}

// New creates the table and starts its actor. A nil ledger stores nothing.
func New(id string, cfg Config, store ledger.Service) (*Table, error) {
	game, err := mines.NewGame(cfg.Game)
	if err != nil {
		return nil, err
	}
	oracle, err := agent.New(cfg.Oracle)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = ledger.Discard{}
	}

	t := &Table{
		ID:          id,
		cfg:         cfg,
		game:        game,
		driver:      agent.NewDriver(oracle),
		recorder:    dataset.NewRecorder(),
		ledger:      store,
		subscribers: make(map[string]Subscriber),
		lastActive:  time.Now(),
		events:      make(chan Event, 64),
		done:        make(chan struct{}),
	}
	t.recorder.Attach(game)
	t.beginGameLocked(time.Now())

	go t.run()

	log.WithFields(logrus.Fields{
		"table":  id,
		"rows":   cfg.Game.Rows,
		"cols":   cfg.Game.Cols,
		"mines":  cfg.Game.Mines,
		"oracle": cfg.Oracle,
	}).Info("created")
	return t, nil
}

func (t *Table) run() {
	for {
		select {
		case e := <-t.events:
			reply := t.handleEvent(e)
			if e.response != nil {
				e.response <- reply
			}
		case <-t.done:
			log.WithField("table", t.ID).Debug("actor stopped")
			return
		}
	}
}

func (t *Table) handleEvent(e Event) Reply {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return Reply{Err: ErrTableClosed}
	}
	if e.Type.mutates() && t.cfg.OwnerID != 0 && e.PlayerID != t.cfg.OwnerID {
		return Reply{Snapshot: t.game.Snapshot(), GameID: t.gameID, Err: ErrNotOwner}
	}
	t.lastActive = time.Now()

	var reply Reply
	switch e.Type {
	case EventJoin:
		reply.Err = t.handleJoin(e.ConnID, e.Send)
	case EventLeave:
		delete(t.subscribers, e.ConnID)
	case EventReveal:
		reply = t.handleReveal(e.At)
	case EventFlag:
		reply = t.handleFlag(e.At)
	case EventReset:
		reply.Err = t.handleReset()
	case EventAIStep:
		reply = t.handleAIStep()
	case EventAutoPlay:
		reply = t.handleAutoPlay(e.MaxMoves)
	case EventClose:
		t.finishGameLocked()
		t.stopLocked()
		return Reply{}
	default:
		reply.Err = fmt.Errorf("unknown event type: %s", e.Type)
	}

	if reply.Err != nil {
		log.WithFields(logrus.Fields{"table": t.ID, "event": e.Type.String()}).
			WithError(reply.Err).Debug("event rejected")
	}
	reply.Snapshot = t.game.Snapshot()
	reply.GameID = t.gameID
	return reply
}

func (t *Table) handleJoin(connID string, send Subscriber) error {
	if connID == "" || send == nil {
		return errors.New("join needs a connection id and a subscriber")
	}
	t.subscribers[connID] = send
	env := t.envelope(wire.SnapshotFromGame(t.game.Snapshot()))
	send(wire.MarshalServer(env))
	return nil
}

func (t *Table) checkMove(at mines.Coord) error {
	if t.game.Outcome().Terminal() {
		return ErrGameOver
	}
	if !t.game.Board().Contains(at) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, at)
	}
	return nil
}

func (t *Table) handleReveal(at mines.Coord) Reply {
	if err := t.checkMove(at); err != nil {
		return Reply{Err: err}
	}
	res := t.game.Reveal(at)
	t.publishReveal(res)
	return Reply{Reveal: &res}
}

func (t *Table) handleFlag(at mines.Coord) Reply {
	if err := t.checkMove(at); err != nil {
		return Reply{Err: err}
	}
	if t.game.ToggleFlag(at) {
		flagged := t.game.RevealState().IsFlagged(at)
		t.broadcast(&wire.FlagResult{Row: at.Row, Col: at.Col, Flagged: flagged})
		return Reply{Flagged: flagged}
	}
	return Reply{Flagged: t.game.RevealState().IsFlagged(at)}
}

func (t *Table) handleReset() error {
	t.finishGameLocked()
	if err := t.game.Reset(); err != nil {
		return err
	}
	t.beginGameLocked(time.Now())
	t.broadcast(wire.SnapshotFromGame(t.game.Snapshot()))
	return nil
}

func (t *Table) handleAIStep() Reply {
	if t.game.Outcome().Terminal() {
		return Reply{Err: ErrGameOver}
	}
	move, err := t.aiMoveLocked()
	if err != nil {
		return Reply{Err: err}
	}
	return Reply{Move: &move.Move, Reveal: &move.Reveal}
}

func (t *Table) handleAutoPlay(maxMoves int) Reply {
	if t.game.Outcome().Terminal() {
		return Reply{Err: ErrGameOver}
	}
	var out agent.PlayResult
	for !t.game.Outcome().Terminal() {
		if maxMoves > 0 && out.Moves >= maxMoves {
			break
		}
		step, err := t.aiMoveLocked()
		if errors.Is(err, ErrNoMove) {
			out.Stalled = true
			break
		}
		if err != nil {
			out.Outcome = t.game.Outcome()
			return Reply{Play: &out, Err: err}
		}
		out.Moves++
		if !step.Reveal.Hit {
			out.SafeMoves++
		}
	}
	out.Outcome = t.game.Outcome()
	return Reply{Play: &out}
}

func (t *Table) aiMoveLocked() (agent.StepResult, error) {
	step, ok, err := t.driver.Step(t.game)
	if err != nil {
		return agent.StepResult{}, err
	}
	if !ok {
		return agent.StepResult{}, ErrNoMove
	}
	t.aiMoves++
	t.broadcast(&wire.AIMove{Row: step.Move.Coord.Row, Col: step.Move.Coord.Col, Score: step.Move.Score})
	t.publishReveal(step.Reveal)
	return step, nil
}

func (t *Table) publishReveal(res mines.RevealResult) {
	if !res.Changed {
		return
	}
	t.broadcast(wire.RevealFromGame(res, t.game.Board()))
	if res.Outcome.Terminal() {
		t.broadcast(&wire.GameEnd{Outcome: res.Outcome, Moves: t.game.Moves(), Mines: t.game.Board().MineCoords()})
		t.finishGameLocked()
	}
}

func (t *Table) beginGameLocked(now time.Time) {
	t.gameSeq++
	t.gameID = fmt.Sprintf("%s-%d-%d", t.ID, now.UnixMilli(), t.gameSeq)
	t.startedAt = now
	t.aiMoves = 0
	t.recorded = false
	t.recorder.Discard()
}

// finishGameLocked writes the current game and its examples to the ledger
// once. Games nobody moved in are skipped.
func (t *Table) finishGameLocked() {
	if t.recorded || t.game.Moves() == 0 {
		return
	}
	t.recorded = true

	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()
	fields := logrus.Fields{"table": t.ID, "game": t.gameID}

	examples := t.recorder.Pending()
	rec := ledger.GameRecord{
		GameID:   t.gameID,
		TableID:  t.ID,
		PlayerID: t.cfg.OwnerID,
		Preset:   t.cfg.Preset,
		Rows:     t.cfg.Game.Rows,
		Cols:     t.cfg.Game.Cols,
		Mines:    t.cfg.Game.Mines,
		Outcome:  t.game.Outcome(),
		Moves:    t.game.Moves(),
		AIMoves:  t.aiMoves,
		Examples: examples,
		PlayedAt: t.startedAt,
	}
	if err := t.ledger.RecordGame(ctx, rec); err != nil {
		log.WithFields(fields).WithError(err).Warn("record game failed")
		t.recorder.Discard()
		return
	}
	if _, err := t.recorder.Flush(ledger.Sink(ctx, t.ledger, t.gameID)); err != nil {
		log.WithFields(fields).WithError(err).Warn("store examples failed")
		t.recorder.Discard()
		return
	}
	log.WithFields(fields).WithFields(logrus.Fields{
		"outcome":  rec.Outcome.String(),
		"moves":    rec.Moves,
		"examples": examples,
	}).Info("game recorded")
}

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

func (t *Table) envelope(p wire.ServerPayload) *wire.ServerEnvelope {
	return &wire.ServerEnvelope{
		TableID:    t.ID,
		ServerSeq:  t.nextSeq(),
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    p,
	}
}

func (t *Table) broadcast(p wire.ServerPayload) {
	data := wire.MarshalServer(t.envelope(p))
	for _, send := range t.subscribers {
		send(data)
	}
}

// SubmitEvent hands e to the actor and waits for its reply. Errors the
// actor reports are returned both in Reply.Err and as the error.
func (t *Table) SubmitEvent(e Event) (Reply, error) {
	e.response = make(chan Reply, 1)

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return Reply{}, ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return Reply{}, ErrTableClosed
	}

	select {
	case r := <-e.response:
		return r, r.Err
	case <-t.done:
		return Reply{}, ErrTableClosed
	}
}

// Stop records any game in progress and shuts the actor down.
func (t *Table) Stop() {
	if _, err := t.SubmitEvent(Event{Type: EventClose}); err != nil && !errors.Is(err, ErrTableClosed) {
		log.WithField("table", t.ID).WithError(err).Warn("stop failed")
	}
}

func (t *Table) stopLocked() {
	t.closed = true
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// IsIdleFor reports whether nobody has touched or watched the table for ttl.
func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return true
	}
	if len(t.subscribers) > 0 {
		return false
	}
	return time.Since(t.lastActive) >= ttl
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Snapshot returns the current board view (thread-safe).
func (t *Table) Snapshot() mines.Snapshot {
	return t.game.Snapshot()
}

func (t *Table) Info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Info{
		ID:          t.ID,
		Preset:      t.cfg.Preset,
		Rows:        t.cfg.Game.Rows,
		Cols:        t.cfg.Game.Cols,
		Mines:       t.cfg.Game.Mines,
		OwnerID:     t.cfg.OwnerID,
		GameID:      t.gameID,
		Phase:       t.game.Phase(),
		Outcome:     t.game.Outcome(),
		Moves:       t.game.Moves(),
		Subscribers: len(t.subscribers),
	}
}
