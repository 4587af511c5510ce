package mines

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// RevealHook runs before a player-issued reveal mutates the game, after the
// mines have been placed. It must not call back into the Game.
type RevealHook func(board *Board, state *RevealState, target Coord)

// RevealResult describes what one Reveal call did.
type RevealResult struct {
	Target   Coord
	Changed  bool
	Hit      bool    // the target was a mine
	Revealed []Coord // cells revealed by this call, target first
	Mines    []Coord // every mine, set only when Hit, for display
	Outcome  Outcome
}

// Game composes a Board and a RevealState into one session. Mines are laid
// on the first reveal with the clicked cell excluded, so the first move can
// never lose.
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	board           *Board
	state           *RevealState
	firstClickTaken bool
	outcome         Outcome
	moves           int

	hooks        []RevealHook
	cascadeHooks []RevealHook
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Game{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
	if err := g.resetLocked(); err != nil {
		return nil, err
	}
	return g, nil
}

// OnReveal registers a hook; hooks survive Reset.
func (g *Game) OnReveal(hook RevealHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, hook)
}

// OnCascade registers a hook that runs before each cell a cascade opens,
// with the state as it is just before that cell is revealed. The target of
// the reveal itself goes to OnReveal hooks only.
func (g *Game) OnCascade(hook RevealHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cascadeHooks = append(g.cascadeHooks, hook)
}

// Reveal opens c. Revealing a flagged or already revealed cell, or any cell
// once the game is over, does nothing. Zero cells cascade to their hidden,
// unflagged neighbours through an explicit worklist.
func (g *Game) Reveal(c Coord) RevealResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.board.mustContain(c)
	res := RevealResult{Target: c, Outcome: g.outcome}
	if g.outcome.Terminal() || !g.state.IsHidden(c) {
		return res
	}

	if !g.firstClickTaken {
		// cfg was validated in NewGame, so placement cannot fail here.
		if err := g.board.PlaceMines(g.rng, c, g.cfg.Mines); err != nil {
			panic(err)
		}
		g.firstClickTaken = true
	}
	for _, hook := range g.hooks {
		hook(g.board, g.state, c)
	}

	g.moves++
	res.Changed = true
	if g.board.IsMine(c) {
		g.state.Reveal(c)
		g.outcome = OutcomeLost
		res.Hit = true
		res.Revealed = []Coord{c}
		res.Mines = g.board.MineCoords()
		res.Outcome = g.outcome
		return res
	}

	res.Revealed = g.cascade(c)
	if g.state.AllNonMineRevealed(g.board) {
		g.outcome = OutcomeWon
	}
	res.Outcome = g.outcome
	return res
}

func (g *Game) cascade(start Coord) []Coord {
	g.state.Reveal(start)
	revealed := []Coord{start}
	if g.board.CountAt(start) != 0 {
		return revealed
	}

	var work deque.Deque[Coord]
	work.PushBack(start)
	for work.Len() > 0 {
		cur := work.PopFront()
		g.board.forEachNeighbor(cur, func(nb Coord) {
			// Hidden excludes both revealed and flagged cells.
			if !g.state.IsHidden(nb) {
				return
			}
			for _, hook := range g.cascadeHooks {
				hook(g.board, g.state, nb)
			}
			g.state.Reveal(nb)
			revealed = append(revealed, nb)
			if g.board.CountAt(nb) == 0 {
				work.PushBack(nb)
			}
		})
	}
	return revealed
}

// ToggleFlag flips the flag on c. It is a no-op on revealed cells and after
// the game has ended.
func (g *Game) ToggleFlag(c Coord) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.board.mustContain(c)
	if g.outcome.Terminal() {
		return false
	}
	return g.state.ToggleFlag(c)
}

// Reset discards the board and reveal state. The next first reveal draws a
// fresh layout from the continuing RNG stream.
func (g *Game) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resetLocked()
}

func (g *Game) resetLocked() error {
	board, err := NewBoard(g.cfg.Rows, g.cfg.Cols)
	if err != nil {
		return err
	}
	g.board = board
	g.state = NewRevealState(g.cfg.Rows, g.cfg.Cols)
	g.firstClickTaken = false
	g.outcome = OutcomeInProgress
	g.moves = 0
	return nil
}

func (g *Game) Config() Config { return g.cfg }

func (g *Game) Outcome() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

func (g *Game) FirstClickTaken() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.firstClickTaken
}

// Moves counts reveals that changed the game, cascades counting once.
func (g *Game) Moves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moves
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phaseLocked()
}

func (g *Game) phaseLocked() Phase {
	switch {
	case g.outcome == OutcomeWon:
		return PhaseWon
	case g.outcome == OutcomeLost:
		return PhaseLost
	case g.firstClickTaken:
		return PhaseInProgress
	default:
		return PhaseCreated
	}
}

// Board and RevealState expose the live structures for read-only use by
// the owner goroutine (feature extraction, move choice). Mutate through the
// Game only.
func (g *Game) Board() *Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board
}

func (g *Game) RevealState() *RevealState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Features extracts the feature vector of c against the current state.
func (g *Game) Features(c Coord) FeatureVector {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Extract(g.board, g.state, c)
}
