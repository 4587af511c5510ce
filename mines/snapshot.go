package mines

// CellView is the display state of one cell: hidden, flagged, or revealed
// with a count or a mine.
type CellView struct {
	State CellStatus `json:"state"`
	Count int        `json:"count"`
	Mine  bool       `json:"mine,omitempty"`
}

type Snapshot struct {
	Rows            int          `json:"rows"`
	Cols            int          `json:"cols"`
	Mines           int          `json:"mines"`
	Phase           Phase        `json:"phase"`
	Outcome         Outcome      `json:"outcome"`
	FirstClickTaken bool         `json:"first_click_taken"`
	Moves           int          `json:"moves"`
	Revealed        int          `json:"revealed"`
	Flags           int          `json:"flags"`
	MinesRemaining  int          `json:"mines_remaining"`
	Cells           [][]CellView `json:"cells"`
}

// Snapshot renders the presentation view. After a loss every mine is shown
// revealed; after a win unrevealed mines are shown flagged. Neither changes
// the RevealState.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Rows:            g.cfg.Rows,
		Cols:            g.cfg.Cols,
		Mines:           g.cfg.Mines,
		Phase:           g.phaseLocked(),
		Outcome:         g.outcome,
		FirstClickTaken: g.firstClickTaken,
		Moves:           g.moves,
		Revealed:        g.state.RevealedCount(),
		Flags:           g.state.FlagCount(),
		MinesRemaining:  g.cfg.Mines - g.state.FlagCount(),
		Cells:           make([][]CellView, g.cfg.Rows),
	}

	for r := 0; r < g.cfg.Rows; r++ {
		s.Cells[r] = make([]CellView, g.cfg.Cols)
		for c := 0; c < g.cfg.Cols; c++ {
			at := Coord{Row: r, Col: c}
			v := CellView{State: g.state.Status(at)}
			mine := g.board.Placed() && g.board.IsMine(at)
			switch {
			case v.State == CellRevealed:
				if mine {
					v.Mine = true
				} else {
					v.Count = g.board.CountAt(at)
				}
			case mine && g.outcome == OutcomeLost:
				v.State = CellRevealed
				v.Mine = true
			case mine && g.outcome == OutcomeWon:
				v.State = CellFlagged
			}
			s.Cells[r][c] = v
		}
	}
	return s
}
