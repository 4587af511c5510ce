package mines

// RevealState tracks what the player can see, independently of the mine
// layout. Flagged and Revealed are exclusive; a flagged cell must be
// unflagged before it can be revealed.
type RevealState struct {
	rows     int
	cols     int
	status   []CellStatus
	revealed int
	flagged  int
}

func NewRevealState(rows, cols int) *RevealState {
	return &RevealState{
		rows:   rows,
		cols:   cols,
		status: make([]CellStatus, rows*cols),
	}
}

// Reveal marks c revealed. Revealed or flagged cells are left alone; the
// return value reports whether anything changed.
func (s *RevealState) Reveal(c Coord) bool {
	i := s.index(c)
	if s.status[i] != CellHidden {
		return false
	}
	s.status[i] = CellRevealed
	s.revealed++
	return true
}

// ToggleFlag flips the flag on a hidden or flagged cell. Revealed cells are
// never flagged.
func (s *RevealState) ToggleFlag(c Coord) bool {
	switch s.Status(c) {
	case CellHidden:
		return s.Flag(c)
	case CellFlagged:
		return s.Unflag(c)
	default:
		return false
	}
}

func (s *RevealState) Flag(c Coord) bool {
	i := s.index(c)
	if s.status[i] != CellHidden {
		return false
	}
	s.status[i] = CellFlagged
	s.flagged++
	return true
}

func (s *RevealState) Unflag(c Coord) bool {
	i := s.index(c)
	if s.status[i] != CellFlagged {
		return false
	}
	s.status[i] = CellHidden
	s.flagged--
	return true
}

func (s *RevealState) Status(c Coord) CellStatus {
	return s.status[s.index(c)]
}

func (s *RevealState) IsRevealed(c Coord) bool { return s.Status(c) == CellRevealed }

func (s *RevealState) IsFlagged(c Coord) bool { return s.Status(c) == CellFlagged }

func (s *RevealState) IsHidden(c Coord) bool { return s.Status(c) == CellHidden }

func (s *RevealState) RevealedCount() int { return s.revealed }

func (s *RevealState) FlagCount() int { return s.flagged }

// AllNonMineRevealed reports whether every safe cell of b is revealed.
func (s *RevealState) AllNonMineRevealed(b *Board) bool {
	for i, st := range s.status {
		if st != CellRevealed && b.cells[i] != MineMarker {
			return false
		}
	}
	return true
}

func (s *RevealState) index(c Coord) int {
	if c.Row < 0 || c.Row >= s.rows || c.Col < 0 || c.Col >= s.cols {
		outOfBounds(c, s.rows, s.cols)
	}
	return c.Row*s.cols + c.Col
}
