package mines

import "fmt"

// Coord addresses one cell; Row grows downwards, Col to the right.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// CellStatus is the player-visible state of a cell.
type CellStatus byte

const (
	CellHidden   CellStatus = 0
	CellRevealed CellStatus = 1
	CellFlagged  CellStatus = 2
)

var CellStatusDictionary = map[CellStatus]string{
	CellHidden:   "hidden",
	CellRevealed: "revealed",
	CellFlagged:  "flagged",
}

func (s CellStatus) String() string {
	if name, ok := CellStatusDictionary[s]; ok {
		return name
	}
	return fmt.Sprintf("CellStatus(%d)", byte(s))
}

// Outcome is the terminal result of a game, or OutcomeInProgress.
type Outcome byte

const (
	OutcomeInProgress Outcome = 0
	OutcomeWon        Outcome = 1
	OutcomeLost       Outcome = 2
)

var OutcomeDictionary = map[Outcome]string{
	OutcomeInProgress: "in_progress",
	OutcomeWon:        "won",
	OutcomeLost:       "lost",
}

func (o Outcome) String() string {
	if name, ok := OutcomeDictionary[o]; ok {
		return name
	}
	return fmt.Sprintf("Outcome(%d)", byte(o))
}

// Terminal reports whether no further moves are accepted.
func (o Outcome) Terminal() bool {
	return o == OutcomeWon || o == OutcomeLost
}

// Phase is the session lifecycle stage; Created lasts until the first reveal places the mines.
type Phase byte

const (
	PhaseCreated    Phase = 0
	PhaseInProgress Phase = 1
	PhaseWon        Phase = 2
	PhaseLost       Phase = 3
)

var PhaseDictionary = map[Phase]string{
	PhaseCreated:    "created",
	PhaseInProgress: "in_progress",
	PhaseWon:        "won",
	PhaseLost:       "lost",
}

func (p Phase) String() string {
	if name, ok := PhaseDictionary[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", byte(p))
}

// MineMarker is what CountAt reports for a mined cell.
const MineMarker = -1

func (s CellStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CellStatus) UnmarshalText(b []byte) error {
	return lookupName(CellStatusDictionary, b, s)
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	return lookupName(OutcomeDictionary, b, o)
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	return lookupName(PhaseDictionary, b, p)
}

func lookupName[T comparable](dict map[T]string, b []byte, out *T) error {
	for k, v := range dict {
		if v == string(b) {
			*out = k
			return nil
		}
	}
	return fmt.Errorf("unknown name %q", b)
}
