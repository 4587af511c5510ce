package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"sweeper-lite/mines"
)

// ServerEnvelope wraps every server-to-client message.
type ServerEnvelope struct {
	TableID    string
	ServerSeq  uint64
	ServerTsMs int64
	Payload    ServerPayload
}

// ServerPayload is one of *TableSnapshot, *RevealResult, *FlagResult,
// *GameEnd, *AIMove or *ErrorMsg.
type ServerPayload interface {
	serverField() protowire.Number
	encode(e *encoder)
}

// TableSnapshot is a full view of one table's board. Cells are row-major.
type TableSnapshot struct {
	Rows            int
	Cols            int
	Mines           int
	Phase           mines.Phase
	Outcome         mines.Outcome
	Moves           int
	Revealed        int
	Flags           int
	FirstClickTaken bool
	Cells           []mines.CellView
}

type RevealedCell struct {
	Row, Col, Count int
}

type RevealResult struct {
	Row, Col int
	Hit      bool
	Cells    []RevealedCell
	Outcome  mines.Outcome
}

type FlagResult struct {
	Row, Col int
	Flagged  bool
}

type GameEnd struct {
	Outcome mines.Outcome
	Moves   int
	Mines   []mines.Coord
}

type AIMove struct {
	Row, Col int
	Score    float64
}

type ErrorMsg struct {
	Code    string
	Message string
}

const (
	fieldTableSnapshot protowire.Number = 10 + iota
	fieldRevealResult
	fieldFlagResult
	fieldGameEnd
	fieldAIMove
	fieldError
)

func (*TableSnapshot) serverField() protowire.Number { return fieldTableSnapshot }
func (*RevealResult) serverField() protowire.Number  { return fieldRevealResult }
func (*FlagResult) serverField() protowire.Number    { return fieldFlagResult }
func (*GameEnd) serverField() protowire.Number       { return fieldGameEnd }
func (*AIMove) serverField() protowire.Number        { return fieldAIMove }
func (*ErrorMsg) serverField() protowire.Number      { return fieldError }

// SnapshotFromGame converts an engine snapshot for the wire.
func SnapshotFromGame(s mines.Snapshot) *TableSnapshot {
	out := &TableSnapshot{
		Rows:            s.Rows,
		Cols:            s.Cols,
		Mines:           s.Mines,
		Phase:           s.Phase,
		Outcome:         s.Outcome,
		Moves:           s.Moves,
		Revealed:        s.Revealed,
		Flags:           s.Flags,
		FirstClickTaken: s.FirstClickTaken,
		Cells:           make([]mines.CellView, 0, s.Rows*s.Cols),
	}
	for _, row := range s.Cells {
		out.Cells = append(out.Cells, row...)
	}
	return out
}

// RevealFromGame converts an engine reveal result; counts are read from b.
func RevealFromGame(res mines.RevealResult, b *mines.Board) *RevealResult {
	out := &RevealResult{
		Row:     res.Target.Row,
		Col:     res.Target.Col,
		Hit:     res.Hit,
		Outcome: res.Outcome,
		Cells:   make([]RevealedCell, 0, len(res.Revealed)),
	}
	for _, c := range res.Revealed {
		out.Cells = append(out.Cells, RevealedCell{Row: c.Row, Col: c.Col, Count: b.CountAt(c)})
	}
	return out
}

func (m *TableSnapshot) encode(e *encoder) {
	e.int(1, m.Rows)
	e.int(2, m.Cols)
	e.int(3, m.Mines)
	e.int(4, int(m.Phase))
	e.int(5, int(m.Outcome))
	e.int(6, m.Moves)
	e.int(7, m.Revealed)
	e.int(8, m.Flags)
	e.packed(9, len(m.Cells), func(i int) uint64 { return uint64(m.Cells[i].State) })
	e.packed(10, len(m.Cells), func(i int) uint64 { return protowire.EncodeZigZag(int64(m.Cells[i].Count)) })
	e.packed(11, len(m.Cells), func(i int) uint64 { return protowire.EncodeBool(m.Cells[i].Mine) })
	e.bool(12, m.FirstClickTaken)
}

func (m *TableSnapshot) decode(b []byte) error {
	var states, counts, mineFlags []uint64
	err := eachField(b, func(f field) error {
		var err error
		var vs []uint64
		switch f.num {
		case 1:
			m.Rows = f.int()
		case 2:
			m.Cols = f.int()
		case 3:
			m.Mines = f.int()
		case 4:
			m.Phase = mines.Phase(f.int())
		case 5:
			m.Outcome = mines.Outcome(f.int())
		case 6:
			m.Moves = f.int()
		case 7:
			m.Revealed = f.int()
		case 8:
			m.Flags = f.int()
		case 9:
			vs, err = f.varints()
			states = append(states, vs...)
		case 10:
			vs, err = f.varints()
			counts = append(counts, vs...)
		case 11:
			vs, err = f.varints()
			mineFlags = append(mineFlags, vs...)
		case 12:
			m.FirstClickTaken = f.bool()
		}
		return err
	})
	if err != nil {
		return err
	}
	n := max(len(states), len(counts), len(mineFlags))
	m.Cells = make([]mines.CellView, n)
	for i := range m.Cells {
		if i < len(states) {
			m.Cells[i].State = mines.CellStatus(states[i])
		}
		if i < len(counts) {
			m.Cells[i].Count = int(protowire.DecodeZigZag(counts[i]))
		}
		if i < len(mineFlags) {
			m.Cells[i].Mine = protowire.DecodeBool(mineFlags[i])
		}
	}
	return nil
}

// Grid reshapes Cells into rows.
func (m *TableSnapshot) Grid() [][]mines.CellView {
	if m.Cols <= 0 {
		return nil
	}
	out := make([][]mines.CellView, 0, m.Rows)
	for i := 0; i+m.Cols <= len(m.Cells); i += m.Cols {
		out = append(out, m.Cells[i:i+m.Cols])
	}
	return out
}

func (m *RevealResult) encode(e *encoder) {
	e.int(1, m.Row)
	e.int(2, m.Col)
	e.bool(3, m.Hit)
	for _, c := range m.Cells {
		e.message(4, func(e *encoder) {
			e.int(1, c.Row)
			e.int(2, c.Col)
			e.sint(3, c.Count)
		})
	}
	e.int(5, int(m.Outcome))
}

func (m *RevealResult) decode(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Row = f.int()
		case 2:
			m.Col = f.int()
		case 3:
			m.Hit = f.bool()
		case 4:
			var c RevealedCell
			err := eachField(f.bytes, func(f field) error {
				switch f.num {
				case 1:
					c.Row = f.int()
				case 2:
					c.Col = f.int()
				case 3:
					c.Count = f.sint()
				}
				return nil
			})
			if err != nil {
				return err
			}
			m.Cells = append(m.Cells, c)
		case 5:
			m.Outcome = mines.Outcome(f.int())
		}
		return nil
	})
}

func (m *FlagResult) encode(e *encoder) {
	e.int(1, m.Row)
	e.int(2, m.Col)
	e.bool(3, m.Flagged)
}

func (m *FlagResult) decode(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Row = f.int()
		case 2:
			m.Col = f.int()
		case 3:
			m.Flagged = f.bool()
		}
		return nil
	})
}

func (m *GameEnd) encode(e *encoder) {
	e.int(1, int(m.Outcome))
	e.int(2, m.Moves)
	for _, c := range m.Mines {
		e.message(3, func(e *encoder) { encodeCoord(e, c) })
	}
}

func (m *GameEnd) decode(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Outcome = mines.Outcome(f.int())
		case 2:
			m.Moves = f.int()
		case 3:
			c, err := decodeCoord(f.bytes)
			if err != nil {
				return err
			}
			m.Mines = append(m.Mines, c)
		}
		return nil
	})
}

func (m *AIMove) encode(e *encoder) {
	e.int(1, m.Row)
	e.int(2, m.Col)
	e.double(3, m.Score)
}

func (m *AIMove) decode(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Row = f.int()
		case 2:
			m.Col = f.int()
		case 3:
			m.Score = f.double()
		}
		return nil
	})
}

func (m *ErrorMsg) encode(e *encoder) {
	e.string(1, m.Code)
	e.string(2, m.Message)
}

func (m *ErrorMsg) decode(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Code = f.string()
		case 2:
			m.Message = f.string()
		}
		return nil
	})
}

func encodeCoord(e *encoder, c mines.Coord) {
	e.int(1, c.Row)
	e.int(2, c.Col)
}

func decodeCoord(b []byte) (mines.Coord, error) {
	var c mines.Coord
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1:
			c.Row = f.int()
		case 2:
			c.Col = f.int()
		}
		return nil
	})
	return c, err
}

// MarshalServer encodes env.
func MarshalServer(env *ServerEnvelope) []byte {
	var e encoder
	e.string(1, env.TableID)
	e.uint(2, env.ServerSeq)
	e.int(3, int(env.ServerTsMs))
	if env.Payload != nil {
		e.message(env.Payload.serverField(), env.Payload.encode)
	}
	return e.b
}

// UnmarshalServer decodes a server envelope. An envelope without a known
// payload is ErrUnknownPayload.
func UnmarshalServer(b []byte) (*ServerEnvelope, error) {
	env := &ServerEnvelope{}
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1:
			env.TableID = f.string()
			return nil
		case 2:
			env.ServerSeq = f.uint()
			return nil
		case 3:
			env.ServerTsMs = int64(f.v)
			return nil
		}
		var p interface {
			ServerPayload
			decode([]byte) error
		}
		switch f.num {
		case fieldTableSnapshot:
			p = &TableSnapshot{}
		case fieldRevealResult:
			p = &RevealResult{}
		case fieldFlagResult:
			p = &FlagResult{}
		case fieldGameEnd:
			p = &GameEnd{}
		case fieldAIMove:
			p = &AIMove{}
		case fieldError:
			p = &ErrorMsg{}
		default:
			return nil
		}
		if err := p.decode(f.bytes); err != nil {
			return fmt.Errorf("field %d: %w", f.num, err)
		}
		env.Payload = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if env.Payload == nil {
		return nil, ErrUnknownPayload
	}
	return env, nil
}

// PayloadType names the payload for logs and replay tapes.
func PayloadType(p ServerPayload) string {
	switch p.(type) {
	case *TableSnapshot:
		return "snapshot"
	case *RevealResult:
		return "reveal"
	case *FlagResult:
		return "flag"
	case *GameEnd:
		return "gameEnd"
	case *AIMove:
		return "aiMove"
	case *ErrorMsg:
		return "error"
	default:
		return "unknown"
	}
}
