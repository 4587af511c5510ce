package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ClientEnvelope wraps every client-to-server message.
type ClientEnvelope struct {
	TableID   string
	ClientSeq uint64
	Payload   ClientPayload
}

// ClientPayload is one of *Join, *Reveal, *Flag, *Reset, *AIStep or
// *AutoPlay.
type ClientPayload interface {
	clientField() protowire.Number
	encode(e *encoder)
	decode(b []byte) error
}

// Join subscribes the connection to a table and asks for a snapshot.
type Join struct{}

type Reveal struct {
	Row, Col int
}

type Flag struct {
	Row, Col int
}

type Reset struct{}

type AIStep struct{}

// AutoPlay lets the table's oracle play on; MaxMoves 0 means until the game
// ends.
type AutoPlay struct {
	MaxMoves int
}

const (
	fieldJoin protowire.Number = 10 + iota
	fieldReveal
	fieldFlag
	fieldReset
	fieldAIStep
	fieldAutoPlay
)

func (*Join) clientField() protowire.Number     { return fieldJoin }
func (*Reveal) clientField() protowire.Number   { return fieldReveal }
func (*Flag) clientField() protowire.Number     { return fieldFlag }
func (*Reset) clientField() protowire.Number    { return fieldReset }
func (*AIStep) clientField() protowire.Number   { return fieldAIStep }
func (*AutoPlay) clientField() protowire.Number { return fieldAutoPlay }

func (*Join) encode(*encoder)       {}
func (*Join) decode([]byte) error   { return nil }
func (*Reset) encode(*encoder)      {}
func (*Reset) decode([]byte) error  { return nil }
func (*AIStep) encode(*encoder)     {}
func (*AIStep) decode([]byte) error { return nil }

func (m *Reveal) encode(e *encoder) { encodeRowCol(e, m.Row, m.Col) }

func (m *Reveal) decode(b []byte) error { return decodeRowCol(b, &m.Row, &m.Col) }

func (m *Flag) encode(e *encoder) { encodeRowCol(e, m.Row, m.Col) }

func (m *Flag) decode(b []byte) error { return decodeRowCol(b, &m.Row, &m.Col) }

func (m *AutoPlay) encode(e *encoder) { e.int(1, m.MaxMoves) }

func (m *AutoPlay) decode(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.MaxMoves = f.int()
		}
		return nil
	})
}

func encodeRowCol(e *encoder, row, col int) {
	e.int(1, row)
	e.int(2, col)
}

func decodeRowCol(b []byte, row, col *int) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			*row = f.int()
		case 2:
			*col = f.int()
		}
		return nil
	})
}

func MarshalClient(env *ClientEnvelope) []byte {
	var e encoder
	e.string(1, env.TableID)
	e.uint(2, env.ClientSeq)
	if env.Payload != nil {
		e.message(env.Payload.clientField(), env.Payload.encode)
	}
	return e.b
}

func UnmarshalClient(b []byte) (*ClientEnvelope, error) {
	env := &ClientEnvelope{}
	err := eachField(b, func(f field) error {
		var p ClientPayload
		switch f.num {
		case 1:
			env.TableID = f.string()
		case 2:
			env.ClientSeq = f.uint()
		case fieldJoin:
			p = &Join{}
		case fieldReveal:
			p = &Reveal{}
		case fieldFlag:
			p = &Flag{}
		case fieldReset:
			p = &Reset{}
		case fieldAIStep:
			p = &AIStep{}
		case fieldAutoPlay:
			p = &AutoPlay{}
		}
		if p == nil {
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
