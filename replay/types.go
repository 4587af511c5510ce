package replay

import "sweeper-lite/wire"

// GameSpec scripts one game: the board, the seed that fixes its layout, and
// the moves to apply in order.
type GameSpec struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Mines int        `json:"mines"`
	Seed  int64      `json:"seed,omitempty"`
	Moves []MoveSpec `json:"moves"`
	// Oracle is the agent config used for "ai" moves.
	Oracle string `json:"oracle,omitempty"`
}

// MoveSpec is one scripted move. Kind is reveal, flag or ai; ai moves ignore
// Row and Col.
type MoveSpec struct {
	Kind string `json:"kind"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

type ReplayTape struct {
	TapeVersion int           `json:"tape_version"`
	TableID     string        `json:"table_id"`
	Rows        int           `json:"rows"`
	Cols        int           `json:"cols"`
	Events      []ReplayEvent `json:"events"`
}

type ReplayEvent struct {
	Type        string               `json:"type"`
	Seq         uint64               `json:"seq"`
	Value       *wire.ServerEnvelope `json:"-"`
	EnvelopeB64 string               `json:"envelope_b64,omitempty"`
}
