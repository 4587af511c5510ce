package replay

import (
	"encoding/base64"
	"fmt"

	"sweeper-lite/wire"
)

// WireReplayTape is the JSON shape handed to browser clients: envelopes only,
// base64 encoded.
type WireReplayTape struct {
	TapeVersion int               `json:"tapeVersion"`
	TableID     string            `json:"tableId"`
	Rows        int               `json:"rows"`
	Cols        int               `json:"cols"`
	Events      []WireReplayEvent `json:"events"`
}

type WireReplayEvent struct {
	Type        string `json:"type"`
	Seq         uint64 `json:"seq"`
	EnvelopeB64 string `json:"envelopeB64"`
}

func (t *ReplayTape) Wire() *WireReplayTape {
	if t == nil {
		return nil
	}
	out := &WireReplayTape{
		TapeVersion: t.TapeVersion,
		TableID:     t.TableID,
		Rows:        t.Rows,
		Cols:        t.Cols,
		Events:      make([]WireReplayEvent, len(t.Events)),
	}
	for i, e := range t.Events {
		out.Events[i] = WireReplayEvent{Type: e.Type, Seq: e.Seq, EnvelopeB64: e.EnvelopeB64}
	}
	return out
}

// Decode unpacks the envelope carried by e.
func (e WireReplayEvent) Decode() (*wire.ServerEnvelope, error) {
	raw, err := base64.StdEncoding.DecodeString(e.EnvelopeB64)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", e.Seq, err)
	}
	env, err := wire.UnmarshalServer(raw)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", e.Seq, err)
	}
	return env, nil
}
