//go:build js && wasm

// Command replaywasm exposes replay generation and seeded AI playouts to the
// browser. Each export takes one JSON string and returns one JSON string.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"syscall/js"

	"sweeper-lite/mines"
	"sweeper-lite/mines/agent"
	"sweeper-lite/replay"
)

type response struct {
	OK     bool                   `json:"ok"`
	Tape   *replay.WireReplayTape `json:"tape,omitempty"`
	Result *agent.PlayResult      `json:"result,omitempty"`
	Error  *replay.ReplayError    `json:"error,omitempty"`
}

type playRequest struct {
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
	Mines    int    `json:"mines"`
	Seed     int64  `json:"seed"`
	Oracle   string `json:"oracle"`
	MaxMoves int    `json:"max_moves"`
}

var exports = map[string]func(raw []byte) response{
	"__sweeperReplayInit": replayInit,
	"__sweeperPlay":       play,
}

func main() {
	for name, fn := range exports {
		fn := fn
		js.Global().Set(name, js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) == 0 {
				return encode(fail("invalid_request", "missing request payload"))
			}
			return encode(fn([]byte(args[0].String())))
		}))
	}
	select {}
}

func replayInit(raw []byte) response {
	var req struct {
		Spec replay.GameSpec `json:"spec"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return fail("invalid_json", err.Error())
	}
	tape, err := replay.GenerateReplayTape(req.Spec)
	if err != nil {
		var re *replay.ReplayError
		if errors.As(err, &re) {
			return response{Error: re}
		}
		return fail("replay_generation_failed", err.Error())
	}
	return response{OK: true, Tape: tape.Wire()}
}

func play(raw []byte) response {
	var req playRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fail("invalid_json", err.Error())
	}
	g, err := mines.NewGame(mines.Config{Rows: req.Rows, Cols: req.Cols, Mines: req.Mines, Seed: req.Seed})
	if err != nil {
		return fail(replay.ReasonInvalidConfig, err.Error())
	}
	oracle, err := agent.New(req.Oracle)
	if err != nil {
		return fail(replay.ReasonOracleInit, err.Error())
	}
	d := agent.NewDriver(oracle)
	d.MaxMoves = req.MaxMoves
	res, err := d.Play(context.Background(), g)
	if err != nil {
		return fail(replay.ReasonOracleFailed, err.Error())
	}
	return response{OK: true, Result: &res}
}

func fail(reason, msg string) response {
	return response{Error: &replay.ReplayError{StepIndex: -1, Reason: reason, Message: msg}}
}

func encode(v response) string {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(fail("marshal_failed", err.Error()))
	}
	return string(b)
}
