package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sweeper-lite/apps/server/internal/lobby"
	"sweeper-lite/apps/server/internal/table"
	"sweeper-lite/mines"
	"sweeper-lite/mines/agent"
)

type cellRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type autoPlayRequest struct {
	MaxMoves int `json:"max_moves"`
}

type revealView struct {
	Changed  bool          `json:"changed"`
	Hit      bool          `json:"hit"`
	Revealed []mines.Coord `json:"revealed"`
	Outcome  mines.Outcome `json:"outcome"`
}

type tableResponse struct {
	TableID  string            `json:"table_id"`
	GameID   string            `json:"game_id"`
	Snapshot mines.Snapshot    `json:"snapshot"`
	Reveal   *revealView       `json:"reveal,omitempty"`
	Flagged  *bool             `json:"flagged,omitempty"`
	Move     *agent.Move       `json:"move,omitempty"`
	Play     *agent.PlayResult `json:"play,omitempty"`
}

func (a *API) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.lobby.Presets()})
}

func (a *API) handleListTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.lobby.List()})
}

func (a *API) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req lobby.Request
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := a.lobby.Create(playerFrom(r).ID, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info := t.Info()
	writeJSON(w, http.StatusCreated, tableResponse{TableID: t.ID, GameID: info.GameID, Snapshot: t.Snapshot()})
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) *table.Table {
	t := a.lobby.Get(chi.URLParam(r, "tableID"))
	if t == nil {
		writeError(w, http.StatusNotFound, "table not found")
	}
	return t
}

func (a *API) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t := a.lookup(w, r)
	if t == nil {
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{TableID: t.ID, GameID: t.Info().GameID, Snapshot: t.Snapshot()})
}

func (a *API) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.submit(w, r, table.Event{Type: table.EventReveal, At: mines.Coord{Row: req.Row, Col: req.Col}})
}

func (a *API) handleFlag(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.submit(w, r, table.Event{Type: table.EventFlag, At: mines.Coord{Row: req.Row, Col: req.Col}})
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	a.submit(w, r, table.Event{Type: table.EventReset})
}

func (a *API) handleAIStep(w http.ResponseWriter, r *http.Request) {
	a.submit(w, r, table.Event{Type: table.EventAIStep})
}

func (a *API) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	var req autoPlayRequest
	if err := decodeOptionalJSON(r, &req); err != nil || req.MaxMoves < 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.submit(w, r, table.Event{Type: table.EventAutoPlay, MaxMoves: req.MaxMoves})
}

func (a *API) submit(w http.ResponseWriter, r *http.Request, e table.Event) {
	t := a.lookup(w, r)
	if t == nil {
		return
	}
	e.PlayerID = playerFrom(r).ID
	reply, err := t.SubmitEvent(e)
	if err != nil {
		switch {
		case errors.Is(err, table.ErrOutOfBounds):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, table.ErrNotOwner):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, table.ErrGameOver), errors.Is(err, table.ErrNoMove):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, table.ErrTableClosed):
			writeError(w, http.StatusGone, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := tableResponse{
		TableID:  t.ID,
		GameID:   reply.GameID,
		Snapshot: reply.Snapshot,
		Move:     reply.Move,
		Play:     reply.Play,
	}
	if reply.Reveal != nil {
		resp.Reveal = &revealView{
			Changed:  reply.Reveal.Changed,
			Hit:      reply.Reveal.Hit,
			Revealed: reply.Reveal.Revealed,
			Outcome:  reply.Reveal.Outcome,
		}
	}
	if e.Type == table.EventFlag {
		resp.Flagged = &reply.Flagged
	}
	writeJSON(w, http.StatusOK, resp)
}
