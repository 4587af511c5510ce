package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sweeper-lite/apps/server/internal/ledger"
	"sweeper-lite/dataset"
)

// handleHistory lists the caller's recent games; all=1 lists everyone's.
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	playerID := playerFrom(r).ID
	if q.Get("all") == "1" {
		playerID = 0
	}
	limit := parseLimit(q.Get("limit"), a.historyLimit)
	items, err := a.ledger.ListRecent(r.Context(), playerID, limit)
	if err != nil {
		log.WithError(err).Error("list history failed")
		writeError(w, http.StatusInternalServerError, "query recent games failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleExamples returns a game's training examples as JSON, or as CSV with
// format=csv. Examples form one shared dataset, so any signed-in player may
// read any game's rows, as with history?all=1.
func (a *API) handleExamples(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	examples, err := a.ledger.GetExamples(r.Context(), gameID)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("game", gameID).Error("load examples failed")
		writeError(w, http.StatusInternalServerError, "load examples failed")
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+gameID+`.csv"`)
		sink, err := dataset.NewCSVSink(w, true)
		if err != nil {
			return
		}
		if err := sink.WriteExamples(examples); err != nil {
			log.WithError(err).WithField("game", gameID).Warn("write csv failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_id": gameID, "items": examples})
}

func parseLimit(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
