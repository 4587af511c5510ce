package httpapi

import (
	"errors"
	"net/http"

	"sweeper-lite/apps/server/internal/auth"
	"sweeper-lite/apps/server/internal/gateway"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := a.auth.Register(req.Name, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s)
	case errors.Is(err, auth.ErrInvalidName), errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNameTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("register failed")
		writeError(w, http.StatusInternalServerError, "register failed")
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := a.auth.Login(req.Name, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid name or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handleGuest(w http.ResponseWriter, _ *http.Request) {
	s, err := a.auth.Guest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "guest session failed")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.auth.Logout(gateway.BearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, playerFrom(r))
}
