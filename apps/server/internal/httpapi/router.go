// Package httpapi is the JSON REST surface of the server.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"sweeper-lite/apps/server/internal/auth"
	"sweeper-lite/apps/server/internal/gateway"
	"sweeper-lite/apps/server/internal/ledger"
	"sweeper-lite/apps/server/internal/lobby"
)

var log = logrus.WithField("component", "httpapi")

type Options struct {
	Auth         auth.Service
	Lobby        *lobby.Lobby
	Ledger       ledger.Service
	Gateway      *gateway.Gateway
	CORSOrigins  []string
	HistoryLimit int
}

type API struct {
	auth         auth.Service
	lobby        *lobby.Lobby
	ledger       ledger.Service
	historyLimit int
}

// NewRouter wires every route. /ws is only mounted when a gateway is given.
func NewRouter(opts Options) chi.Router {
	store := opts.Ledger
	if store == nil {
		store = ledger.Discard{}
	}
	api := &API{
		auth:         opts.Auth,
		lobby:        opts.Lobby,
		ledger:       store,
		historyLimit: opts.HistoryLimit,
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gateway != nil {
		r.Get("/ws", opts.Gateway.HandleWebSocket)
	}

	r.Route("/api", func(rr chi.Router) {
		rr.Get("/presets", api.handlePresets)

		rr.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", api.handleRegister)
			ar.Post("/login", api.handleLogin)
			ar.Post("/guest", api.handleGuest)
			ar.With(api.requirePlayer).Post("/logout", api.handleLogout)
			ar.With(api.requirePlayer).Get("/me", api.handleMe)
		})

		rr.Route("/tables", func(tr chi.Router) {
			tr.Get("/", api.handleListTables)
			tr.With(api.requirePlayer).Post("/", api.handleCreateTable)
			tr.Route("/{tableID}", func(one chi.Router) {
				one.Get("/", api.handleGetTable)
				one.Group(func(play chi.Router) {
					play.Use(api.requirePlayer)
					play.Post("/reveal", api.handleReveal)
					play.Post("/flag", api.handleFlag)
					play.Post("/reset", api.handleReset)
					play.Post("/ai-step", api.handleAIStep)
					play.Post("/autoplay", api.handleAutoPlay)
				})
			})
		})

		rr.Route("/history", func(hr chi.Router) {
			hr.Use(api.requirePlayer)
			hr.Get("/", api.handleHistory)
			hr.Get("/{gameID}/examples", api.handleExamples)
		})
	})
	return r
}

type playerKey struct{}

// requirePlayer resolves the bearer token and stores the player in the
// request context.
func (a *API) requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := gateway.BearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		p, ok := a.auth.Resolve(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), playerKey{}, p)))
	})
}

func playerFrom(r *http.Request) auth.Player {
	p, _ := r.Context().Value(playerKey{}).(auth.Player)
	return p
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
