package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"sweeper-lite/apps/server/internal/auth"
	"sweeper-lite/apps/server/internal/config"
	"sweeper-lite/apps/server/internal/gateway"
	"sweeper-lite/apps/server/internal/httpapi"
	"sweeper-lite/apps/server/internal/ledger"
	"sweeper-lite/apps/server/internal/lobby"
	"sweeper-lite/mines/agent"
	"sweeper-lite/preset"
)

var log = logrus.WithField("component", "server")

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	logrus.SetLevel(cfg.LogLevel)

	presets, err := preset.Load(cfg.PresetsFile)
	if err != nil {
		log.WithError(err).Fatal("load presets")
	}
	// Fail at startup rather than on the first table.
	if _, err := agent.New(cfg.Oracle); err != nil {
		log.WithError(err).Fatal("build oracle")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openLedger(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("init ledger")
	}
	defer store.Close()

	authService := auth.NewManager()
	lby := lobby.New(presets, cfg.Oracle, store)
	lby.SetMaxCells(cfg.MaxCells)
	gw := gateway.New(lby, authService)

	lobbyDone := make(chan struct{})
	go func() {
		lby.Run(ctx, time.Minute, cfg.TableIdleTTL)
		close(lobbyDone)
	}()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.NewRouter(httpapi.Options{
			Auth:         authService,
			Lobby:        lby,
			Ledger:       store,
			Gateway:      gw,
			CORSOrigins:  cfg.CORSOrigins,
			HistoryLimit: cfg.HistoryLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":    cfg.Addr,
		"store":   cfg.StoreMode,
		"oracle":  cfg.Oracle,
		"presets": len(presets.Names()),
	}).Info("starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
	<-lobbyDone
	log.Info("stopped")
}

// openLedger maps the store mode to a ledger backend. Memory mode keeps
// history for the life of the process in an in-memory sqlite database.
func openLedger(ctx context.Context, cfg config.Config) (ledger.Service, error) {
	switch cfg.StoreMode {
	case config.StoreSQLite:
		return ledger.Open(ctx, ledger.DriverSQLite, cfg.SQLitePath, cfg.HistoryLimit)
	case config.StorePostgres:
		return ledger.Open(ctx, ledger.DriverPostgres, cfg.DatabaseURL, cfg.HistoryLimit)
	default:
		return ledger.Open(ctx, ledger.DriverSQLite, ":memory:", cfg.HistoryLimit)
	}
}
