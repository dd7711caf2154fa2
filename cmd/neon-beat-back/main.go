package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/config"
	"neon-beat-back/internal/events"
	"neon-beat-back/internal/logging"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/service"
	"neon-beat-back/internal/session"
	"neon-beat-back/internal/storage"
	"neon-beat-back/internal/storage/sqlitestore"
	"neon-beat-back/internal/transport/httpapi"
)

const defaultDBPath = "data/neon-beat.db"

func main() {
	// Load .env file if it exists (non-fatal if missing).
	_ = godotenv.Load()
	logging.Configure()

	port := getenv("PORT", getenv("SERVER_PORT", "8080"))
	behindProxy := getenv("BEHIND_PROXY", "false") == "true"
	dbPath := getenv("NEON_BEAT_DB_PATH", defaultDBPath)

	cfg := config.NewHolder(config.Load())
	if stop, err := config.Watch(cfg); err != nil {
		logging.Log.WithError(err).Warn("colors config watcher unavailable, hot reload disabled")
	} else {
		defer stop()
	}

	sessions := session.NewStore()
	machine := phase.NewGameStateMachine()
	bus := events.NewBus(sessions.CurrentPhaseSession)
	buzzers := buzzer.NewRegistry()

	supervisor := storage.NewSupervisor(func(ctx context.Context) (storage.GameStore, error) {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return sqlitestore.Open(ctx, dbPath)
	}, bus)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	supervisor.Start(rootCtx)

	game := service.New(sessions, machine, bus, buzzers, supervisor, cfg)
	r := httpapi.NewRouter(game, behindProxy)

	// No WriteTimeout: SSE responses stay open for the client's lifetime.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logging.Log.WithField("addr", ":"+port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Log.WithError(err).Fatal("http server error")
		}
	}()

	waitForShutdown(srv, cancelRoot, supervisor)
}

func waitForShutdown(srv *http.Server, cancelRoot context.CancelFunc, supervisor *storage.Supervisor) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logging.Log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	cancelRoot()
	if store := supervisor.Store(); store != nil {
		_ = store.Close()
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
