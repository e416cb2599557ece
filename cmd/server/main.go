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

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/config"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/httpapi"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/jobs"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/persistence"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/providers"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/scheduler"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/secrets"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/service"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type worker interface {
	Start()
	Stop()
}

type ticker interface {
	Start(ctx context.Context) error
	Stop()
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	// A missing .env file is fine; the environment may be set by the host.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatal("Failed to create data directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0o755); err != nil {
		log.Fatal("Failed to create output directory: %v", err)
	}

	store, err := persistence.NewSQLiteStore(cfg.Storage.DBPath())
	if err != nil {
		log.Fatal("Failed to open database: %v", err)
	}
	defer store.Close()

	key, err := secrets.LoadOrCreateKey(cfg.Storage.KeyPath())
	if err != nil {
		log.Fatal("Failed to load encryption key: %v", err)
	}
	cipher, err := secrets.NewCipher(key)
	if err != nil {
		log.Fatal("Failed to initialize cipher: %v", err)
	}
	creds := secrets.NewStore(cipher, store)

	factory := providers.NewFactory(cfg.Providers, cfg.Video, creds, filepath.Join(cfg.Storage.DataDir, "youtube_token.json"))
	runner := jobs.NewRunner(store, factory, cfg.Storage.OutputDir)
	automation := service.NewAutomation(store, runner)
	sched := scheduler.New(store, automation)

	server := httpapi.NewServer(automation, runner,
		httpapi.WithCredentialStore(creds, config.RequiredServices),
		httpapi.WithScheduleStore(store),
		httpapi.WithStorePing(store),
		httpapi.WithUI(cfg.Server.StaticDir, true),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg.Server.ListenAddr, runner, sched, server); err != nil {
		log.Fatal("Server exited: %v", err)
	}
}

// run wires the worker, the scheduler and the HTTP server together and tears
// them down in reverse order when ctx is cancelled.
func run(ctx context.Context, addr string, runner worker, sched ticker, server httpServer) error {
	runner.Start()
	defer runner.Stop()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
