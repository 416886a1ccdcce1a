package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/benbjohnson/clock"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/demetriomjr/real-state-crm/auth"
	"github.com/demetriomjr/real-state-crm/infrastructure/httpapi"
	"github.com/demetriomjr/real-state-crm/infrastructure/n8n"
	"github.com/demetriomjr/real-state-crm/infrastructure/search"
	"github.com/demetriomjr/real-state-crm/projection"
	"github.com/demetriomjr/real-state-crm/repositories"
	"github.com/demetriomjr/real-state-crm/runtime"
	"github.com/demetriomjr/real-state-crm/runtime/workers"
	"github.com/demetriomjr/real-state-crm/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes every component and owns the server lifecycle; main only
// reports its error. Keeping the logic here means the defers (database and
// index close, hub shutdown) always execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Durable stores: BadgerDB for entities and history, Bluge for search
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	// 3. Delivery core & services
	hub := runtime.NewHub(log, clock.New(), config.HeartbeatInterval, config.IdleTimeout)
	defer hub.Shutdown()

	gateway := n8n.NewClient(log, config.N8NWebhookURL, config.N8NTimeout)
	recent := projection.NewRecentActivity(config.RecentActivityDepth)
	messages := services.NewMessageService(
		log,
		repositories.NewMessageRepository(db, log, config.LimitMessages),
		search.NewMessageIndex(writer, log),
		projection.NewTap(log, recent, hub),
		gateway,
		clock.New(),
	)
	crmService := services.NewCRMService(log, repositories.NewCRMRepository(db, log), clock.New())
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewSweepWorker(hub, clock.New(), config.SweepInterval, log),
		workers.NewTelemetryWorker(log, hub, config.TelemetryInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		sup.Run(ctx)
	}()

	// 6. HTTP server (REST + SSE)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	api := httpapi.NewServer(log, hub, messages, crmService, tokens, recent, config.ConnectionBufferSize)
	server := &http.Server{
		Addr:              address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup: stop accepting requests, then the workers. Open SSE
	// streams end when Shutdown's deadline expires and the hub tears their
	// subscriptions down.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown did not finish cleanly", "err", err)
	}
	sup.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
