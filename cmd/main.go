package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"social-live/api"
	"social-live/domain"
	"social-live/moderation"
	"social-live/observability"
	"social-live/projection"
	"social-live/realtime"
	"social-live/repositories"
	"social-live/runtime"
	"social-live/search"
	"social-live/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer (database close, index
// close) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.IndexFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories & Moderation
	chatRepository := repositories.NewChatRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	mediaRepository := repositories.NewMediaRepository(db)

	words, err := moderation.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("loading moderation words: %w", err)
	}
	moderator, err := moderation.NewModerator(words, config.ModerationCharReplacement)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	// 4. Relay Pipeline: registry, event channel, sinks, fanout
	monitor := observability.NewMonitor(log)
	registry := realtime.NewRegistry()
	defer registry.Close()
	events := make(chan domain.DomainEvent, config.EventBufferSize)

	index := search.NewIndex(indexWriter, log)
	activity := projection.NewActivity()
	broadcastSink := realtime.NewBroadcastSink(registry, monitor, log)
	fanout := runtime.NewFanout(log, events, config.SinkTimeout,
		broadcastSink, index, activity)

	sup := runtime.NewSupervisor(log, config.RestartInterval).Add(fanout)

	// 5. Services & Transport
	chatService := services.NewChatService(log, chatRepository, userRepository,
		&moderator, monitor, events)
	mediaService := services.NewMediaService(log, mediaRepository)
	authService := services.NewAuthService(log, userRepository, config.TokenDuration)

	gateway := realtime.NewGateway(log, registry, chatService, monitor)
	handlers := api.NewHandlers(log, authService, chatService, mediaService,
		index, activity, monitor, gateway)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 7. HTTP Server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handlers.Router()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
