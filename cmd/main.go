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
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/api"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanups always execute before the
// process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (volatile by design: BadgerDB and bluge both in memory)
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	var searchIndex *repositories.SearchIndex
	if config.SearchEnabled {
		writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
		if err != nil {
			return fmt.Errorf("search index opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing search index...")
			_ = writer.Close()
		}()
		searchIndex = repositories.NewSearchIndex(writer, log)
	}

	// 3. Moderation
	var moderator *moderation.Moderator
	if config.ModerationEnabled {
		replacement := []rune(config.ModerationCharReplacement)
		if len(replacement) != 1 {
			return fmt.Errorf("moderation replacement must be a single character, got %q", config.ModerationCharReplacement)
		}
		moderator, err = moderation.Default(replacement[0], log)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
	}

	// 4. Core registries & orchestration
	connections := runtime.NewConnectionRegistry()
	rooms := runtime.NewRoomRegistry()
	registry := runtime.NewRegistry(log)
	messageLog := repositories.NewMessageLog(db, log)
	orchestrator := runtime.NewOrchestrator(log, connections, rooms, registry, messageLog, moderator, searchIndex)
	chatService := services.NewChatService(orchestrator)

	// 5. Transport & HTTP surface
	wsHandler := transport.NewHandler(log, chatService, config.SendBufferSize)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	server := api.NewServer(log, connections, rooms, registry, messageLog, searchIndex)
	server.Register(engine, func(c *gin.Context) {
		wsHandler.ServeWS(c.Writer, c.Request)
	})

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Background workers
	telemetry := workers.NewTelemetryWorker(log, config.TelemetryInterval, func() map[string]any {
		totalMessages, _ := messageLog.Count()
		return map[string]any{
			"totalUsers":    len(connections.AllUsers()),
			"totalRooms":    len(rooms.All()),
			"subscriptions": len(registry.Snapshot()),
			"totalMessages": totalMessages,
		}
	})
	supervisor := workers.NewSupervisor(log).Add(telemetry)
	go supervisor.Run(ctx)

	// 8. Serve
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: engine}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
