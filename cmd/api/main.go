package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guialv3s/InfinityAIRPG/internal/config"
	"github.com/guialv3s/InfinityAIRPG/internal/handlers"
	"github.com/guialv3s/InfinityAIRPG/internal/logger"
	"github.com/guialv3s/InfinityAIRPG/internal/services/events"
	"github.com/guialv3s/InfinityAIRPG/internal/services/queue"
	"github.com/guialv3s/InfinityAIRPG/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting InfinityAIRPG API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	store, err := storage.Open(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	turnQueue := queue.NewTurnQueue(queueClient)
	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)

	handler := handlers.NewMux(handlers.Router{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"storage": store,
			"queue":   queueClient,
		}, log),
		Turn:      handlers.NewTurnHandler(turnQueue, broadcaster, log),
		Character: handlers.NewCharacterHandler(store, turnQueue, broadcaster, log),
		Events:    handlers.NewEventsHandler(queueClient.GetRedisClient(), log),
	}, log)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events endpoint holds connections open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue client", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
