package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guialv3s/InfinityAIRPG/internal/config"
	"github.com/guialv3s/InfinityAIRPG/internal/logger"
	"github.com/guialv3s/InfinityAIRPG/internal/services"
	"github.com/guialv3s/InfinityAIRPG/internal/services/queue"
	"github.com/guialv3s/InfinityAIRPG/internal/storage"
	"github.com/guialv3s/InfinityAIRPG/internal/worker"
	"github.com/guialv3s/InfinityAIRPG/pkg/passive"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting InfinityAIRPG Worker",
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"storage_backend", cfg.StorageBackend)

	// Initialize queue service
	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	turnQueue := queue.NewTurnQueue(queueClient)
	log.Info("Queue service initialized successfully")

	// Initialize storage service
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	store, err := storage.Open(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()
	log.Info("Storage service initialized successfully")

	// Status effects: built-ins plus the optional YAML file
	registry := passive.DefaultRegistry()
	if cfg.StatusEffectsFile != "" {
		f, err := os.Open(cfg.StatusEffectsFile)
		if err != nil {
			log.Error("Failed to open status effects file", "error", err, "path", cfg.StatusEffectsFile)
			os.Exit(1)
		}
		n, err := registry.LoadYAML(f)
		_ = f.Close()
		if err != nil {
			log.Error("Failed to load status effects", "error", err, "path", cfg.StatusEffectsFile)
			os.Exit(1)
		}
		log.Info("Loaded status effects", "count", n, "path", cfg.StatusEffectsFile)
	}

	// Initialize LLM service
	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		log.Error("Invalid LLM provider specified", "error", err)
		os.Exit(1)
	}
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}
	log.Info("LLM service initialized successfully", "model", cfg.ModelName)

	processor := worker.NewTurnProcessor(store, llmService, registry, cfg.HistoryLimit, log)
	w := worker.New(turnQueue, processor, queueClient.GetRedisClient(), log, cfg.WorkerID)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	log.Info("Worker started, waiting for requests...", "worker_id", w.ID())

	<-quit
	log.Info("Worker shutdown signal received")
	w.Stop()

	// Give the current request time to finish
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Worker did not stop in time")
	}

	log.Info("Worker exited")
}
