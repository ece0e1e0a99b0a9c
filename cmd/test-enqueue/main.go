package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/guialv3s/InfinityAIRPG/internal/services/queue"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	queuePkg "github.com/guialv3s/InfinityAIRPG/pkg/queue"
)

func main() {
	redisURL := flag.String("redis", "redis://localhost:6379", "Redis URL")
	player := flag.String("player", "test-player", "player ID")
	campaign := flag.String("campaign", "test-campaign", "campaign ID")
	message := flag.String("message", "I look around the tavern.", "turn message, or a ! command")
	level := flag.Int("level", -1, "admin: set the character level (ignored when negative)")
	flag.Parse()

	key := character.Key{PlayerID: *player, CampaignID: *campaign}
	if err := key.Validate(); err != nil {
		log.Fatal("Invalid character key:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client, err := queue.NewClient(*redisURL, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer client.Close()

	ctx := context.Background()
	turnQueue := queue.NewTurnQueue(client)

	fmt.Println("Connected to Redis successfully!")

	turnReq := queuePkg.NewTurnRequest(key, *message)
	if err := turnQueue.EnqueueRequest(ctx, turnReq); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}
	fmt.Printf("✅ Enqueued turn request: %s\n", turnReq.RequestID)

	if *level >= 0 {
		adminReq := queuePkg.NewAdminRequest(key, queuePkg.AdminAction{Level: level})
		if err := turnQueue.EnqueueRequest(ctx, adminReq); err != nil {
			log.Fatal("Failed to enqueue admin request:", err)
		}
		fmt.Printf("✅ Enqueued admin request: %s\n", adminReq.RequestID)
	}

	depth, err := turnQueue.RequestQueueDepth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("\n📊 Queue depth: %d requests\n", depth)
	fmt.Println("\n💡 Now start the worker to see it process these requests!")
	fmt.Println("   Run: go run cmd/worker/main.go")
}
