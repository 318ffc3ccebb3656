package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"slpportal/internal/config"
	"slpportal/internal/queue"
	"slpportal/internal/store"
)

// Worker consumes notification events published by the API and records
// them so the portal can show students what changed.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "portal:notifications")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for notifications...")
	for msg := range messages {
		if msg.Type == "" {
			continue
		}
		if _, err := db.Client.ExecContext(ctx, `
			INSERT INTO notifications (kind, payload) VALUES ($1, $2)
		`, msg.Type, string(msg.Body)); err != nil {
			log.Printf("record notification %s failed: %v", msg.Type, err)
			continue
		}
		log.Printf("recorded notification %s", msg.Type)
	}

	log.Println("worker stopped")
}
