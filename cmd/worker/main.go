package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tapgate/internal/config"
	"tapgate/internal/notify"
	"tapgate/internal/queue"
	"tapgate/internal/store"
)

// Worker drains the notification queue: it loads each outbox message and
// hands it to the sender, then records the delivery outcome. The bundled
// sender only logs; a real SMS gateway replaces it outside this repo.
func main() {
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
		q = queue.NewRedisQueue(redisClient.Client, "tapgate:notifications")
	}

	outbox := notify.NewOutbox(db.Client, cfg.DBTimeout)
	var sender notify.Sender = notify.LogSender{}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "notification" {
			continue
		}

		id := string(msg.Body)
		record, err := outbox.Get(ctx, id)
		if err != nil {
			log.Printf("fetch message %s failed: %v", id, err)
			continue
		}
		if record.Sent {
			continue
		}

		if err := sender.Send(ctx, record); err != nil {
			log.Printf("send %s failed: %v", id, err)
			_ = outbox.MarkSent(ctx, id, false)
			continue
		}
		if err := outbox.MarkSent(ctx, id, true); err != nil {
			log.Printf("mark sent %s failed: %v", id, err)
		}

		time.Sleep(10 * time.Millisecond)
	}

	log.Println("worker stopped")
}
