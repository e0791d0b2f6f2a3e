package main

import (
	"context"
	"log"
	"time"

	"memoflow/internal/activities"
	"memoflow/internal/config"
	"memoflow/internal/docbuild"
	"memoflow/internal/storage"
	"memoflow/internal/store"
	"memoflow/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)

	fs, err := store.NewFSStore(cfg.StoreRoot)
	if err != nil {
		log.Fatal(err)
	}
	docs := store.NewCachedStore(store.NewRetryingStore(fs, cfg.StoreRetries))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	a, err := activities.New(cfg, docs, db, docbuild.PlaceholderRenderer{})
	if err != nil {
		log.Fatal(err)
	}
	activities.Register(w, a)

	log.Printf("memoflow worker listening on %s queue=%s store=%q llm_providers=%q", cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.StoreRoot, cfg.LLMProviders)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
