package main

import (
	"log"
	"net/http"

	"memoflow/internal/api"
	"memoflow/internal/config"
	"memoflow/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	fs, err := store.NewFSStore(cfg.StoreRoot)
	if err != nil {
		log.Fatal(err)
	}
	docs := store.NewCachedStore(store.NewRetryingStore(fs, cfg.StoreRetries))
	h := api.NewServer(cfg, docs)
	log.Printf("memoflow api listening on %s store=%q llm_providers=%q", cfg.APIAddr, cfg.StoreRoot, cfg.LLMProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
