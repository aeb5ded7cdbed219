package main

import (
	"context"
	"log"
	"os"

	"github.com/samirrijal/placepicker/internal/adapters/postgres"
	"github.com/samirrijal/placepicker/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("placepicker-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("kv_store ready")
	case "down":
		if _, err := db.Pool.Exec(ctx, `DROP TABLE IF EXISTS kv_store`); err != nil {
			log.Fatalf("drop kv_store: %v", err)
		}
		log.Println("kv_store dropped")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
