package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samirrijal/meteorguard/internal/adapters/postgres"
	"github.com/samirrijal/meteorguard/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|list>")
	}

	switch os.Args[1] {
	case "list":
		names, err := postgres.Migrations()
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	case "up":
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}

	cfg, err := config.Load("meteorguard-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	err = db.Migrate(ctx, func(name string) {
		fmt.Printf("OK  %s\n", name)
	})
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}

	log.Println("all migrations applied")
}
