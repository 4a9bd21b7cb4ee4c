package main

import (
	"flag"
	"log"

	"github.com/oggyb/anonchat/internal/config"
	"github.com/oggyb/anonchat/internal/db"
)

func main() {
	n := flag.Int("n", 20, "number of demo profiles")
	flag.Parse()

	// Load configuration
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedDemoProfiles(database, *n); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
