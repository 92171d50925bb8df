package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/manuscript"
	"github.com/siherrmann/manuscript/config"
	"github.com/siherrmann/manuscript/helper"
)

const sampleContent = `Sung Jinwoo stood at the gate of the dungeon. He had been an E-rank hunter for four years.

The Hunter Association had sent him to Seoul Station. Jinwoo did not complain.


Cha Hae-In arrived the next morning. She was already famous across Korea.

Jinwoo watched her from the crowd while the Hunter Association counted the survivors.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// The prose backend needs no model download
	cfg := config.Defaults()
	cfg.NER.Backend = config.BackendProse

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	c, err := manuscript.NewCatalogerFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create cataloger: %v", err)
	}
	defer c.Close()

	if err := c.ConnectDatabase(dbConfig); err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	path := filepath.Join(os.TempDir(), "solo-leveling.txt")
	if err := os.WriteFile(path, []byte(sampleContent), 0644); err != nil {
		log.Fatalf("Failed to write sample manuscript: %v", err)
	}
	defer os.Remove(path)

	fmt.Println("Building catalog...")
	result, err := c.ProcessFile(context.Background(), path)
	if err != nil {
		log.Fatalf("Failed to build catalog: %v", err)
	}

	data, err := result.Catalog.Marshal()
	if err != nil {
		log.Fatalf("Failed to render catalog: %v", err)
	}
	fmt.Println(string(data))

	stored, err := c.StoreCatalog(context.Background(), path, result)
	if err != nil {
		log.Fatalf("Failed to store catalog: %v", err)
	}
	fmt.Printf("Stored manuscript with ID: %s\n", stored.RID)

	// Look the protagonist up again by a short alias
	found, err := c.Search("jinwoo", nil, 5)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d entities:\n", len(found))
	for _, e := range found {
		fmt.Printf("%s %-12s %s (aliases %v, chapters %d-%d)\n", e.ID, e.Kind, e.Canonical, e.Aliases, e.FirstChapter, e.LastChapter)
	}

	fmt.Println("\nBasic example completed successfully!")
}
