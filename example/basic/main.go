package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/modmuse"
	"github.com/siherrmann/modmuse/helper"
)

func main() {
	ctx := context.Background()

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

	// Local MiniLM embeddings, keywords from the tag vocabulary (no API key needed)
	config := helper.DefaultServiceConfiguration()
	config.EmbeddingProvider = helper.EmbeddingProviderLocal
	config.EmbeddingDim = 384

	m, err := modmuse.NewModMuse(dbConfig, config.EmbeddingDim, config.TopK)
	if err != nil {
		log.Fatalf("Failed to create modmuse: %v", err)
	}
	defer m.Close()

	seeded, err := m.Seed(ctx)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	fmt.Printf("Seeded %d games and %d mods\n", seeded.Games, seeded.Mods)

	if err := m.UsePipelineFromConfig(ctx, config); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	backfill, err := m.Backfill(ctx)
	if err != nil {
		log.Fatalf("Failed to backfill embeddings: %v", err)
	}
	fmt.Printf("Embedded %d mods\n", backfill.Embedded)

	prompt := "I want a hardcore survival experience in the cold"
	fmt.Printf("\nPrompt: %s\n", prompt)

	result, err := m.Recommend(ctx, prompt, 1)
	if err != nil {
		log.Fatalf("Failed to recommend: %v", err)
	}

	fmt.Printf("Keywords: %v\n\n", result.Prompt.ExtractedKeywords)
	for _, recommendation := range result.Recommendations {
		fmt.Printf("%d. %s (score %.0f) %v\n",
			recommendation.RankOrder,
			recommendation.Mod.Name,
			recommendation.RelevanceScore,
			recommendation.Mod.TagNames(),
		)
	}
}
