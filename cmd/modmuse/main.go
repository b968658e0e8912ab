// Package main provides the modmuse CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siherrmann/modmuse"
	"github.com/siherrmann/modmuse/api"
	"github.com/siherrmann/modmuse/helper"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modmuse",
		Short: "ModMuse - natural language mod recommendations",
		Long: `ModMuse turns a free text description of what a player wants into a ranked
list of mods for a game, using keyword extraction, embeddings and a Postgres
catalog with pgvector.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("embedding-provider", "", "Embedding provider (openai or local), overrides MODMUSE_EMBEDDING_PROVIDER")
	rootCmd.PersistentFlags().Int("embedding-dim", 0, "Embedding dimensions, overrides MODMUSE_EMBEDDING_DIM")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modmuse v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("address", "", "HTTP listen address, overrides MODMUSE_HTTP_ADDRESS")
	serveCmd.Flags().Int64("default-game", 0, "Game used when a request has no game_id, overrides MODMUSE_DEFAULT_GAME_ID")
	serveCmd.Flags().Int("top-k", 0, "Semantic candidates per request, overrides MODMUSE_TOP_K")
	serveCmd.Flags().Bool("seed", false, "Seed the starter catalog before serving")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Seed the starter catalog (idempotent)",
		RunE:  runSeed,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "backfill",
		Short: "Compute embeddings for mods that have none",
		RunE:  runBackfill,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfiguration reads the environment and applies command line overrides.
func loadConfiguration(cmd *cobra.Command) (*helper.DatabaseConfiguration, *helper.ServiceConfiguration, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, nil, err
	}

	config, err := helper.LoadServiceConfiguration()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("embedding-provider"); v != "" {
		config.EmbeddingProvider = v
	}
	if v, _ := flags.GetInt("embedding-dim"); v > 0 {
		config.EmbeddingDim = v
	}
	if flags.Lookup("address") != nil {
		if v, _ := flags.GetString("address"); v != "" {
			config.HTTPAddress = v
		}
		if v, _ := flags.GetInt64("default-game"); v > 0 {
			config.DefaultGameID = v
		}
		if v, _ := flags.GetInt("top-k"); v > 0 {
			config.TopK = v
		}
	}

	err = config.Validate()
	if err != nil {
		return nil, nil, err
	}

	return dbConfig, config, nil
}

func setup(cmd *cobra.Command) (*modmuse.ModMuse, *helper.ServiceConfiguration, error) {
	dbConfig, config, err := loadConfiguration(cmd)
	if err != nil {
		return nil, nil, err
	}

	m, err := modmuse.NewModMuse(dbConfig, config.EmbeddingDim, config.TopK)
	if err != nil {
		return nil, nil, err
	}

	return m, config, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	m, config, err := setup(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if seed, _ := cmd.Flags().GetBool("seed"); seed {
		if _, err := m.Seed(ctx); err != nil {
			return err
		}
	}

	err = m.UsePipelineFromConfig(ctx, config)
	if err != nil {
		return err
	}

	server, err := m.Server(api.Options{
		DefaultGameID:  config.DefaultGameID,
		RequestTimeout: config.RequestTimeout,
	})
	if err != nil {
		return err
	}
	httpServer := server.HTTPServer(config.HTTPAddress)

	errChan := make(chan error, 1)
	go func() {
		m.DB.Logger.Info("Starting HTTP server", slog.String("address", config.HTTPAddress), slog.String("version", version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	m.DB.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func runSeed(cmd *cobra.Command, args []string) error {
	m, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	result, err := m.Seed(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d games, %d tags, %d mods, %d dependencies, %d incompatibilities\n",
		result.Games, result.Tags, result.Mods, result.Dependencies, result.Incompatibilities)
	return nil
}

func runBackfill(cmd *cobra.Command, args []string) error {
	m, config, err := setup(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = m.UsePipelineFromConfig(ctx, config)
	if err != nil {
		return err
	}

	result, err := m.Backfill(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Embedded %d mods, skipped %d, failed %d\n", result.Embedded, result.Skipped, result.Failed)
	return nil
}
