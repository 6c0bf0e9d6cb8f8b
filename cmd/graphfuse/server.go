package graphfuse

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphfuse/graphfuse/pkg/config"
	"github.com/graphfuse/graphfuse/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the GraphFuse HTTP server",
	Long: `Start the GraphFuse HTTP server providing REST access to the engine.

The server exposes endpoints for:
- Ingesting documents
- Hybrid, vector and graph search
- Graph neighborhood exploration
- Health checks and stats

Configuration can come from the config file, environment variables, or flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Store flags
	serverCmd.Flags().String("graph-driver", "memory", "Graph store driver (memory, neo4j)")
	serverCmd.Flags().String("graph-uri", "", "Graph store URI")
	serverCmd.Flags().String("vector-driver", "memory", "Vector index driver (memory, badger)")
	serverCmd.Flags().String("vector-path", "", "Vector index path (badger)")

	// Provider flags
	serverCmd.Flags().String("embedding-provider", "", "Embedding provider (mock, openai)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("extractor-provider", "", "Extractor provider (mock, openai)")
	serverCmd.Flags().String("extractor-model", "", "Extractor model")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for error telemetry parquet files")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	log := buildLogger(cfg)
	engine, err := buildEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	srv := server.New(cfg, engine)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if err := engine.Close(shutdownCtx); err != nil {
			return fmt.Errorf("engine close error: %w", err)
		}
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Store flags
	if cmd.Flags().Changed("graph-driver") {
		cfg.Graph.Driver, _ = cmd.Flags().GetString("graph-driver")
	}
	if cmd.Flags().Changed("graph-uri") {
		cfg.Graph.URI, _ = cmd.Flags().GetString("graph-uri")
	}
	if cmd.Flags().Changed("vector-driver") {
		cfg.Vector.Driver, _ = cmd.Flags().GetString("vector-driver")
	}
	if cmd.Flags().Changed("vector-path") {
		cfg.Vector.Path, _ = cmd.Flags().GetString("vector-path")
	}

	// Provider flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("extractor-provider") {
		cfg.Extractor.Provider, _ = cmd.Flags().GetString("extractor-provider")
	}
	if cmd.Flags().Changed("extractor-model") {
		cfg.Extractor.Model, _ = cmd.Flags().GetString("extractor-model")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}
