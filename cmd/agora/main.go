// Copyright 2025 Agora Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/agoradata/agora"
	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/server"
)

func main() {
	// .env is optional, for local development
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "agora",
		Usage: "Conversational data marketplace agent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"AGORA_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the marketplace HTTP server",
				Action: serveCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
						Value:   "./agora_db",
						EnvVars: []string{"AGORA_DB"},
					},
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP listen port",
						Value:   "8080",
						EnvVars: []string{"AGORA_PORT"},
					},
				),
			},
			{
				Name:   "seed",
				Usage:  "Load sample datasets into the catalog",
				Action: seedCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
						Value:   "./agora_db",
						EnvVars: []string{"AGORA_DB"},
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"AGORA_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"AGORA_EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:    "embedding-dimensions",
			Usage:   "Embedding vector size",
			Value:   384,
			EnvVars: []string{"AGORA_EMBEDDING_DIMENSIONS"},
		},
		&cli.StringFlag{
			Name:    "chat-host",
			Usage:   "Chat completion service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"AGORA_CHAT_HOST"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Chat completion model name",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"AGORA_CHAT_MODEL"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func serveCommand(c *cli.Context) error {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	marketplace, err := agora.NewMarketplace(c.String("db"), agora.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open marketplace: %w", err)
	}
	defer marketplace.Close()

	// Rebuild the embedding index from the stored catalog before
	// accepting traffic.
	if err := marketplace.Reindex(context.Background()); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}
	marketplace.Catalog().Wait()

	srv, err := server.New(marketplace)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    ":" + c.String("port"),
		Handler: srv.Router(),
	}

	go func() {
		slog.Info("server starting", "port", c.String("port"))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	marketplace, err := agora.NewMarketplace(c.String("db"), agora.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open marketplace: %w", err)
	}
	defer marketplace.Close()

	added, err := marketplace.Catalog().Register(ctx, sampleDatasets()...)
	if err != nil {
		return fmt.Errorf("failed to register datasets: %w", err)
	}

	// Block until the embeddings are generated and persisted.
	marketplace.Catalog().Wait()

	slog.Info("seeded catalog", "datasets", len(added))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
