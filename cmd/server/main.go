package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/aomail-ai/knowledge/pkg/ai"
	"github.com/aomail-ai/knowledge/pkg/bootstrap"
	"github.com/aomail-ai/knowledge/pkg/config"
	"github.com/aomail-ai/knowledge/pkg/ingest"
	"github.com/aomail-ai/knowledge/pkg/knowledge"
	"github.com/aomail-ai/knowledge/pkg/knowledge/storage"
	"github.com/aomail-ai/knowledge/pkg/server"
)

func main() {
	logger := bootstrap.NewLogger()

	envs, err := config.LoadConfig(true)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		panic(errors.Wrap(err, "Failed to load config"))
	}
	logger.Info("Using database path", "path", envs.DBPath)

	if err := os.MkdirAll(filepath.Dir(envs.DBPath), 0o755); err != nil {
		panic(errors.Wrap(err, "Failed to create database directory"))
	}

	store, err := storage.NewStore(envs.DBPath, logger)
	if err != nil {
		panic(errors.Wrap(err, "Failed to open store"))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", "error", err)
		}
	}()

	if envs.NatsURL == "" {
		natsServer, err := bootstrap.StartEmbeddedNATSServer(logger)
		if err != nil {
			panic(errors.Wrap(err, "Failed to start NATS server"))
		}
		defer natsServer.Shutdown()
	}

	nc, err := bootstrap.NewNatsClient(envs.NatsURL)
	if err != nil {
		panic(errors.Wrap(err, "Failed to connect to NATS"))
	}
	defer nc.Close()

	completions := ai.NewOpenAIService(logger, envs.CompletionsAPIKey, envs.CompletionsAPIURL)

	engine := knowledge.NewEngine(store, store, store, store, completions, knowledge.Config{
		SelectionModel:  envs.SelectionModel,
		AnswerModel:     envs.AnswerModel,
		LLMTimeout:      envs.LLMTimeout,
		DefaultLanguage: envs.DefaultLanguage,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subscriber := ingest.NewSubscriber(nc, store, logger)
	sub, err := subscriber.Start(ctx)
	if err != nil {
		panic(errors.Wrap(err, "Failed to start ingest subscriber"))
	}
	defer func() { _ = sub.Unsubscribe() }()

	httpServer := &http.Server{
		Addr:    ":" + envs.HTTPPort,
		Handler: server.New(engine, logger, envs.AllowedOrigin),
	}

	go func() {
		logger.Info("HTTP server listening", "port", envs.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", "error", err)
	}
}
