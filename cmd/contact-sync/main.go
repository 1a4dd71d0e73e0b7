package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwork/socialgraph/internal/config"
	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/domain/contactsync"
	"github.com/mwork/socialgraph/internal/domain/notification"
	"github.com/mwork/socialgraph/internal/domain/relationships"
	"github.com/mwork/socialgraph/internal/pkg/database"
	"github.com/mwork/socialgraph/internal/pkg/logger"
)

const (
	pollWait    = 5 * time.Second
	maxAttempts = 3
	jobTimeout  = 30 * time.Second
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "contact-sync"})

	log.Info().Str("queue", cfg.ContactSyncQueue).Msg("Starting contact-sync worker")

	if cfg.GraphBackend != config.GraphBackendNeo4j {
		log.Fatal().Str("graph_backend", cfg.GraphBackend).Msg("contact-sync worker needs a shared graph backend")
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb == nil {
		log.Fatal().Msg("REDIS_URL is required for the contact-sync worker")
	}
	defer database.CloseRedis(rdb)

	driver, err := database.NewNeo4j(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Neo4j")
	}
	defer database.CloseNeo4j(driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	graph, err := contactgraph.New(ctx, cfg.GraphBackend, driver)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize contact graph")
	}

	// Read-only use: the worker only snapshots following lists
	store := relationships.NewService(
		relationships.NewRepository(db),
		relationships.NewPrivacyRepository(db),
		notification.LogDispatcher{},
		relationships.Config{QueryMaxAttempts: cfg.QueryMaxAttempts},
	)

	queue := contactsync.NewRedisQueue(rdb, cfg.ContactSyncQueue)
	service := contactsync.NewService(graph, store, queue, cfg.QueryMaxAttempts)
	worker := contactsync.NewWorker(queue, service, contactsync.WorkerConfig{
		PollWait:    pollWait,
		MaxAttempts: maxAttempts,
		JobTimeout:  jobTimeout,
	})

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil {
		log.Error().Err(err).Msg("contact-sync worker exited with error")
	}
}
