package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwork/socialgraph/internal/config"
	"github.com/mwork/socialgraph/internal/domain/notification"
	"github.com/mwork/socialgraph/internal/domain/relationships"
	"github.com/mwork/socialgraph/internal/pkg/database"
	"github.com/mwork/socialgraph/internal/pkg/logger"
)

// Repairs friend edges that disagree with mutual accepted follows. Runs once,
// or on an interval with -every.
func main() {
	every := flag.Duration("every", 0, "run repeatedly at this interval (0 runs once)")
	timeout := flag.Duration("timeout", 5*time.Minute, "timeout for one reconciliation pass")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "reconcile"})

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	service := relationships.NewService(
		relationships.NewRepository(db),
		relationships.NewPrivacyRepository(db),
		notification.LogDispatcher{},
		relationships.Config{TxMaxAttempts: cfg.TxMaxAttempts, QueryMaxAttempts: cfg.QueryMaxAttempts},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pass := func() bool {
		passCtx, cancelPass := context.WithTimeout(ctx, *timeout)
		defer cancelPass()

		result, err := service.Reconcile(passCtx)
		if err != nil {
			log.Error().Err(err).Msg("Reconciliation failed")
			return false
		}
		log.Info().
			Int64("created", result.Created).
			Int64("deleted", result.Deleted).
			Msg("Reconciliation done")
		return true
	}

	if *every <= 0 {
		if !pass() {
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		pass()
		select {
		case <-ctx.Done():
			log.Info().Msg("reconcile stopped")
			return
		case <-ticker.C:
		}
	}
}
