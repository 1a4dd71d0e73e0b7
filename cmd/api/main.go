package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mwork/socialgraph/internal/config"
	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/domain/contactsync"
	"github.com/mwork/socialgraph/internal/domain/notification"
	"github.com/mwork/socialgraph/internal/domain/pagination"
	"github.com/mwork/socialgraph/internal/domain/recommendation"
	"github.com/mwork/socialgraph/internal/domain/relationships"
	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/database"
	"github.com/mwork/socialgraph/internal/pkg/jwt"
	"github.com/mwork/socialgraph/internal/pkg/logger"
	pkgresponse "github.com/mwork/socialgraph/internal/pkg/response"
)

// routeRegistrar is implemented by every domain handler
type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "api"})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("graph_backend", cfg.GraphBackend).
		Msg("Starting social graph API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	var neo4jDriver neo4j.DriverWithContext
	if cfg.GraphBackend == config.GraphBackendNeo4j {
		neo4jDriver, err = database.NewNeo4j(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Neo4j")
		}
		defer database.CloseNeo4j(neo4jDriver)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	graph, err := contactgraph.New(startCtx, cfg.GraphBackend, neo4jDriver)
	cancelStart()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize contact graph")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, 0)

	// ---------- Notifications ----------
	var dispatcher notification.Dispatcher = notification.LogDispatcher{}
	var redisDispatcher *notification.RedisDispatcher
	if redis != nil {
		redisDispatcher = notification.NewRedisDispatcher(redis, cfg.NotificationChannel)
		dispatcher = redisDispatcher
	}

	// ---------- Relationships ----------
	relationshipStore := relationships.NewRepository(db)
	relationshipService := relationships.NewService(
		relationshipStore,
		relationships.NewPrivacyRepository(db),
		dispatcher,
		relationships.Config{
			TxMaxAttempts:    cfg.TxMaxAttempts,
			TxTimeout:        cfg.TxTimeout,
			QueryMaxAttempts: cfg.QueryMaxAttempts,
		},
	)

	// ---------- Lists ----------
	paginationService := pagination.NewService(pagination.NewRepository(db), relationshipService, cfg.QueryMaxAttempts)

	// ---------- Recommendations ----------
	limits := recommendation.DefaultLimits()
	limits.FanOut = cfg.RecommendationFanOut
	recommendationService := recommendation.NewService(
		recommendation.NewEngine(graph, limits, cfg.QueryMaxAttempts),
		relationshipService,
		cfg.RecommendationTimeout,
	)

	// ---------- Contact sync ----------
	// The in-memory graph lives in this process, so a separate worker could
	// never reach it: ingest inline.
	var syncQueue contactsync.Queue
	if redis != nil && cfg.GraphBackend != config.GraphBackendMemory {
		syncQueue = contactsync.NewRedisQueue(redis, cfg.ContactSyncQueue)
	}
	contactSyncService := contactsync.NewService(graph, relationshipService, syncQueue, cfg.QueryMaxAttempts)

	r := newRouter(cfg, jwtService,
		relationships.NewHandler(relationshipService),
		pagination.NewHandler(paginationService),
		recommendation.NewHandler(recommendationService),
		contactsync.NewHandler(contactSyncService),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Committed transitions may still have events in flight
	if redisDispatcher != nil {
		redisDispatcher.Wait()
	}

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, tokens middleware.TokenValidator, handlers ...routeRegistrar) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(tokens))
		for _, h := range handlers {
			h.RegisterRoutes(r)
		}
	})

	return r
}
