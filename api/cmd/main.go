package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/application/ranking"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/application/reaction"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/config"
	rediscache "github.com/baechuer/real-time-ressys/services/ranking-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/transport/http/router"
)

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service.
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB

	Reactions *reaction.Service
	Ranking   *ranking.Service

	Cache     *rediscache.Client
	Publisher *rabbitmq.Publisher
	Consumer  *rabbitmq.Consumer
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		zlog.Info().
			Str("db_user", u.User.Username()).
			Str("db_host", u.Host).
			Str("db_db", u.Path).
			Msg("db config loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpen)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	app, err := NewApp(cfg, db)
	if err != nil {
		zlog.Fatal().Err(err).Msg("app wiring failed")
	}
	defer app.Close()

	if app.Consumer != nil {
		if err := app.Consumer.Start(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("rabbit consumer start failed")
		}
	}

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func NewApp(cfg *config.Config, db *sql.DB) (*App, error) {
	app := &App{Config: cfg, DB: db}

	// 1) Infrastructure
	reactionRepo := postgres.NewReactionRepo(db)
	catalog := postgres.NewCatalogRepo(db)
	directory := postgres.NewDirectoryRepo(db)

	var cache ranking.Cache
	var invalidator rabbitmq.CacheInvalidator
	if cfg.RedisURL != "" && cfg.RankingCacheTTL > 0 {
		c, err := rediscache.New(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable: ranking cache disabled")
		} else {
			app.Cache = c
			cache = c
			invalidator = c
		}
	}

	var pub reaction.EventPublisher = reaction.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Publisher = p
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: reaction events will not be published")
	}

	// 2) Application
	reactions := reaction.New(reactionRepo, catalog, sysClock{}, pub, reaction.Options{
		QueryTimeout: cfg.QueryTimeout,
		MaxAttempts:  cfg.ToggleMaxAttempts,
	})
	rankingSvc := ranking.New(catalog, directory, directory, reactions, cache, sysClock{}, ranking.Options{
		Timeout:  cfg.QueryTimeout,
		CacheTTL: cfg.RankingCacheTTL,
	})
	app.Reactions = reactions
	app.Ranking = rankingSvc

	if cfg.RabbitURL != "" {
		app.Consumer = rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, reactions, invalidator)
	}

	// 3) Transport
	deps := map[string]handlers.Pinger{"postgres": db}
	if app.Cache != nil {
		deps["redis"] = handlers.PingFunc(app.Cache.Ping)
	}
	auth := middleware.NewAuth(security.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer))
	httpHandler := router.New(
		handlers.NewRankingHandler(rankingSvc),
		handlers.NewReactionsHandler(reactions),
		handlers.NewHealthHandler(deps),
		auth,
		cfg,
	)

	// 4) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return app, nil
}

// Close releases broker and cache connections. The DB is owned by the caller.
func (a *App) Close() {
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
}
