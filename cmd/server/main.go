// Command server runs the chat logger: the HTTP analytics API and, when a
// token is configured, the Telegram bot that feeds it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/ghrenier/tg-chatlog/internal/bot"
	"github.com/ghrenier/tg-chatlog/internal/cache"
	"github.com/ghrenier/tg-chatlog/internal/config"
	httpapi "github.com/ghrenier/tg-chatlog/internal/http"
	"github.com/ghrenier/tg-chatlog/internal/llm"
	"github.com/ghrenier/tg-chatlog/internal/observability"
	"github.com/ghrenier/tg-chatlog/internal/repo"
	"github.com/ghrenier/tg-chatlog/internal/services"
	"github.com/ghrenier/tg-chatlog/internal/sysutil"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin")
		}
	}

	var backend cache.Backend
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			// The cache is an optimization; a dead Redis must not stop
			// the service.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, running without cache")
		} else {
			backend = cache.NewRedisBackend(client)
			defer client.Close()
		}
		cancel()
	}
	store := cache.NewStore(backend, log.Logger)

	messages := &services.MessageService{DB: db}
	stats := &services.StatsService{DB: db}
	searcher := &services.SearchService{DB: db, RegexScanCap: cfg.RegexScanCap}
	analytics := &services.CachedAnalytics{
		Stats:     stats,
		Search:    searcher,
		Store:     store,
		StatsTTL:  cfg.Cache.StatsTTL,
		UserTTL:   cfg.Cache.UserTTL,
		ListTTL:   cfg.Cache.ListTTL,
		SearchTTL: cfg.Cache.SearchTTL,
	}
	summaries := &services.SummaryService{DB: db, HistoryLimit: cfg.SummaryHistory}
	if cfg.LLM.BaseURL != "" {
		summaries.LLM = llm.New(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Timeout:     cfg.LLM.Timeout,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		DB:        db,
		Messages:  messages,
		Analytics: analytics,
		Summaries: summaries,
	}, cfg)

	if cfg.Telegram.Token != "" {
		tg, err := bot.New(cfg.Telegram, messages, analytics, summaries, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram setup")
		}
		go tg.Run(ctx)
	} else {
		log.Info().Msg("no telegram token, running API only")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
