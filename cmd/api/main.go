package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/simpyt/search-room/internal/config"
	"github.com/simpyt/search-room/internal/conformity"
	"github.com/simpyt/search-room/internal/criteria"
	httpapi "github.com/simpyt/search-room/internal/http"
	"github.com/simpyt/search-room/internal/identity"
	"github.com/simpyt/search-room/internal/intelligence"
	"github.com/simpyt/search-room/internal/logging"
	"github.com/simpyt/search-room/internal/storage"
)

func main() {
	_ = godotenv.Load()
	config.Load()
	cfg := config.AppConfig

	logging.Init(cfg.Env)
	logger := logging.L()
	defer func() { _ = logger.Sync() }()

	store, err := storage.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("open sqlite", zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	if err := store.EnsureSchema(); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	var cache *storage.SnapshotCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if _, err := client.Ping(ctx).Result(); err != nil {
			logger.Warn("redis unreachable, running without snapshot cache", zap.Error(err))
		} else {
			cache = storage.NewSnapshotCache(client, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
		}
		cancel()
	}

	confCfg, err := conformity.LoadConfigFromFile(cfg.ConformityConfigPath)
	if err != nil {
		confCfg.ToleranceFraction = cfg.ToleranceFraction
		logger.Info("using default conformity config", zap.Error(err))
	}

	registry, err := identity.LoadRegistryFromFile(cfg.SourceRegistryPath)
	if err != nil {
		logger.Info("using built-in source registry", zap.Error(err))
	}

	var scorer intelligence.Scorer = intelligence.NewHeuristicScorer()
	if cfg.GeminiAPIKey != "" {
		g, err := intelligence.NewGeminiScorer(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini unavailable, using heuristic scorer", zap.Error(err))
		} else {
			scorer = g
		}
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := httpapi.NewServer(store, cache, scorer, registry, confCfg,
		criteria.Options{TieBreak: cfg.CombineTieBreak}, logger)

	addr := ":" + cfg.AppPort
	logger.Info("API listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
