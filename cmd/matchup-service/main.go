package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	mhttp "github.com/radieske/fantasy-wager-platform/internal/matchup-service/http"
	"github.com/radieske/fantasy-wager-platform/internal/matchup-service/sleeper"
	"github.com/radieske/fantasy-wager-platform/internal/shared/cache"
	"github.com/radieske/fantasy-wager-platform/internal/shared/config"
	"github.com/radieske/fantasy-wager-platform/internal/shared/logger"
	"github.com/radieske/fantasy-wager-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("matchup-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "matchup-service"), zap.String("env", cfg.Env))

	// Redis como cache de rosters/projeções do upstream
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	ttl, err := time.ParseDuration(cfg.ProjectionCacheTTL)
	if err != nil {
		log.Warn("invalid PROJECTION_CACHE_TTL, using 2m", zap.String("value", cfg.ProjectionCacheTTL))
		ttl = 2 * time.Minute
	}

	upstream := sleeper.New(cfg.SleeperBaseURL, cache.NewRedisStore(redisClient), ttl, log)
	api := &mhttp.API{Upstream: upstream, Log: log}

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
