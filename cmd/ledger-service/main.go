package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	lhttp "github.com/radieske/fantasy-wager-platform/internal/ledger-service/http"
	lrepo "github.com/radieske/fantasy-wager-platform/internal/ledger-service/repo"
	"github.com/radieske/fantasy-wager-platform/internal/shared/config"
	"github.com/radieske/fantasy-wager-platform/internal/shared/db"
	"github.com/radieske/fantasy-wager-platform/internal/shared/logger"
	"github.com/radieske/fantasy-wager-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ledger-service"), zap.String("env", cfg.Env))

	// Conexão com Postgres para saldos e extrato
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Instancia repositório e servidor HTTP do ledger
	repo := lrepo.NewPostgres(pg, cfg.StartingBalance)
	api := lhttp.NewServer(log, repo)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Servidor HTTP público (API do ledger)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8082
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
