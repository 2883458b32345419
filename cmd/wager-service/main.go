package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/settlement"
	"github.com/radieske/fantasy-wager-platform/internal/shared/config"
	"github.com/radieske/fantasy-wager-platform/internal/shared/db"
	"github.com/radieske/fantasy-wager-platform/internal/shared/kafka"
	"github.com/radieske/fantasy-wager-platform/internal/shared/logger"
	whttp "github.com/radieske/fantasy-wager-platform/internal/wager-service/http"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/ledger"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/matchup"
	kpub "github.com/radieske/fantasy-wager-platform/internal/wager-service/producer"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/repo"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New("wager-service", cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writers (ciclo de vida da aposta)
	placedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
	defer placedWriter.Close()
	acceptedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerAccepted)
	defer acceptedWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()

	// deps
	repository := repo.NewPostgres(pg)
	mcli := matchup.New(cfg.MatchupURL)  // matchup-service
	lcli := ledger.New(cfg.LedgerURL)    // ledger-service
	publ := kpub.NewKafkaPublisher(placedWriter, acceptedWriter)

	// Liquidação manual via API: mesmo motor do worker, disparado por POST /v1/settlements
	engine := settlement.NewEngine(
		settlement.NewPostgresStore(pg),
		settlement.NewLedgerClient(cfg.LedgerURL),
		settlement.NewKafkaPublisher(settledWriter),
		log,
	)

	// HTTP público
	api := whttp.NewServer(log, repository, mcli, lcli, publ, engine)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("wager-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
