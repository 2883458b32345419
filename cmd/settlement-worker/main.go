package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/settlement"
	"github.com/radieske/fantasy-wager-platform/internal/shared/config"
	"github.com/radieske/fantasy-wager-platform/internal/shared/db"
	"github.com/radieske/fantasy-wager-platform/internal/shared/kafka"
	"github.com/radieske/fantasy-wager-platform/internal/shared/logger"
	"github.com/radieske/fantasy-wager-platform/internal/shared/metrics"
	ev "github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: apostas ativas + resultados finais persistidos
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: rodadas fechadas (game_results_final)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameResults, "settlement")
	defer reader.Close()

	// Producers: liquidações publicadas + DLQ para mensagens indecifráveis
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameResultsDLQ)
	defer dlqWriter.Close()

	// Métricas Prometheus do pipeline de liquidação
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_batches_consumed_total", Help: "rodadas consumidas do kafka"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_settled_total", Help: "apostas liquidadas"})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_unresolved_total", Help: "apostas deixadas ativas para revisão manual"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, unresolved, errorsBy)

	engine := settlement.NewEngine(
		settlement.NewPostgresStore(pg),
		settlement.NewLedgerClient(cfg.LedgerURL),
		settlement.NewKafkaPublisher(settledWriter),
		log,
	)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Varredura periódica: re-tenta apostas ativas cujos resultados já estão no banco
	// (cobre mensagens perdidas e apostas que falharam numa rodada anterior)
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.SettleSweepSpec, func() {
		sum, err := engine.Sweep(ctx)
		if err != nil {
			log.Warn("sweep", zap.Error(err))
			errorsBy.WithLabelValues("sweep").Inc()
			return
		}
		settled.Add(float64(sum.SettledCount))
		if sum.SettledCount > 0 {
			log.Info("sweep settled", zap.Int("count", sum.SettledCount))
		}
	}); err != nil {
		log.Fatal("cron spec", zap.String("spec", cfg.SettleSweepSpec), zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicGameResults),
		zap.String("publish", cfg.TopicWagerSettled),
		zap.String("sweep", cfg.SettleSweepSpec),
	)

	// Loop principal: consome rodadas fechadas e liquida as apostas da semana
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("settlement-worker stopped")
				return
			}
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var batch ev.GameResultsFinal
		if jerr := json.Unmarshal(value, &batch); jerr != nil {
			log.Error("unmarshal game_results_final", zap.Error(jerr))
			errorsBy.WithLabelValues("decode").Inc()
			if werr := kafka.WriteJSON(ctx, dlqWriter, string(key), value); werr != nil {
				log.Error("dlq write", zap.Error(werr))
			}
			continue
		}

		sum, err := engine.SettleWeek(ctx, batch.LeagueID, batch.Week, batch.Season, batch.Results)
		if err != nil {
			log.Error("settle week", zap.String("leagueId", batch.LeagueID), zap.Int("week", batch.Week), zap.Error(err))
			errorsBy.WithLabelValues("settle").Inc()
			time.Sleep(500 * time.Millisecond)
			continue
		}
		settled.Add(float64(sum.SettledCount))
		unresolved.Add(float64(len(sum.Results) - sum.SettledCount))
		log.Info("week settled",
			zap.String("leagueId", batch.LeagueID),
			zap.Int("week", batch.Week),
			zap.Int("settled", sum.SettledCount),
			zap.Int("items", len(sum.Results)),
		)
	}
}
