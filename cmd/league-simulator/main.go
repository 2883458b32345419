package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/shared/config"
	"github.com/radieske/fantasy-wager-platform/internal/shared/kafka"
	"github.com/radieske/fantasy-wager-platform/internal/shared/logger"
	ev "github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

const (
	poolSize    = 300 // jogadores no pool global, ids "100".."399"
	teamsPer    = 10  // rosters por liga
	startersPer = 9   // titulares por roster
	poolFirstID = 100
)

var (
	rostersServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_rosters_served_total",
		Help: "Respostas de rosters servidas",
	})
	projectionsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_projections_served_total",
		Help: "Respostas de projeções servidas",
	})
	weeksFinalized = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_weeks_finalized_total",
		Help: "Rodadas finalizadas e publicadas no Kafka",
	})
)

// seed determinístico: mesma entrada, mesmos rosters/projeções em qualquer réplica
func seedFor(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
	}
	return int64(h.Sum64())
}

type roster struct {
	RosterID string   `json:"roster_id"`
	Starters []string `json:"starters"`
}

type playerProjection struct {
	PlayerID         string  `json:"player_id"`
	ProjectionPoints float64 `json:"projection_points"`
}

// leagueRosters sorteia titulares do pool global com seed derivado da liga
func leagueRosters(leagueID string) []roster {
	rng := rand.New(rand.NewSource(seedFor("rosters", leagueID)))
	pool := rng.Perm(poolSize)

	out := make([]roster, 0, teamsPer)
	for t := 0; t < teamsPer; t++ {
		starters := make([]string, 0, startersPer)
		for s := 0; s < startersPer; s++ {
			starters = append(starters, fmt.Sprintf("%d", poolFirstID+pool[t*startersPer+s]))
		}
		out = append(out, roster{
			RosterID: fmt.Sprintf("%d", t+1),
			Starters: starters,
		})
	}
	return out
}

// weekProjections gera pontos projetados para o pool inteiro na semana
func weekProjections(season, week string) []playerProjection {
	rng := rand.New(rand.NewSource(seedFor("projections", season, week)))
	out := make([]playerProjection, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		pts := 2.0 + rng.Float64()*18.0 // 2.0–20.0 pontos
		out = append(out, playerProjection{
			PlayerID:         fmt.Sprintf("%d", poolFirstID+i),
			ProjectionPoints: float64(int(pts*10)) / 10,
		})
	}
	return out
}

type finalizeReq struct {
	Week   int `json:"week"`
	Season int `json:"season"`
}

func main() {
	cfg := config.Load()
	log, err := logger.New("league-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(rostersServed, projectionsServed, weeksFinalized)

	resultsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameResults)
	defer resultsWriter.Close()

	// ==== MUX PÚBLICO: API compatível com o upstream de rosters/projeções
	appMux := http.NewServeMux()

	appMux.HandleFunc("GET /v1/league/{leagueID}/rosters", func(w http.ResponseWriter, r *http.Request) {
		rostersServed.Inc()
		writeJSON(w, leagueRosters(r.PathValue("leagueID")))
	})

	appMux.HandleFunc("GET /v1/projections/{season}/{week}", func(w http.ResponseWriter, r *http.Request) {
		projectionsServed.Inc()
		writeJSON(w, weekProjections(r.PathValue("season"), r.PathValue("week")))
	})

	// Fecha a rodada: placares finais = projeção do time + ruído de jogo,
	// publicados como game_results_final para o worker de liquidação
	appMux.HandleFunc("POST /v1/leagues/{leagueID}/finalize", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		leagueID := r.PathValue("leagueID")

		var req finalizeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Week < 1 || req.Season < 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		proj := weekProjections(fmt.Sprintf("%d", req.Season), fmt.Sprintf("%d", req.Week))
		points := make(map[string]float64, len(proj))
		for _, p := range proj {
			points[p.PlayerID] = p.ProjectionPoints
		}

		noise := rand.New(rand.NewSource(seedFor("final", leagueID, fmt.Sprintf("%d-%d", req.Season, req.Week))))
		rosters := leagueRosters(leagueID)

		batch := ev.GameResultsFinal{
			LeagueID: leagueID,
			Week:     req.Week,
			Season:   req.Season,
			TsUnixMs: time.Now().UnixMilli(),
		}
		for i := 0; i+1 < len(rosters); i += 2 {
			home, away := rosters[i], rosters[i+1]
			batch.Results = append(batch.Results, ev.GameResult{
				LeagueID:     leagueID,
				Week:         req.Week,
				Season:       req.Season,
				HomeRosterID: home.RosterID,
				AwayRosterID: away.RosterID,
				HomePoints:   actualScore(home, points, noise),
				AwayPoints:   actualScore(away, points, noise),
				Status:       "final",
			})
		}

		b, _ := json.Marshal(batch)
		if err := kafka.WriteJSON(r.Context(), resultsWriter, leagueID, b); err != nil {
			log.Error("publish game_results_final", zap.String("leagueId", leagueID), zap.Error(err))
			http.Error(w, "kafka publish failed", http.StatusBadGateway)
			return
		}
		weeksFinalized.Inc()
		log.Info("week finalized",
			zap.String("leagueId", leagueID),
			zap.Int("week", req.Week),
			zap.Int("games", len(batch.Results)),
		)
		writeJSON(w, batch)
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("league simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("league simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/v1/league/{id}/rosters,/v1/projections/{season}/{week},/v1/leagues/{id}/finalize"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}

// actualScore soma a projeção dos titulares e aplica ±15% de variação de jogo
func actualScore(r roster, points map[string]float64, rng *rand.Rand) float64 {
	var sum float64
	for _, id := range r.Starters {
		sum += points[id]
	}
	factor := 0.85 + rng.Float64()*0.30
	return float64(int(sum*factor*100)) / 100
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
