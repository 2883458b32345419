package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/shared/config"
	"github.com/radieske/fantasy-wager-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New("api-gateway", cfg.Env)
	defer log.Sync()

	// targets: LEDGER_URL/MATCHUP_URL vêm resolvidos do config
	wagerURL := os.Getenv("WAGER_URL")
	if wagerURL == "" {
		wagerURL = "http://localhost:8083"
	}
	wager := rp(wagerURL)
	ledger := rp(cfg.LedgerURL)
	matchups := rp(cfg.MatchupURL)

	mux := http.NewServeMux()

	// wagers (ex.: /api/wagers/* -> wager-service)
	mux.Handle("/api/wagers/", http.StripPrefix("/api/wagers", wager))

	// ledger (ex.: /api/ledger/* -> ledger-service)
	mux.Handle("/api/ledger/", http.StripPrefix("/api/ledger", ledger))

	// matchups (ex.: /api/matchups/* -> matchup-service)
	mux.Handle("/api/matchups/", http.StripPrefix("/api/matchups", matchups))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
