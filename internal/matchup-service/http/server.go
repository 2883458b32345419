package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/matchup-service/dto"
	"github.com/radieske/fantasy-wager-platform/internal/matchup-service/sleeper"
	"github.com/radieske/fantasy-wager-platform/internal/spread"
)

// Upstream fornece rosters e projeções da liga
type Upstream interface {
	Rosters(ctx context.Context, leagueID string) ([]sleeper.Roster, error)
	Projections(ctx context.Context, season, week int) ([]sleeper.PlayerProjection, error)
}

type API struct {
	Upstream Upstream
	Log      *zap.Logger
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/leagues/{leagueID}/matchups", a.listMatchups)
	r.Get("/v1/leagues/{leagueID}/matchups/{index}/spread", a.getSpread)
	return r
}

// listMatchups calcula os spreads projetados de todos os confrontos da semana,
// pareando os rosters da liga na ordem do upstream
func (a *API) listMatchups(w http.ResponseWriter, r *http.Request) {
	matchups, ok := a.buildMatchups(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, matchups)
}

// getSpread retorna o spread de um confronto específico pelo índice
func (a *API) getSpread(w http.ResponseWriter, r *http.Request) {
	matchups, ok := a.buildMatchups(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(matchups) {
		http.Error(w, "matchup not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, matchups[index])
}

func (a *API) buildMatchups(w http.ResponseWriter, r *http.Request) ([]dto.MatchupSpread, bool) {
	leagueID := chi.URLParam(r, "leagueID")
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil || week < 1 {
		http.Error(w, "week required", http.StatusBadRequest)
		return nil, false
	}
	season, err := strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil || season < 1 {
		http.Error(w, "season required", http.StatusBadRequest)
		return nil, false
	}

	rosters, err := a.Upstream.Rosters(r.Context(), leagueID)
	if err != nil {
		a.Log.Warn("rosters fetch", zap.String("leagueId", leagueID), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return nil, false
	}
	projections, err := a.Upstream.Projections(r.Context(), season, week)
	if err != nil {
		a.Log.Warn("projections fetch", zap.Int("week", week), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return nil, false
	}

	points := make(map[string]float64, len(projections))
	for _, p := range projections {
		points[p.PlayerID] = p.ProjectionPoints
	}

	// Confrontos da semana: rosters pareados dois a dois na ordem da liga
	out := make([]dto.MatchupSpread, 0, len(rosters)/2)
	for i := 0; i+1 < len(rosters); i += 2 {
		a1, b := rosters[i], rosters[i+1]
		p := spread.Compute(a1.Starters, b.Starters, points)
		out = append(out, dto.MatchupSpread{
			MatchupIndex: i / 2,
			Week:         week,
			Season:       season,
			TeamA:        a1.RosterID,
			TeamB:        b.RosterID,
			ProjectedA:   p.ProjectedA,
			ProjectedB:   p.ProjectedB,
			Spread:       p.Spread,
		})
	}
	return out, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
