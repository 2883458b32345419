package events

// GameResult é o placar final de uma partida entre dois rosters da liga.
// Imutável depois de status = "final"; é o insumo da liquidação.
type GameResult struct {
	LeagueID     string  `json:"league_id"`
	Week         int     `json:"week"`
	Season       int     `json:"season"`
	HomeRosterID string  `json:"home_roster_id"`
	AwayRosterID string  `json:"away_roster_id"`
	HomePoints   float64 `json:"home_points"`
	AwayPoints   float64 `json:"away_points"`
	Status       string  `json:"status"` // "in_progress" | "final"
}

// Evento publicado no tópico "game_results_final" quando uma rodada fecha.
type GameResultsFinal struct {
	LeagueID string       `json:"league_id"`
	Week     int          `json:"week"`
	Season   int          `json:"season"`
	Results  []GameResult `json:"results"`
	TsUnixMs int64        `json:"ts_unix_ms"`
}
