package dto

import "github.com/radieske/fantasy-wager-platform/pkg/contracts/events"

type CreateWagerRequest struct {
	LeagueID     string   `json:"leagueId"`
	UserID       string   `json:"userId"`
	MatchupIndex int      `json:"matchupIndex"`
	Side         string   `json:"side"` // "A" | "B"
	Week         int      `json:"week"`
	Season       int      `json:"season"`
	TokenAmount  int64    `json:"token_amount"`
	PayoutRatio  float64  `json:"payout_ratio,omitempty"` // default 2.0
	Spread       *float64 `json:"spread,omitempty"`       // override opcional do spread sugerido
	KickoffAt    string   `json:"kickoff_at,omitempty"`   // RFC3339, alimenta a heurística de mercado
}

type AcceptWagerRequest struct {
	UserID string `json:"userId"`
}

type CounterWagerRequest struct {
	UserID      string   `json:"userId"`
	TokenAmount int64    `json:"token_amount"`
	PayoutRatio float64  `json:"payout_ratio,omitempty"`
	Spread      *float64 `json:"spread,omitempty"` // default: spread original negado
}

type SettleRequest struct {
	LeagueID    string              `json:"league_id"`
	Week        int                 `json:"week"`
	Season      int                 `json:"season"`
	GameResults []events.GameResult `json:"game_results"`
}
