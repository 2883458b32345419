package events

import "time"

// Evento emitido pelo motor de liquidação após marcar uma aposta como settled.
type WagerSettled struct {
	WagerID  string    `json:"wager_id"`
	LeagueID string    `json:"league_id"`
	Outcome  string    `json:"outcome"` // "won" | "lost" | "push"
	WinnerID string    `json:"winner_id,omitempty"`
	Payout   int64     `json:"payout,omitempty"`
	Week     int       `json:"week"`
	Season   int       `json:"season"`
	Ts       time.Time `json:"ts"`
}
