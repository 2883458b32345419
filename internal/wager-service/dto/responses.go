package dto

import (
	"time"

	"github.com/radieske/fantasy-wager-platform/internal/spread"
)

type WagerResponse struct {
	ID          string       `json:"id"`
	LeagueID    string       `json:"league_id"`
	CreatedBy   string       `json:"created_by"`
	AcceptedBy  string       `json:"accepted_by,omitempty"`
	Type        string       `json:"type"`
	TokenAmount int64        `json:"token_amount"`
	Status      string       `json:"status"`
	Terms       spread.Terms `json:"terms"`
	Outcome     string       `json:"outcome,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	AcceptedAt  *time.Time   `json:"accepted_at,omitempty"`
	SettledAt   *time.Time   `json:"settled_at,omitempty"`
}

// OppositeResponse é a visão da parte aceitante: posição invertida e o que
// ela arrisca/ganha ao aceitar.
type OppositeResponse struct {
	WagerID  string        `json:"wager_id"`
	Position string        `json:"position"`
	Payout   spread.Payout `json:"payout"`
}

type SettleItemResult struct {
	BetID   string `json:"bet_id"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SettleResponse struct {
	SettledCount int                `json:"settled_count"`
	Results      []SettleItemResult `json:"results"`
}
