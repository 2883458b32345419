package dto

import "time"

type BalanceResponse struct {
	UserID       string `json:"userId"`
	LeagueID     string `json:"leagueId"`
	ProfileID    string `json:"profileId"`
	TokenBalance int64  `json:"token_balance"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	LeagueID    string    `json:"leagueId"`
	BetID       string    `json:"betId,omitempty"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
