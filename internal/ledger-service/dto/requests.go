package dto

type AdjustRequest struct {
	UserID      string `json:"userId"`
	LeagueID    string `json:"leagueId"`
	BetID       string `json:"betId,omitempty"`
	Amount      int64  `json:"amount"` // positivo credita, negativo debita
	Type        string `json:"type"`   // bet_placed | bet_accepted | payout_won | payout_lost
	Description string `json:"description,omitempty"`
}
