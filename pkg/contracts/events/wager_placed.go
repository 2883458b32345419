package events

type WagerPlaced struct {
	WagerID     string  `json:"wager_id"`
	LeagueID    string  `json:"league_id"`
	CreatedBy   string  `json:"created_by"`
	Descriptor  string  `json:"descriptor"`
	TokenAmount int64   `json:"token_amount"`
	PayoutRatio float64 `json:"payout_ratio"`
	Week        int     `json:"week"`
	Season      int     `json:"season"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}
