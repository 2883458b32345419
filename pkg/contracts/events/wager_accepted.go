package events

import "time"

// Evento emitido quando a parte contrária aceita uma aposta ofertada.
type WagerAccepted struct {
	WagerID    string    `json:"wager_id"`
	LeagueID   string    `json:"league_id"`
	AcceptedBy string    `json:"accepted_by"`
	Ts         time.Time `json:"ts"`
}
