package repo

import (
	"time"

	"github.com/radieske/fantasy-wager-platform/internal/spread"
)

// Estados do ciclo de vida de uma aposta. Transições: offered → active → settled.
const (
	StatusOffered = "offered"
	StatusActive  = "active"
	StatusSettled = "settled"
)

// Wager é o modelo persistido no Postgres.
// Type é o descritor exibível; Terms carrega os campos estruturados que a
// liquidação realmente usa.
type Wager struct {
	ID          string
	LeagueID    string
	CreatedBy   string
	AcceptedBy  string // vazio enquanto offered
	Type        string
	TokenAmount int64
	Status      string
	Terms       spread.Terms
	Outcome     string // won | lost | push, apenas quando settled
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	SettledAt   *time.Time
}
