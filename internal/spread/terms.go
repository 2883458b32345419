package spread

import (
	"errors"
	"fmt"
)

const (
	KindSpread = "spread"

	SideA = "A"
	SideB = "B"

	// Razão de pagamento padrão quando a oferta não define uma.
	DefaultPayoutRatio = 2.0

	MinPayoutRatio = 1.0
	MaxPayoutRatio = 5.0
)

var ErrInvalidTerms = errors.New("invalid wager terms")

// Terms é o payload estruturado de uma aposta de spread.
// Substitui o blob JSON aberto: o tipo é validado na construção,
// e a liquidação lê os campos estruturados em vez de re-parsear o descritor.
type Terms struct {
	Kind             string     `json:"kind"`
	MatchupIndex     int        `json:"matchup_index"`
	Side             string     `json:"side"` // "A" | "B"
	Week             int        `json:"week"`
	Season           int        `json:"season"`
	TeamRosterID     string     `json:"team_roster_id"`
	OpponentRosterID string     `json:"opponent_roster_id"`
	OriginalSpread   float64    `json:"original_spread"`
	AdjustedSpread   float64    `json:"adjusted_spread"`
	OptimalSpread    float64    `json:"optimal_spread"`
	PayoutRatio      float64    `json:"payout_ratio"`
	Market           Conditions `json:"market_conditions"`

	// Vínculo de contraproposta: nova aposta do lado oposto referenciando a original.
	IsCounterOffer bool   `json:"is_counter_offer,omitempty"`
	OriginalBetID  string `json:"original_bet_id,omitempty"`
	CounterTo      string `json:"counter_to,omitempty"`
}

// Validate rejeita terms malformados na construção, não na liquidação.
func (t Terms) Validate() error {
	if t.Kind != KindSpread {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTerms, t.Kind)
	}
	if t.Side != SideA && t.Side != SideB {
		return fmt.Errorf("%w: side must be A or B", ErrInvalidTerms)
	}
	if t.Week < 1 {
		return fmt.Errorf("%w: week must be >= 1", ErrInvalidTerms)
	}
	if t.Season < 1 {
		return fmt.Errorf("%w: season must be >= 1", ErrInvalidTerms)
	}
	if t.TeamRosterID == "" || t.OpponentRosterID == "" {
		return fmt.Errorf("%w: roster ids required", ErrInvalidTerms)
	}
	if t.TeamRosterID == t.OpponentRosterID {
		return fmt.Errorf("%w: team and opponent must differ", ErrInvalidTerms)
	}
	if t.PayoutRatio < MinPayoutRatio || t.PayoutRatio > MaxPayoutRatio {
		return fmt.Errorf("%w: payout ratio must be in [%.1f, %.1f]", ErrInvalidTerms, MinPayoutRatio, MaxPayoutRatio)
	}
	return nil
}

// Ratio retorna a razão de pagamento efetiva, com default 2.0.
func (t Terms) Ratio() float64 {
	if t.PayoutRatio <= 0 {
		return DefaultPayoutRatio
	}
	return t.PayoutRatio
}
