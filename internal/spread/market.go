package spread

import "math"

// Conditions são as condições de mercado usadas para sugerir um spread "ótimo".
// Fórmula determinística de pontuação, sem qualquer modelo aprendido.
type Conditions struct {
	BetVolume      int     `json:"bet_volume"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	HoursUntilGame float64 `json:"hours_until_game"`
	TeamPopularity float64 `json:"team_popularity"`
}

// NeutralConditions é o default quando a liga não tem histórico:
// valores na faixa neutra, nenhum ajuste resultante.
func NeutralConditions() Conditions {
	return Conditions{
		BetVolume:      50,
		AcceptanceRate: 0.5,
		HoursUntilGame: 72,
		TeamPopularity: 0.5,
	}
}

// OptimalSpread ajusta o spread original pelas condições de mercado.
// Apenas sugestão: o usuário pode ignorar, e a liquidação nunca consulta isso.
// Ajustes aditivos; a proximidade do jogo (<24h) amortece o acumulado pela
// metade antes do termo de popularidade. Resultado com uma casa decimal.
func OptimalSpread(original float64, c Conditions) float64 {
	var adj float64

	if c.BetVolume > 100 {
		adj += 0.5
	} else if c.BetVolume < 20 {
		adj -= 0.5
	}

	if c.AcceptanceRate < 0.3 {
		adj -= 0.5
	} else if c.AcceptanceRate > 0.7 {
		adj += 0.5
	}

	if c.HoursUntilGame < 24 {
		adj /= 2
	}

	if c.TeamPopularity > 0.8 {
		adj += 0.3
	}

	return math.Round((original+adj)*10) / 10
}
