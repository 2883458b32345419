package dto

// MatchupSpread é o spread projetado de um confronto da semana.
// TeamA/TeamB são roster ids da liga; spread positivo ⇒ A favorito.
type MatchupSpread struct {
	MatchupIndex int     `json:"matchup_index"`
	Week         int     `json:"week"`
	Season       int     `json:"season"`
	TeamA        string  `json:"team_a"`
	TeamB        string  `json:"team_b"`
	ProjectedA   float64 `json:"projected_a"`
	ProjectedB   float64 `json:"projected_b"`
	Spread       float64 `json:"spread"`
}
