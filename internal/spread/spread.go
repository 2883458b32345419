package spread

// Projection é o resultado do modelo de spread para um confronto:
// soma das projeções dos titulares de cada lado e a diferença entre elas.
// Spread positivo ⇒ lado A favorito por essa quantidade de pontos.
type Projection struct {
	ProjectedA float64 `json:"projected_a"`
	ProjectedB float64 `json:"projected_b"`
	Spread     float64 `json:"spread"`
}

// Compute soma as projeções por jogador dos titulares de cada roster.
// Jogador sem projeção conta 0; a função nunca falha.
func Compute(startersA, startersB []string, points map[string]float64) Projection {
	p := Projection{
		ProjectedA: sumPoints(startersA, points),
		ProjectedB: sumPoints(startersB, points),
	}
	p.Spread = p.ProjectedA - p.ProjectedB
	return p
}

func sumPoints(starters []string, points map[string]float64) float64 {
	var total float64
	for _, id := range starters {
		total += points[id]
	}
	return total
}

// SideSpread aplica o spread bruto ao lado escolhido:
// o sinal do lado A é usado direto, o do lado B é invertido.
func SideSpread(spread float64, side string) float64 {
	if side == SideB {
		return -spread
	}
	return spread
}
