package spread

import (
	"fmt"
	"regexp"
	"strconv"
)

// Gramática fixa do descritor exibido: "<Team1> <±Spread> vs <Team2>".
// Team1/Team2 são roster ids da liga, como strings.
var descriptorRe = regexp.MustCompile(`^(.+?) ([+-]\d+(?:\.\d+)?) vs (.+)$`)

// Position é a leitura estruturada de um descritor.
type Position struct {
	Team     string
	Spread   float64
	Opponent string
}

// Descriptor monta o descritor exibível de uma posição.
func Descriptor(team string, spread float64, opponent string) string {
	return fmt.Sprintf("%s %+g vs %s", team, spread, opponent)
}

// ParseDescriptor interpreta o descritor na gramática fixa.
// Retorna false quando a string não casa.
func ParseDescriptor(s string) (Position, bool) {
	m := descriptorRe.FindStringSubmatch(s)
	if m == nil {
		return Position{}, false
	}
	sp, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Position{}, false
	}
	return Position{Team: m[1], Spread: sp, Opponent: m[3]}, true
}

// OppositePosition deriva a posição que a parte aceitante assume:
// inverte a ordem dos times e o sinal do spread, sem mutar o registro original.
// Quando o descritor não casa com a gramática, cai para o spread dos terms;
// sem terms, devolve a string original inalterada.
func OppositePosition(descriptor string, terms *Terms) string {
	if p, ok := ParseDescriptor(descriptor); ok {
		return Descriptor(p.Opponent, -p.Spread, p.Team)
	}
	if terms != nil {
		return Descriptor(terms.OpponentRosterID, -terms.AdjustedSpread, terms.TeamRosterID)
	}
	return descriptor
}
