package spread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
		want Position
	}{
		{"roster ids com spread positivo", "12 +3.5 vs 7", true, Position{"12", 3.5, "7"}},
		{"spread negativo inteiro", "7 -3 vs 12", true, Position{"7", -3, "12"}},
		{"nomes com espaço", "Time Alpha +10.5 vs Time Beta", true, Position{"Time Alpha", 10.5, "Time Beta"}},
		{"sem sinal no spread", "12 3.5 vs 7", false, Position{}},
		{"sem separador vs", "12 +3.5 x 7", false, Position{}},
		{"texto livre", "aposta qualquer", false, Position{}},
		{"vazio", "", false, Position{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDescriptor(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptorFormatsSign(t *testing.T) {
	assert.Equal(t, "12 +3.5 vs 7", Descriptor("12", 3.5, "7"))
	assert.Equal(t, "7 -3.5 vs 12", Descriptor("7", -3.5, "12"))
	assert.Equal(t, "12 +0 vs 7", Descriptor("12", 0, "7"))
}

// Lei de ida e volta: aplicar a visão oposta duas vezes devolve o descritor
// original (ordem dos times e sinal do spread restaurados).
func TestOppositePositionRoundTrip(t *testing.T) {
	descriptors := []string{
		"12 +3.5 vs 7",
		"7 -10 vs 3",
		"Time Alpha +0.5 vs Time Beta",
	}
	for _, d := range descriptors {
		t.Run(d, func(t *testing.T) {
			assert.Equal(t, d, OppositePosition(OppositePosition(d, nil), nil))
		})
	}
}

func TestOppositePositionSwapsAndNegates(t *testing.T) {
	assert.Equal(t, "7 -3.5 vs 12", OppositePosition("12 +3.5 vs 7", nil))
}

func TestOppositePositionFallbacks(t *testing.T) {
	terms := &Terms{
		Kind:             KindSpread,
		TeamRosterID:     "12",
		OpponentRosterID: "7",
		AdjustedSpread:   3.5,
	}

	// Descritor fora da gramática cai para os terms estruturados
	assert.Equal(t, "7 -3.5 vs 12", OppositePosition("descritor antigo", terms))

	// Sem terms, a string original volta inalterada
	assert.Equal(t, "descritor antigo", OppositePosition("descritor antigo", nil))
}
