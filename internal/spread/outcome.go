package spread

import "math"

// Outcome é o resultado de uma aposta liquidada.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
	OutcomePush Outcome = "push"
)

// Settle aplica o spread ao placar do time da aposta e compara com o oponente.
// Empate exato após o ajuste é push; empatar na linha devolve as duas entradas.
func Settle(sp, teamScore, opponentScore float64) Outcome {
	adjusted := teamScore + sp
	switch {
	case adjusted > opponentScore:
		return OutcomeWon
	case adjusted < opponentScore:
		return OutcomeLost
	default:
		return OutcomePush
	}
}

// Payout é a visão da parte aceitante sobre uma oferta:
// o que ela arrisca, o que pode ganhar e o pote total.
// Aposta de odds fixas e simétrica: o que um lado pode ganhar, o outro arrisca.
type Payout struct {
	RiskAmount int64 `json:"risk_amount"`
	WinAmount  int64 `json:"win_amount"`
	TotalPot   int64 `json:"total_pot"`
}

// AcceptorPayout calcula a posição da parte aceitante para um valor de risco
// do criador e uma razão de pagamento (default 2.0).
func AcceptorPayout(tokenAmount int64, ratio float64) Payout {
	if ratio <= 0 {
		ratio = DefaultPayoutRatio
	}
	risk := int64(math.Round(float64(tokenAmount) * ratio))
	return Payout{
		RiskAmount: risk,
		WinAmount:  tokenAmount,
		TotalPot:   risk + tokenAmount,
	}
}

// WinnerPayout é o crédito do vencedor na liquidação:
// token_amount * payout_ratio, arredondado para inteiro de tokens.
func WinnerPayout(tokenAmount int64, ratio float64) int64 {
	if ratio <= 0 {
		ratio = DefaultPayoutRatio
	}
	return int64(math.Round(float64(tokenAmount) * ratio))
}
