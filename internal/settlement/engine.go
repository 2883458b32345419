package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/spread"
	"github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

// Store é a visão do motor sobre a tabela de apostas e os resultados de jogo.
type Store interface {
	// ListActive retorna apenas apostas status=active da semana: é esse filtro
	// que torna a liquidação idempotente sob reexecução.
	ListActive(ctx context.Context, leagueID string, week, season int) ([]ActiveWager, error)
	// MarkSettled faz a transição terminal active→settled; retorna false quando
	// outra execução já liquidou a aposta.
	MarkSettled(ctx context.Context, wagerID string, outcome spread.Outcome) (bool, error)
	// Reopen desfaz a transição quando o crédito falhou depois dela: a aposta
	// volta a active e a varredura a reprocessa.
	Reopen(ctx context.Context, wagerID string) error
	UpsertResult(ctx context.Context, r events.GameResult) error
	FinalResults(ctx context.Context, leagueID string, week, season int) ([]events.GameResult, error)
	// ActiveWeeks lista semanas com apostas ativas e resultado final armazenado,
	// insumo da varredura de retentativa.
	ActiveWeeks(ctx context.Context) ([]WeekRef, error)
}

// Ledger aplica créditos de liquidação no saldo, de forma atômica no banco.
type Ledger interface {
	Credit(ctx context.Context, userID, leagueID, betID string, amount int64, txType, description string) error
}

// Publisher emite o evento de aposta liquidada.
type Publisher interface {
	PublishWagerSettled(ctx context.Context, e events.WagerSettled) error
}

// ActiveWager é o recorte de uma aposta ativa que o motor precisa.
type ActiveWager struct {
	ID          string
	LeagueID    string
	CreatedBy   string
	AcceptedBy  string
	TokenAmount int64
	Terms       spread.Terms
}

type WeekRef struct {
	LeagueID string
	Week     int
	Season   int
}

// ItemResult é o resultado por aposta de um lote de liquidação.
type ItemResult struct {
	BetID   string
	Outcome string
	Err     string
}

type Summary struct {
	SettledCount int
	Results      []ItemResult
}

// Engine liquida apostas ativas contra resultados finais de jogo.
type Engine struct {
	store  Store
	ledger Ledger
	publ   Publisher
	log    *zap.Logger
}

func NewEngine(store Store, ledger Ledger, publ Publisher, log *zap.Logger) *Engine {
	return &Engine{store: store, ledger: ledger, publ: publ, log: log}
}

// SettleWeek persiste os resultados finais recebidos e liquida as apostas
// ativas da semana. Falha em uma aposta não aborta as demais: cada item é
// registrado no sumário e o chamador decide retentar.
func (e *Engine) SettleWeek(ctx context.Context, leagueID string, week, season int, results []events.GameResult) (Summary, error) {
	var finals []events.GameResult
	for _, r := range results {
		if r.Status != "final" {
			continue
		}
		if err := e.store.UpsertResult(ctx, r); err != nil {
			return Summary{}, fmt.Errorf("persist result: %w", err)
		}
		finals = append(finals, r)
	}
	return e.settleBatch(ctx, leagueID, week, season, finals)
}

// Sweep reprocessa semanas com apostas ainda ativas e resultados finais já
// armazenados. É o caminho de retentativa at-least-once para falhas parciais;
// o filtro status=active garante que nada é liquidado duas vezes.
func (e *Engine) Sweep(ctx context.Context) (Summary, error) {
	weeks, err := e.store.ActiveWeeks(ctx)
	if err != nil {
		return Summary{}, err
	}
	var total Summary
	for _, wk := range weeks {
		finals, err := e.store.FinalResults(ctx, wk.LeagueID, wk.Week, wk.Season)
		if err != nil {
			e.log.Warn("sweep load results", zap.String("leagueId", wk.LeagueID), zap.Error(err))
			continue
		}
		s, err := e.settleBatch(ctx, wk.LeagueID, wk.Week, wk.Season, finals)
		if err != nil {
			e.log.Warn("sweep settle", zap.String("leagueId", wk.LeagueID), zap.Error(err))
			continue
		}
		total.SettledCount += s.SettledCount
		total.Results = append(total.Results, s.Results...)
	}
	return total, nil
}

func (e *Engine) settleBatch(ctx context.Context, leagueID string, week, season int, finals []events.GameResult) (Summary, error) {
	active, err := e.store.ListActive(ctx, leagueID, week, season)
	if err != nil {
		return Summary{}, fmt.Errorf("list active wagers: %w", err)
	}

	sum := Summary{Results: make([]ItemResult, 0, len(active))}
	for _, w := range active {
		item := e.settleOne(ctx, w, finals)
		if item.Err == "" {
			sum.SettledCount++
		}
		sum.Results = append(sum.Results, item)
	}
	return sum, nil
}

// settleOne decide e aplica o desfecho de uma aposta.
// Terms inválidos ou rosters sem resultado final NÃO viram push: a aposta
// permanece ativa e o item sai marcado para revisão manual.
func (e *Engine) settleOne(ctx context.Context, w ActiveWager, finals []events.GameResult) ItemResult {
	if err := w.Terms.Validate(); err != nil {
		return ItemResult{BetID: w.ID, Err: fmt.Sprintf("unresolvable terms: %v", err)}
	}

	teamScore, oppScore, ok := matchScores(w.Terms, finals)
	if !ok {
		return ItemResult{BetID: w.ID, Err: "no final result for wager rosters"}
	}

	outcome := spread.Settle(w.Terms.AdjustedSpread, teamScore, oppScore)

	// Transição terminal primeiro: se outra execução chegou antes, nada a fazer.
	settled, err := e.store.MarkSettled(ctx, w.ID, outcome)
	if err != nil {
		return ItemResult{BetID: w.ID, Err: fmt.Sprintf("mark settled: %v", err)}
	}
	if !settled {
		return ItemResult{BetID: w.ID, Err: "already settled"}
	}

	ev := events.WagerSettled{
		WagerID:  w.ID,
		LeagueID: w.LeagueID,
		Outcome:  string(outcome),
		Week:     w.Terms.Week,
		Season:   w.Terms.Season,
		Ts:       time.Now(),
	}

	// Crédito falhando depois da transição terminal não pode abandonar a
	// aposta em settled sem pagamento: créditos já feitos são estornados e a
	// aposta reabre para a varredura retentar.
	switch outcome {
	case spread.OutcomePush:
		// Empate na linha: as duas entradas voltam, dois registros de auditoria.
		var credited []string
		for _, userID := range []string{w.CreatedBy, w.AcceptedBy} {
			if err := e.ledger.Credit(ctx, userID, w.LeagueID, w.ID, w.TokenAmount,
				"payout_won", "push refund"); err != nil {
				e.log.Error("push refund", zap.String("wagerId", w.ID),
					zap.String("userId", userID), zap.Error(err))
				e.revert(ctx, w, credited)
				return ItemResult{BetID: w.ID, Outcome: string(outcome),
					Err: fmt.Sprintf("refund failed for %s: %v", userID, err)}
			}
			credited = append(credited, userID)
		}
	default:
		winner := w.CreatedBy
		if outcome == spread.OutcomeLost {
			winner = w.AcceptedBy
		}
		payout := spread.WinnerPayout(w.TokenAmount, w.Terms.Ratio())
		if err := e.ledger.Credit(ctx, winner, w.LeagueID, w.ID, payout,
			"payout_won", "wager payout"); err != nil {
			e.log.Error("winner payout", zap.String("wagerId", w.ID),
				zap.String("winner", winner), zap.Error(err))
			e.revert(ctx, w, nil)
			return ItemResult{BetID: w.ID, Outcome: string(outcome),
				Err: fmt.Sprintf("payout failed: %v", err)}
		}
		ev.WinnerID = winner
		ev.Payout = payout
	}

	if err := e.publ.PublishWagerSettled(ctx, ev); err != nil {
		e.log.Warn("publish wager_settled", zap.String("wagerId", w.ID), zap.Error(err))
	}

	return ItemResult{BetID: w.ID, Outcome: string(outcome)}
}

// revert estorna créditos parciais e reabre a aposta para retentativa.
// Se um estorno falha, a aposta fica settled e a pendência vai para o log:
// reabrir com crédito vivo pagaria em dobro na próxima varredura.
func (e *Engine) revert(ctx context.Context, w ActiveWager, credited []string) {
	for _, userID := range credited {
		if err := e.ledger.Credit(ctx, userID, w.LeagueID, w.ID, -w.TokenAmount,
			"payout_won", "push refund reversal"); err != nil {
			e.log.Error("refund reversal", zap.String("wagerId", w.ID),
				zap.String("userId", userID), zap.Error(err))
			return
		}
	}
	if err := e.store.Reopen(ctx, w.ID); err != nil {
		e.log.Error("reopen wager", zap.String("wagerId", w.ID), zap.Error(err))
	}
}

// matchScores resolve qual placar pertence ao time da aposta, casando os
// roster ids estruturados contra o resultado em qualquer orientação.
func matchScores(t spread.Terms, finals []events.GameResult) (teamScore, oppScore float64, ok bool) {
	for _, r := range finals {
		switch {
		case r.HomeRosterID == t.TeamRosterID && r.AwayRosterID == t.OpponentRosterID:
			return r.HomePoints, r.AwayPoints, true
		case r.AwayRosterID == t.TeamRosterID && r.HomeRosterID == t.OpponentRosterID:
			return r.AwayPoints, r.HomePoints, true
		}
	}
	return 0, 0, false
}
