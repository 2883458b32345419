package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/spread"
	"github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

// fakeStore guarda apostas e resultados em memória, com a mesma semântica de
// guarda da transição terminal que o Postgres aplica.
type fakeStore struct {
	wagers  map[string]*fakeWager
	results []events.GameResult
}

type fakeWager struct {
	ActiveWager
	status  string
	outcome spread.Outcome
}

func newFakeStore() *fakeStore {
	return &fakeStore{wagers: map[string]*fakeWager{}}
}

func (s *fakeStore) addActive(w ActiveWager) {
	s.wagers[w.ID] = &fakeWager{ActiveWager: w, status: "active"}
}

func (s *fakeStore) ListActive(_ context.Context, leagueID string, week, season int) ([]ActiveWager, error) {
	var out []ActiveWager
	for _, w := range s.wagers {
		if w.status == "active" && w.LeagueID == leagueID && w.Terms.Week == week && w.Terms.Season == season {
			out = append(out, w.ActiveWager)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkSettled(_ context.Context, wagerID string, outcome spread.Outcome) (bool, error) {
	w, ok := s.wagers[wagerID]
	if !ok || w.status != "active" {
		return false, nil
	}
	w.status = "settled"
	w.outcome = outcome
	return true, nil
}

func (s *fakeStore) Reopen(_ context.Context, wagerID string) error {
	w, ok := s.wagers[wagerID]
	if ok && w.status == "settled" {
		w.status = "active"
		w.outcome = ""
	}
	return nil
}

func (s *fakeStore) UpsertResult(_ context.Context, r events.GameResult) error {
	s.results = append(s.results, r)
	return nil
}

func (s *fakeStore) FinalResults(_ context.Context, _ string, _, _ int) ([]events.GameResult, error) {
	return s.results, nil
}

func (s *fakeStore) ActiveWeeks(_ context.Context) ([]WeekRef, error) {
	seen := map[WeekRef]bool{}
	var out []WeekRef
	for _, w := range s.wagers {
		if w.status != "active" {
			continue
		}
		ref := WeekRef{LeagueID: w.LeagueID, Week: w.Terms.Week, Season: w.Terms.Season}
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out, nil
}

type creditCall struct {
	UserID string
	BetID  string
	Amount int64
	Type   string
}

type fakeLedger struct {
	calls   []creditCall
	failFor map[string]error // por betID
	failNth int              // falha a enésima chamada (1-based); 0 desliga
	seen    int
}

func (l *fakeLedger) Credit(_ context.Context, userID, _, betID string, amount int64, txType, _ string) error {
	l.seen++
	if l.failNth != 0 && l.seen == l.failNth {
		return errors.New("ledger down")
	}
	if err := l.failFor[betID]; err != nil {
		return err
	}
	l.calls = append(l.calls, creditCall{UserID: userID, BetID: betID, Amount: amount, Type: txType})
	return nil
}

type fakePublisher struct{ events []events.WagerSettled }

func (p *fakePublisher) PublishWagerSettled(_ context.Context, e events.WagerSettled) error {
	p.events = append(p.events, e)
	return nil
}

func activeWager(id string, amount int64, ratio float64) ActiveWager {
	return ActiveWager{
		ID:          id,
		LeagueID:    "league1",
		CreatedBy:   "creator",
		AcceptedBy:  "acceptor",
		TokenAmount: amount,
		Terms: spread.Terms{
			Kind:             spread.KindSpread,
			Side:             spread.SideA,
			Week:             3,
			Season:           2025,
			TeamRosterID:     "12",
			OpponentRosterID: "7",
			AdjustedSpread:   3.5,
			PayoutRatio:      ratio,
		},
	}
}

func finalResult(home, away float64) events.GameResult {
	return events.GameResult{
		LeagueID:     "league1",
		Week:         3,
		Season:       2025,
		HomeRosterID: "12",
		AwayRosterID: "7",
		HomePoints:   home,
		AwayPoints:   away,
		Status:       "final",
	}
}

func newEngine(store *fakeStore, ledger *fakeLedger, publ *fakePublisher) *Engine {
	return NewEngine(store, ledger, publ, zap.NewNop())
}

// Cenário de referência: "12 +3.5 vs 7", 10 tokens, razão 2.0,
// placar 20 x 21 → 23.5 > 21 ⇒ criador vence e recebe 20 tokens.
func TestSettleWeekCreatorWins(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{}
	publ := &fakePublisher{}
	eng := newEngine(store, ledger, publ)

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(20, 21)})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.SettledCount)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, "won", sum.Results[0].Outcome)
	assert.Empty(t, sum.Results[0].Err)

	require.Len(t, ledger.calls, 1)
	assert.Equal(t, creditCall{UserID: "creator", BetID: "w1", Amount: 20, Type: "payout_won"}, ledger.calls[0])

	assert.Equal(t, "settled", store.wagers["w1"].status)
	assert.Equal(t, spread.OutcomeWon, store.wagers["w1"].outcome)

	require.Len(t, publ.events, 1)
	assert.Equal(t, "creator", publ.events[0].WinnerID)
	assert.Equal(t, int64(20), publ.events[0].Payout)
}

// Mesmo cenário com placar 16 x 21 → 19.5 < 21 ⇒ aceitante vence.
func TestSettleWeekAcceptorWins(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(16, 21)})
	require.NoError(t, err)

	assert.Equal(t, "lost", sum.Results[0].Outcome)
	require.Len(t, ledger.calls, 1)
	assert.Equal(t, "acceptor", ledger.calls[0].UserID)
	assert.Equal(t, int64(20), ledger.calls[0].Amount)
}

// Placar 17.5 x 21 → 21.0 == 21 ⇒ push: dois estornos de 10 tokens,
// exatamente dois registros, saldo líquido das partes inalterado.
func TestSettleWeekPushRefundsBoth(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(17.5, 21)})
	require.NoError(t, err)

	assert.Equal(t, "push", sum.Results[0].Outcome)
	require.Len(t, ledger.calls, 2)
	users := []string{ledger.calls[0].UserID, ledger.calls[1].UserID}
	assert.ElementsMatch(t, []string{"creator", "acceptor"}, users)
	for _, c := range ledger.calls {
		assert.Equal(t, int64(10), c.Amount)
	}
	assert.Equal(t, spread.OutcomePush, store.wagers["w1"].outcome)
}

// A razão de pagamento dos terms é a fonte da verdade do crédito do vencedor.
func TestSettleWeekHonorsPayoutRatio(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.5))
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	_, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(20, 21)})
	require.NoError(t, err)

	require.Len(t, ledger.calls, 1)
	assert.Equal(t, int64(25), ledger.calls[0].Amount)
}

// Idempotência: a segunda execução com os mesmos resultados não muda nada,
// porque só apostas status=active entram no lote.
func TestSettleWeekIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	results := []events.GameResult{finalResult(20, 21)}
	first, err := eng.SettleWeek(context.Background(), "league1", 3, 2025, results)
	require.NoError(t, err)
	require.Equal(t, 1, first.SettledCount)

	second, err := eng.SettleWeek(context.Background(), "league1", 3, 2025, results)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SettledCount)
	assert.Empty(t, second.Results)
	assert.Len(t, ledger.calls, 1) // nenhum crédito extra
}

// Terms malformados não são liquidados como push: a aposta segue ativa e o
// item sai marcado para revisão manual.
func TestSettleWeekUnresolvableTermsStayActive(t *testing.T) {
	store := newFakeStore()
	bad := activeWager("w1", 10, 2.0)
	bad.Terms.Side = "C"
	store.addActive(bad)
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(20, 21)})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.SettledCount)
	require.Len(t, sum.Results, 1)
	assert.Contains(t, sum.Results[0].Err, "unresolvable")
	assert.Equal(t, "active", store.wagers["w1"].status)
	assert.Empty(t, ledger.calls)
}

// Rosters sem resultado final também vão para revisão, não para push.
func TestSettleWeekNoMatchingResult(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	eng := newEngine(store, &fakeLedger{}, &fakePublisher{})

	other := finalResult(20, 21)
	other.HomeRosterID, other.AwayRosterID = "1", "2"

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{other})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.SettledCount)
	assert.Contains(t, sum.Results[0].Err, "no final result")
	assert.Equal(t, "active", store.wagers["w1"].status)
}

// O casamento de rosters funciona nas duas orientações home/away.
func TestSettleWeekMatchesEitherOrientation(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	flipped := events.GameResult{
		LeagueID: "league1", Week: 3, Season: 2025,
		HomeRosterID: "7", AwayRosterID: "12",
		HomePoints: 21, AwayPoints: 20,
		Status: "final",
	}
	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{flipped})
	require.NoError(t, err)

	// 20 + 3.5 > 21 ⇒ criador vence igual ao cenário não invertido
	assert.Equal(t, "won", sum.Results[0].Outcome)
	assert.Equal(t, "creator", ledger.calls[0].UserID)
}

// Falha de ledger em uma aposta não aborta as demais do lote.
func TestSettleWeekPartialFailureContinues(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	w2 := activeWager("w2", 5, 2.0)
	store.addActive(w2)
	ledger := &fakeLedger{failFor: map[string]error{"w1": errors.New("ledger down")}}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(20, 21)})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.SettledCount)
	require.Len(t, sum.Results, 2)

	byID := map[string]ItemResult{}
	for _, r := range sum.Results {
		byID[r.BetID] = r
	}
	assert.Contains(t, byID["w1"].Err, "payout failed")
	assert.Empty(t, byID["w2"].Err)
	require.Len(t, ledger.calls, 1)
	assert.Equal(t, "w2", ledger.calls[0].BetID)

	// a aposta que falhou volta para active; a liquidada segue settled
	assert.Equal(t, "active", store.wagers["w1"].status)
	assert.Equal(t, "settled", store.wagers["w2"].status)
}

// Crédito falhando depois da transição terminal não pode perder o pagamento:
// a aposta reabre e a próxima varredura paga o vencedor.
func TestFailedPayoutRecoveredBySweep(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{failFor: map[string]error{"w1": errors.New("ledger down")}}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(20, 21)})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.SettledCount)
	assert.Equal(t, "active", store.wagers["w1"].status)
	assert.Empty(t, ledger.calls)

	// ledger volta; a varredura encontra o resultado armazenado e paga
	delete(ledger.failFor, "w1")
	again, err := eng.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, again.SettledCount)
	assert.Equal(t, "settled", store.wagers["w1"].status)
	require.Len(t, ledger.calls, 1)
	assert.Equal(t, creditCall{UserID: "creator", BetID: "w1", Amount: 20, Type: "payout_won"}, ledger.calls[0])
}

// Push com o segundo estorno falhando: o primeiro crédito é revertido antes
// da reabertura, senão a retentativa pagaria a mesma parte duas vezes.
func TestPushPartialRefundReversedBeforeReopen(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	ledger := &fakeLedger{failNth: 2}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{finalResult(17.5, 21)})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.SettledCount)
	assert.Contains(t, sum.Results[0].Err, "refund failed")
	assert.Equal(t, "active", store.wagers["w1"].status)

	// crédito do criador seguido do estorno compensatório
	require.Len(t, ledger.calls, 2)
	assert.Equal(t, int64(10), ledger.calls[0].Amount)
	assert.Equal(t, creditCall{UserID: "creator", BetID: "w1", Amount: -10, Type: "payout_won"}, ledger.calls[1])

	// ledger restabelecido: a varredura estorna as duas partes uma vez só
	ledger.failNth = 0
	again, err := eng.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again.SettledCount)

	net := map[string]int64{}
	for _, c := range ledger.calls {
		net[c.UserID] += c.Amount
	}
	assert.Equal(t, int64(10), net["creator"])
	assert.Equal(t, int64(10), net["acceptor"])
}

// Resultados não finais são ignorados.
func TestSettleWeekIgnoresNonFinal(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	eng := newEngine(store, &fakeLedger{}, &fakePublisher{})

	inProgress := finalResult(20, 21)
	inProgress.Status = "in_progress"

	sum, err := eng.SettleWeek(context.Background(), "league1", 3, 2025,
		[]events.GameResult{inProgress})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.SettledCount)
	assert.Equal(t, "active", store.wagers["w1"].status)
}

// A varredura reprocessa semanas com resultado final armazenado e apostas
// ainda ativas; rodar de novo depois é no-op.
func TestSweepSettlesFromStoredResults(t *testing.T) {
	store := newFakeStore()
	store.addActive(activeWager("w1", 10, 2.0))
	store.results = []events.GameResult{finalResult(20, 21)}
	ledger := &fakeLedger{}
	eng := newEngine(store, ledger, &fakePublisher{})

	sum, err := eng.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SettledCount)
	assert.Equal(t, "settled", store.wagers["w1"].status)

	again, err := eng.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.SettledCount)
	assert.Len(t, ledger.calls, 1)
}
