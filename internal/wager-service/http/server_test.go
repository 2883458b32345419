package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mdto "github.com/radieske/fantasy-wager-platform/internal/matchup-service/dto"
	"github.com/radieske/fantasy-wager-platform/internal/settlement"
	"github.com/radieske/fantasy-wager-platform/internal/spread"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/dto"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/ledger"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/repo"
	"github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

type fakeRepo struct {
	wagers map[string]*repo.Wager
	nextID int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{wagers: map[string]*repo.Wager{}} }

func (f *fakeRepo) CreateOffered(_ context.Context, w *repo.Wager) (string, error) {
	f.nextID++
	id := fmt.Sprintf("w-%d", f.nextID)
	cp := *w
	cp.ID = id
	cp.Status = repo.StatusOffered
	f.wagers[id] = &cp
	return id, nil
}

func (f *fakeRepo) DeleteOffered(_ context.Context, id string) error {
	w, ok := f.wagers[id]
	if !ok || w.Status != repo.StatusOffered {
		return repo.ErrNotOffered
	}
	delete(f.wagers, id)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*repo.Wager, error) {
	w, ok := f.wagers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeRepo) ListByLeague(_ context.Context, leagueID, status string) ([]repo.Wager, error) {
	var out []repo.Wager
	for _, w := range f.wagers {
		if w.LeagueID == leagueID && (status == "" || w.Status == status) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeRepo) Accept(_ context.Context, id, userID string) error {
	w, ok := f.wagers[id]
	if !ok {
		return repo.ErrNotFound
	}
	if w.CreatedBy == userID {
		return repo.ErrOwnWager
	}
	if w.Status != repo.StatusOffered {
		return repo.ErrNotOffered
	}
	w.Status = repo.StatusActive
	w.AcceptedBy = userID
	return nil
}

func (f *fakeRepo) MarketStats(_ context.Context, _ string, _, _ int) (int, int, error) {
	return 0, 0, nil
}

type fakeMatchups struct {
	spread mdto.MatchupSpread
}

func (f *fakeMatchups) Spread(_ context.Context, leagueID string, matchupIndex, week, season int) (*mdto.MatchupSpread, error) {
	s := f.spread
	s.MatchupIndex = matchupIndex
	s.Week = week
	s.Season = season
	return &s, nil
}

type ledgerCall struct {
	UserID string
	Amount int64
	TxType string
}

type fakeLedger struct {
	calls  []ledgerCall
	reject bool
}

func (f *fakeLedger) Adjust(_ context.Context, userID, _, _ string, amount int64, txType, _ string) (int64, error) {
	if f.reject && amount < 0 {
		return 0, ledger.ErrRejected
	}
	f.calls = append(f.calls, ledgerCall{UserID: userID, Amount: amount, TxType: txType})
	return 1000 + amount, nil
}

type fakePublisher struct {
	placed   []events.WagerPlaced
	accepted []events.WagerAccepted
}

func (f *fakePublisher) PublishWagerPlaced(_ context.Context, e events.WagerPlaced) error {
	f.placed = append(f.placed, e)
	return nil
}

func (f *fakePublisher) PublishWagerAccepted(_ context.Context, e events.WagerAccepted) error {
	f.accepted = append(f.accepted, e)
	return nil
}

type fakeSettler struct{ sum settlement.Summary }

func (f *fakeSettler) SettleWeek(_ context.Context, _ string, _, _ int, _ []events.GameResult) (settlement.Summary, error) {
	return f.sum, nil
}

type harness struct {
	srv    *Server
	repo   *fakeRepo
	ledger *fakeLedger
	publ   *fakePublisher
}

func newHarness() *harness {
	r := newFakeRepo()
	l := &fakeLedger{}
	p := &fakePublisher{}
	m := &fakeMatchups{spread: mdto.MatchupSpread{
		TeamA: "3", TeamB: "7",
		ProjectedA: 112.5, ProjectedB: 109.0, Spread: 3.5,
	}}
	return &harness{
		srv:    NewServer(zap.NewNop(), r, m, l, p, &fakeSettler{}),
		repo:   r,
		ledger: l,
		publ:   p,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	return rec
}

func createReq() dto.CreateWagerRequest {
	return dto.CreateWagerRequest{
		LeagueID:     "lg-1",
		UserID:       "alice",
		MatchupIndex: 0,
		Side:         spread.SideA,
		Week:         5,
		Season:       2025,
		TokenAmount:  10,
	}
}

func TestCreateWagerBuildsOfferAndDebitsStake(t *testing.T) {
	h := newHarness()

	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, repo.StatusOffered, got.Status)
	assert.Equal(t, "3 +3.5 vs 7", got.Type)
	assert.Equal(t, spread.SideA, got.Terms.Side)
	assert.InDelta(t, 3.5, got.Terms.OriginalSpread, 0.001)
	assert.InDelta(t, 2.0, got.Terms.PayoutRatio, 0.001)

	require.Len(t, h.ledger.calls, 1)
	assert.Equal(t, ledgerCall{UserID: "alice", Amount: -10, TxType: "bet_placed"}, h.ledger.calls[0])
	require.Len(t, h.publ.placed, 1)
	assert.Equal(t, got.ID, h.publ.placed[0].WagerID)
}

func TestCreateWagerSideBNegatesSpread(t *testing.T) {
	h := newHarness()
	req := createReq()
	req.Side = spread.SideB

	rec := h.do(t, http.MethodPost, "/v1/wagers", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "7 -3.5 vs 3", got.Type)
	assert.Equal(t, "7", got.Terms.TeamRosterID)
	assert.InDelta(t, -3.5, got.Terms.AdjustedSpread, 0.001)
}

// Débito recusado não pode deixar oferta órfã: sem entrada debitada não
// sobra linha offered listável ou aceitável.
func TestCreateWagerInsufficientBalanceLeavesNoOffer(t *testing.T) {
	h := newHarness()
	h.ledger.reject = true

	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, h.publ.placed)
	assert.Empty(t, h.ledger.calls)

	open, err := h.repo.ListByLeague(context.Background(), "lg-1", "")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCreateWagerRejectsBadPayload(t *testing.T) {
	h := newHarness()
	req := createReq()
	req.Side = "C"

	rec := h.do(t, http.MethodPost, "/v1/wagers", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptActivatesAndDebitsAcceptor(t *testing.T) {
	h := newHarness()
	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = h.do(t, http.MethodPost, "/v1/wagers/"+created.ID+"/accept", dto.AcceptWagerRequest{UserID: "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, repo.StatusActive, got.Status)
	assert.Equal(t, "bob", got.AcceptedBy)

	require.Len(t, h.ledger.calls, 2)
	assert.Equal(t, ledgerCall{UserID: "bob", Amount: -10, TxType: "bet_accepted"}, h.ledger.calls[1])
	require.Len(t, h.publ.accepted, 1)
}

func TestAcceptOwnWagerForbidden(t *testing.T) {
	h := newHarness()
	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	var created dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = h.do(t, http.MethodPost, "/v1/wagers/"+created.ID+"/accept", dto.AcceptWagerRequest{UserID: "alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	// só o débito de criação; nenhum débito do aceitante
	assert.Len(t, h.ledger.calls, 1)
}

func TestAcceptAlreadyActiveReversesDebit(t *testing.T) {
	h := newHarness()
	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	var created dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	require.Equal(t, http.StatusOK,
		h.do(t, http.MethodPost, "/v1/wagers/"+created.ID+"/accept", dto.AcceptWagerRequest{UserID: "bob"}).Code)

	rec = h.do(t, http.MethodPost, "/v1/wagers/"+created.ID+"/accept", dto.AcceptWagerRequest{UserID: "carol"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// débito de carol seguido do estorno
	require.Len(t, h.ledger.calls, 4)
	assert.Equal(t, ledgerCall{UserID: "carol", Amount: -10, TxType: "bet_accepted"}, h.ledger.calls[2])
	assert.Equal(t, ledgerCall{UserID: "carol", Amount: 10, TxType: "bet_accepted"}, h.ledger.calls[3])
}

func TestOppositeViewFlipsPositionAndPricesIt(t *testing.T) {
	h := newHarness()
	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	var created dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = h.do(t, http.MethodGet, "/v1/wagers/"+created.ID+"/opposite", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OppositeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "7 -3.5 vs 3", got.Position)
	assert.Equal(t, int64(20), got.Payout.RiskAmount)
	assert.Equal(t, int64(10), got.Payout.WinAmount)
	assert.Equal(t, int64(30), got.Payout.TotalPot)
}

func TestCounterCreatesOppositeOfferLinkedToOriginal(t *testing.T) {
	h := newHarness()
	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	var orig dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orig))

	rec = h.do(t, http.MethodPost, "/v1/wagers/"+orig.ID+"/counter",
		dto.CounterWagerRequest{UserID: "bob", TokenAmount: 15})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, spread.SideB, got.Terms.Side)
	assert.Equal(t, "7", got.Terms.TeamRosterID)
	assert.InDelta(t, -3.5, got.Terms.AdjustedSpread, 0.001)
	assert.True(t, got.Terms.IsCounterOffer)
	assert.Equal(t, orig.ID, got.Terms.OriginalBetID)
	assert.Equal(t, "alice", got.Terms.CounterTo)

	// a oferta original permanece aberta
	stored, err := h.repo.GetByID(context.Background(), orig.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusOffered, stored.Status)
}

func TestCounterOwnWagerForbidden(t *testing.T) {
	h := newHarness()
	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	var orig dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orig))

	rec = h.do(t, http.MethodPost, "/v1/wagers/"+orig.ID+"/counter",
		dto.CounterWagerRequest{UserID: "alice", TokenAmount: 15})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListWagersFiltersByStatus(t *testing.T) {
	h := newHarness()
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/v1/wagers", createReq()).Code)

	rec := h.do(t, http.MethodPost, "/v1/wagers", createReq())
	var second dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	require.Equal(t, http.StatusOK,
		h.do(t, http.MethodPost, "/v1/wagers/"+second.ID+"/accept", dto.AcceptWagerRequest{UserID: "bob"}).Code)

	rec = h.do(t, http.MethodGet, "/v1/wagers?leagueId=lg-1&status=offered", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var open []dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&open))
	require.Len(t, open, 1)
	assert.Equal(t, repo.StatusOffered, open[0].Status)
}
