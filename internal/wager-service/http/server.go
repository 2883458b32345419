package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mdto "github.com/radieske/fantasy-wager-platform/internal/matchup-service/dto"
	"github.com/radieske/fantasy-wager-platform/internal/settlement"
	"github.com/radieske/fantasy-wager-platform/internal/spread"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/dto"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/ledger"
	"github.com/radieske/fantasy-wager-platform/internal/wager-service/repo"
	"github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pelos handlers
type Repo interface {
	CreateOffered(ctx context.Context, w *repo.Wager) (string, error)
	DeleteOffered(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*repo.Wager, error)
	ListByLeague(ctx context.Context, leagueID, status string) ([]repo.Wager, error)
	Accept(ctx context.Context, id, userID string) error
	MarketStats(ctx context.Context, leagueID string, week, season int) (total, accepted int, err error)
}

// Matchups fornece o spread projetado de um confronto
type Matchups interface {
	Spread(ctx context.Context, leagueID string, matchupIndex, week, season int) (*mdto.MatchupSpread, error)
}

// Ledger aplica os débitos de entrada no saldo de tokens
type Ledger interface {
	Adjust(ctx context.Context, userID, leagueID, betID string, amount int64, txType, description string) (int64, error)
}

// Publisher emite os eventos do ciclo de vida da aposta
type Publisher interface {
	PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error
	PublishWagerAccepted(ctx context.Context, e events.WagerAccepted) error
}

// Settler é o gatilho manual de liquidação exposto pela API
type Settler interface {
	SettleWeek(ctx context.Context, leagueID string, week, season int, results []events.GameResult) (settlement.Summary, error)
}

type Server struct {
	log      *zap.Logger
	repo     Repo
	matchups Matchups
	ledger   Ledger
	publ     Publisher
	settler  Settler
}

func NewServer(log *zap.Logger, r Repo, m Matchups, l Ledger, p Publisher, s Settler) *Server {
	return &Server{log: log, repo: r, matchups: m, ledger: l, publ: p, settler: s}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/wagers", s.createWager)
	r.Get("/v1/wagers", s.listWagers)
	r.Get("/v1/wagers/{id}", s.getWager)
	r.Get("/v1/wagers/{id}/opposite", s.getOpposite)
	r.Post("/v1/wagers/{id}/accept", s.acceptWager)
	r.Post("/v1/wagers/{id}/counter", s.counterWager)
	r.Post("/v1/settlements", s.settle)
	return r
}

// createWager monta a oferta: spread do confronto, heurística de mercado,
// descritor e terms estruturados; debita a entrada do criador no ledger.
func (s *Server) createWager(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.LeagueID == "" || req.UserID == "" || req.Week < 1 || req.Season < 1 || req.TokenAmount < 1 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Side != spread.SideA && req.Side != spread.SideB {
		http.Error(w, "side must be A or B", http.StatusBadRequest)
		return
	}
	if req.PayoutRatio == 0 {
		req.PayoutRatio = spread.DefaultPayoutRatio
	}

	info, err := s.matchups.Spread(r.Context(), req.LeagueID, req.MatchupIndex, req.Week, req.Season)
	if err != nil {
		s.log.Warn("matchup spread", zap.Error(err))
		http.Error(w, "matchup unavailable", http.StatusBadGateway)
		return
	}

	cond := s.marketConditions(r.Context(), req.LeagueID, req.Week, req.Season, req.KickoffAt)

	sideSpread := spread.SideSpread(info.Spread, req.Side)
	adjusted := sideSpread
	if req.Spread != nil {
		adjusted = *req.Spread
	}

	team, opponent := info.TeamA, info.TeamB
	if req.Side == spread.SideB {
		team, opponent = info.TeamB, info.TeamA
	}

	terms := spread.Terms{
		Kind:             spread.KindSpread,
		MatchupIndex:     req.MatchupIndex,
		Side:             req.Side,
		Week:             req.Week,
		Season:           req.Season,
		TeamRosterID:     team,
		OpponentRosterID: opponent,
		OriginalSpread:   sideSpread,
		AdjustedSpread:   adjusted,
		OptimalSpread:    spread.OptimalSpread(sideSpread, cond),
		PayoutRatio:      req.PayoutRatio,
		Market:           cond,
	}
	if err := terms.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	descriptor := spread.Descriptor(team, adjusted, opponent)
	s.persistOffer(w, r, req.LeagueID, req.UserID, descriptor, req.TokenAmount, terms)
}

// counterWager cria uma aposta nova do lado oposto, referenciando a original.
// A oferta original não é alterada.
func (s *Server) counterWager(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.CounterWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.TokenAmount < 1 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.PayoutRatio == 0 {
		req.PayoutRatio = spread.DefaultPayoutRatio
	}

	orig, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.notFoundOr500(w, err)
		return
	}
	if orig.Status != repo.StatusOffered {
		http.Error(w, "wager is not open for counter-offers", http.StatusConflict)
		return
	}
	if orig.CreatedBy == req.UserID {
		http.Error(w, "cannot counter your own wager", http.StatusForbidden)
		return
	}

	adjusted := -orig.Terms.AdjustedSpread
	if req.Spread != nil {
		adjusted = *req.Spread
	}
	side := spread.SideA
	if orig.Terms.Side == spread.SideA {
		side = spread.SideB
	}

	cond := s.marketConditions(r.Context(), orig.LeagueID, orig.Terms.Week, orig.Terms.Season, "")

	terms := spread.Terms{
		Kind:             spread.KindSpread,
		MatchupIndex:     orig.Terms.MatchupIndex,
		Side:             side,
		Week:             orig.Terms.Week,
		Season:           orig.Terms.Season,
		TeamRosterID:     orig.Terms.OpponentRosterID,
		OpponentRosterID: orig.Terms.TeamRosterID,
		OriginalSpread:   -orig.Terms.OriginalSpread,
		AdjustedSpread:   adjusted,
		OptimalSpread:    spread.OptimalSpread(-orig.Terms.OriginalSpread, cond),
		PayoutRatio:      req.PayoutRatio,
		Market:           cond,
		IsCounterOffer:   true,
		OriginalBetID:    orig.ID,
		CounterTo:        orig.CreatedBy,
	}
	if err := terms.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	descriptor := spread.Descriptor(terms.TeamRosterID, adjusted, terms.OpponentRosterID)
	s.persistOffer(w, r, orig.LeagueID, req.UserID, descriptor, req.TokenAmount, terms)
}

// persistOffer grava a oferta, debita a entrada e publica wager_placed.
// Uma oferta só permanece listável com a entrada debitada: se o débito falha,
// a linha recém-criada é removida antes de responder.
func (s *Server) persistOffer(w http.ResponseWriter, r *http.Request, leagueID, userID, descriptor string, amount int64, terms spread.Terms) {
	id, err := s.repo.CreateOffered(r.Context(), &repo.Wager{
		LeagueID:    leagueID,
		CreatedBy:   userID,
		Type:        descriptor,
		TokenAmount: amount,
		Terms:       terms,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := s.ledger.Adjust(r.Context(), userID, leagueID, id, -amount,
		"bet_placed", "stake: "+descriptor); err != nil {
		if derr := s.repo.DeleteOffered(r.Context(), id); derr != nil {
			s.log.Error("offer rollback", zap.String("wagerId", id), zap.Error(derr))
		}
		if errors.Is(err, ledger.ErrRejected) {
			http.Error(w, "insufficient token balance", http.StatusConflict)
			return
		}
		http.Error(w, "ledger debit failed", http.StatusBadGateway)
		return
	}

	_ = s.publ.PublishWagerPlaced(r.Context(), events.WagerPlaced{
		WagerID:     id,
		LeagueID:    leagueID,
		CreatedBy:   userID,
		Descriptor:  descriptor,
		TokenAmount: amount,
		PayoutRatio: terms.PayoutRatio,
		Week:        terms.Week,
		Season:      terms.Season,
	})

	created, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(created))
}

// acceptWager transiciona offered→active com as guardas de autorização.
// O débito do aceitante vem antes: saldo insuficiente recusa sem mutação.
func (s *Server) acceptWager(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.AcceptWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	wg, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.notFoundOr500(w, err)
		return
	}
	if wg.CreatedBy == req.UserID {
		http.Error(w, "cannot accept your own wager", http.StatusForbidden)
		return
	}

	position := spread.OppositePosition(wg.Type, &wg.Terms)
	if _, err := s.ledger.Adjust(r.Context(), req.UserID, wg.LeagueID, id, -wg.TokenAmount,
		"bet_accepted", "stake: "+position); err != nil {
		if errors.Is(err, ledger.ErrRejected) {
			http.Error(w, "insufficient token balance", http.StatusConflict)
			return
		}
		http.Error(w, "ledger debit failed", http.StatusBadGateway)
		return
	}

	if err := s.repo.Accept(r.Context(), id, req.UserID); err != nil {
		// Estorna o débito feito acima antes de recusar
		if _, cerr := s.ledger.Adjust(r.Context(), req.UserID, wg.LeagueID, id, wg.TokenAmount,
			"bet_accepted", "acceptance reversal"); cerr != nil {
			s.log.Error("acceptance reversal", zap.String("wagerId", id), zap.Error(cerr))
		}
		switch {
		case errors.Is(err, repo.ErrOwnWager):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, repo.ErrNotOffered):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, repo.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	_ = s.publ.PublishWagerAccepted(r.Context(), events.WagerAccepted{
		WagerID:    id,
		LeagueID:   wg.LeagueID,
		AcceptedBy: req.UserID,
	})

	updated, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (s *Server) getWager(w http.ResponseWriter, r *http.Request) {
	wg, err := s.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.notFoundOr500(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(wg))
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	leagueID := r.URL.Query().Get("leagueId")
	if leagueID == "" {
		http.Error(w, "leagueId required", http.StatusBadRequest)
		return
	}
	wagers, err := s.repo.ListByLeague(r.Context(), leagueID, r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.WagerResponse, 0, len(wagers))
	for i := range wagers {
		out = append(out, toResponse(&wagers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// getOpposite retorna a posição e o pagamento que a parte aceitante assumiria
func (s *Server) getOpposite(w http.ResponseWriter, r *http.Request) {
	wg, err := s.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.notFoundOr500(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OppositeResponse{
		WagerID:  wg.ID,
		Position: spread.OppositePosition(wg.Type, &wg.Terms),
		Payout:   spread.AcceptorPayout(wg.TokenAmount, wg.Terms.Ratio()),
	})
}

// settle é o gatilho manual/administrativo de liquidação
func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.LeagueID == "" || req.Week < 1 || req.Season < 1 || len(req.GameResults) == 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	sum, err := s.settler.SettleWeek(r.Context(), req.LeagueID, req.Week, req.Season, req.GameResults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := dto.SettleResponse{SettledCount: sum.SettledCount}
	for _, item := range sum.Results {
		out.Results = append(out.Results, dto.SettleItemResult{
			BetID:   item.BetID,
			Outcome: item.Outcome,
			Error:   item.Err,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// marketConditions deriva as condições de mercado do histórico da liga na
// semana; sem histórico, ficam os defaults neutros
func (s *Server) marketConditions(ctx context.Context, leagueID string, week, season int, kickoffAt string) spread.Conditions {
	cond := spread.NeutralConditions()

	total, accepted, err := s.repo.MarketStats(ctx, leagueID, week, season)
	if err != nil {
		s.log.Warn("market stats", zap.Error(err))
	} else if total > 0 {
		cond.BetVolume = total
		cond.AcceptanceRate = float64(accepted) / float64(total)
	}

	if kickoffAt != "" {
		if t, err := time.Parse(time.RFC3339, kickoffAt); err == nil {
			cond.HoursUntilGame = time.Until(t).Hours()
		}
	}
	return cond
}

func (s *Server) notFoundOr500(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func toResponse(w *repo.Wager) dto.WagerResponse {
	return dto.WagerResponse{
		ID:          w.ID,
		LeagueID:    w.LeagueID,
		CreatedBy:   w.CreatedBy,
		AcceptedBy:  w.AcceptedBy,
		Type:        w.Type,
		TokenAmount: w.TokenAmount,
		Status:      w.Status,
		Terms:       w.Terms,
		Outcome:     w.Outcome,
		CreatedAt:   w.CreatedAt,
		AcceptedAt:  w.AcceptedAt,
		SettledAt:   w.SettledAt,
	}
}

// writeJSON serializa e envia resposta JSON com o status informado
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
