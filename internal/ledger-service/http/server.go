package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-wager-platform/internal/ledger-service/dto"
	"github.com/radieske/fantasy-wager-platform/internal/ledger-service/repo"
)

// Repo define a interface de operações de ledger usadas pelo handler HTTP
type Repo interface {
	GetOrCreateProfile(ctx context.Context, userID, leagueID string) (profileID string, balance int64, err error)
	Adjust(ctx context.Context, userID, leagueID, betID string, amount int64, txType, description string) (newBalance int64, err error)
	ListTransactions(ctx context.Context, userID, leagueID string) ([]repo.Transaction, error)
}

// Server expõe endpoints HTTP para saldo de tokens e trilha de transações
type Server struct {
	log  *zap.Logger
	repo Repo
}

// NewServer instancia o servidor HTTP do ledger
func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de ledger
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/balance", s.getBalance)             // GET ?userId=&leagueId=
	mux.HandleFunc("/v1/balance/adjust", s.adjust)          // POST
	mux.HandleFunc("/v1/transactions", s.listTransactions)  // GET ?userId=&leagueId=
	return mux
}

// getBalance retorna (ou cria) o perfil e saldo do usuário na liga
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	leagueID := r.URL.Query().Get("leagueId")
	if userID == "" || leagueID == "" {
		http.Error(w, "userId and leagueId required", http.StatusBadRequest)
		return
	}
	profileID, bal, err := s.repo.GetOrCreateProfile(r.Context(), userID, leagueID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.BalanceResponse{UserID: userID, LeagueID: leagueID, ProfileID: profileID, TokenBalance: bal})
}

// adjust aplica um delta atômico ao saldo e grava a transação de auditoria
func (s *Server) adjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.LeagueID == "" || req.Amount == 0 || req.Type == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Adjust(r.Context(), req.UserID, req.LeagueID, req.BetID, req.Amount, req.Type, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInvalidType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, repo.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, dto.BalanceResponse{UserID: req.UserID, LeagueID: req.LeagueID, TokenBalance: bal})
}

// listTransactions retorna a trilha append-only do usuário na liga
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	leagueID := r.URL.Query().Get("leagueId")
	if userID == "" || leagueID == "" {
		http.Error(w, "userId and leagueId required", http.StatusBadRequest)
		return
	}
	txs, err := s.repo.ListTransactions(r.Context(), userID, leagueID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, dto.TransactionResponse{
			ID:          t.ID,
			UserID:      t.UserID,
			LeagueID:    t.LeagueID,
			BetID:       t.BetID,
			Amount:      t.Amount,
			Type:        t.Type,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		})
	}
	writeJSON(w, out)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
