package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Postgres implementa operações de saldo de tokens e trilha de transações
type Postgres struct {
	db              *sql.DB
	startingBalance int64
}

// NewPostgres retorna o repositório de ledger; startingBalance é o saldo
// inicial concedido na criação do perfil por liga
func NewPostgres(db *sql.DB, startingBalance int64) *Postgres {
	return &Postgres{db: db, startingBalance: startingBalance}
}

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrInvalidType       = errors.New("invalid transaction type")
)

// Tipos de transação aceitos no ledger append-only
var validTypes = map[string]bool{
	"bet_placed":   true,
	"bet_accepted": true,
	"payout_won":   true,
	"payout_lost":  true,
}

// Transaction é um registro imutável da trilha de auditoria
type Transaction struct {
	ID          string
	UserID      string
	LeagueID    string
	BetID       string
	Amount      int64
	Type        string
	Description string
	CreatedAt   time.Time
}

// GetOrCreateProfile retorna o perfil e saldo do usuário na liga,
// criando o perfil com o saldo inicial se não existir
func (p *Postgres) GetOrCreateProfile(ctx context.Context, userID, leagueID string) (profileID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	id, bal, err := getOrCreateLocked(ctx, tx, userID, leagueID, p.startingBalance)
	if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, bal, nil
}

func getOrCreateLocked(ctx context.Context, tx *sql.Tx, userID, leagueID string, starting int64) (string, int64, error) {
	var id string
	var bal int64
	err := tx.QueryRowContext(ctx,
		`SELECT id, token_balance FROM profiles WHERE user_id=$1 AND league_id=$2`,
		userID, leagueID).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		// Dois primeiros acessos concorrentes podem errar o SELECT juntos;
		// o ON CONFLICT garante um único perfil e o perdedor da corrida relê.
		id = uuid.NewString()
		res, ierr := tx.ExecContext(ctx, `
			INSERT INTO profiles(id, user_id, league_id, token_balance)
			VALUES($1,$2,$3,$4)
			ON CONFLICT (user_id, league_id) DO NOTHING`,
			id, userID, leagueID, starting)
		if ierr != nil {
			return "", 0, ierr
		}
		n, ierr := res.RowsAffected()
		if ierr != nil {
			return "", 0, ierr
		}
		if n == 1 {
			return id, starting, nil
		}
		if err = tx.QueryRowContext(ctx,
			`SELECT id, token_balance FROM profiles WHERE user_id=$1 AND league_id=$2`,
			userID, leagueID).Scan(&id, &bal); err != nil {
			return "", 0, err
		}
		return id, bal, nil
	}
	if err != nil {
		return "", 0, err
	}
	return id, bal, nil
}

// Adjust aplica um delta ao saldo e registra a transação na trilha.
// O incremento é um único UPDATE atômico no banco, nunca leitura-modificação-
// escrita, para não perder atualizações em liquidações concorrentes.
// Débitos que deixariam o saldo negativo são rejeitados.
func (p *Postgres) Adjust(ctx context.Context, userID, leagueID, betID string, amount int64, txType, description string) (newBalance int64, err error) {
	if !validTypes[txType] {
		return 0, ErrInvalidType
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	profileID, _, err := getOrCreateLocked(ctx, tx, userID, leagueID, p.startingBalance)
	if err != nil {
		return 0, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE profiles
		SET token_balance = token_balance + $1
		WHERE id = $2 AND token_balance + $1 >= 0
		RETURNING token_balance`,
		amount, profileID).Scan(&newBalance)
	if err == sql.ErrNoRows {
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}

	var bet sql.NullString
	if betID != "" {
		bet = sql.NullString{String: betID, Valid: true}
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO token_transactions(id, user_id, league_id, bet_id, amount, type, description, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,NOW())`,
		uuid.NewString(), userID, leagueID, bet, amount, txType, description); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// ListTransactions retorna a trilha de auditoria do usuário na liga,
// mais recentes primeiro. Registros nunca são alterados ou removidos.
func (p *Postgres) ListTransactions(ctx context.Context, userID, leagueID string) ([]Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, league_id, COALESCE(bet_id, ''), amount, type, COALESCE(description, ''), created_at
		FROM token_transactions
		WHERE user_id=$1 AND league_id=$2
		ORDER BY created_at DESC`,
		userID, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.LeagueID, &t.BetID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
