package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/radieske/fantasy-wager-platform/internal/spread"
)

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNotFound   = errors.New("wager not found")
	ErrOwnWager   = errors.New("cannot accept your own wager")
	ErrNotOffered = errors.New("wager is not open for acceptance")
)

// CreateOffered insere uma nova aposta com status offered
func (p *Postgres) CreateOffered(ctx context.Context, w *Wager) (string, error) {
	id := uuid.NewString()
	terms, err := json.Marshal(w.Terms)
	if err != nil {
		return "", err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO wagers (id, league_id, created_by, type, token_amount, status, terms, created_at)
		VALUES ($1,$2,$3,$4,$5,'offered',$6,NOW())`,
		id, w.LeagueID, w.CreatedBy, w.Type, w.TokenAmount, terms,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteOffered remove uma oferta cujo débito de entrada não se concretizou.
// Só apaga linhas ainda em offered; qualquer outro estado fica intocado.
func (p *Postgres) DeleteOffered(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM wagers WHERE id=$1 AND status='offered'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOffered
	}
	return nil
}

// GetByID retorna uma aposta pelo id
func (p *Postgres) GetByID(ctx context.Context, id string) (*Wager, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, league_id, created_by, COALESCE(accepted_by,''), type, token_amount,
		       status, terms, COALESCE(outcome,''), created_at, accepted_at, settled_at
		FROM wagers WHERE id=$1`, id)
	return scanWager(row)
}

// ListByLeague retorna as apostas da liga, opcionalmente filtradas por status,
// mais recentes primeiro
func (p *Postgres) ListByLeague(ctx context.Context, leagueID, status string) ([]Wager, error) {
	q := `
		SELECT id, league_id, created_by, COALESCE(accepted_by,''), type, token_amount,
		       status, terms, COALESCE(outcome,''), created_at, accepted_at, settled_at
		FROM wagers WHERE league_id=$1`
	args := []any{leagueID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// Accept marca a aposta como active para o usuário aceitante.
// A transição é guardada no próprio UPDATE: só sai de offered, e nunca
// para o criador da aposta. Zero linhas afetadas vira um erro específico.
func (p *Postgres) Accept(ctx context.Context, id, userID string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE wagers
		SET status='active', accepted_by=$1, accepted_at=NOW()
		WHERE id=$2 AND status='offered' AND created_by <> $1`,
		userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Diagnóstico do motivo da recusa
	w, err := p.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w.CreatedBy == userID {
		return ErrOwnWager
	}
	return ErrNotOffered
}

// MarketStats conta apostas e aceites da liga na semana/temporada,
// insumo da heurística de mercado
func (p *Postgres) MarketStats(ctx context.Context, leagueID string, week, season int) (total, accepted int, err error) {
	err = p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(accepted_by)
		FROM wagers
		WHERE league_id=$1
		  AND (terms->>'week')::int = $2
		  AND (terms->>'season')::int = $3`,
		leagueID, week, season).Scan(&total, &accepted)
	return total, accepted, err
}

type scanner interface{ Scan(dest ...any) error }

func scanWager(row scanner) (*Wager, error) {
	var w Wager
	var terms []byte
	var acceptedAt, settledAt sql.NullTime
	err := row.Scan(&w.ID, &w.LeagueID, &w.CreatedBy, &w.AcceptedBy, &w.Type, &w.TokenAmount,
		&w.Status, &terms, &w.Outcome, &w.CreatedAt, &acceptedAt, &settledAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(terms, &w.Terms); err != nil {
		// terms ilegível não derruba a leitura; fica com o zero value
		w.Terms = spread.Terms{}
	}
	if acceptedAt.Valid {
		w.AcceptedAt = &acceptedAt.Time
	}
	if settledAt.Valid {
		w.SettledAt = &settledAt.Time
	}
	return &w, nil
}
