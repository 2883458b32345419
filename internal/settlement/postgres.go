package settlement

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/fantasy-wager-platform/internal/spread"
	"github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

// PostgresStore implementa Store sobre as tabelas wagers e game_results
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) ListActive(ctx context.Context, leagueID string, week, season int) ([]ActiveWager, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, league_id, created_by, COALESCE(accepted_by,''), token_amount, terms
		FROM wagers
		WHERE league_id=$1 AND status='active'
		  AND (terms->>'week')::int = $2
		  AND (terms->>'season')::int = $3`,
		leagueID, week, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveWager
	for rows.Next() {
		var w ActiveWager
		var terms []byte
		if err := rows.Scan(&w.ID, &w.LeagueID, &w.CreatedBy, &w.AcceptedBy, &w.TokenAmount, &terms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(terms, &w.Terms); err != nil {
			w.Terms = spread.Terms{} // falha na validação e vai para revisão
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// MarkSettled só transiciona a partir de active; a cláusula WHERE é a guarda
// contra liquidação dupla
func (s *PostgresStore) MarkSettled(ctx context.Context, wagerID string, outcome spread.Outcome) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE wagers
		SET status='settled', outcome=$1, settled_at=NOW()
		WHERE id=$2 AND status='active'`,
		string(outcome), wagerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Reopen devolve a aposta para active quando o crédito falhou depois da
// transição terminal; a varredura a liquida de novo
func (s *PostgresStore) Reopen(ctx context.Context, wagerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE wagers
		SET status='active', outcome=NULL, settled_at=NULL
		WHERE id=$1 AND status='settled'`,
		wagerID)
	return err
}

// UpsertResult grava o resultado; uma linha já final nunca é sobrescrita
func (s *PostgresStore) UpsertResult(ctx context.Context, r events.GameResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_results (league_id, week, season, home_roster_id, away_roster_id, home_points, away_points, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (league_id, week, season, home_roster_id, away_roster_id)
		DO UPDATE SET home_points=EXCLUDED.home_points,
		              away_points=EXCLUDED.away_points,
		              status=EXCLUDED.status
		WHERE game_results.status <> 'final'`,
		r.LeagueID, r.Week, r.Season, r.HomeRosterID, r.AwayRosterID, r.HomePoints, r.AwayPoints, r.Status)
	return err
}

func (s *PostgresStore) FinalResults(ctx context.Context, leagueID string, week, season int) ([]events.GameResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT league_id, week, season, home_roster_id, away_roster_id, home_points, away_points, status
		FROM game_results
		WHERE league_id=$1 AND week=$2 AND season=$3 AND status='final'`,
		leagueID, week, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.GameResult
	for rows.Next() {
		var r events.GameResult
		if err := rows.Scan(&r.LeagueID, &r.Week, &r.Season, &r.HomeRosterID, &r.AwayRosterID,
			&r.HomePoints, &r.AwayPoints, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActiveWeeks lista semanas com aposta ativa e resultado final armazenado
func (s *PostgresStore) ActiveWeeks(ctx context.Context) ([]WeekRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT w.league_id, (w.terms->>'week')::int, (w.terms->>'season')::int
		FROM wagers w
		WHERE w.status='active'
		  AND EXISTS (
			SELECT 1 FROM game_results g
			WHERE g.league_id = w.league_id
			  AND g.week = (w.terms->>'week')::int
			  AND g.season = (w.terms->>'season')::int
			  AND g.status = 'final'
		  )`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeekRef
	for rows.Next() {
		var wk WeekRef
		if err := rows.Scan(&wk.LeagueID, &wk.Week, &wk.Season); err != nil {
			return nil, err
		}
		out = append(out, wk)
	}
	return out, rows.Err()
}
