package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/radieske/fantasy-wager-platform/internal/shared/cache"
)

// Roster é o recorte que o modelo de spread precisa de um roster da liga.
type Roster struct {
	RosterID string   `json:"roster_id"`
	Starters []string `json:"starters"`
}

// PlayerProjection é a projeção de pontos de um jogador na semana.
type PlayerProjection struct {
	PlayerID         string  `json:"player_id"`
	ProjectionPoints float64 `json:"projection_points"`
}

// Client consome a API de rosters/projeções (Sleeper ou o simulador local).
// Respostas boas entram num cache com TTL para evitar refetch da mesma chamada
// em janela curta; retentativa com backoff limitado apenas em 429/5xx.
type Client struct {
	base    string
	http    *http.Client
	cache   cache.Store
	ttl     time.Duration
	limiter *rate.Limiter
	log     *zap.Logger

	attempts int
	backoff  time.Duration
}

func New(base string, store cache.Store, ttl time.Duration, log *zap.Logger) *Client {
	return &Client{
		base:     strings.TrimSuffix(base, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    store,
		ttl:      ttl,
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
		log:      log,
		attempts: 4,
		backoff:  300 * time.Millisecond,
	}
}

// Rosters retorna os rosters da liga com seus titulares
func (c *Client) Rosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var out []Roster
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/league/%s/rosters", leagueID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Projections retorna as projeções de pontos da semana
func (c *Client) Projections(ctx context.Context, season, week int) ([]PlayerProjection, error) {
	var out []PlayerProjection
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/projections/%d/%d", season, week), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	key := "sleeper:" + path
	if b, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return json.Unmarshal(b, dst)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.fetch(ctx, c.base+path)
	if err != nil {
		return err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		c.log.Warn("cache set", zap.String("key", key), zap.Error(err))
	}
	return json.Unmarshal(body, dst)
}

// fetch faz o GET com retentativa em 429/5xx: backoff exponencial limitado,
// qualquer outro status falha direto
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	delay := c.backoff
	var lastStatus int

	for i := 0; i < c.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			lastStatus = res.StatusCode
			c.log.Warn("upstream retry", zap.String("url", url), zap.Int("status", res.StatusCode))
			continue
		}
		if res.StatusCode >= 300 {
			res.Body.Close()
			return nil, fmt.Errorf("upstream http %d", res.StatusCode)
		}

		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}
		return body, nil
	}

	return nil, fmt.Errorf("upstream http %d after %d attempts", lastStatus, c.attempts)
}
