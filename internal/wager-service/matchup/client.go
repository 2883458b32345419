package matchup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mdto "github.com/radieske/fantasy-wager-platform/internal/matchup-service/dto"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Spread busca no matchup-service o spread projetado de um confronto
func (c *Client) Spread(ctx context.Context, leagueID string, matchupIndex, week, season int) (*mdto.MatchupSpread, error) {
	url := fmt.Sprintf("%s/v1/leagues/%s/matchups/%d/spread?week=%d&season=%d",
		c.BaseURL, leagueID, matchupIndex, week, season)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("matchup spread http %d", res.StatusCode)
	}
	var out mdto.MatchupSpread
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
