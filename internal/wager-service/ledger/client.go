package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	ldto "github.com/radieske/fantasy-wager-platform/internal/ledger-service/dto"
)

// ErrRejected indica que o ledger recusou o ajuste (ex.: saldo insuficiente)
var ErrRejected = errors.New("ledger rejected adjustment")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Adjust aplica um delta atômico no saldo do usuário via ledger-service
func (c *Client) Adjust(ctx context.Context, userID, leagueID, betID string, amount int64, txType, description string) (int64, error) {
	body, _ := json.Marshal(ldto.AdjustRequest{
		UserID:      userID,
		LeagueID:    leagueID,
		BetID:       betID,
		Amount:      amount,
		Type:        txType,
		Description: description,
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/balance/adjust", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return 0, ErrRejected
	}
	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("ledger adjust http %d", res.StatusCode)
	}
	var out ldto.BalanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.TokenBalance, nil
}
