package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ldto "github.com/radieske/fantasy-wager-platform/internal/ledger-service/dto"
)

// LedgerClient implementa Ledger chamando o ledger-service por HTTP.
// O incremento atômico em si acontece lá dentro, de um lado só do fio.
type LedgerClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewLedgerClient(base string) *LedgerClient {
	return &LedgerClient{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *LedgerClient) Credit(ctx context.Context, userID, leagueID, betID string, amount int64, txType, description string) error {
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
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("ledger credit http %d", res.StatusCode)
	}
	return nil
}
