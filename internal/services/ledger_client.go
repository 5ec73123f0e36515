package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Ledger moves value between platform accounts. Transfers are idempotent under
// retry: the ledger dedupes on the caller-supplied reference, so re-driving a
// transfer that already settled is a no-op.
type Ledger interface {
	Transfer(ctx context.Context, reference, from, to string, amount int64) error
}

// LedgerClient talks to the internal asset-transfer service.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewLedgerClient(baseURL string, log *zap.Logger) *LedgerClient {
	return &LedgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type transferRequest struct {
	Reference string `json:"reference"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
}

func (c *LedgerClient) Transfer(ctx context.Context, reference, from, to string, amount int64) error {
	body, err := json.Marshal(transferRequest{Reference: reference, From: from, To: to, Amount: amount})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/transfers", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger service unavailable: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the reference already settled, which is idempotent success.
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusConflict {
		return nil
	}

	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("ledger service returned %d: %s", resp.StatusCode, string(b))
}
