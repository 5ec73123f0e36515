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

// ReceiptIssuer mints the proof-of-shipment receipt for a delivered escrow.
// Issuance is best-effort: a failure never rolls back the delivery transition.
type ReceiptIssuer interface {
	Issue(ctx context.Context, escrowID, loadID, metadata string) (int64, error)
}

// ReceiptClient talks to the receipt/NFT issuer service.
type ReceiptClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewReceiptClient(baseURL string, log *zap.Logger) *ReceiptClient {
	return &ReceiptClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type issueReceiptRequest struct {
	EscrowID string `json:"escrow_id"`
	LoadID   string `json:"load_id"`
	Metadata string `json:"metadata"`
}

type issueReceiptResponse struct {
	TokenID int64 `json:"token_id"`
}

func (c *ReceiptClient) Issue(ctx context.Context, escrowID, loadID, metadata string) (int64, error) {
	body, err := json.Marshal(issueReceiptRequest{EscrowID: escrowID, LoadID: loadID, Metadata: metadata})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/internal/receipts", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("receipt issuer unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("receipt issuer returned %d: %s", resp.StatusCode, string(b))
	}

	var result issueReceiptResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return result.TokenID, nil
}
