package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brewtab/internal/domain"
)

// HTTPSubmitter posts finalized orders to the order ledger's REST endpoint.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSubmitter(baseURL string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, order *domain.FinalizedOrder) (*Receipt, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", order.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var receipt Receipt
		if err := json.Unmarshal(body, &receipt); err != nil {
			return nil, fmt.Errorf("decode receipt: %w", err)
		}
		if receipt.OrderID == "" {
			receipt.OrderID = order.ID
		}
		return &receipt, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrStockConflict
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}
