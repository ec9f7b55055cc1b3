// Package external talks to the services the engine depends on for
// settlement: the ownership-transfer (mint) service and the funds
// ledger. Both speak HTTP JSON-RPC 2.0.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements the engine's external service interfaces over
// HTTP JSON-RPC 2.0. One client serves both the mint and ledger roles;
// point two clients at different endpoints to split them.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

var (
	_ engine.OwnershipTransfer = (*HTTPClient)(nil)
	_ engine.Ledger            = (*HTTPClient)(nil)
)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a client for one external service endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// mintParams is the wire shape of a mintOwnership call.
type mintParams struct {
	Winner      string `json:"winner"`
	ListingKey  string `json:"listingKey"`
	Metadata    string `json:"metadata"`
	Seller      string `json:"seller"`
	Amount      int64  `json:"amount"`
	RoutingHint string `json:"routingHint,omitempty"`
}

// mintResult is the wire shape of a mintOwnership response.
type mintResult struct {
	Accepted bool   `json:"accepted"`
	AssetID  string `json:"assetId"`
}

// Mint asks the ownership-transfer service to move the auctioned
// asset to the winner.
func (c *HTTPClient) Mint(ctx context.Context, req engine.MintRequest) error {
	params := []interface{}{
		mintParams{
			Winner:      string(req.Winner),
			ListingKey:  req.ListingKey,
			Metadata:    req.Metadata,
			Seller:      string(req.Seller),
			Amount:      req.Amount,
			RoutingHint: req.RoutingHint,
		},
	}

	var result mintResult
	if err := c.call(ctx, "mintOwnership", params, &result); err != nil {
		return err
	}
	if !result.Accepted {
		return fmt.Errorf("mint rejected for listing %s", req.ListingKey)
	}
	return nil
}

// transferParams is the wire shape of a transferFunds call.
type transferParams struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// transferResult is the wire shape of a transferFunds response.
type transferResult struct {
	Accepted bool `json:"accepted"`
}

// Transfer asks the ledger to move funds out of the engine's custody.
func (c *HTTPClient) Transfer(ctx context.Context, to domain.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount %d must be positive", amount)
	}

	params := []interface{}{
		transferParams{To: string(to), Amount: amount},
	}

	var result transferResult
	if err := c.call(ctx, "transferFunds", params, &result); err != nil {
		return err
	}
	if !result.Accepted {
		return fmt.Errorf("transfer of %d to %s rejected", amount, to)
	}
	return nil
}
