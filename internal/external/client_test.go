package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nft-auction-engine/internal/engine"
)

func TestHTTPClient_Mint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "mintOwnership" {
			t.Errorf("expected method mintOwnership, got %s", req.Method)
		}
		if len(req.Params) != 1 {
			t.Fatalf("expected 1 param, got %d", len(req.Params))
		}
		param := req.Params[0].(map[string]interface{})
		if param["winner"] != "winnerPk" {
			t.Errorf("expected winner winnerPk, got %v", param["winner"])
		}
		if param["listingKey"] != "lot-7" {
			t.Errorf("expected listingKey lot-7, got %v", param["listingKey"])
		}
		if param["amount"] != float64(220) {
			t.Errorf("expected amount 220, got %v", param["amount"])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"accepted": true,
				"assetId":  "asset-1",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	err := client.Mint(ctx, engine.MintRequest{
		Winner:     "winnerPk",
		ListingKey: "lot-7",
		Metadata:   "listing_id:lot-7, amount:220",
		Seller:     "sellerPk",
		Amount:     220,
	})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
}

func TestHTTPClient_Mint_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"accepted": false},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	err := client.Mint(context.Background(), engine.MintRequest{Winner: "w", ListingKey: "lot-7", Amount: 1})
	if err == nil {
		t.Fatal("expected error for rejected mint, got nil")
	}
}

func TestHTTPClient_Transfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "transferFunds" {
			t.Errorf("expected method transferFunds, got %s", req.Method)
		}
		param := req.Params[0].(map[string]interface{})
		if param["to"] != "recipientPk" {
			t.Errorf("expected to recipientPk, got %v", param["to"])
		}
		if param["amount"] != float64(150) {
			t.Errorf("expected amount 150, got %v", param["amount"])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"accepted": true},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	if err := client.Transfer(context.Background(), "recipientPk", 150); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
}

func TestHTTPClient_Transfer_InvalidAmount(t *testing.T) {
	client := NewHTTPClient("http://unused.invalid")
	if err := client.Transfer(context.Background(), "recipientPk", 0); err == nil {
		t.Fatal("expected error for zero amount, got nil")
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32000,
				"message": "insufficient funds",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))

	err := client.Transfer(context.Background(), "recipientPk", 100)
	if err == nil {
		t.Fatal("expected RPC error, got nil")
	}
	// RPC-level errors are not retried.
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestHTTPClient_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"accepted": true},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(5), WithRetryDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))

	if err := client.Transfer(context.Background(), "recipientPk", 100); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))

	err := client.Transfer(context.Background(), "recipientPk", 100)
	if err == nil {
		t.Fatal("expected error after exhausted retries, got nil")
	}
}
