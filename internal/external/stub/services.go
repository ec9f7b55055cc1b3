// Package stub provides in-process implementations of the external
// services for testing and standalone runs.
package stub

import (
	"context"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
)

// Services implements the engine's mint and ledger interfaces with
// in-memory bookkeeping.
type Services struct {
	mu       sync.Mutex
	minted   []engine.MintRequest
	balances map[domain.Identity]int64

	// MintErr and TransferErr, when set, fail the respective calls.
	MintErr     error
	TransferErr error
}

var (
	_ engine.OwnershipTransfer = (*Services)(nil)
	_ engine.Ledger            = (*Services)(nil)
)

// NewServices creates stub external services.
func NewServices() *Services {
	return &Services{balances: make(map[domain.Identity]int64)}
}

// Mint records the ownership transfer.
func (s *Services) Mint(_ context.Context, req engine.MintRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MintErr != nil {
		return s.MintErr
	}
	s.minted = append(s.minted, req)
	return nil
}

// Transfer credits the recipient's stub balance.
func (s *Services) Transfer(_ context.Context, to domain.Identity, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TransferErr != nil {
		return s.TransferErr
	}
	s.balances[to] += amount
	return nil
}

// Minted returns the recorded mint requests.
func (s *Services) Minted() []engine.MintRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.MintRequest(nil), s.minted...)
}

// Balance returns the stub balance credited to an identity.
func (s *Services) Balance(id domain.Identity) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[id]
}
