package observability

import (
	"context"
	"time"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
)

// InstrumentedMint wraps an OwnershipTransfer with call metrics.
type InstrumentedMint struct {
	next engine.OwnershipTransfer
	m    *Metrics
}

var _ engine.OwnershipTransfer = (*InstrumentedMint)(nil)

// NewInstrumentedMint wraps next, recording latency and errors under
// the "mint" service label.
func NewInstrumentedMint(next engine.OwnershipTransfer, m *Metrics) *InstrumentedMint {
	return &InstrumentedMint{next: next, m: m}
}

// Mint implements engine.OwnershipTransfer.
func (i *InstrumentedMint) Mint(ctx context.Context, req engine.MintRequest) error {
	start := time.Now()
	err := i.next.Mint(ctx, req)
	i.m.RecordExternalCall("mint", "mintOwnership", time.Since(start).Seconds(), err)
	return err
}

// InstrumentedLedger wraps a Ledger with call metrics.
type InstrumentedLedger struct {
	next engine.Ledger
	m    *Metrics
}

var _ engine.Ledger = (*InstrumentedLedger)(nil)

// NewInstrumentedLedger wraps next, recording latency and errors under
// the "ledger" service label.
func NewInstrumentedLedger(next engine.Ledger, m *Metrics) *InstrumentedLedger {
	return &InstrumentedLedger{next: next, m: m}
}

// Transfer implements engine.Ledger.
func (i *InstrumentedLedger) Transfer(ctx context.Context, to domain.Identity, amount int64) error {
	start := time.Now()
	err := i.next.Transfer(ctx, to, amount)
	i.m.RecordExternalCall("ledger", "transferFunds", time.Since(start).Seconds(), err)
	return err
}
