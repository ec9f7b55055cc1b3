package engine

import (
	"context"
	"errors"
	"sync"

	"nft-auction-engine/internal/domain"
)

// manualClock is a settable clock for tests.
type manualClock struct {
	mu  sync.Mutex
	now int64
}

func newManualClock(now int64) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// stubMint records mint requests and fails on demand.
type stubMint struct {
	mu    sync.Mutex
	calls []MintRequest
	err   error
}

func (m *stubMint) Mint(_ context.Context, req MintRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, req)
	return nil
}

func (m *stubMint) failWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *stubMint) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *stubMint) lastCall() MintRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// transfer is one recorded ledger movement.
type transfer struct {
	To     domain.Identity
	Amount int64
}

// stubLedger records transfers, fails on demand, and can run a hook
// during Transfer to probe in-flight behavior.
type stubLedger struct {
	mu        sync.Mutex
	transfers []transfer
	err       error
	onXfer    func(to domain.Identity, amount int64)
}

func (l *stubLedger) Transfer(_ context.Context, to domain.Identity, amount int64) error {
	l.mu.Lock()
	hook := l.onXfer
	err := l.err
	l.mu.Unlock()

	if hook != nil {
		hook(to, amount)
	}
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.transfers = append(l.transfers, transfer{To: to, Amount: amount})
	l.mu.Unlock()
	return nil
}

func (l *stubLedger) failWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *stubLedger) all() []transfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]transfer(nil), l.transfers...)
}

// recordingSink collects emitted events.
type recordingSink struct {
	mu          sync.Mutex
	initialized []domain.AuctionInitialized
	bids        []domain.BidPlaced
	ended       []domain.AuctionEnded
	withdrawals []domain.FundsWithdrawn
}

func (s *recordingSink) AuctionInitialized(e domain.AuctionInitialized) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = append(s.initialized, e)
}

func (s *recordingSink) BidPlaced(e domain.BidPlaced) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids = append(s.bids, e)
}

func (s *recordingSink) AuctionEnded(e domain.AuctionEnded) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, e)
}

func (s *recordingSink) FundsWithdrawn(e domain.FundsWithdrawn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals = append(s.withdrawals, e)
}

var _ domain.EventSink = (*recordingSink)(nil)

var errStubFailure = errors.New("stub failure")

// Common test identities.
const (
	testOwner  = domain.Identity("ownerPubkey11111111111111111111")
	testAdmin  = domain.Identity("adminPubkey11111111111111111111")
	testEngine = domain.Identity("enginePubkey1111111111111111111")
	testFeeRcp = domain.Identity("feeRecipient1111111111111111111")
	alice      = domain.Identity("alicePubkey11111111111111111111")
	bob        = domain.Identity("bobPubkey1111111111111111111111")
	carol      = domain.Identity("carolPubkey11111111111111111111")
)

// testEnv bundles an engine with its stubs.
type testEnv struct {
	engine *Engine
	clock  *manualClock
	mint   *stubMint
	ledger *stubLedger
	sink   *recordingSink
}

// newTestEnv creates an engine with zero fee rates at time 1000.
func newTestEnv() *testEnv {
	return newTestEnvWithFees(domain.FeeConfig{FeeRecipient: testFeeRcp})
}

func newTestEnvWithFees(cfg domain.FeeConfig) *testEnv {
	clock := newManualClock(1000)
	mint := &stubMint{}
	ledger := &stubLedger{}
	sink := &recordingSink{}
	if cfg.FeeRecipient.IsZero() {
		cfg.FeeRecipient = testFeeRcp
	}

	eng := New(Options{
		Clock:  clock,
		Mint:   mint,
		Ledger: ledger,
		Admin:  testAdmin,
		Self:   testEngine,
		Fees:   cfg,
		Sinks:  []domain.EventSink{sink},
	})

	return &testEnv{engine: eng, clock: clock, mint: mint, ledger: ledger, sink: sink}
}
