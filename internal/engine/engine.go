// Package engine implements the auction state machine: bid admission,
// anti-sniping extension, atomic settlement, and withdrawal. The engine
// owns an in-memory arena of auctions keyed by listing key; every
// operation on one listing runs under that listing's lock for its full
// duration, external calls included, so operations serialize in arrival
// order and no caller observes a partially-applied state.
package engine

import (
	"fmt"
	"io"
	"log"
	"sync"

	"nft-auction-engine/internal/domain"
)

// listing pairs one auction with its exclusion lock.
type listing struct {
	mu sync.Mutex
	a  *domain.Auction
}

// Engine runs many independent auctions.
type Engine struct {
	clock  Clock
	ledger Ledger
	admin  domain.Identity
	selfID domain.Identity // the engine's own identity, recorded as metadata minter
	logger *log.Logger
	sinks  []domain.EventSink

	// mint target is swappable by the administrator.
	mintMu sync.RWMutex
	mint   OwnershipTransfer

	// fee configuration is process-wide; operations snapshot it at
	// transaction start.
	cfgMu sync.RWMutex
	cfg   domain.FeeConfig

	// listings is the arena. The map lock only guards map membership;
	// auction state is guarded by each listing's own lock.
	mu       sync.RWMutex
	listings map[string]*listing

	// per-actor indices.
	idxMu            sync.RWMutex
	activeByOwner    map[domain.Identity][]string
	pastByOwner      map[domain.Identity][]string
	listingsByBidder map[domain.Identity][]string

	// pendingWithdrawals exists in the persisted layout but nothing
	// credits it in this version; reads always see zero.
	pendingWithdrawals map[domain.Identity]int64
}

// Options configures a new Engine.
type Options struct {
	Clock  Clock             // defaults to SystemClock
	Mint   OwnershipTransfer // required
	Ledger Ledger            // required
	Admin  domain.Identity   // administrative identity
	Self   domain.Identity   // engine identity, used as metadata minter
	Fees   domain.FeeConfig
	Sinks  []domain.EventSink
	Logger *log.Logger
}

// New creates an auction engine.
func New(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{
		clock:              clock,
		mint:               opts.Mint,
		ledger:             opts.Ledger,
		admin:              opts.Admin,
		selfID:             opts.Self,
		cfg:                opts.Fees,
		sinks:              opts.Sinks,
		logger:             logger,
		listings:           make(map[string]*listing),
		activeByOwner:      make(map[domain.Identity][]string),
		pastByOwner:        make(map[domain.Identity][]string),
		listingsByBidder:   make(map[domain.Identity][]string),
		pendingWithdrawals: make(map[domain.Identity]int64),
	}
}

// feeConfig returns the current fee configuration snapshot.
func (e *Engine) feeConfig() domain.FeeConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// lookup returns the listing for a key, or ErrListingNotFound.
func (e *Engine) lookup(key string) (*listing, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.listings[key]
	if !ok {
		return nil, fmt.Errorf("listing %q: %w", key, ErrListingNotFound)
	}
	return l, nil
}

// InitializeAuction opens a fresh listing key and immediately places
// the first bid. A failed first bid unwinds the creation entirely.
func (e *Engine) InitializeAuction(
	key string,
	minimumBid int64,
	endTime int64,
	owner domain.Identity,
	alien bool,
	bidder domain.Identity,
	paidAmount int64,
	caller domain.Identity,
) error {
	if key == "" {
		return fmt.Errorf("empty listing key: %w", ErrListingNotFound)
	}
	now := e.clock.Now()
	if minimumBid <= 0 {
		return fmt.Errorf("initialize %q: %w", key, ErrInvalidMinimumBid)
	}
	if endTime <= now {
		return fmt.Errorf("initialize %q: %w", key, ErrEndTimeInPast)
	}
	if owner.IsZero() {
		return fmt.Errorf("initialize %q: %w", key, ErrInvalidOwner)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.listings[key]; exists {
		return fmt.Errorf("initialize %q: %w", key, ErrListingExists)
	}

	a := &domain.Auction{
		ListingKey: key,
		MinimumBid: minimumBid,
		EndTime:    endTime,
		IsAlien:    alien,
		Owner:      owner,
		Bids:       make(map[domain.Identity]domain.Bid),
	}

	// Admit the first bid before the auction becomes visible, so a
	// rejected first bid leaves no trace of the listing.
	cfg := e.feeConfig()
	adm, err := admitBid(a, bidder, paidAmount, caller, now, cfg)
	if err != nil {
		return fmt.Errorf("initialize %q: %w", key, err)
	}
	applyBid(a, bidder, adm)

	e.listings[key] = &listing{a: a}

	e.idxMu.Lock()
	e.activeByOwner[owner] = append(e.activeByOwner[owner], key)
	e.addBidderListing(bidder, key)
	e.idxMu.Unlock()

	e.emitAuctionInitialized(domain.AuctionInitialized{
		ListingKey: key,
		MinimumBid: minimumBid,
		EndTime:    endTime,
		Owner:      owner,
		IsAlien:    alien,
	})
	e.emitBidPlaced(bidPlacedEvent(key, bidder, paidAmount, adm))
	return nil
}

// PlaceBid validates and applies a bid to an existing auction. The bid
// amount is the gross paid amount; the buyer-side fee is deducted and
// the remainder counts toward the bidder's cumulative contribution.
func (e *Engine) PlaceBid(
	key string,
	bidder domain.Identity,
	paidAmount int64,
	caller domain.Identity,
) error {
	l, err := e.lookup(key)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := e.clock.Now()
	cfg := e.feeConfig()

	adm, err := admitBid(l.a, bidder, paidAmount, caller, now, cfg)
	if err != nil {
		return fmt.Errorf("bid on %q: %w", key, err)
	}

	isNew := adm.newBidder
	applyBid(l.a, bidder, adm)

	if isNew {
		e.idxMu.Lock()
		e.addBidderListing(bidder, key)
		e.idxMu.Unlock()
	}

	e.emitBidPlaced(bidPlacedEvent(key, bidder, paidAmount, adm))
	return nil
}

// admission holds the staged outcome of bid validation. Nothing is
// applied until every check has passed; a rejection leaves the auction
// untouched, the anti-sniping extension included.
type admission struct {
	fee        int64
	net        int64
	cumulative int64
	endTime    int64 // possibly extended
	now        int64
	newBidder  bool // first accepted bid from this identity
}

// admitBid runs the full admission check sequence against an auction
// and returns the staged outcome.
func admitBid(
	a *domain.Auction,
	bidder domain.Identity,
	paid int64,
	caller domain.Identity,
	now int64,
	cfg domain.FeeConfig,
) (admission, error) {
	var adm admission

	if bidder.IsZero() {
		return adm, ErrInvalidBidder
	}
	if bidder == a.Owner || caller == a.Owner {
		return adm, ErrOwnerCannotBid
	}
	if paid <= 0 {
		return adm, ErrInvalidAmount
	}
	if a.Ended {
		return adm, ErrAuctionEnded
	}
	if a.Paused {
		return adm, ErrAuctionPaused
	}
	if now > a.EndTime {
		return adm, ErrAuctionExpired
	}

	adm.now = now
	adm.fee = cfg.BuyerFee(paid)
	adm.net = paid - adm.fee

	// Anti-sniping runs before the amount checks. Extensions stack on
	// every qualifying late bid, without cap.
	adm.endTime = a.EndTime
	if now >= a.EndTime-domain.SnipingWindow {
		adm.endTime += domain.TimeExtension
	}

	prior, hasPrior := a.Bids[bidder]
	adm.cumulative = prior.Amount + adm.net

	// The new cumulative amount must beat the current highest bid by
	// more than MinRaisePct, the current leader raising included.
	if adm.cumulative*100 <= a.HighestBid*(100+domain.MinRaisePct) {
		return adm, ErrBidNotCompetitive
	}

	// Anyone who is not the current leader must clear the minimum with
	// this single call's net contribution.
	if bidder != a.HighestBidder && adm.net < a.MinimumBid {
		return adm, ErrBidBelowMinimum
	}

	adm.newBidder = !hasPrior
	return adm, nil
}

// applyBid commits a staged admission to the auction.
func applyBid(a *domain.Auction, bidder domain.Identity, adm admission) {
	a.EndTime = adm.endTime
	a.TotalAmount += adm.net
	a.FeesAccrued += adm.fee
	a.Bids[bidder] = domain.Bid{Amount: adm.cumulative, Time: adm.now}
	a.HighestBid = adm.cumulative
	a.HighestBidder = bidder
	if adm.newBidder {
		a.Bidders = append(a.Bidders, bidder)
	}
}

// addBidderListing appends a listing to a bidder's index, deduplicated.
// Caller must hold idxMu.
func (e *Engine) addBidderListing(bidder domain.Identity, key string) {
	for _, k := range e.listingsByBidder[bidder] {
		if k == key {
			return
		}
	}
	e.listingsByBidder[bidder] = append(e.listingsByBidder[bidder], key)
}

func bidPlacedEvent(key string, bidder domain.Identity, paid int64, adm admission) domain.BidPlaced {
	return domain.BidPlaced{
		ListingKey: key,
		Bidder:     bidder,
		Paid:       paid,
		Fee:        adm.fee,
		Net:        adm.net,
		Cumulative: adm.cumulative,
		Time:       adm.now,
	}
}

func (e *Engine) emitAuctionInitialized(ev domain.AuctionInitialized) {
	for _, s := range e.sinks {
		s.AuctionInitialized(ev)
	}
}

func (e *Engine) emitBidPlaced(ev domain.BidPlaced) {
	for _, s := range e.sinks {
		s.BidPlaced(ev)
	}
}

func (e *Engine) emitAuctionEnded(ev domain.AuctionEnded) {
	for _, s := range e.sinks {
		s.AuctionEnded(ev)
	}
}

func (e *Engine) emitFundsWithdrawn(ev domain.FundsWithdrawn) {
	for _, s := range e.sinks {
		s.FundsWithdrawn(ev)
	}
}
