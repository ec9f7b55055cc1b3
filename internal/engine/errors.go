package engine

import "errors"

// Validation errors: bad input, rejected before any state change.
var (
	// ErrListingExists is returned when initializing an already-used listing key.
	ErrListingExists = errors.New("listing key already exists")

	// ErrInvalidMinimumBid is returned when the minimum bid is not positive.
	ErrInvalidMinimumBid = errors.New("minimum bid must be positive")

	// ErrEndTimeInPast is returned when the end time is not in the future.
	ErrEndTimeInPast = errors.New("end time must be in the future")

	// ErrInvalidOwner is returned when the owner identity is unset.
	ErrInvalidOwner = errors.New("invalid owner")

	// ErrInvalidBidder is returned when the bidder identity is unset.
	ErrInvalidBidder = errors.New("invalid bidder")

	// ErrInvalidAmount is returned when a paid amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrOwnerCannotBid is returned when the owner bids on their own auction,
	// directly or as the funds sender.
	ErrOwnerCannotBid = errors.New("owner cannot bid on own auction")

	// ErrUnauthorized is returned when a non-admin calls an administrative operation.
	ErrUnauthorized = errors.New("caller is not the administrator")
)

// State errors: operation invalid for the auction's current state.
var (
	// ErrListingNotFound is returned when the listing key is unknown.
	ErrListingNotFound = errors.New("listing not found")

	// ErrAuctionEnded is returned when operating on a settled auction.
	ErrAuctionEnded = errors.New("auction already ended")

	// ErrAuctionPaused is returned when bidding on a paused auction.
	ErrAuctionPaused = errors.New("auction paused")

	// ErrAuctionExpired is returned when bidding after the end time.
	ErrAuctionExpired = errors.New("auction expired")

	// ErrAuctionNotEnded is returned when settling or querying the winner
	// before the end time has passed.
	ErrAuctionNotEnded = errors.New("auction not yet ended")

	// ErrNothingToSettle is returned when settling an auction with no bids.
	ErrNothingToSettle = errors.New("nothing to settle")

	// ErrAlienAuction is returned when withdrawing from an alien auction.
	// Alien auctions never refund non-winning contributions.
	ErrAlienAuction = errors.New("alien auction funds are not refundable")

	// ErrHighestBidderCannotWithdraw is returned when the current leader
	// attempts to withdraw.
	ErrHighestBidderCannotWithdraw = errors.New("highest bidder cannot withdraw")

	// ErrNoFundsToWithdraw is returned when the caller has no recorded funds.
	ErrNoFundsToWithdraw = errors.New("no funds to withdraw")
)

// Competitiveness errors: the bid amount does not qualify.
var (
	// ErrBidBelowMinimum is returned when a non-leading bidder's net
	// contribution is below the auction minimum.
	ErrBidBelowMinimum = errors.New("bid below minimum")

	// ErrBidNotCompetitive is returned when the new cumulative amount does
	// not exceed the highest bid by the required margin.
	ErrBidNotCompetitive = errors.New("bid not competitive enough")
)

// ErrExternalService is returned when the ownership-transfer service or
// the ledger fails during settlement or withdrawal. The transaction is
// rolled back to its pre-call state and may be retried.
var ErrExternalService = errors.New("external service failure")
