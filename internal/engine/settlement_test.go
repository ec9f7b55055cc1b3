package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"nft-auction-engine/internal/domain"
)

func TestEndAuction(t *testing.T) {
	env := newTestEnvWithFees(domain.FeeConfig{BuyerFeePpt: 25, SellerFeePpt: 25, FeeRecipient: testFeeRcp})
	ctx := context.Background()

	if err := env.engine.InitializeAuction("listing-1", 100, 2000, testOwner, false, alice, 1000, alice); err != nil {
		t.Fatalf("InitializeAuction() error = %v", err)
	}
	if err := env.engine.PlaceBid("listing-1", bob, 2000, bob); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	env.clock.Set(2500)
	ev, err := env.engine.EndAuction(ctx, "listing-1", "route-a")
	if err != nil {
		t.Fatalf("EndAuction() error = %v", err)
	}

	// Bob paid 2000 gross, 50 buyer fee withheld, 1950 net. Alice's
	// buyer fee was 25. Seller fee is 2.5% of the 1950 winning bid.
	if ev.Winner != bob {
		t.Errorf("Winner = %s, want %s", ev.Winner, bob)
	}
	if ev.WinningBid != 1950 {
		t.Errorf("WinningBid = %d, want 1950", ev.WinningBid)
	}
	wantSellerFee := int64(1950 * 25 / 1000)
	if ev.OwnerEarnings != 1950-wantSellerFee {
		t.Errorf("OwnerEarnings = %d, want %d", ev.OwnerEarnings, 1950-wantSellerFee)
	}
	if ev.TotalFee != wantSellerFee+50+25 {
		t.Errorf("TotalFee = %d, want %d", ev.TotalFee, wantSellerFee+50+25)
	}
	if ev.SettledAt != 2500 {
		t.Errorf("SettledAt = %d, want 2500", ev.SettledAt)
	}

	if env.mint.callCount() != 1 {
		t.Fatalf("mint calls = %d, want 1", env.mint.callCount())
	}
	mint := env.mint.lastCall()
	if mint.Winner != bob || mint.Seller != testOwner || mint.Amount != 1950 || mint.RoutingHint != "route-a" {
		t.Errorf("mint request = %+v", mint)
	}

	transfers := env.ledger.all()
	if len(transfers) != 2 {
		t.Fatalf("transfers = %d, want 2", len(transfers))
	}
	if transfers[0].To != testOwner || transfers[0].Amount != ev.OwnerEarnings {
		t.Errorf("owner payout = %+v", transfers[0])
	}
	if transfers[1].To != testFeeRcp || transfers[1].Amount != ev.TotalFee {
		t.Errorf("fee payout = %+v", transfers[1])
	}

	st, _ := env.engine.Status("listing-1")
	if !st.Ended {
		t.Errorf("auction not marked ended")
	}
	winner, err := env.engine.Winner("listing-1")
	if err != nil || winner != bob {
		t.Errorf("Winner() = %s, %v", winner, err)
	}

	if got := env.engine.ActiveAuctionsOf(testOwner); len(got) != 0 {
		t.Errorf("ActiveAuctionsOf() = %v, want empty", got)
	}
	if got := env.engine.PastAuctionsOf(testOwner); len(got) != 1 || got[0] != "listing-1" {
		t.Errorf("PastAuctionsOf() = %v, want [listing-1]", got)
	}
}

func TestEndAuction_Preconditions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.engine.InitializeAuction("listing-1", 100, 2000, testOwner, false, alice, 100, alice); err != nil {
		t.Fatalf("InitializeAuction() error = %v", err)
	}

	if _, err := env.engine.EndAuction(ctx, "missing", ""); !errors.Is(err, ErrListingNotFound) {
		t.Errorf("unknown listing error = %v, want %v", err, ErrListingNotFound)
	}

	// Still live.
	env.clock.Set(1999)
	if _, err := env.engine.EndAuction(ctx, "listing-1", ""); !errors.Is(err, ErrAuctionNotEnded) {
		t.Errorf("live auction error = %v, want %v", err, ErrAuctionNotEnded)
	}

	// Settle, then settle again.
	env.clock.Set(2000)
	if _, err := env.engine.EndAuction(ctx, "listing-1", ""); err != nil {
		t.Fatalf("EndAuction() error = %v", err)
	}
	if _, err := env.engine.EndAuction(ctx, "listing-1", ""); !errors.Is(err, ErrAuctionEnded) {
		t.Errorf("double settle error = %v, want %v", err, ErrAuctionEnded)
	}
	if env.mint.callCount() != 1 {
		t.Errorf("mint calls = %d after double settle, want 1", env.mint.callCount())
	}
}

// TestEndAuction_ExtensionMovesDeadline checks that a settlement at
// the original end time is rejected once a late bid has extended it.
func TestEndAuction_ExtensionMovesDeadline(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.engine.InitializeAuction("listing-1", 100, 2000, testOwner, false, alice, 100, alice); err != nil {
		t.Fatalf("InitializeAuction() error = %v", err)
	}
	env.clock.Set(1900)
	if err := env.engine.PlaceBid("listing-1", bob, 200, bob); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	env.clock.Set(2100)
	if _, err := env.engine.EndAuction(ctx, "listing-1", ""); !errors.Is(err, ErrAuctionNotEnded) {
		t.Errorf("settle before extended deadline error = %v, want %v", err, ErrAuctionNotEnded)
	}

	env.clock.Set(2300)
	if _, err := env.engine.EndAuction(ctx, "listing-1", ""); err != nil {
		t.Errorf("settle at extended deadline error = %v", err)
	}
}

func TestEndAuction_ExternalFailureRollsBack(t *testing.T) {
	cases := []struct {
		name string
		fail func(env *testEnv)
		heal func(env *testEnv)
	}{
		{
			name: "mint failure",
			fail: func(env *testEnv) { env.mint.failWith(errStubFailure) },
			heal: func(env *testEnv) { env.mint.failWith(nil) },
		},
		{
			name: "ledger failure",
			fail: func(env *testEnv) { env.ledger.failWith(errStubFailure) },
			heal: func(env *testEnv) { env.ledger.failWith(nil) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			ctx := context.Background()

			if err := env.engine.InitializeAuction("listing-1", 100, 2000, testOwner, false, alice, 100, alice); err != nil {
				t.Fatalf("InitializeAuction() error = %v", err)
			}
			if err := env.engine.PlaceBid("listing-1", bob, 300, bob); err != nil {
				t.Fatalf("PlaceBid() error = %v", err)
			}
			env.clock.Set(2500)

			before, _ := env.engine.Status("listing-1")
			tc.fail(env)

			_, err := env.engine.EndAuction(ctx, "listing-1", "")
			if !errors.Is(err, ErrExternalService) {
				t.Fatalf("EndAuction() error = %v, want %v", err, ErrExternalService)
			}

			after, _ := env.engine.Status("listing-1")
			if !reflect.DeepEqual(before, after) {
				t.Errorf("state changed across failed settlement:\nbefore %+v\nafter  %+v", before, after)
			}
			if after.Ended {
				t.Errorf("auction marked ended after failed settlement")
			}
			if got := env.engine.ActiveAuctionsOf(testOwner); len(got) != 1 {
				t.Errorf("ActiveAuctionsOf() = %v, want one entry", got)
			}
			if len(env.sink.ended) != 0 {
				t.Errorf("ended event emitted on failure")
			}

			// The settlement can be retried once the dependency heals.
			tc.heal(env)
			ev, err := env.engine.EndAuction(ctx, "listing-1", "")
			if err != nil {
				t.Fatalf("retry EndAuction() error = %v", err)
			}
			if ev.Winner != bob || ev.WinningBid != 300 {
				t.Errorf("retry event = %+v", ev)
			}
		})
	}
}

func TestEndAuction_Alien(t *testing.T) {
	env := newTestEnvWithFees(domain.FeeConfig{SellerFeePpt: 25, FeeRecipient: testFeeRcp})
	ctx := context.Background()

	if err := env.engine.InitializeAuction("listing-1", 100, 2000, testOwner, true, alice, 1000, alice); err != nil {
		t.Fatalf("InitializeAuction() error = %v", err)
	}
	if err := env.engine.PlaceBid("listing-1", bob, 2000, bob); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	env.clock.Set(2500)
	ev, err := env.engine.EndAuction(ctx, "listing-1", "")
	if err != nil {
		t.Fatalf("EndAuction() error = %v", err)
	}

	// Highest bid 2000, total contributed 3000. The alien path pays
	// out the total on top of the winning bid, each net of the 2.5%
	// seller fee.
	winFee := int64(2000 * 25 / 1000)
	alienFee := int64(3000 * 25 / 1000)
	if ev.OwnerEarnings != (2000-winFee)+(3000-alienFee) {
		t.Errorf("OwnerEarnings = %d, want %d", ev.OwnerEarnings, (2000-winFee)+(3000-alienFee))
	}
	if ev.TotalFee != winFee+alienFee {
		t.Errorf("TotalFee = %d, want %d", ev.TotalFee, winFee+alienFee)
	}
}

func TestEndAuction_MetadataContents(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.engine.InitializeAuction("listing-1", 100, 2000, testOwner, false, alice, 100, alice); err != nil {
		t.Fatalf("InitializeAuction() error = %v", err)
	}
	env.clock.Set(1500)
	if err := env.engine.PlaceBid("listing-1", bob, 400, bob); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	env.clock.Set(2500)
	if _, err := env.engine.EndAuction(ctx, "listing-1", ""); err != nil {
		t.Fatalf("EndAuction() error = %v", err)
	}

	want, err := BuildReceiptMetadata("listing-1", 400, 1500, testOwner, testEngine)
	if err != nil {
		t.Fatalf("BuildReceiptMetadata() error = %v", err)
	}
	if got := env.mint.lastCall().Metadata; got != want {
		t.Errorf("mint metadata = %q, want %q", got, want)
	}
}
