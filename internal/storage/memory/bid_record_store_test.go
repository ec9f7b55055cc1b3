package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

func TestBidRecordStore_InsertAndGet(t *testing.T) {
	store := NewBidRecordStore()
	ctx := context.Background()

	r := &domain.BidRecord{
		ListingKey: "listing-1",
		Bidder:     "bidderA",
		Paid:       1000,
		Fee:        10,
		Net:        990,
		Cumulative: 990,
		BidTime:    1704067200,
	}

	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByListingKey(ctx, "listing-1")
	if err != nil {
		t.Fatalf("GetByListingKey failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	if got[0].Bidder != "bidderA" {
		t.Errorf("Bidder mismatch: got %s, want bidderA", got[0].Bidder)
	}
	if got[0].ID == 0 {
		t.Error("Expected assigned ID, got 0")
	}
}

func TestBidRecordStore_InvalidInput(t *testing.T) {
	store := NewBidRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil record, got %v", err)
	}
	if err := store.Insert(ctx, &domain.BidRecord{Bidder: "b"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing listing key, got %v", err)
	}
}

func TestBidRecordStore_GetByBidder(t *testing.T) {
	store := NewBidRecordStore()
	ctx := context.Background()

	records := []*domain.BidRecord{
		{ListingKey: "l1", Bidder: "alice", Net: 100, Cumulative: 100, BidTime: 3000},
		{ListingKey: "l2", Bidder: "alice", Net: 200, Cumulative: 200, BidTime: 1000},
		{ListingKey: "l1", Bidder: "bob", Net: 150, Cumulative: 150, BidTime: 2000},
	}
	for _, r := range records {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByBidder(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByBidder failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	// Ordered by bid time ASC
	if got[0].ListingKey != "l2" || got[1].ListingKey != "l1" {
		t.Errorf("Wrong order: got %s, %s", got[0].ListingKey, got[1].ListingKey)
	}
}

func TestBidRecordStore_GetByTimeRange(t *testing.T) {
	store := NewBidRecordStore()
	ctx := context.Background()

	for _, bt := range []int64{1000, 2000, 3000, 4000} {
		r := &domain.BidRecord{ListingKey: "l1", Bidder: "alice", Net: 100, BidTime: bt}
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTimeRange(ctx, "l1", 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records in range, got %d", len(got))
	}
	if got[0].BidTime != 2000 || got[1].BidTime != 3000 {
		t.Errorf("Wrong records: %d, %d", got[0].BidTime, got[1].BidTime)
	}
}

func TestBidRecordStore_ConcurrentInsert(t *testing.T) {
	store := NewBidRecordStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := &domain.BidRecord{ListingKey: "l1", Bidder: "alice", Net: 1, BidTime: 1}
			if err := store.Insert(ctx, r); err != nil {
				t.Errorf("Insert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.GetByListingKey(ctx, "l1")
	if err != nil {
		t.Fatalf("GetByListingKey failed: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("Expected 20 records, got %d", len(got))
	}

	// IDs must be unique
	seen := make(map[int64]struct{})
	for _, r := range got {
		if _, dup := seen[r.ID]; dup {
			t.Errorf("Duplicate ID %d", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
}
