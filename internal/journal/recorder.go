// Package journal persists engine events into durable storage: one
// row per accepted bid and per settlement in PostgreSQL, and a
// highest-bid timeseries in ClickHouse. Writes happen on a background
// worker so a slow or failing database never blocks an auction
// transaction; a full buffer drops events and counts the loss.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/idhash"
	"nft-auction-engine/internal/storage"
)

// Default configuration values.
const (
	DefaultBufferSize    = 1024
	DefaultFlushInterval = 5 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
)

// Stores groups the journal's storage backends. Any of them may be
// nil, in which case the corresponding records are not persisted.
type Stores struct {
	Bids        storage.BidRecordStore
	Settlements storage.SettlementStore
	Timeseries  storage.BidTimeseriesStore
}

// Recorder implements domain.EventSink by journaling events through a
// background worker.
type Recorder struct {
	stores        Stores
	logger        *log.Logger
	flushInterval time.Duration
	writeTimeout  time.Duration

	events  chan interface{}
	wg      sync.WaitGroup
	dropped atomic.Uint64

	// Worker-local state, touched only by the run goroutine.
	biddersByListing map[string]map[string]struct{}
	batch            []*domain.BidTimeseriesPoint
}

var _ domain.EventSink = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithBufferSize sets the event buffer size.
func WithBufferSize(n int) RecorderOption {
	return func(r *Recorder) {
		r.events = make(chan interface{}, n)
	}
}

// WithFlushInterval sets how often buffered timeseries points are
// flushed.
func WithFlushInterval(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.flushInterval = d
	}
}

// WithWriteTimeout bounds each storage write.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.writeTimeout = d
	}
}

// NewRecorder creates a journal recorder and starts its worker.
func NewRecorder(stores Stores, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		stores:           stores,
		logger:           log.New(io.Discard, "", 0),
		flushInterval:    DefaultFlushInterval,
		writeTimeout:     DefaultWriteTimeout,
		events:           make(chan interface{}, DefaultBufferSize),
		biddersByListing: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.run()
	return r
}

// Close flushes pending work and stops the worker. The engine must
// have stopped emitting before Close is called.
func (r *Recorder) Close() {
	close(r.events)
	r.wg.Wait()
}

// Dropped returns how many events were discarded because the buffer
// was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// AuctionInitialized implements domain.EventSink.
func (r *Recorder) AuctionInitialized(e domain.AuctionInitialized) {
	r.enqueue(e)
}

// BidPlaced implements domain.EventSink.
func (r *Recorder) BidPlaced(e domain.BidPlaced) {
	r.enqueue(e)
}

// AuctionEnded implements domain.EventSink.
func (r *Recorder) AuctionEnded(e domain.AuctionEnded) {
	r.enqueue(e)
}

// FundsWithdrawn implements domain.EventSink.
func (r *Recorder) FundsWithdrawn(e domain.FundsWithdrawn) {
	r.enqueue(e)
}

func (r *Recorder) enqueue(ev interface{}) {
	select {
	case r.events <- ev:
	default:
		r.dropped.Add(1)
		r.logger.Printf("journal: buffer full, event dropped (%T)", ev)
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-r.events:
			if !ok {
				r.flushTimeseries()
				return
			}
			r.handle(ev)
		case <-ticker.C:
			r.flushTimeseries()
		}
	}
}

func (r *Recorder) handle(ev interface{}) {
	switch e := ev.(type) {
	case domain.AuctionInitialized:
		r.biddersByListing[e.ListingKey] = make(map[string]struct{})
	case domain.BidPlaced:
		r.recordBid(e)
	case domain.AuctionEnded:
		r.recordSettlement(e)
		delete(r.biddersByListing, e.ListingKey)
	case domain.FundsWithdrawn:
		// Withdrawals release journaled funds; the bid rows stay as
		// the historical record.
	default:
		r.logger.Printf("journal: unknown event %T", ev)
	}
}

func (r *Recorder) recordBid(e domain.BidPlaced) {
	bidders, ok := r.biddersByListing[e.ListingKey]
	if !ok {
		bidders = make(map[string]struct{})
		r.biddersByListing[e.ListingKey] = bidders
	}
	bidders[string(e.Bidder)] = struct{}{}

	if r.stores.Bids != nil {
		rec := &domain.BidRecord{
			ListingKey: e.ListingKey,
			Bidder:     string(e.Bidder),
			Paid:       e.Paid,
			Fee:        e.Fee,
			Net:        e.Net,
			Cumulative: e.Cumulative,
			BidTime:    e.Time,
			CreatedAt:  time.Now().Unix(),
		}
		if err := r.write(func(ctx context.Context) error {
			return r.stores.Bids.Insert(ctx, rec)
		}); err != nil {
			r.logger.Printf("journal: insert bid record for %s: %v", e.ListingKey, err)
		}
	}

	if r.stores.Timeseries != nil {
		r.batch = append(r.batch, &domain.BidTimeseriesPoint{
			ListingKey: e.ListingKey,
			Timestamp:  e.Time,
			HighestBid: e.Cumulative,
			Bidder:     string(e.Bidder),
			BidCount:   len(bidders),
		})
	}
}

func (r *Recorder) recordSettlement(e domain.AuctionEnded) {
	if r.stores.Settlements == nil {
		return
	}

	rec := &domain.SettlementRecord{
		ReceiptID:     idhash.ComputeReceiptID(e.ListingKey, string(e.Winner), e.WinningBid, e.SettledAt),
		ListingKey:    e.ListingKey,
		Winner:        string(e.Winner),
		WinningBid:    e.WinningBid,
		OwnerEarnings: e.OwnerEarnings,
		TotalFee:      e.TotalFee,
		SettledAt:     e.SettledAt,
		CreatedAt:     time.Now().Unix(),
	}
	err := r.write(func(ctx context.Context) error {
		return r.stores.Settlements.Insert(ctx, rec)
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		// A replayed settlement event lands on the same receipt ID.
		return
	}
	if err != nil {
		r.logger.Printf("journal: insert settlement for %s: %v", e.ListingKey, err)
	}
}

// flushTimeseries writes the buffered points in one batch, keeping
// the last observation per (listing, timestamp) since the analytics
// table rejects duplicates.
func (r *Recorder) flushTimeseries() {
	if r.stores.Timeseries == nil || len(r.batch) == 0 {
		return
	}

	seen := make(map[string]int, len(r.batch))
	deduped := make([]*domain.BidTimeseriesPoint, 0, len(r.batch))
	for _, p := range r.batch {
		key := fmt.Sprintf("%s|%d", p.ListingKey, p.Timestamp)
		if i, ok := seen[key]; ok {
			deduped[i] = p
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, p)
	}

	if err := r.write(func(ctx context.Context) error {
		return r.stores.Timeseries.InsertBulk(ctx, deduped)
	}); err != nil {
		r.logger.Printf("journal: flush %d timeseries points: %v", len(deduped), err)
	}
	r.batch = r.batch[:0]
}

func (r *Recorder) write(op func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()
	return op(ctx)
}
