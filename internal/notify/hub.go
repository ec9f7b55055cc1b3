// Package notify streams engine events to WebSocket subscribers.
package notify

import (
	"encoding/json"
	"io"
	"log"
	"sync"

	"nft-auction-engine/internal/domain"
)

// Envelope is the wire frame sent to subscribers.
type Envelope struct {
	Type       string      `json:"type"`
	ListingKey string      `json:"listingKey"`
	Payload    interface{} `json:"payload"`
}

// client is one connected subscriber. An empty listing subscribes to
// everything.
type client struct {
	send    chan []byte
	listing string
}

// Hub fans engine events out to connected WebSocket clients. It is a
// domain.EventSink; slow clients skip frames rather than blocking the
// rest.
type Hub struct {
	logger *log.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	skipped uint64
}

var _ domain.EventSink = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// AuctionInitialized implements domain.EventSink.
func (h *Hub) AuctionInitialized(e domain.AuctionInitialized) {
	h.broadcast(domain.EventAuctionInitialized, e.ListingKey, e)
}

// BidPlaced implements domain.EventSink.
func (h *Hub) BidPlaced(e domain.BidPlaced) {
	h.broadcast(domain.EventBidPlaced, e.ListingKey, e)
}

// AuctionEnded implements domain.EventSink.
func (h *Hub) AuctionEnded(e domain.AuctionEnded) {
	h.broadcast(domain.EventAuctionEnded, e.ListingKey, e)
}

// FundsWithdrawn implements domain.EventSink.
func (h *Hub) FundsWithdrawn(e domain.FundsWithdrawn) {
	h.broadcast(domain.EventFundsWithdrawn, e.ListingKey, e)
}

func (h *Hub) broadcast(eventType, listingKey string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: eventType, ListingKey: listingKey, Payload: payload})
	if err != nil {
		h.logger.Printf("notify: marshal %s: %v", eventType, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.listing != "" && c.listing != listingKey {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.skipped++
		}
	}
}

// Subscribers returns the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
