// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nft-auction-engine/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Auction metrics
	AuctionsInitialized prometheus.Counter
	AuctionsSettled     prometheus.Counter
	BidsAccepted        prometheus.Counter
	BidsRejected        *prometheus.CounterVec
	WithdrawalsTotal    prometheus.Counter
	WithdrawnAmount     prometheus.Counter
	ActiveAuctions      prometheus.Gauge

	// Settlement metrics
	SettlementFailures *prometheus.CounterVec
	OwnerEarningsPaid  prometheus.Counter
	FeesCollected      prometheus.Counter

	// External service metrics
	ExternalCallLatency *prometheus.HistogramVec
	ExternalCallErrors  *prometheus.CounterVec

	// Journal metrics
	JournalEventsDropped prometheus.Counter

	// API metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// Health metrics
	WSSubscribers prometheus.Gauge
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "auction_engine"
	}

	return &Metrics{
		AuctionsInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "initialized_total",
			Help:      "Total number of auctions opened",
		}),
		AuctionsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "settled_total",
			Help:      "Total number of auctions settled",
		}),
		BidsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "bids_accepted_total",
			Help:      "Total number of accepted bids",
		}),
		BidsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "bids_rejected_total",
			Help:      "Total number of rejected bids by reason",
		}, []string{"reason"}),
		WithdrawalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "withdrawals_total",
			Help:      "Total number of completed withdrawals",
		}),
		WithdrawnAmount: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "withdrawn_amount_total",
			Help:      "Total amount of funds released to bidders",
		}),
		ActiveAuctions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "active",
			Help:      "Number of auctions currently open",
		}),

		SettlementFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "failures_total",
			Help:      "Total number of failed settlement attempts by stage",
		}, []string{"stage"}),
		OwnerEarningsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "owner_earnings_total",
			Help:      "Total amount paid out to auction owners",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "fees_collected_total",
			Help:      "Total amount of platform fees collected",
		}),

		ExternalCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_latency_seconds",
			Help:      "External service call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method"}),
		ExternalCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_errors_total",
			Help:      "Total number of external service call errors",
		}, []string{"service", "method"}),

		JournalEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "events_dropped_total",
			Help:      "Total number of journal events dropped on a full buffer",
		}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		}, []string{"endpoint", "status"}),

		WSSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "ws_subscribers",
			Help:      "Number of connected WebSocket subscribers",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Collector feeds auction counters from engine events. It implements
// domain.EventSink.
type Collector struct {
	m *Metrics
}

var _ domain.EventSink = (*Collector)(nil)

// NewCollector creates an event sink updating the given metrics.
func NewCollector(m *Metrics) *Collector {
	return &Collector{m: m}
}

// AuctionInitialized implements domain.EventSink.
func (c *Collector) AuctionInitialized(_ domain.AuctionInitialized) {
	c.m.AuctionsInitialized.Inc()
	c.m.ActiveAuctions.Inc()
}

// BidPlaced implements domain.EventSink.
func (c *Collector) BidPlaced(_ domain.BidPlaced) {
	c.m.BidsAccepted.Inc()
}

// AuctionEnded implements domain.EventSink.
func (c *Collector) AuctionEnded(e domain.AuctionEnded) {
	c.m.AuctionsSettled.Inc()
	c.m.ActiveAuctions.Dec()
	c.m.OwnerEarningsPaid.Add(float64(e.OwnerEarnings))
	c.m.FeesCollected.Add(float64(e.TotalFee))
}

// FundsWithdrawn implements domain.EventSink.
func (c *Collector) FundsWithdrawn(e domain.FundsWithdrawn) {
	c.m.WithdrawalsTotal.Inc()
	c.m.WithdrawnAmount.Add(float64(e.Amount))
}

// RecordBidRejected increments the rejection counter for a reason
// label such as "not_competitive" or "below_minimum".
func (m *Metrics) RecordBidRejected(reason string) {
	m.BidsRejected.WithLabelValues(reason).Inc()
}

// RecordExternalCall records latency and outcome of an external
// service call.
func (m *Metrics) RecordExternalCall(service, method string, seconds float64, err error) {
	m.ExternalCallLatency.WithLabelValues(service, method).Observe(seconds)
	if err != nil {
		m.ExternalCallErrors.WithLabelValues(service, method).Inc()
	}
}
