package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
	"nft-auction-engine/internal/external"
	"nft-auction-engine/internal/notify"
	"nft-auction-engine/internal/observability"
)

// API exposes the auction engine over HTTP JSON.
type API struct {
	engine  *engine.Engine
	hub     *notify.Hub
	metrics *observability.Metrics
	logger  *log.Logger
}

// Routes registers all endpoints on a fresh mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auctions", a.instrument("initialize", a.handleInitialize))
	mux.HandleFunc("POST /auctions/bid", a.instrument("bid", a.handleBid))
	mux.HandleFunc("POST /auctions/settle", a.instrument("settle", a.handleSettle))
	mux.HandleFunc("POST /auctions/withdraw", a.instrument("withdraw", a.handleWithdraw))

	mux.HandleFunc("GET /auctions/status", a.instrument("status", a.handleStatus))
	mux.HandleFunc("GET /auctions/winner", a.instrument("winner", a.handleWinner))
	mux.HandleFunc("GET /auctions/bidders", a.instrument("bidders", a.handleLatestBidders))
	mux.HandleFunc("GET /auctions/user-bid", a.instrument("user_bid", a.handleUserBid))
	mux.HandleFunc("GET /auctions/of-bidder", a.instrument("of_bidder", a.handleBidsOfUser))
	mux.HandleFunc("GET /auctions/active", a.instrument("active", a.handleActive))
	mux.HandleFunc("GET /auctions/past", a.instrument("past", a.handlePast))
	mux.HandleFunc("GET /auctions/pending-withdrawals", a.instrument("pending_withdrawals", a.handlePendingWithdrawals))

	mux.HandleFunc("POST /admin/fees", a.instrument("admin_fees", a.handleSetFees))
	mux.HandleFunc("POST /admin/fee-recipient", a.instrument("admin_fee_recipient", a.handleSetFeeRecipient))
	mux.HandleFunc("POST /admin/pause", a.instrument("admin_pause", a.handleSetPaused))
	mux.HandleFunc("POST /admin/mint-target", a.instrument("admin_mint_target", a.handleSetMintTarget))

	mux.Handle("GET /ws", a.hub)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// instrument wraps a handler with request metrics.
func (a *API) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		a.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		a.metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(sw.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorResponse{Error: err.Error()})
}

// httpStatus maps engine errors to HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrListingExists):
		return http.StatusConflict
	case errors.Is(err, engine.ErrAuctionEnded),
		errors.Is(err, engine.ErrAuctionPaused),
		errors.Is(err, engine.ErrAuctionExpired),
		errors.Is(err, engine.ErrAuctionNotEnded),
		errors.Is(err, engine.ErrNothingToSettle),
		errors.Is(err, engine.ErrAlienAuction),
		errors.Is(err, engine.ErrHighestBidderCannotWithdraw),
		errors.Is(err, engine.ErrNoFundsToWithdraw):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// rejectionReason labels a bid rejection for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, engine.ErrBidNotCompetitive):
		return "not_competitive"
	case errors.Is(err, engine.ErrBidBelowMinimum):
		return "below_minimum"
	case errors.Is(err, engine.ErrAuctionExpired):
		return "expired"
	case errors.Is(err, engine.ErrAuctionPaused):
		return "paused"
	case errors.Is(err, engine.ErrAuctionEnded):
		return "ended"
	case errors.Is(err, engine.ErrOwnerCannotBid):
		return "owner"
	default:
		return "invalid"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// validIdentity checks a base58 identity field and reports the
// failure to the client.
func validIdentity(w http.ResponseWriter, field string, id domain.Identity) bool {
	if err := id.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: field + ": " + err.Error()})
		return false
	}
	return true
}

type initializeRequest struct {
	ListingKey string          `json:"listingKey"`
	MinimumBid int64           `json:"minimumBid"`
	EndTime    int64           `json:"endTime"`
	Owner      domain.Identity `json:"owner"`
	Alien      bool            `json:"alien"`
	Bidder     domain.Identity `json:"bidder"`
	PaidAmount int64           `json:"paidAmount"`
	Caller     domain.Identity `json:"caller"`
}

func (a *API) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validIdentity(w, "owner", req.Owner) || !validIdentity(w, "bidder", req.Bidder) || !validIdentity(w, "caller", req.Caller) {
		return
	}

	err := a.engine.InitializeAuction(req.ListingKey, req.MinimumBid, req.EndTime, req.Owner, req.Alien, req.Bidder, req.PaidAmount, req.Caller)
	if err != nil {
		a.metrics.RecordBidRejected(rejectionReason(err))
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"listingKey": req.ListingKey})
}

type bidRequest struct {
	ListingKey string          `json:"listingKey"`
	Bidder     domain.Identity `json:"bidder"`
	PaidAmount int64           `json:"paidAmount"`
	Caller     domain.Identity `json:"caller"`
}

func (a *API) handleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validIdentity(w, "bidder", req.Bidder) || !validIdentity(w, "caller", req.Caller) {
		return
	}

	if err := a.engine.PlaceBid(req.ListingKey, req.Bidder, req.PaidAmount, req.Caller); err != nil {
		a.metrics.RecordBidRejected(rejectionReason(err))
		a.writeError(w, err)
		return
	}
	amount, bidTime, err := a.engine.UserBid(req.ListingKey, req.Bidder)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cumulative": amount, "time": bidTime})
}

type settleRequest struct {
	ListingKey  string `json:"listingKey"`
	RoutingHint string `json:"routingHint"`
}

func (a *API) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := a.engine.EndAuction(r.Context(), req.ListingKey, req.RoutingHint)
	if err != nil {
		if errors.Is(err, engine.ErrExternalService) {
			a.metrics.SettlementFailures.WithLabelValues("external").Inc()
		} else {
			a.metrics.SettlementFailures.WithLabelValues("precondition").Inc()
		}
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type withdrawRequest struct {
	ListingKey string          `json:"listingKey"`
	Caller     domain.Identity `json:"caller"`
	Recipient  domain.Identity `json:"recipient"`
}

func (a *API) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validIdentity(w, "caller", req.Caller) {
		return
	}
	if !req.Recipient.IsZero() && !validIdentity(w, "recipient", req.Recipient) {
		return
	}

	amount, err := a.engine.Withdraw(r.Context(), req.ListingKey, req.Caller, req.Recipient)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := a.engine.Status(r.URL.Query().Get("listing"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleWinner(w http.ResponseWriter, r *http.Request) {
	winner, err := a.engine.Winner(r.URL.Query().Get("listing"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"winner": string(winner)})
}

func (a *API) handleLatestBidders(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n <= 0 {
		n = 10
	}
	bidders, err := a.engine.LatestBidders(r.URL.Query().Get("listing"), n)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidders)
}

func (a *API) handleUserBid(w http.ResponseWriter, r *http.Request) {
	amount, bidTime, err := a.engine.UserBid(r.URL.Query().Get("listing"), domain.Identity(r.URL.Query().Get("user")))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount, "time": bidTime})
}

func (a *API) handleBidsOfUser(w http.ResponseWriter, r *http.Request) {
	bids, err := a.engine.BidsOfUser(domain.Identity(r.URL.Query().Get("bidder")))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

func (a *API) handleActive(w http.ResponseWriter, r *http.Request) {
	keys := a.engine.ActiveAuctionsOf(domain.Identity(r.URL.Query().Get("owner")))
	writeJSON(w, http.StatusOK, keys)
}

func (a *API) handlePast(w http.ResponseWriter, r *http.Request) {
	keys := a.engine.PastAuctionsOf(domain.Identity(r.URL.Query().Get("owner")))
	writeJSON(w, http.StatusOK, keys)
}

func (a *API) handlePendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	amount := a.engine.PendingWithdrawals(domain.Identity(r.URL.Query().Get("actor")))
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

type setFeesRequest struct {
	Caller    domain.Identity `json:"caller"`
	BuyerPpt  int64           `json:"buyerPpt"`
	SellerPpt int64           `json:"sellerPpt"`
}

func (a *API) handleSetFees(w http.ResponseWriter, r *http.Request) {
	var req setFeesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.engine.SetFees(req.Caller, req.BuyerPpt, req.SellerPpt); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setFeeRecipientRequest struct {
	Caller    domain.Identity `json:"caller"`
	Recipient domain.Identity `json:"recipient"`
}

func (a *API) handleSetFeeRecipient(w http.ResponseWriter, r *http.Request) {
	var req setFeeRecipientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validIdentity(w, "recipient", req.Recipient) {
		return
	}
	if err := a.engine.SetFeeRecipient(req.Caller, req.Recipient); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setMintTargetRequest struct {
	Caller   domain.Identity `json:"caller"`
	Endpoint string          `json:"endpoint"`
}

func (a *API) handleSetMintTarget(w http.ResponseWriter, r *http.Request) {
	var req setMintTargetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "endpoint is required"})
		return
	}
	target := observability.NewInstrumentedMint(external.NewHTTPClient(req.Endpoint), a.metrics)
	if err := a.engine.SetMintTarget(req.Caller, target); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setPausedRequest struct {
	Caller     domain.Identity `json:"caller"`
	ListingKey string          `json:"listingKey"`
	Paused     bool            `json:"paused"`
}

func (a *API) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	var req setPausedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.engine.SetPaused(req.Caller, req.ListingKey, req.Paused); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
