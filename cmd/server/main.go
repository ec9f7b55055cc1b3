// Package main runs the auction engine as a unified server:
// - HTTP JSON API for auction operations and queries
// - WebSocket feed of engine events
// - write-behind journal into PostgreSQL and ClickHouse
// - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
	"nft-auction-engine/internal/external"
	"nft-auction-engine/internal/external/stub"
	"nft-auction-engine/internal/journal"
	"nft-auction-engine/internal/notify"
	"nft-auction-engine/internal/observability"
	chstore "nft-auction-engine/internal/storage/clickhouse"
	memstore "nft-auction-engine/internal/storage/memory"
	"nft-auction-engine/internal/storage/migrations"
	pgstore "nft-auction-engine/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	mintEndpoint := flag.String("mint-endpoint", os.Getenv("MINT_ENDPOINT"), "Ownership-transfer service endpoint (empty: in-process stub)")
	ledgerEndpoint := flag.String("ledger-endpoint", os.Getenv("LEDGER_ENDPOINT"), "Ledger service endpoint (empty: in-process stub)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the journal")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for bid analytics")
	useMemory := flag.Bool("use-memory", false, "Use in-memory journal storage instead of PostgreSQL/ClickHouse")
	adminID := flag.String("admin", os.Getenv("AUCTION_ADMIN"), "Administrator identity (base58)")
	selfID := flag.String("self", os.Getenv("AUCTION_SELF"), "Engine identity used as metadata minter (base58)")
	feeRecipient := flag.String("fee-recipient", os.Getenv("FEE_RECIPIENT"), "Platform fee recipient identity (base58)")
	buyerFeePpt := flag.Int64("buyer-fee-ppt", 0, "Buyer-side fee in parts-per-thousand")
	sellerFeePpt := flag.Int64("seller-fee-ppt", 0, "Seller-side fee in parts-per-thousand")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *selfID == "" {
		logger.Fatal("--self is required")
	}
	if *feeRecipient == "" && (*buyerFeePpt > 0 || *sellerFeePpt > 0) {
		logger.Fatal("--fee-recipient is required when fee rates are set")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory journal)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Journal stores.
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// External services.
	mint, ledger := createExternalServices(*mintEndpoint, *ledgerEndpoint, logger)

	// Event sinks.
	metrics := observability.NewMetrics("")
	recorder := journal.NewRecorder(stores, journal.WithLogger(log.New(os.Stdout, "[journal] ", log.LstdFlags)))
	defer recorder.Close()
	hub := notify.NewHub(log.New(os.Stdout, "[notify] ", log.LstdFlags))

	eng := engine.New(engine.Options{
		Mint:   observability.NewInstrumentedMint(mint, metrics),
		Ledger: observability.NewInstrumentedLedger(ledger, metrics),
		Admin:  domain.Identity(*adminID),
		Self:   domain.Identity(*selfID),
		Fees: domain.FeeConfig{
			BuyerFeePpt:  *buyerFeePpt,
			SellerFeePpt: *sellerFeePpt,
			FeeRecipient: domain.Identity(*feeRecipient),
		},
		Sinks:  []domain.EventSink{recorder, hub, observability.NewCollector(metrics)},
		Logger: log.New(os.Stdout, "[engine] ", log.LstdFlags),
	})

	api := &API{engine: eng, hub: hub, metrics: metrics, logger: logger}

	// Sample gauge-style metrics periodically.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		var lastDropped uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.WSSubscribers.Set(float64(hub.Subscribers()))
				metrics.UptimeSeconds.Add(15)
				if d := recorder.Dropped(); d > lastDropped {
					metrics.JournalEventsDropped.Add(float64(d - lastDropped))
					lastDropped = d
				}
			}
		}
	}()

	server := &http.Server{
		Addr:         *listenAddr,
		Handler:      api.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores creates the journal stores, running migrations for the
// database-backed mode.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (journal.Stores, func(), error) {
	if useMemory {
		stores := journal.Stores{
			Bids:        memstore.NewBidRecordStore(),
			Settlements: memstore.NewSettlementStore(),
			Timeseries:  memstore.NewBidTimeseriesStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return journal.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return journal.Stores{}, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return journal.Stores{}, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := journal.Stores{
		Bids:        pgstore.NewBidRecordStore(pool),
		Settlements: pgstore.NewSettlementStore(pool),
		Timeseries:  chstore.NewBidTimeseriesStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// createExternalServices wires the mint and ledger clients. Missing
// endpoints fall back to in-process stubs for standalone runs.
func createExternalServices(mintEndpoint, ledgerEndpoint string, logger *log.Logger) (engine.OwnershipTransfer, engine.Ledger) {
	var mint engine.OwnershipTransfer
	var ledger engine.Ledger

	fallback := stub.NewServices()
	if mintEndpoint != "" {
		mint = external.NewHTTPClient(mintEndpoint)
	} else {
		logger.Println("No --mint-endpoint, using in-process stub")
		mint = fallback
	}
	if ledgerEndpoint != "" {
		ledger = external.NewHTTPClient(ledgerEndpoint)
	} else {
		logger.Println("No --ledger-endpoint, using in-process stub")
		ledger = fallback
	}
	return mint, ledger
}

// envOr returns the environment value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
