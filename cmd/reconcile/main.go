package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mabuhotel/booking-backend/internal/booking"
	"github.com/mabuhotel/booking-backend/internal/bookingrequest"
	"github.com/mabuhotel/booking-backend/internal/config"
	"github.com/mabuhotel/booking-backend/internal/db"
	"github.com/mabuhotel/booking-backend/internal/reconcile"
)

// One-shot payment reconciliation sweep, suitable for cron or CI gating.
func main() {
	windowDays := flag.Int("window-days", 14, "how many days of records to scan")
	pendingTimeoutHours := flag.Int("pending-timeout-hours", 24, "age in hours before a pending record counts as stale")
	failOnIssue := flag.Bool("fail-on-issue", false, "exit non-zero when any issue is found")
	jsonOutput := flag.Bool("json", false, "emit the report as JSON instead of text")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	runner := reconcile.NewRunner(
		booking.NewPgxRepository(pool),
		bookingrequest.NewPgxRepository(pool),
	)

	result, err := runner.Run(ctx, reconcile.RunOptions{
		WindowDays:          *windowDays,
		PendingTimeoutHours: *pendingTimeoutHours,
	})
	if err != nil {
		log.Fatalf("failed to run payment reconciliation: %v", err)
	}

	if *jsonOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode report: %v", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Println(reconcile.FormatReport(result.Result))
	}

	if *failOnIssue && result.Summary.IssueCount > 0 {
		os.Exit(1)
	}
}
