package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"kirana-oms/internal/audit"
	"kirana-oms/internal/config"
	"kirana-oms/internal/db"
	"kirana-oms/internal/logger"
)

// Scans the movement ledger for order lines deducted more than once and
// prints a report. Read-only; exits 1 when findings exist so it can gate a
// cron alert.
func main() {
	window := flag.Duration("window", 7*24*time.Hour, "how far back to scan movements")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	scanner := audit.NewScanner(database)

	findings, err := scanner.Scan(context.Background(), time.Now().Add(-*window))
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(2)
	}

	if len(findings) == 0 {
		fmt.Println("no over-deductions found")
		return
	}

	fmt.Printf("%-38s %-38s %-14s %8s %8s\n", "ORDER", "PRODUCT", "VARIANT", "ORDERED", "DEDUCTED")
	for _, f := range findings {
		fmt.Printf("%-38s %-38s %-14s %8d %8d\n",
			f.OrderID, f.ProductID, f.VariantID, f.OrderedQty, f.DeductedQty)
	}
	os.Exit(1)
}
