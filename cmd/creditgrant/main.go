// Command creditgrant tops up an account's credit balance. Grants are
// journaled like any other ledger movement.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"adstudio/internal/credits"
	"adstudio/internal/infra"
)

func main() {
	var (
		accountFlag string
		amountFlag  int
		reasonFlag  string
	)
	flag.StringVar(&accountFlag, "account", "", "account ID to credit (UUID)")
	flag.IntVar(&amountFlag, "amount", 0, "number of credits to grant")
	flag.StringVar(&reasonFlag, "reason", "manual grant", "journal reason for the grant")
	flag.Parse()

	accountID := strings.TrimSpace(accountFlag)
	if accountID == "" {
		exitWithError(errors.New("-account is required"))
	}
	if amountFlag <= 0 {
		exitWithError(errors.New("-amount must be positive"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "creditgrant").Logger()
	ledger := credits.NewPGLedger(infra.NewSQLRunner(pool, logger))

	grantCtx, cancelGrant := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelGrant()
	balance, err := ledger.Grant(grantCtx, accountID, amountFlag, reasonFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to grant credits: %w", err))
	}

	fmt.Printf("Granted %d credits to %s (new balance %d)\n", amountFlag, accountID, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
