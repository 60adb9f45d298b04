package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"ai-generation-platform/internal/config"
	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/repository"
	pg "ai-generation-platform/internal/infra/db/postgres"
)

// Grants credits to an account, for local testing and manual top-ups.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	accountID := flag.String("account", "", "account to credit")
	amount := flag.Int64("amount", 1000, "credits to grant")
	flag.Parse()

	if *accountID == "" {
		log.Fatal("-account is required")
	}
	if *amount <= 0 {
		log.Fatal("-amount must be positive")
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	ledger := pg.NewLedgerRepo(pool)
	txm := pg.NewTxManager(pool)

	var balance int64
	err = txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t := &model.CreditTransaction{
			ID:          uuid.NewString(),
			AccountID:   *accountID,
			Amount:      *amount,
			Type:        model.TransactionTypePurchase,
			Description: "Manual credit grant",
			ReferenceID: "seed_" + uuid.NewString(),
			CreatedAt:   time.Now().UTC(),
		}
		if err := ledger.Credit(ctx, tx, t); err != nil {
			return err
		}
		balance, err = ledger.Balance(ctx, tx, *accountID)
		return err
	})
	if err != nil {
		log.Fatalf("credit: %v", err)
	}
	fmt.Printf("credited %d to %s, new balance %d\n", *amount, *accountID, balance)
}
