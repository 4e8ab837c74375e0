// usertier is an operations CLI for accounts: provisioning a user together
// with their balance ledger, changing a user's subscription tier, or
// crediting minutes outside the API surface.
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
	"github.com/joho/godotenv"

	"scribe/internal/account"
	"scribe/internal/adapter/repo"
	"scribe/internal/domain"
	"scribe/internal/infra"
	"scribe/internal/ledger"
)

func main() {
	var (
		provisionFlag bool
		subFlag       string
		emailFlag     string
		idFlag        string
		tierFlag      string
		creditFlag    int
	)

	flag.BoolVar(&provisionFlag, "provision", false, "create a new user and their ledger row")
	flag.StringVar(&subFlag, "sub", "", "auth subject for -provision")
	flag.StringVar(&emailFlag, "email", "", "email for -provision")
	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&tierFlag, "tier", "", "tier to assign (free, premium)")
	flag.IntVar(&creditFlag, "credit", 0, "minutes to credit on top of any tier change")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	tier := domain.Tier(strings.TrimSpace(strings.ToLower(tierFlag)))

	if provisionFlag {
		if strings.TrimSpace(subFlag) == "" {
			exitWithError(errors.New("-sub is required with -provision"))
		}
	} else {
		if userID == "" {
			exitWithError(errors.New("-id is required"))
		}
		if tier == "" && creditFlag <= 0 {
			exitWithError(errors.New("nothing to do: pass -tier and/or -credit"))
		}
	}
	if tier != "" && !tier.Valid() {
		exitWithError(fmt.Errorf("unsupported tier %q", tier))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "usertier").Logger()
	subs := repo.NewSubscriptionRepository(pool)
	svc := ledger.NewService(ledger.Options{
		Subscriptions: subs,
		Logger:        logger,
	})

	if provisionFlag {
		accounts := account.NewService(account.Options{
			Users:         repo.NewUserRepository(pool),
			Subscriptions: subs,
			Logger:        logger,
		})
		user, err := accounts.Provision(ctx, subFlag, emailFlag, tier)
		if err != nil {
			exitWithError(fmt.Errorf("failed to provision user: %w", err))
		}
		userID = user.ID
	}

	if !provisionFlag && tier != "" {
		if err := svc.ChangeTier(ctx, userID, tier); err != nil {
			exitWithError(fmt.Errorf("failed to change tier: %w", err))
		}
	}
	if creditFlag > 0 {
		if _, err := svc.Credit(ctx, userID, creditFlag); err != nil {
			exitWithError(fmt.Errorf("failed to credit minutes: %w", err))
		}
	}

	balance, err := svc.Snapshot(ctx, userID)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load ledger: %w", err))
	}

	fmt.Printf("User %s: tier=%s balance=%d expiry=%s\n",
		userID, balance.Tier, balance.BalanceMinutes, balance.ExpiresAt.Format("2006-01-02"))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
