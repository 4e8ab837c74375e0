// The worker periodically sweeps expired ledgers and applies the monthly
// allowance, so balances replenish even for users who never hit the API.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scribe/internal/adapter/repo"
	"scribe/internal/infra"
	"scribe/internal/ledger"
)

const sweepBatchSize = 500

type replenishWorker struct {
	ctx    context.Context
	subs   *repo.SubscriptionRepositoryPG
	svc    *ledger.Service
	logger infra.Logger
	poll   time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	subs := repo.NewSubscriptionRepository(pool)
	svc := ledger.NewService(ledger.Options{Subscriptions: subs, Logger: logger})

	worker := &replenishWorker{
		ctx:    ctx,
		subs:   subs,
		svc:    svc,
		logger: logger,
		poll:   cfg.ReplenishPoll,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *replenishWorker) Run() error {
	w.logger.Info().Dur("poll", w.poll).Msg("worker: started")
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	// Sweep once at startup before settling into the poll interval.
	w.sweep()
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *replenishWorker) sweep() {
	ids, err := w.subs.ListExpiredUserIDs(w.ctx, sweepBatchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: list expired ledgers failed")
		return
	}
	if len(ids) == 0 {
		return
	}
	replenished := 0
	for _, userID := range ids {
		applied, err := w.svc.ReplenishIfExpired(w.ctx, userID)
		if err != nil {
			w.logger.Error().Err(err).Str("user_id", userID).Msg("worker: replenish failed")
			continue
		}
		if applied {
			replenished++
		}
	}
	w.logger.Info().Int("candidates", len(ids)).Int("replenished", replenished).Msg("worker: sweep complete")
}
