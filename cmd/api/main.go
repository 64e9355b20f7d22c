package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/fastprodman/shopledger/internal/api"
	"github.com/fastprodman/shopledger/internal/infra/logging"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/infra/redisutil"
	pgidentities "github.com/fastprodman/shopledger/internal/repos/identities/postgres"
	pgreferrals "github.com/fastprodman/shopledger/internal/repos/referrals/postgres"
	pgsettings "github.com/fastprodman/shopledger/internal/repos/settings/postgres"
	"github.com/fastprodman/shopledger/internal/repos/tokens"
	pgtokens "github.com/fastprodman/shopledger/internal/repos/tokens/postgres"
	redistokens "github.com/fastprodman/shopledger/internal/repos/tokens/redis"
	pgtransactions "github.com/fastprodman/shopledger/internal/repos/transactions/postgres"
	pgwallets "github.com/fastprodman/shopledger/internal/repos/wallets/postgres"
	"github.com/fastprodman/shopledger/internal/services/auth"
	"github.com/fastprodman/shopledger/internal/services/ledger"
	"github.com/fastprodman/shopledger/internal/services/referral"
	"github.com/fastprodman/shopledger/internal/services/registration"
	"github.com/fastprodman/shopledger/internal/workers"
	"github.com/fastprodman/shopledger/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "shopledger-api")

	defaults, err := cfg.defaultSettings()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	shutdown := shutdownqueue.New()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdown.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdown.Add("postgres", func(context.Context) error { return db.Close() })

	cache, err := openTokenCache(ctx, cfg, shutdown)
	if err != nil {
		return err
	}

	// --- Services ---
	identities := pgidentities.New(db)
	ledgerSvc := ledger.New(db, pgwallets.New(db), pgtransactions.New(db))
	referralSvc := referral.New(
		db,
		identities,
		pgreferrals.New(db),
		pgsettings.New(db, defaults),
		ledgerSvc,
		referral.Config{CodeLength: cfg.Referral.CodeLength, LinkBaseURL: cfg.Referral.LinkBaseURL},
	)
	issuer := auth.New(pgtokens.New(db), cache, identities, auth.Config{
		TokenTTL:   cfg.Auth.TokenTTL,
		CacheTTL:   cfg.Redis.TokenCacheTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	accounts := registration.New(db, identities, issuer, referralSvc, ledgerSvc, referralSvc.Codes())

	// --- Workers ---
	if cfg.Workers.Enabled {
		err = startWorkers(ctx, cfg, referralSvc, ledgerSvc, issuer, shutdown)
		if err != nil {
			return err
		}
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewRouter(api.Services{
		Accounts:  accounts,
		Auth:      issuer,
		Wallets:   ledgerSvc,
		Referrals: referralSvc,
	}, cfg.CORSOrigins))

	shutdown.Add("http", srv.Shutdown)

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// openTokenCache connects Redis when configured. A nil cache sends every
// token lookup to Postgres.
func openTokenCache(ctx context.Context, cfg *apiConfig, shutdown *shutdownqueue.Queue) (tokens.Cache, error) {
	client, err := redisutil.Connect(ctx, cfg.Redis)
	if errors.Is(err, redisutil.ErrDisabled) {
		slog.Info("token cache disabled")
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	shutdown.Add("redis", func(context.Context) error { return closeRedis(client) })

	return redistokens.New(client), nil
}

func closeRedis(c *redis.Client) error {
	err := c.Close()
	if err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}

func startWorkers(
	ctx context.Context,
	cfg *apiConfig,
	rewards workers.RewardRetrier,
	reconciler workers.Reconciler,
	purger workers.TokenPurger,
	shutdown *shutdownqueue.Queue,
) error {
	sched, err := workers.NewScheduler(ctx, workers.Jobs{
		Rewards:    rewards,
		Reconciler: reconciler,
		Tokens:     purger,
		Config:     cfg.Workers,
	})
	if err != nil {
		return fmt.Errorf("init workers: %w", err)
	}

	sched.Start()
	shutdown.Add("workers", sched.Shutdown)

	return nil
}
