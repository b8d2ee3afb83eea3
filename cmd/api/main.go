package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/config"
	"hav/internal/database"
	"hav/internal/deploy"
	"hav/internal/ledger"
	"hav/internal/server"
	"hav/internal/ws"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetLevel(cfg.LogLevel)
	if cfg.Env != "dev" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
}

// run returns only after every opened resource has been released.
func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openAccounts(ctx, cfg, log, database.Connect)
	if err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	defer closeStore()

	deployer, err := accounts.Select(ctx, store, cfg.Network, cfg.Wallet)
	if err != nil {
		return fmt.Errorf("select deployer: %w", err)
	}

	hub := ws.NewHub(log.WithField("component", "ws"))
	go hub.Run(ctx)

	inst, err := deploy.Deploy(deployer.Address, 0,
		deploy.NewAddressLog(cfg.DeployLog, cfg.ExplorerLink),
		log.WithField("component", "ledger"),
		ledger.WithRequiredFee(cfg.RoomFee),
		ledger.WithObserver(hub),
	)
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}

	srv := server.NewServer(cfg.Addr(), inst.Ledger, inst.Address, store, hub, cfg.JWTSecret, cfg.JWTTTLHrs, log)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

type connectFunc func(ctx context.Context, dsn string, log logrus.FieldLogger) (*sql.DB, error)

// openAccounts uses MySQL when DB_DSN is set, otherwise funded in-memory
// development accounts. The returned func releases the store.
func openAccounts(ctx context.Context, cfg *config.Config, log *logrus.Logger, connect connectFunc) (accounts.Store, func(), error) {
	if cfg.DSN == "" {
		log.WithField("accounts", cfg.DevAccounts).Info("using in-memory development accounts")
		return accounts.NewMemoryStore(accounts.DevAccounts(cfg.DevAccounts, accounts.DevBalance)...), func() {}, nil
	}

	db, err := connect(ctx, cfg.DSN, log)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("close database")
		}
	}
	if err := database.RunMigrations(ctx, db, "migrations", log); err != nil {
		closeDB()
		return nil, nil, err
	}
	store := accounts.NewMySQLStore(db)
	if cfg.Network == accounts.DevelopmentNetwork {
		if err := accounts.Seed(ctx, store, accounts.DevAccounts(cfg.DevAccounts, accounts.DevBalance)); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	return store, closeDB, nil
}
