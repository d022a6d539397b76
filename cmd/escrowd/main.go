package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tonescrow/config"
	"tonescrow/core/events"
	"tonescrow/observability"
	"tonescrow/observability/logging"
	"tonescrow/rpc"
	"tonescrow/storage"
	"tonescrow/vm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "escrowd.toml", "path to the service configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("escrowd", cfg.Environment)

	var db storage.Database
	if cfg.DataDir != "" {
		db, err = storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("open storage", "error", err)
			os.Exit(1)
		}
	} else {
		db = storage.NewMemDB()
	}
	defer db.Close()

	sandbox, err := openSandbox(cfg, db, logger)
	if err != nil {
		logger.Error("open sandbox", "error", err)
		os.Exit(1)
	}

	history := events.NewMemoryEmitter()
	sandbox.Engine().SetEmitter(history)
	sandbox.SetObserver(func(op, outcome string) {
		observability.Messages().Observe(op, outcome)
	})

	server := rpc.NewServer(sandbox, history, logger)
	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("escrowd listening", "address", cfg.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down escrowd")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// openSandbox resumes a persisted account when one exists; otherwise it
// deploys the configured deal into a fresh account.
func openSandbox(cfg *config.Config, db storage.Database, logger *slog.Logger) (*vm.Sandbox, error) {
	addr, err := cfg.Deal.ContractAddr()
	if err != nil {
		return nil, err
	}
	snap, ok, err := storage.LoadSnapshot(db, addr.String())
	if err != nil {
		return nil, err
	}
	var sandbox *vm.Sandbox
	if ok {
		logger.Info("resuming deal account", "address", addr.String())
		sandbox, err = vm.Restore(addr, snap)
	} else {
		deal, dealErr := cfg.Deal.Deal()
		if dealErr != nil {
			return nil, dealErr
		}
		balance, balErr := cfg.Deal.InitialBalanceAmount()
		if balErr != nil {
			return nil, balErr
		}
		logger.Info("deploying deal account",
			"address", addr.String(),
			"contextId", deal.ContextID,
			"amount", deal.Amount.String())
		sandbox, err = vm.NewSandbox(addr, deal, balance)
	}
	if err != nil {
		return nil, err
	}
	if err := sandbox.AttachStore(db); err != nil {
		return nil, err
	}
	return sandbox, nil
}
