// Command server runs the chat-completions gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotorgate/rotorgate/internal/api"
	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/config"
	"github.com/rotorgate/rotorgate/internal/executor"
	"github.com/rotorgate/rotorgate/internal/logging"
	"github.com/rotorgate/rotorgate/internal/registry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env loaded: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogDir)

	store := auth.NewFileStore(cfg.AccountsFile)
	accounts, errLoad := store.Load()
	if errLoad != nil {
		log.Fatalf("load accounts: %v", errLoad)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{}
	lifecycle := auth.NewLifecycle(store, client)
	lifecycle.RefreshAll(ctx, accounts)
	pool := auth.NewPool(accounts)
	for provider, count := range pool.Counts() {
		log.Infof("loaded %d active account(s) for %s", count, provider)
	}

	executors := map[registry.Provider]executor.Executor{
		registry.ProviderAntigravity: executor.NewAntigravityExecutor(client),
		registry.ProviderCodex:       executor.NewCodexExecutor(client),
	}
	server := api.NewServer(cfg.Addr(), registry.Default(), pool, store, lifecycle, executors)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(server.Run)
	if cfg.WatchAccounts {
		watcher := auth.NewWatcher(store, pool)
		group.Go(func() error {
			if errWatch := watcher.Run(groupCtx); errWatch != nil && !errors.Is(errWatch, context.Canceled) {
				log.Warnf("account watcher stopped: %v", errWatch)
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if errWait := group.Wait(); errWait != nil && !errors.Is(errWait, context.Canceled) {
		log.Fatalf("gateway exited: %v", errWait)
	}
	log.Info("gateway stopped")
}
