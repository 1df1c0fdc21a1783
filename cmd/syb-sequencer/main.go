package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	dvotedb "github.com/vocdoni/davinci-node/db"
	dvotemetadb "github.com/vocdoni/davinci-node/db/metadb"

	"github.com/tokamak-network/syb-circuits/db/metadb"
	"github.com/tokamak-network/syb-circuits/log"
	"github.com/tokamak-network/syb-circuits/sequencer"
	"github.com/tokamak-network/syb-circuits/state"
	"github.com/tokamak-network/syb-circuits/storage"
)

// Services holds all the running services.
type Services struct {
	Storage   *storage.Storage
	State     *state.State
	Sequencer *sequencer.Sequencer
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output)
	log.Infow("starting syb-sequencer", "version", Version)

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}
	defer shutdownServices(services)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("received signal, shutting down", "signal", sig.String())
}

// setupServices initializes and starts all required services.
func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	services := &Services{}

	log.Infow("initializing storage", "datadir", cfg.Datadir, "type", cfg.DB.Type)
	storagedb, err := metadb.New(cfg.DB.Type, filepath.Join(cfg.Datadir, "storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage database: %w", err)
	}
	services.Storage = storage.New(storagedb)

	log.Infow("initializing graph state", "datadir", cfg.Datadir)
	statedb, err := dvotemetadb.New(dvotedb.TypePebble, filepath.Join(cfg.Datadir, "state"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state database: %w", err)
	}
	services.State, err = state.New(statedb, state.DefaultParams())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize graph state: %w", err)
	}
	root, err := services.State.RootAsBigInt()
	if err != nil {
		return nil, fmt.Errorf("failed to read state root: %w", err)
	}
	log.Infow("graph state loaded", "root", root.String())

	log.Infow("starting sequencer service", "batchTimeWindow", cfg.Batch.Time.String())
	services.Sequencer, err = sequencer.New(services.Storage, services.State, cfg.Batch.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to create sequencer: %w", err)
	}
	if err := services.Sequencer.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start sequencer service: %w", err)
	}

	log.Info("syb-sequencer is running, ready to process edges!")
	return services, nil
}

// shutdownServices gracefully shuts down all services in reverse order of
// startup.
func shutdownServices(services *Services) {
	if services == nil {
		return
	}
	if services.Sequencer != nil {
		if err := services.Sequencer.Stop(); err != nil {
			log.Warnw("failed to stop sequencer", "error", err.Error())
		}
	}
	if services.State != nil {
		if err := services.State.Close(); err != nil {
			log.Warnw("failed to close state", "error", err.Error())
		}
	}
	if services.Storage != nil {
		if err := services.Storage.Close(); err != nil {
			log.Warnw("failed to close storage", "error", err.Error())
		}
	}
}
