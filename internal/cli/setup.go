package cli

import (
	"context"
	"fmt"

	"github.com/careops-labs/careboard/internal/adapter"
	"github.com/careops-labs/careboard/internal/config"
	"github.com/careops-labs/careboard/internal/dispatch"
	"github.com/careops-labs/careboard/internal/scenario"
	"github.com/careops-labs/careboard/internal/store"
)

// openEngine connects the configured analytical engine.
func openEngine(ctx context.Context, cfg *config.Config) (adapter.Adapter, error) {
	adapterCfg := adapter.Config{
		Type:     cfg.Engine.Type,
		Path:     cfg.Engine.Path,
		Host:     cfg.Engine.Host,
		Port:     cfg.Engine.Port,
		Database: cfg.Engine.Database,
		Username: cfg.Engine.User,
		Password: cfg.Engine.Password,
	}
	eng, err := adapter.New(adapterCfg, logger)
	if err != nil {
		return nil, err
	}
	if err := eng.Connect(ctx, adapterCfg); err != nil {
		return nil, fmt.Errorf("failed to connect %s engine: %w", cfg.Engine.Type, err)
	}
	return eng, nil
}

// openStore opens the metadata store and runs migrations.
func openStore(cfg *config.Config) (*store.Store, error) {
	st := store.New(logger)
	if err := st.Open(cfg.StorePath); err != nil {
		return nil, err
	}
	return st, nil
}

// newDispatcher wires the dispatcher from opened collaborators.
func newDispatcher(cfg *config.Config, eng adapter.Adapter, st *store.Store) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Config{
		Engine:    eng,
		Templates: st,
		Timeout:   cfg.QueryTimeout,
		Logger:    logger,
	})
}

// newBridge wires the optimization bridge.
func newBridge(cfg *config.Config, d *dispatch.Dispatcher) *scenario.Bridge {
	return scenario.New(scenario.Config{
		Snapshots:     d,
		Timeout:       cfg.Scenario.Timeout,
		MaxConcurrent: cfg.Scenario.MaxConcurrent,
		Logger:        logger,
	})
}
