package cmd

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/Iron-Ham/lockable/internal/logging"
	"github.com/Iron-Ham/lockable/internal/registry"
	"github.com/Iron-Ham/lockable/internal/store"
)

// session bundles what a command needs: configuration, a logger, a
// registry built from the resource definitions and the claim-state store.
type session struct {
	cfg    *config.Config
	logger *logging.Logger
	reg    *registry.Registry
	store  *store.Store
}

// openSession loads the configuration and resource definitions. The
// registry starts without claims; call view or update to bring in the
// persisted state.
func openSession(opts ...registry.Option) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.File, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	defs, err := config.LoadDefinitions(cfg.Resources.File)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	reg, err := registry.New(defs, append([]registry.Option{registry.WithLogger(logger)}, opts...)...)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		reg:    reg,
		store:  store.New(cfg.State.Dir),
	}, nil
}

// Close releases the logger.
func (s *session) Close() error {
	return s.logger.Close()
}

// view restores the persisted claim state into the registry.
func (s *session) view(ctx context.Context) error {
	records, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.reg.Restore(records)
	return nil
}

// update restores the persisted claim state, runs fn and saves the result,
// holding the state lock throughout. The state is saved even when fn
// fails, so the committed part of an aborted batch survives.
func (s *session) update(ctx context.Context, fn func() error) error {
	var fnErr error
	err := s.store.Update(ctx, func(records []registry.ClaimRecord) ([]registry.ClaimRecord, error) {
		s.reg.Restore(records)
		fnErr = fn()
		return s.reg.Snapshot(), nil
	})
	if err != nil {
		return err
	}
	return fnErr
}
