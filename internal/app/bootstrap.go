// Package app assembles the client: configuration, logging, storage, the
// session-scoped ledger clients and the orchestration core.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
	"github.com/unchain-tech/icp-basic-dex/internal/infra"
	"github.com/unchain-tech/icp-basic-dex/internal/infra/agent"
	"github.com/unchain-tech/icp-basic-dex/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config   *infra.Config
	Registry *domain.Registry
	Storage  *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logger, asset
// registry and the local activity journal.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Build the asset registry from configuration
	registry, err := domain.NewRegistry(cfg.RegistryAssets())
	if err != nil {
		return fmt.Errorf("asset registry: %w", err)
	}
	b.Registry = registry

	// 4. Initialize Storage (activity journal)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store

	slog.Info("bootstrap complete",
		"assets", registry.Len(),
		"gateway", cfg.Gateway.URL)
	return nil
}

// OpenSession authenticates against the configured gateway identity and
// returns the session's call capabilities: one token ledger client per
// registered asset (registry order), the exchange client, and the faucet
// client when one is configured. Without a principal and session token there
// is no session and no operations are available.
func (b *Bootstrap) OpenSession() (domain.Session, error) {
	cfg := b.Config
	if cfg.Gateway.Principal == "" || cfg.Gateway.SessionToken == "" {
		return domain.Session{}, fmt.Errorf("%w: principal and session token are required", domain.ErrNoSession)
	}

	client := agent.NewClient(
		cfg.Gateway.URL,
		cfg.Gateway.Principal,
		cfg.Gateway.SessionToken,
		time.Duration(cfg.Gateway.TimeoutSec)*time.Second,
	)

	tokens := make([]domain.TokenLedger, 0, b.Registry.Len())
	for _, a := range b.Registry.Assets() {
		tokens = append(tokens, agent.NewTokenLedger(client, a.Address))
	}

	session := domain.Session{
		Principal: cfg.Gateway.Principal,
		Tokens:    tokens,
		Exchange:  agent.NewExchangeLedger(client, cfg.Exchange.Address),
	}
	if cfg.Faucet.Address != "" {
		session.Faucet = agent.NewFaucet(client, cfg.Faucet.Address)
	}
	return session, nil
}
