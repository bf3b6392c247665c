// SPDX-License-Identifier: MPL-2.0

// Package main is the doppio-engine composition root: a thin CLI front
// end that submits a skill file to the ExecutionScheduler, tails its
// log, and cancels a running execution.
package main

import (
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"

	"doppio-engine/internal/config"
	"doppio-engine/internal/dispatch"
	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/extstate"
	"doppio-engine/internal/hostresolve"
	"doppio-engine/internal/logstore"
	"doppio-engine/internal/marketplace"
	"doppio-engine/internal/scheduler"
	"doppio-engine/internal/storage"
	"doppio-engine/internal/tailserver"
	"doppio-engine/internal/terminal"
	"doppio-engine/internal/transfer"
)

// App wires together the engine's process-wide singletons: one
// instance per process, constructed once in Execute and threaded into
// every command via closures rather than package-level globals.
type App struct {
	Config       *config.Config
	DataDir      string
	Logger       *charmlog.Logger
	Hosts        *extstate.HostTable
	Secrets      *extstate.SecretsStore
	StorageTable *extstate.StorageTable
	Storages     *storage.Registry
	Resolver     *hostresolve.Resolver
	Market       *marketplace.Client
	Transfer     *transfer.Engine
	Terms        *terminal.Manager
	Logs         *logstore.Store
	Events       *eventbus.Bus
	Registry     *dispatch.Registry
	Sched        *scheduler.Scheduler
	Tail         *tailserver.Server
}

// buildApp loads configuration and wires every collaborator the scheduler
// needs: HostResolver, SecretsStore, StorageRegistry, TransferEngine,
// MarketplaceAPI, TerminalManager, LogStore, and the event bus.
func buildApp() (*App, error) {
	cfg := config.Get()

	dataDir, err := config.DataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "doppio-engine"})
	if cfg.UI.Verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}

	hosts := extstate.NewHostTable(dataDir + "/hosts.json")
	secrets := extstate.NewSecretsStore(dataDir + "/secrets.json")
	storageTable := extstate.NewStorageTable(dataDir + "/storages.json")

	apiKey, _, err := secrets.Get(cfg.Marketplace.APIKeySecretName)
	if err != nil {
		return nil, fmt.Errorf("read marketplace api key: %w", err)
	}
	market := marketplace.NewClient(cfg.Marketplace.BaseURL, apiKey)

	resolver := hostresolve.NewResolver(hosts, market, cfg.Marketplace.DefaultUser)
	storages := storage.NewRegistry(storageTable, resolver)
	xfer := transfer.NewEngine(resolver, storages)
	terms := terminal.NewManager()
	logs := logstore.New(dataDir)
	events := eventbus.New()

	reg := dispatch.NewRegistry()

	var tail *tailserver.Server
	if cfg.TailServer.Enabled {
		tcfg := tailserver.DefaultConfig()
		tcfg.Host = tailserver.HostAddress(cfg.TailServer.Host)
		tcfg.Port = tailserver.ListenPort(cfg.TailServer.Port)
		if cfg.TailServer.TokenTTLSecs > 0 {
			tcfg.TokenTTL = time.Duration(cfg.TailServer.TokenTTLSecs) * time.Second
		}
		tail = tailserver.New(tcfg, terms)
	}

	sched := scheduler.New(
		cfg.Scheduler.MaxParallelSteps,
		resolver,
		hosts,
		secrets,
		storages,
		xfer,
		market,
		terms,
		logs,
		events,
		reg,
	)

	return &App{
		Config:       cfg,
		DataDir:      dataDir,
		Logger:       logger,
		Hosts:        hosts,
		Secrets:      secrets,
		StorageTable: storageTable,
		Storages:     storages,
		Resolver:     resolver,
		Market:       market,
		Transfer:     xfer,
		Terms:        terms,
		Logs:         logs,
		Events:       events,
		Registry:     reg,
		Sched:        sched,
		Tail:         tail,
	}, nil
}
