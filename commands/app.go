package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/K0NGR3SS/minewatch/internal/analytics"
	"github.com/K0NGR3SS/minewatch/internal/aws"
	"github.com/K0NGR3SS/minewatch/internal/config"
	"github.com/K0NGR3SS/minewatch/internal/engine"
	"github.com/K0NGR3SS/minewatch/internal/kv"
	"github.com/K0NGR3SS/minewatch/internal/metrics"
	"github.com/K0NGR3SS/minewatch/internal/scanner"
	"github.com/K0NGR3SS/minewatch/internal/telemetry"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

// app is everything a command needs, built from the loaded config.
type app struct {
	engine   *engine.Engine
	registry *prometheus.Registry
	store    kv.Store
	// packages is the default scan batch when none are named.
	packages []string
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	store, err := kv.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}

	provider, packages, err := newProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	history := analytics.NewStore(store, log)
	scn := scanner.New(provider, history, log, scanner.Options{
		Timeout: cfg.Telemetry.Timeout,
		Workers: cfg.Scan.Workers,
		Metrics: metrics.New(registry),
	})

	return &app{
		engine:   engine.New(scn, history),
		registry: registry,
		store:    store,
		packages: packages,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		appLog.Warn().Err(err).Msg("failed to close store")
	}
}

func newProvider(ctx context.Context, cfg config.TelemetryConfig, log *logger.Logger) (telemetry.Provider, []string, error) {
	log = log.WithComponent("telemetry")

	switch cfg.Provider {
	case "inventory":
		inv, err := telemetry.LoadInventory(cfg.InventoryFile)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("file", cfg.InventoryFile).Int("packages", len(inv.Packages())).Msg("inventory loaded")
		return inv, inv.Packages(), nil

	case "simulated":
		log.Debug().Int64("seed", cfg.Seed).Msg("using simulated telemetry")
		return telemetry.NewSimulated(cfg.Seed), nil, nil

	case "ssm":
		client, err := aws.NewClient(ctx, cfg.SSM.Region)
		if err != nil {
			return nil, nil, err
		}
		instanceID, err := client.ResolveInstance(ctx, cfg.SSM.Instance)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("instance_id", instanceID).Str("region", cfg.SSM.Region).Msg("inspecting processes through SSM")
		return telemetry.NewSSMProvider(client.SSM, instanceID), nil, nil
	}

	return nil, nil, fmt.Errorf("unknown telemetry provider %q", cfg.Provider)
}
