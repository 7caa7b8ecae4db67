// Package engine is the single entry point the CLI and HTTP API use to scan
// packages and query the analytics history.
package engine

import (
	"context"
	"fmt"

	"github.com/K0NGR3SS/minewatch/internal/analytics"
	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/internal/scanner"
	"github.com/K0NGR3SS/minewatch/internal/trends"
)

type Engine struct {
	scanner *scanner.Scanner
	store   *analytics.Store
}

func New(scn *scanner.Scanner, store *analytics.Store) *Engine {
	return &Engine{scanner: scn, store: store}
}

func (e *Engine) ScanOne(ctx context.Context, packageName string) (models.ScanResult, error) {
	return e.scanner.ScanOne(ctx, packageName)
}

func (e *Engine) ScanAll(ctx context.Context, packages []string) (models.ScanSession, error) {
	return e.scanner.ScanAll(ctx, packages)
}

// Sessions returns the retained sessions, newest first.
func (e *Engine) Sessions(ctx context.Context) ([]models.ScanSession, error) {
	return e.store.Sessions(ctx)
}

// CPUHistory returns the CPU samples of packageName, or of every package when empty.
func (e *Engine) CPUHistory(ctx context.Context, packageName string) ([]models.CPUUsageSample, error) {
	return e.store.CPUSamples(ctx, packageName)
}

func (e *Engine) NetworkHistory(ctx context.Context, packageName string) ([]models.NetworkActivitySample, error) {
	return e.store.NetworkSamples(ctx, packageName)
}

func (e *Engine) RiskHeatmap(ctx context.Context) ([]models.RiskHeatmapItem, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return nil, err
	}
	return trends.RiskHeatmap(sessions), nil
}

func (e *Engine) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return trends.DashboardStats(sessions), nil
}

// CompareSessions diffs two retained sessions. ok is false when either id is
// not in the history.
func (e *Engine) CompareSessions(ctx context.Context, id1, id2 string) (models.ScanComparison, bool, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return models.ScanComparison{}, false, err
	}
	cmp, ok := trends.CompareByID(sessions, id1, id2)
	return cmp, ok, nil
}

func (e *Engine) Distribution(ctx context.Context) ([]models.RiskDistribution, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return nil, err
	}
	return trends.Distribution(sessions), nil
}

func (e *Engine) sessions(ctx context.Context) ([]models.ScanSession, error) {
	sessions, err := e.store.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	return sessions, nil
}
