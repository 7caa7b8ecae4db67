// Package analytics keeps the bounded scan history: sessions, per-package
// CPU/memory samples and network activity samples.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/K0NGR3SS/minewatch/internal/kv"
	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

const (
	KeySessions   = "scan_sessions"
	KeyCPUSamples = "cpu_usage_data"
	KeyNetwork    = "network_activity"

	MaxSessions             = 50
	MaxCPUSamplesPerPackage = 1000
	MaxNetworkSamples       = 500
)

// Store serializes every append with its trim, one lock per list. Readers
// share the lock so they never observe a list between get and put.
type Store struct {
	kv     kv.Store
	logger *logger.Logger

	sessionsMu sync.RWMutex
	cpuMu      sync.RWMutex
	networkMu  sync.RWMutex
}

func NewStore(store kv.Store, log *logger.Logger) *Store {
	return &Store{
		kv:     store,
		logger: log.WithComponent("analytics"),
	}
}

// AppendSession stores s as the newest session and drops the oldest beyond MaxSessions.
func (s *Store) AppendSession(ctx context.Context, session models.ScanSession) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sessions, err := load[models.ScanSession](ctx, s.kv, KeySessions)
	if err != nil {
		return err
	}

	sessions = append([]models.ScanSession{session}, sessions...)
	if len(sessions) > MaxSessions {
		s.logger.Debug().Int("evicted", len(sessions)-MaxSessions).Msg("trimming session history")
		sessions = sessions[:MaxSessions]
	}

	return save(ctx, s.kv, KeySessions, sessions)
}

// Sessions returns the retained sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]models.ScanSession, error) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	return load[models.ScanSession](ctx, s.kv, KeySessions)
}

// AppendCPUSample records a sample and keeps only the newest
// MaxCPUSamplesPerPackage samples of its package. Other packages are untouched
// and the list stays in insertion order.
func (s *Store) AppendCPUSample(ctx context.Context, sample models.CPUUsageSample) error {
	s.cpuMu.Lock()
	defer s.cpuMu.Unlock()

	samples, err := load[models.CPUUsageSample](ctx, s.kv, KeyCPUSamples)
	if err != nil {
		return err
	}

	samples = trimPerPackage(append(samples, sample), sample.PackageName, MaxCPUSamplesPerPackage)
	return save(ctx, s.kv, KeyCPUSamples, samples)
}

func trimPerPackage(samples []models.CPUUsageSample, packageName string, limit int) []models.CPUUsageSample {
	count := 0
	for _, smp := range samples {
		if smp.PackageName == packageName {
			count++
		}
	}
	drop := count - limit
	if drop <= 0 {
		return samples
	}

	kept := samples[:0]
	for _, smp := range samples {
		if drop > 0 && smp.PackageName == packageName {
			drop--
			continue
		}
		kept = append(kept, smp)
	}
	return kept
}

// CPUSamples returns the samples of packageName, or all samples when it is empty.
func (s *Store) CPUSamples(ctx context.Context, packageName string) ([]models.CPUUsageSample, error) {
	s.cpuMu.RLock()
	defer s.cpuMu.RUnlock()

	samples, err := load[models.CPUUsageSample](ctx, s.kv, KeyCPUSamples)
	if err != nil {
		return nil, err
	}
	return filter(samples, packageName, func(smp models.CPUUsageSample) string { return smp.PackageName }), nil
}

// AppendNetworkSample records a sample and evicts the globally oldest samples
// beyond MaxNetworkSamples.
func (s *Store) AppendNetworkSample(ctx context.Context, sample models.NetworkActivitySample) error {
	s.networkMu.Lock()
	defer s.networkMu.Unlock()

	samples, err := load[models.NetworkActivitySample](ctx, s.kv, KeyNetwork)
	if err != nil {
		return err
	}

	samples = append(samples, sample)
	if over := len(samples) - MaxNetworkSamples; over > 0 {
		samples = samples[over:]
	}
	return save(ctx, s.kv, KeyNetwork, samples)
}

func (s *Store) NetworkSamples(ctx context.Context, packageName string) ([]models.NetworkActivitySample, error) {
	s.networkMu.RLock()
	defer s.networkMu.RUnlock()

	samples, err := load[models.NetworkActivitySample](ctx, s.kv, KeyNetwork)
	if err != nil {
		return nil, err
	}
	return filter(samples, packageName, func(smp models.NetworkActivitySample) string { return smp.PackageName }), nil
}

func filter[T any](items []T, packageName string, key func(T) string) []T {
	if packageName == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if key(it) == packageName {
			out = append(out, it)
		}
	}
	return out
}

// load decodes the list under key; a key that was never written is an empty list.
func load[T any](ctx context.Context, store kv.Store, key string) ([]T, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return items, nil
}

func save[T any](ctx context.Context, store kv.Store, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
