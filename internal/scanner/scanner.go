package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/K0NGR3SS/minewatch/internal/classifier"
	"github.com/K0NGR3SS/minewatch/internal/metrics"
	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/internal/telemetry"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

// History is where scans leave their analytics records.
type History interface {
	AppendSession(ctx context.Context, session models.ScanSession) error
	AppendCPUSample(ctx context.Context, sample models.CPUUsageSample) error
	AppendNetworkSample(ctx context.Context, sample models.NetworkActivitySample) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Options struct {
	// Timeout bounds each telemetry call.
	Timeout time.Duration
	Workers int
	Metrics *metrics.Metrics
	Clock   Clock
	NewID   func() string
}

type Scanner struct {
	provider telemetry.Provider
	history  History
	logger   *logger.Logger
	metrics  *metrics.Metrics
	clock    Clock
	newID    func() string
	timeout  time.Duration
	workers  int
}

func New(provider telemetry.Provider, history History, log *logger.Logger, opts Options) *Scanner {
	s := &Scanner{
		provider: provider,
		history:  history,
		logger:   log.WithComponent("scanner"),
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		newID:    opts.NewID,
		timeout:  opts.Timeout,
		workers:  opts.Workers,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// ScanOne scores a single package. Telemetry failures yield a degraded LOW
// result and are not returned; only failures to record the CPU and network
// samples are.
func (s *Scanner) ScanOne(ctx context.Context, packageName string) (models.ScanResult, error) {
	result, facts, err := s.assess(ctx, packageName)
	if err != nil {
		s.logger.Warn().Err(err).Str("package", packageName).Msg("telemetry unavailable, using degraded result")
		if s.metrics != nil {
			s.metrics.DegradedScans.Inc()
		}
		return s.degraded(packageName), nil
	}

	if err := s.history.AppendCPUSample(ctx, models.CPUUsageSample{
		PackageName:     result.PackageName,
		AppName:         result.AppName,
		Timestamp:       result.ScannedAt,
		CPUUsagePercent: result.CPUUsagePercent,
		MemoryUsageKB:   result.MemoryUsageKB,
	}); err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to record cpu sample for %s: %w", packageName, err)
	}

	if err := s.history.AppendNetworkSample(ctx, models.NetworkActivitySample{
		PackageName:   result.PackageName,
		Timestamp:     result.ScannedAt,
		Connections:   result.NetworkConnections,
		BytesSent:     facts.BytesSent,
		BytesReceived: facts.BytesReceived,
	}); err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to record network sample for %s: %w", packageName, err)
	}

	s.logger.Debug().
		Str("package", packageName).
		Str("risk_level", result.RiskLevel.String()).
		Int("risk_score", result.RiskScore).
		Strs("signs", result.SuspiciousActivities).
		Msg("package scanned")

	return result, nil
}

func (s *Scanner) assess(ctx context.Context, packageName string) (result models.ScanResult, facts telemetry.Facts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic for %s: %v", packageName, r)
		}
	}()

	facts, err = s.fetch(ctx, packageName)
	if err != nil {
		return result, facts, err
	}

	verdict := classifier.Classify(classifier.Input{
		PackageName:          packageName,
		Permissions:          facts.Permissions,
		CPUUsagePercent:      facts.CPUUsagePercent,
		MemoryUsageKB:        facts.MemoryUsageKB,
		CryptoSignal:         facts.CryptoSignal,
		NetworkPatternSignal: facts.NetworkPatternSignal,
		BackgroundSignal:     facts.BackgroundSignal,
		MiningSignal:         facts.MiningSignal,
	})

	appName := facts.AppName
	if appName == "" {
		appName = packageName
	}

	result = models.ScanResult{
		PackageName:          packageName,
		AppName:              appName,
		RiskLevel:            verdict.Level,
		RiskScore:            verdict.Score,
		SuspiciousActivities: verdict.SuspiciousActivities,
		CPUUsagePercent:      facts.CPUUsagePercent,
		MemoryUsageKB:        facts.MemoryUsageKB,
		NetworkConnections:   facts.NetworkConnections,
		DangerousPermissions: verdict.DangerousPermissions,
		ScannedAt:            s.clock.Now().UnixMilli(),
	}
	result.RecommendedActions = classifier.RecommendedActions(result.RiskLevel, result.CPUUsagePercent)
	return result, facts, nil
}

type fetched struct {
	facts telemetry.Facts
	err   error
}

// fetch calls the provider under the per-package timeout. A provider that
// ignores its context is abandoned when the timeout expires.
func (s *Scanner) fetch(ctx context.Context, packageName string) (telemetry.Facts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ch := make(chan fetched, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- fetched{err: fmt.Errorf("%w: %s: provider panic: %v", telemetry.ErrUnavailable, packageName, r)}
			}
		}()
		f, err := s.provider.Facts(ctx, packageName)
		ch <- fetched{facts: f, err: err}
	}()

	select {
	case r := <-ch:
		return r.facts, r.err
	case <-ctx.Done():
		return telemetry.Facts{}, fmt.Errorf("%w: %s: %v", telemetry.ErrUnavailable, packageName, ctx.Err())
	}
}

func (s *Scanner) degraded(packageName string) models.ScanResult {
	return models.ScanResult{
		PackageName:          packageName,
		AppName:              packageName,
		RiskLevel:            models.RiskLow,
		SuspiciousActivities: []string{},
		DangerousPermissions: []string{},
		RecommendedActions:   []models.SecurityAction{},
		ScannedAt:            s.clock.Now().UnixMilli(),
	}
}

// ScanAll scans every package, persists the resulting session and returns it.
// Results keep the order of packages. If ctx is done before the session is
// stored, nothing is persisted and the context error is returned.
func (s *Scanner) ScanAll(ctx context.Context, packages []string) (models.ScanSession, error) {
	start := s.clock.Now()
	results := make([]models.ScanResult, len(packages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, pkg := range packages {
		g.Go(func() error {
			r, err := s.ScanOne(gctx, pkg)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ScanSession{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.ScanSession{}, fmt.Errorf("scan abandoned: %w", err)
	}

	end := s.clock.Now()
	session := BuildSession(s.newID(), end, end.Sub(start), results)

	if err := s.history.AppendSession(ctx, session); err != nil {
		return models.ScanSession{}, fmt.Errorf("failed to store session: %w", err)
	}

	log := s.logger.WithSessionID(session.ID)
	log.Info().
		Int("total", session.TotalApps).
		Int("high", session.HighRiskApps).
		Int("medium", session.MediumRiskApps).
		Int("low", session.LowRiskApps).
		Int64("duration_ms", session.DurationMillis).
		Msg("scan session stored")

	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
		s.metrics.ScanDuration.Observe(end.Sub(start).Seconds())
		for _, level := range models.Levels {
			s.metrics.LastSessionRisk.WithLabelValues(level.String()).Set(float64(session.CountFor(level)))
		}
		for _, r := range results {
			s.metrics.PackagesScanned.WithLabelValues(r.RiskLevel.String()).Inc()
		}
	}

	return session, nil
}

// BuildSession tallies results into a session created at createdAt.
func BuildSession(id string, createdAt time.Time, duration time.Duration, results []models.ScanResult) models.ScanSession {
	session := models.ScanSession{
		ID:             id,
		Timestamp:      createdAt.UnixMilli(),
		TotalApps:      len(results),
		ScanResults:    results,
		DurationMillis: duration.Milliseconds(),
	}
	for _, r := range results {
		switch r.RiskLevel {
		case models.RiskHigh:
			session.HighRiskApps++
		case models.RiskMedium:
			session.MediumRiskApps++
		default:
			session.LowRiskApps++
		}
	}
	return session
}
