// Package telemetry supplies the raw per-package facts the classifier scores.
package telemetry

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is wrapped by every provider failure.
var ErrUnavailable = errors.New("telemetry unavailable")

// Facts are the raw observations about one package.
type Facts struct {
	AppName              string
	Permissions          []string
	CPUUsagePercent      float64
	MemoryUsageKB        int64
	NetworkConnections   int
	BytesSent            int64
	BytesReceived        int64
	CryptoSignal         bool
	NetworkPatternSignal bool
	BackgroundSignal     bool
	MiningSignal         bool
}

type Provider interface {
	Facts(ctx context.Context, packageName string) (Facts, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, packageName string) (Facts, error)

func (f ProviderFunc) Facts(ctx context.Context, packageName string) (Facts, error) {
	return f(ctx, packageName)
}

func unavailable(packageName string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrUnavailable, packageName, fmt.Sprintf(format, args...))
}
