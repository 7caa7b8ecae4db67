package telemetry

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// Simulated fabricates plausible readings from the package name alone.
// Crypto-looking names get mining-like load; "game" packages sit in between.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulated(seed int64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulated) Facts(ctx context.Context, packageName string) (Facts, error) {
	if err := ctx.Err(); err != nil {
		return Facts{}, unavailable(packageName, "%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	crypto := HasCryptoKeyword(packageName)
	mining := HasMiningCharacteristics(packageName, "")
	game := strings.Contains(strings.ToLower(packageName), "game")

	f := Facts{
		AppName:      packageName,
		CryptoSignal: crypto,
		MiningSignal: mining,
	}

	switch {
	case crypto:
		f.CPUUsagePercent = 15 + s.rng.Float64()*30
		f.MemoryUsageKB = 150000 + s.rng.Int63n(250000)
		f.NetworkConnections = 5 + s.rng.Intn(15)
	case mining:
		f.CPUUsagePercent = 20 + s.rng.Float64()*40
		f.MemoryUsageKB = 200000 + s.rng.Int63n(300000)
		f.NetworkConnections = 8 + s.rng.Intn(17)
	case game:
		f.CPUUsagePercent = 5 + s.rng.Float64()*20
		f.MemoryUsageKB = 100000 + s.rng.Int63n(200000)
		f.NetworkConnections = s.rng.Intn(10)
	default:
		f.CPUUsagePercent = 1 + s.rng.Float64()*10
		f.MemoryUsageKB = 50000 + s.rng.Int63n(100000)
		f.NetworkConnections = s.rng.Intn(10)
	}

	switch {
	case crypto || mining:
		f.BackgroundSignal = true
		f.NetworkPatternSignal = true
	case game:
		f.BackgroundSignal = s.rng.Float64() > 0.4
		f.NetworkPatternSignal = s.rng.Float64() > 0.8
	default:
		f.BackgroundSignal = s.rng.Float64() > 0.8
		f.NetworkPatternSignal = s.rng.Float64() > 0.8
	}

	return f, nil
}
