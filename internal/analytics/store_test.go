package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/K0NGR3SS/minewatch/internal/kv"
	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *kv.Memory) {
	mem := kv.NewMemory()
	return NewStore(mem, logger.Nop()), mem
}

func sampleSession(id string, ts int64) models.ScanSession {
	return models.ScanSession{
		ID:             id,
		Timestamp:      ts,
		TotalApps:      2,
		HighRiskApps:   1,
		LowRiskApps:    1,
		DurationMillis: 1234,
		ScanResults: []models.ScanResult{
			{
				PackageName:          "com.example.miner",
				AppName:              "Miner",
				RiskLevel:            models.RiskHigh,
				RiskScore:            16,
				SuspiciousActivities: []string{"High background activity", "Possible mining behavior"},
				CPUUsagePercent:      25.123456789,
				MemoryUsageKB:        250000,
				NetworkConnections:   14,
				DangerousPermissions: []string{"android.permission.CAMERA"},
				RecommendedActions: []models.SecurityAction{
					{Type: models.ActionRevokePermission, Description: "Revoke dangerous permissions"},
					{Type: models.ActionUninstall, Description: "Uninstall suspicious app", Completed: true},
				},
				ScannedAt: ts,
			},
			{
				PackageName:          "com.example.notes",
				AppName:              "Notes",
				RiskLevel:            models.RiskLow,
				SuspiciousActivities: []string{},
				DangerousPermissions: []string{},
				RecommendedActions:   []models.SecurityAction{},
				ScannedAt:            ts,
			},
		},
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	original := sampleSession("s1", 1700000000123)
	require.NoError(t, store.AppendSession(ctx, original))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, original, sessions[0])
}

func TestRecordRoundTrip(t *testing.T) {
	cpu := models.CPUUsageSample{PackageName: "a", AppName: "A", Timestamp: 42, CPUUsagePercent: 5.0001, MemoryUsageKB: 123456}
	data, err := json.Marshal(cpu)
	require.NoError(t, err)
	var cpuBack models.CPUUsageSample
	require.NoError(t, json.Unmarshal(data, &cpuBack))
	assert.Equal(t, cpu, cpuBack)

	net := models.NetworkActivitySample{PackageName: "a", Timestamp: 42, Connections: 3, BytesSent: 1 << 40, BytesReceived: 7}
	data, err = json.Marshal(net)
	require.NoError(t, err)
	var netBack models.NetworkActivitySample
	require.NoError(t, json.Unmarshal(data, &netBack))
	assert.Equal(t, net, netBack)
}

func TestAppendSessionKeepsNewestFifty(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	for i := 0; i < MaxSessions+1; i++ {
		require.NoError(t, store.AppendSession(ctx, models.ScanSession{ID: fmt.Sprintf("s%d", i), Timestamp: int64(i)}))
	}

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, MaxSessions)
	assert.Equal(t, "s50", sessions[0].ID)
	assert.Equal(t, "s1", sessions[MaxSessions-1].ID)
	for _, s := range sessions {
		assert.NotEqual(t, "s0", s.ID)
	}
}

func TestAppendCPUSampleTrimsPerPackage(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	for i := 0; i < MaxCPUSamplesPerPackage+1; i++ {
		require.NoError(t, store.AppendCPUSample(ctx, models.CPUUsageSample{PackageName: "A", Timestamp: int64(i)}))
		if i%100 == 0 {
			require.NoError(t, store.AppendCPUSample(ctx, models.CPUUsageSample{PackageName: "B", Timestamp: int64(i)}))
		}
	}

	a, err := store.CPUSamples(ctx, "A")
	require.NoError(t, err)
	require.Len(t, a, MaxCPUSamplesPerPackage)
	assert.Equal(t, int64(1), a[0].Timestamp)
	assert.Equal(t, int64(MaxCPUSamplesPerPackage), a[len(a)-1].Timestamp)

	b, err := store.CPUSamples(ctx, "B")
	require.NoError(t, err)
	assert.Len(t, b, 11)

	all, err := store.CPUSamples(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, MaxCPUSamplesPerPackage+11)
}

func TestAppendNetworkSampleEvictsOldestGlobally(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	for i := 0; i < MaxNetworkSamples+1; i++ {
		pkg := "A"
		if i%2 == 1 {
			pkg = "B"
		}
		require.NoError(t, store.AppendNetworkSample(ctx, models.NetworkActivitySample{PackageName: pkg, Timestamp: int64(i)}))
	}

	all, err := store.NetworkSamples(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, MaxNetworkSamples)
	assert.Equal(t, int64(1), all[0].Timestamp)
	assert.Equal(t, int64(MaxNetworkSamples), all[len(all)-1].Timestamp)

	a, err := store.NetworkSamples(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, a, 250)
	for _, smp := range a {
		assert.NotEqual(t, int64(0), smp.Timestamp)
	}
}

func TestEmptyHistory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	cpu, err := store.CPUSamples(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, cpu)

	net, err := store.NetworkSamples(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, net)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	require.NoError(t, store.AppendSession(ctx, sampleSession("s1", 1)))

	first, err := store.Sessions(ctx)
	require.NoError(t, err)
	first[0].ScanResults[0].AppName = "tampered"

	second, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Miner", second[0].ScanResults[0].AppName)
}

type failingKV struct {
	kv.Store
	getErr error
	putErr error
}

func (f failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, key, value)
}

func TestPersistenceFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	store := NewStore(failingKV{Store: kv.NewMemory(), putErr: boom}, logger.Nop())
	assert.ErrorIs(t, store.AppendSession(ctx, sampleSession("s1", 1)), boom)
	assert.ErrorIs(t, store.AppendCPUSample(ctx, models.CPUUsageSample{PackageName: "a"}), boom)
	assert.ErrorIs(t, store.AppendNetworkSample(ctx, models.NetworkActivitySample{PackageName: "a"}), boom)

	store = NewStore(failingKV{Store: kv.NewMemory(), getErr: boom}, logger.Nop())
	_, err := store.Sessions(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestCorruptHistoryIsAnError(t *testing.T) {
	ctx := context.Background()
	store, mem := newTestStore()
	require.NoError(t, mem.Put(ctx, KeySessions, []byte("{not json")))

	_, err := store.Sessions(ctx)
	assert.Error(t, err)
	assert.Error(t, store.AppendSession(ctx, sampleSession("s1", 1)))
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.AppendNetworkSample(ctx, models.NetworkActivitySample{PackageName: "p", Timestamp: int64(i)}))
			assert.NoError(t, store.AppendCPUSample(ctx, models.CPUUsageSample{PackageName: "p", Timestamp: int64(i)}))
		}(i)
	}
	wg.Wait()

	net, err := store.NetworkSamples(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, net, 40)

	cpu, err := store.CPUSamples(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, cpu, 40)
}
