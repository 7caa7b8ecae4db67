package kv

import (
	"context"
	"testing"

	"github.com/K0NGR3SS/minewatch/internal/config"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "scan_sessions")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "scan_sessions", []byte(`[{"id":"a"}]`)))
	got, err := s.Get(ctx, "scan_sessions")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, s.Put(ctx, "scan_sessions", []byte(`[]`)))
	got, err = s.Get(ctx, "scan_sessions")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Close())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreEscapesKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "device/42:scan_sessions", []byte("1")))
	got, err := s.Get(ctx, "device/42:scan_sessions")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := WithPrefix(m, "dev1:")

	require.NoError(t, s.Put(ctx, "network_activity", []byte("x")))

	_, err := m.Get(ctx, "network_activity")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := m.Get(ctx, "dev1:network_activity")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()

	s, err := Open(ctx, config.StoreConfig{Backend: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, config.StoreConfig{Backend: "file", KeyPrefix: "p:", File: config.FileConfig{Dir: t.TempDir()}}, log)
	require.NoError(t, err)
	assert.IsType(t, &prefixed{}, s)

	_, err = Open(ctx, config.StoreConfig{Backend: "etcd"}, log)
	assert.Error(t, err)
}
