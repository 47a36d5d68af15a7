package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/hn-crawler/internal/storage"
)

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	t.Run("LocalDefault", func(t *testing.T) {
		p, closeFn, err := storage.New(context.Background(), storage.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.NoError(t, closeFn())
	})

	t.Run("Memory", func(t *testing.T) {
		p, closeFn, err := storage.New(context.Background(), storage.Config{Backend: "MEMORY"})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.NoError(t, closeFn())
	})

	t.Run("LocalMissingDir", func(t *testing.T) {
		_, closeFn, err := storage.New(context.Background(), storage.Config{Backend: storage.BackendLocal})
		require.Error(t, err)
		assert.NotNil(t, closeFn)
	})

	t.Run("GCSMissingBucket", func(t *testing.T) {
		_, _, err := storage.New(context.Background(), storage.Config{Backend: storage.BackendGCS})
		require.Error(t, err)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, _, err := storage.New(context.Background(), storage.Config{Backend: "s3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage backend")
	})
}

func TestMockPersister(t *testing.T) {
	t.Parallel()

	m := &storage.MockPersister{}
	m.On("Persist", context.Background(), "dir", "name", []byte("x")).Return("memory://dir/name", nil)

	uri, err := m.Persist(context.Background(), "dir", "name", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "memory://dir/name", uri)
	m.AssertExpectations(t)
}
