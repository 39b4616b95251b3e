package storage

import (
	"context"
	"testing"

	transferapp "github.com/crmportal/backend/internal/application/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryArtifactStore(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and retrieves artifacts", func(t *testing.T) {
		store := NewMemoryArtifactStore()

		require.NoError(t, store.Put(ctx, "export_1.csv", "text/csv", []byte("data")))

		got, err := store.Get(ctx, "export_1.csv")
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), got)
	})

	t.Run("missing key returns ErrArtifactNotFound", func(t *testing.T) {
		store := NewMemoryArtifactStore()

		_, err := store.Get(ctx, "export_missing.csv")
		assert.ErrorIs(t, err, transferapp.ErrArtifactNotFound)
	})

	t.Run("rejects empty keys", func(t *testing.T) {
		store := NewMemoryArtifactStore()

		assert.Error(t, store.Put(ctx, "", "text/csv", nil))
		_, err := store.Get(ctx, "")
		assert.Error(t, err)
	})

	t.Run("stored data is isolated from caller mutation", func(t *testing.T) {
		store := NewMemoryArtifactStore()

		data := []byte("original")
		require.NoError(t, store.Put(ctx, "k", "text/csv", data))
		data[0] = 'X'

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got)
	})
}
