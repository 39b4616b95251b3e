package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCompanyCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCompanyCache()

	t.Run("miss before set", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "ООО Ромашка")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit after set", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "ООО Ромашка", "55"))

		id, ok, err := c.Get(ctx, "ООО Ромашка")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "55", id)
	})

	t.Run("lookup ignores case and surrounding spaces", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "Acme Corp", "7"))

		id, ok, err := c.Get(ctx, "  ACME CORP ")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "7", id)
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "company:title:ооо ромашка", key(" ООО Ромашка "))
}
