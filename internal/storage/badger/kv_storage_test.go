package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/rednote/internal/interfaces"
)

func TestKVStorage_SetAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.KVStorage().Set(ctx, "summary_prompt", "TL;DR of {title}: {desc}"))

	value, err := m.KVStorage().Get(ctx, "summary_prompt")
	require.NoError(t, err)
	assert.Equal(t, "TL;DR of {title}: {desc}", value)
}

func TestKVStorage_GetMissing(t *testing.T) {
	m := newTestManager(t)

	_, err := m.KVStorage().Get(context.Background(), "missing")
	require.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestKVStorage_KeysAreCaseInsensitive(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.KVStorage().Set(ctx, "  Target_Base_URL ", "https://www.xiaohongshu.com"))

	value, err := m.KVStorage().Get(ctx, "target_base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://www.xiaohongshu.com", value)

	keys, err := m.KVStorage().Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"target_base_url"}, keys)
}

func TestKVStorage_SetPreservesCreatedAt(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.KVStorage().Set(ctx, "gemini_api_key", "first"))

	var before kvEntry
	require.NoError(t, m.db.Store().Get("gemini_api_key", &before))

	require.NoError(t, m.KVStorage().Set(ctx, "gemini_api_key", "second"))

	var after kvEntry
	require.NoError(t, m.db.Store().Get("gemini_api_key", &after))
	assert.Equal(t, "second", after.Value)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestKVStorage_Delete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.KVStorage().Set(ctx, "anthropic_api_key", "sk-test"))
	require.NoError(t, m.KVStorage().Delete(ctx, "anthropic_api_key"))

	_, err := m.KVStorage().Get(ctx, "anthropic_api_key")
	require.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	err = m.KVStorage().Delete(ctx, "anthropic_api_key")
	require.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestKVStorage_KeysSorted(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for _, key := range []string{"summary_prompt", "anthropic_api_key", "target_base_url"} {
		require.NoError(t, m.KVStorage().Set(ctx, key, "x"))
	}

	keys, err := m.KVStorage().Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic_api_key", "summary_prompt", "target_base_url"}, keys)
}
