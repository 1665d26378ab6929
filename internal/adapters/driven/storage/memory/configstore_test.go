package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("search.lexical_weight", 0.25))
	require.NoError(t, store.Set("search.max_results", int64(7)))
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("watch.enabled", true))
	require.NoError(t, store.Set("watch.dirs", []any{"/a", 3, "/b"}))

	assert.InDelta(t, 0.25, store.GetFloat("search.lexical_weight"), 1e-9)
	assert.Equal(t, 7, store.GetInt("search.max_results"))
	assert.InDelta(t, 7.0, store.GetFloat("search.max_results"), 1e-9)
	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.True(t, store.GetBool("watch.enabled"))
	assert.Equal(t, []string{"/a", "/b"}, store.GetStringSlice("watch.dirs"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("n", "not a number"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("n"))
	assert.Equal(t, 0.0, store.GetFloat("n"))
	assert.False(t, store.GetBool("n"))
	assert.Nil(t, store.GetStringSlice("n"))
}

func TestConfigStore_NoOpPersistence(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("k", int64(n))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
	_, ok := store.Get("k")
	assert.True(t, ok)
}
