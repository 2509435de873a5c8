package memory_test

import (
	"sync"
	"testing"

	cachepkg "github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/cache/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimple(t *testing.T) {
	store := cachepkg.NewStore()
	cache := memory.New()
	url := "https://example.com/" + uuid.NewString()

	// Retrieval of a non-existent key should miss
	_, ok := cache.Get(url)
	require.False(t, ok)

	// Retrieval of an existent key should yield the very same handle
	first := store.Create([]byte("Hello, World!"), "text/plain")
	cache.Put(url, first)

	actual, ok := cache.Get(url)
	require.True(t, ok)
	require.Same(t, first, actual)

	// Re-insertion should silently overwrite (last writer wins)
	second := store.Create([]byte("Bye bye!"), "text/plain")
	cache.Put(url, second)

	actual, ok = cache.Get(url)
	require.True(t, ok)
	require.Same(t, second, actual)
	require.Equal(t, 1, cache.Len())

	// Overwriting doesn't revoke anything, that's up to the holders
	require.False(t, first.Revoked())
}

func TestClear(t *testing.T) {
	store := cachepkg.NewStore()
	cache := memory.New()

	for range 3 {
		cache.Put(uuid.NewString(), store.Create([]byte(uuid.NewString()), "text/plain"))
	}

	dropped := cache.Clear()
	require.Len(t, dropped, 3)
	require.Zero(t, cache.Len())
}

func TestConcurrentAccess(t *testing.T) {
	store := cachepkg.NewStore()
	cache := memory.New()
	url := "https://example.com/" + uuid.NewString()

	var wg sync.WaitGroup

	for range 64 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			cache.Put(url, store.Create([]byte("doesn't matter"), "text/plain"))
			_, ok := cache.Get(url)
			assert.True(t, ok)
		}()
	}

	wg.Wait()

	require.Equal(t, 1, cache.Len())
}
