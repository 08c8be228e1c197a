package parser

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() (*PathResolver, *fakeStore) {
	store := newFakeStore()
	store.objects[0x20] = &fakeObject{name: `\dir\a.txt`, size: 4096}
	store.objects[5] = &fakeObject{name: `\dir`}
	return NewPathResolver(store), store
}

func TestResolverCachesLookups(t *testing.T) {
	resolver, store := newTestResolver()

	path, _, err := resolver.Resolve(0x20, ResolveCache)
	require.NoError(t, err)
	assert.Equal(t, `\dir\a.txt`, path)

	path, _, err = resolver.Resolve(0x20, ResolveCache)
	require.NoError(t, err)
	assert.Equal(t, `\dir\a.txt`, path)

	assert.Equal(t, 1, store.lookups)
	assert.Equal(t, 1, resolver.hits)
	assert.Equal(t, 1, resolver.misses)
	assert.Equal(t, 1, resolver.Len())
}

func TestResolverWithoutCache(t *testing.T) {
	resolver, store := newTestResolver()

	for i := 0; i < 2; i++ {
		path, _, err := resolver.Resolve(0x20, ResolvePathOnly)
		require.NoError(t, err)
		assert.Equal(t, `\dir\a.txt`, path)
	}
	assert.Equal(t, 2, store.lookups)
	assert.Equal(t, 0, resolver.Len())

	// Directories are always cached.
	for i := 0; i < 2; i++ {
		path, err := resolver.ResolveDir(5)
		require.NoError(t, err)
		assert.Equal(t, `\dir`, path)
	}
	assert.Equal(t, 3, store.lookups)
}

func TestResolverSize(t *testing.T) {
	resolver, store := newTestResolver()

	_, size, err := resolver.Resolve(0x20, ResolveCache)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	// The cached entry has no size so it is looked up again.
	_, size, err = resolver.Resolve(0x20, ResolveCache|ResolveSize)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), size)
	assert.Equal(t, 2, store.lookups)

	_, size, err = resolver.Resolve(0x20, ResolveCache|ResolveSize)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), size)

	_, size, err = resolver.Resolve(0x20, ResolveCache)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), size)
	assert.Equal(t, 2, store.lookups)
}

func TestResolverSizeError(t *testing.T) {
	resolver, store := newTestResolver()
	store.objects[0x20].size_err = errors.New("access denied")

	path, size, err := resolver.Resolve(0x20, ResolveCache|ResolveSize)
	require.NoError(t, err)
	assert.Equal(t, `\dir\a.txt`, path)
	assert.Equal(t, int64(0), size)
}

func TestResolverErrors(t *testing.T) {
	resolver, store := newTestResolver()

	for i := 0; i < 2; i++ {
		_, _, err := resolver.Resolve(0x99, ResolveCache)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	}

	// Failures are not cached.
	assert.Equal(t, 2, store.lookups)
	assert.Equal(t, 2, resolver.errors)
	assert.Equal(t, 0, resolver.Len())

	_, err := NewPathResolver(nil).ResolveDir(5)
	assert.True(t, errors.Is(err, ErrNoObjectStore))
}

func TestResolverReset(t *testing.T) {
	resolver, _ := newTestResolver()
	_, err := resolver.ResolveDir(5)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.Len())

	resolver.Reset()
	assert.Equal(t, 0, resolver.Len())
	assert.Equal(t, 0, resolver.misses)
}
