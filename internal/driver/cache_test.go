package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"r42/internal/project"
)

func TestCachePutGet(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	key := CacheKey("page.rs.r42")
	var rec CacheRecord
	hit, err := cache.Get(key, &rec)
	require.NoError(t, err)
	assert.False(t, hit)

	in := &CacheRecord{
		Template:   "page.rs.r42",
		Output:     "/tmp/page.rs",
		Language:   "Rust",
		InputHash:  project.HashString("in"),
		OutputHash: project.HashString("out"),
		OutputSize: 3,
	}
	require.NoError(t, cache.Put(key, in))

	hit, err = cache.Get(key, &rec)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, *in, rec)
	assert.Equal(t, cacheSchemaVersion, rec.Schema)

	require.NoError(t, cache.DropAll())
	hit, err = cache.Get(key, &rec)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, cache.DropAll())
}

func TestCacheCorruptRecord(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	key := CacheKey("x.rs.r42")
	p := cache.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte{0xc1}, 0o600))

	var rec CacheRecord
	_, err = cache.Get(key, &rec)
	assert.Error(t, err)
}

func TestNilCache(t *testing.T) {
	var cache *Cache
	var rec CacheRecord
	hit, err := cache.Get(project.Digest{}, &rec)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Put(project.Digest{}, &rec))
	assert.NoError(t, cache.DropAll())
	assert.Empty(t, cache.Dir())
}

func TestCacheDir(t *testing.T) {
	t.Setenv(CacheDirEnv, "/custom/cache")
	assert.Equal(t, "/custom/cache", CacheDir("r42"))

	t.Setenv(CacheDirEnv, "")
	assert.Equal(t, "r42", filepath.Base(CacheDir("r42")))
}

func TestCacheKeyIsPathStable(t *testing.T) {
	abs, err := filepath.Abs("page.rs.r42")
	require.NoError(t, err)
	assert.Equal(t, CacheKey(abs), CacheKey("page.rs.r42"))
	assert.NotEqual(t, CacheKey("a.rs.r42"), CacheKey("b.rs.r42"))
}
