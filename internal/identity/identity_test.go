package identity

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobscout/internal/session"
)

var (
	_ session.IdentityCache = (*FileCache)(nil)
	_ session.IdentityCache = (*MemoryCache)(nil)
)

func TestFileCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.yaml")
	c := NewFileCache(path)
	at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return at }

	assert.Empty(t, c.Get(), "missing file means no identity")

	require.NoError(t, c.Set(" dev@example.com "))
	assert.Equal(t, "dev@example.com", c.Get())

	email, updated, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", email)
	assert.True(t, at.Equal(updated))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "user_email: dev@example.com")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestFileCacheOverwriteAndClear(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "identity.yaml"))

	require.NoError(t, c.Set("a@example.com"))
	require.NoError(t, c.Set("b@example.com"))
	assert.Equal(t, "b@example.com", c.Get())

	require.NoError(t, c.Clear())
	assert.Empty(t, c.Get())
	require.NoError(t, c.Clear(), "clearing twice is fine")
}

func TestFileCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_email: [unterminated"), 0o600))

	c := NewFileCache(path)
	assert.Empty(t, c.Get())
	_, _, err := c.Load()
	assert.Error(t, err)

	// a fresh write repairs it
	require.NoError(t, c.Set("ok@example.com"))
	assert.Equal(t, "ok@example.com", c.Get())
}

func TestMemoryCache(t *testing.T) {
	var c MemoryCache
	assert.Empty(t, c.Get())
	require.NoError(t, c.Set("x@example.com"))
	assert.Equal(t, "x@example.com", c.Get())
	require.NoError(t, c.Clear())
	assert.Empty(t, c.Get())
}
