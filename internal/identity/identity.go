// Package identity remembers the email a user last gave for saved-job
// actions, so the next prompt can be pre-filled.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDir   = "jobscout"
	fileName = "identity.yaml"
)

type record struct {
	UserEmail string    `yaml:"user_email"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DefaultPath is the identity file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// FileCache keeps the identity in a small YAML file.
type FileCache struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileCache returns a cache stored at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, now: time.Now}
}

// Path is where the identity is stored.
func (c *FileCache) Path() string { return c.path }

// Get returns the cached identity, or "" when there is none or the file
// cannot be read.
func (c *FileCache) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.load()
	if err != nil {
		return ""
	}
	return rec.UserEmail
}

// Load returns the stored record; a missing file is not an error.
func (c *FileCache) Load() (email string, updated time.Time, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.load()
	if err != nil {
		return "", time.Time{}, err
	}
	return rec.UserEmail, rec.UpdatedAt, nil
}

// Set stores email, replacing the file atomically.
func (c *FileCache) Set(email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := yaml.Marshal(record{UserEmail: strings.TrimSpace(email), UpdatedAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+fileName+"-*")
	if err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write identity: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write identity: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

// Clear forgets the identity.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

func (c *FileCache) load() (record, error) {
	b, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return record{}, nil
	}
	if err != nil {
		return record{}, fmt.Errorf("read identity: %w", err)
	}
	var rec record
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return record{}, fmt.Errorf("parse identity: %w", err)
	}
	return rec, nil
}

// MemoryCache keeps the identity for the life of the process.
type MemoryCache struct {
	mu    sync.Mutex
	email string
}

func (c *MemoryCache) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

func (c *MemoryCache) Set(email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = strings.TrimSpace(email)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = ""
	return nil
}
