package catalog

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// Memory holds the active ranking table and search catalog.
// Readers always see a complete table: updates swap the whole value.
type Memory struct {
	mu         sync.RWMutex
	table      *domain.RankingTable
	catalog    *domain.Catalog
	source     string    // "builtin" or the file path
	lastReload time.Time // zero until the first successful reload
}

// NewMemory creates a catalog seeded with the built-in defaults
func NewMemory() *Memory {
	return &Memory{
		table:   domain.DefaultRankingTable(),
		catalog: domain.DefaultCatalog(),
		source:  "builtin",
	}
}

// Update replaces the ranking table and catalog
func (m *Memory) Update(table *domain.RankingTable, catalog *domain.Catalog, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if table != nil {
		m.table = table
	}
	if catalog != nil {
		m.catalog = catalog
	}
	m.source = source
	m.lastReload = time.Now()
}

// Table returns the active ranking table
func (m *Memory) Table() *domain.RankingTable {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.table
}

// Catalog returns the active search catalog
func (m *Memory) Catalog() *domain.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.catalog
}

// Rank orders postings with the active table
func (m *Memory) Rank(postings []domain.Posting) []domain.Posting {
	return domain.Rank(m.Table(), postings)
}

// Source returns where the active table came from
func (m *Memory) Source() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.source
}

// GetLastReload returns the timestamp of the last reload
func (m *Memory) GetLastReload() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastReload
}
