package policystore

import (
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
)

// Store opens a local sqlite file (via glebarez/sqlite, a cgo-free driver)
// holding the static rate-limit policy table, and caches the rows in memory
// so ratelimit.Limiter.Check/Increment never hit the database on the hot
// path. Call Reload after writing policies out-of-process.
type Store struct {
	db *gorm.DB

	mu       sync.RWMutex
	policies map[string]ratelimit.Policy
}

func key(provider, service string) string { return provider + ":" + service }

// Open connects to path (a sqlite file, or ":memory:") and migrates the
// Policy table.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("policystore: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Policy{}); err != nil {
		return nil, fmt.Errorf("policystore: migrate: %w", err)
	}
	s := &Store{db: db, policies: make(map[string]ratelimit.Policy)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload refreshes the in-memory cache from the database.
func (s *Store) Reload() error {
	var rows []Policy
	if err := s.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("policystore: load policies: %w", err)
	}

	cache := make(map[string]ratelimit.Policy, len(rows))
	for _, r := range rows {
		cache[key(r.Provider, r.Service)] = r.toRateLimit()
	}

	s.mu.Lock()
	s.policies = cache
	s.mu.Unlock()
	return nil
}

// Policy implements ratelimit.PolicySource.
func (s *Store) Policy(provider, service string) (ratelimit.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[key(provider, service)]
	return p, ok
}

// Upsert writes one policy row and refreshes the cache.
func (s *Store) Upsert(provider, service string, p ratelimit.Policy) error {
	row := Policy{
		Provider:                provider,
		Service:                 service,
		PerMinute:               p.PerMinute,
		PerDay:                  p.PerDay,
		CreditLimit:             p.CreditLimit,
		EstimatedCostPerRequest: p.EstimatedCostPerRequest,
	}
	err := s.db.Where(Policy{Provider: provider, Service: service}).
		Assign(row).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("policystore: upsert %s/%s: %w", provider, service, err)
	}
	return s.Reload()
}

// All returns every configured policy, keyed "provider:service", for the
// /api/v1/rate-limits observability endpoint.
func (s *Store) All() map[string]ratelimit.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ratelimit.Policy, len(s.policies))
	for k, v := range s.policies {
		out[k] = v
	}
	return out
}

// Seed installs the default policy set if the table is empty, so a fresh
// deployment has working rate limits without a manual provisioning step.
func (s *Store) Seed(defaults map[string]ratelimit.Policy) error {
	var count int64
	if err := s.db.Model(&Policy{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for k, p := range defaults {
		provider, service := splitKey(k)
		if err := s.Upsert(provider, service, p); err != nil {
			return err
		}
	}
	return nil
}

func splitKey(k string) (provider, service string) {
	for i := 0; i < len(k); i++ {
		if k[i] == ':' {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}
