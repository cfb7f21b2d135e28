// Package policystore is the embedded configuration store for per-provider,
// per-service rate-limit policies, backed by gorm over glebarez/sqlite so the
// worker and server processes share a policy table without standing up a
// separate database service, per spec.md §6.
package policystore

import (
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
)

// Policy is the gorm-mapped row backing ratelimit.Policy. Provider+Service
// together form the natural key, mirroring the redis key shape ratelimit
// already uses (ratelimit:{provider}:{service}:...).
type Policy struct {
	ID                      uint      `gorm:"primaryKey;autoIncrement"`
	Provider                string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_provider_service"`
	Service                 string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_provider_service"`
	PerMinute               int       `gorm:"not null"`
	PerDay                  int       `gorm:"not null"`
	CreditLimit             float64   `gorm:"not null;default:0"`
	EstimatedCostPerRequest float64   `gorm:"not null;default:0"`
	CreatedAt               time.Time `gorm:"autoCreateTime"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime"`
}

func (p Policy) toRateLimit() ratelimit.Policy {
	return ratelimit.Policy{
		PerMinute:               p.PerMinute,
		PerDay:                  p.PerDay,
		CreditLimit:             p.CreditLimit,
		EstimatedCostPerRequest: p.EstimatedCostPerRequest,
	}
}
