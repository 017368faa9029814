package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/converter-service/internal/domain"
)

const licenseStatusKeyPrefix = "license:status:"

// LicenseStatusEntry is the cached provider verdict for a license.
type LicenseStatusEntry struct {
	Status    domain.LicenseStatus `json:"status"`
	CheckedAt time.Time            `json:"checked_at"`
}

// LicenseStatusCache stores short-lived provider verdicts so repeated
// refreshes inside the TTL skip the upstream call.
type LicenseStatusCache interface {
	Get(ctx context.Context, licenseID string) (*LicenseStatusEntry, bool)
	Set(ctx context.Context, licenseID string, entry LicenseStatusEntry) error
	Invalidate(ctx context.Context, licenseID string) error
}

type licenseStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLicenseStatusCache returns a Redis-backed implementation.
func NewLicenseStatusCache(client *redis.Client, ttl time.Duration) LicenseStatusCache {
	return &licenseStatusCache{client: client, ttl: ttl}
}

// Get treats any Redis failure as a cache miss.
func (c *licenseStatusCache) Get(ctx context.Context, licenseID string) (*LicenseStatusEntry, bool) {
	raw, err := c.client.Get(ctx, licenseStatusKeyPrefix+licenseID).Bytes()
	if err != nil {
		return nil, false
	}

	var entry LicenseStatusEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (c *licenseStatusCache) Set(ctx context.Context, licenseID string, entry LicenseStatusEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, licenseStatusKeyPrefix+licenseID, raw, c.ttl).Err()
}

func (c *licenseStatusCache) Invalidate(ctx context.Context, licenseID string) error {
	return c.client.Del(ctx, licenseStatusKeyPrefix+licenseID).Err()
}
