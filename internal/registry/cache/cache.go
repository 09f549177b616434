// Package cache provides a Redis read-through cache for verification reads.
// Records are immutable except for the one revocation flip, so cached entries
// only ever go stale in the revoked direction; Invalidate is called on revoke
// and the TTL bounds the damage if that delete is lost.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eduledger/internal/domain"
	"eduledger/internal/platform/metrics"
	"eduledger/pkg/fingerprint"
)

// ErrMiss reports that the cache holds no entry for the key. Callers fall
// through to the store; a miss is never a failure.
var ErrMiss = errors.New("cache miss")

// RecordCache caches certificate records keyed both ways.
type RecordCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
}

func New(client redis.Cmdable, ttl time.Duration, metrics *metrics.Metrics) *RecordCache {
	return &RecordCache{client: client, ttl: ttl, metrics: metrics}
}

type cachedRecord struct {
	ID            string    `json:"id"`
	DocHash       string    `json:"doc_hash"`
	Recipient     string    `json:"recipient"`
	MetadataURI   string    `json:"metadata_uri"`
	IssuedAt      time.Time `json:"issued_at"`
	Revoked       bool      `json:"revoked"`
	RevokedReason string    `json:"revoked_reason"`
}

func idKey(id string) string {
	return "cert:id:" + id
}

func hashKey(hash domain.DocHash) string {
	return "cert:hash:" + fingerprint.Hex(hash)
}

// GetByID returns the cached record for a certificate ID, or ErrMiss.
func (c *RecordCache) GetByID(ctx context.Context, id string) (domain.CertificateRecord, error) {
	return c.fetch(ctx, idKey(id), "id")
}

// GetByHash returns the cached record for a document hash, or ErrMiss.
func (c *RecordCache) GetByHash(ctx context.Context, hash domain.DocHash) (domain.CertificateRecord, error) {
	return c.fetch(ctx, hashKey(hash), "hash")
}

// Put caches a record under both its keys. Errors are returned for logging
// but callers treat them as non-fatal.
func (c *RecordCache) Put(ctx context.Context, record domain.CertificateRecord) error {
	payload, err := json.Marshal(cachedRecord{
		ID:            record.ID,
		DocHash:       fingerprint.Hex(record.DocHash),
		Recipient:     string(record.Recipient),
		MetadataURI:   record.MetadataURI,
		IssuedAt:      record.IssuedAt,
		Revoked:       record.Revoked,
		RevokedReason: record.RevokedReason,
	})
	if err != nil {
		return fmt.Errorf("marshal cached record: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, idKey(record.ID), payload, c.ttl)
	pipe.Set(ctx, hashKey(record.DocHash), payload, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache record %q: %w", record.ID, err)
	}
	return nil
}

// Invalidate drops both entries for a record. Called on revocation so the
// next read observes the flipped flag.
func (c *RecordCache) Invalidate(ctx context.Context, record domain.CertificateRecord) error {
	if err := c.client.Del(ctx, idKey(record.ID), hashKey(record.DocHash)).Err(); err != nil {
		return fmt.Errorf("invalidate record %q: %w", record.ID, err)
	}
	return nil
}

func (c *RecordCache) fetch(ctx context.Context, key, path string) (domain.CertificateRecord, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.RecordCacheMiss(path)
		return domain.CertificateRecord{}, ErrMiss
	}
	if err != nil {
		c.metrics.RecordCacheMiss(path)
		return domain.CertificateRecord{}, fmt.Errorf("cache get %q: %w", key, err)
	}

	var cached cachedRecord
	if err := json.Unmarshal(payload, &cached); err != nil {
		c.metrics.RecordCacheMiss(path)
		return domain.CertificateRecord{}, fmt.Errorf("unmarshal cached record: %w", err)
	}
	hash, err := fingerprint.Parse(cached.DocHash)
	if err != nil {
		c.metrics.RecordCacheMiss(path)
		return domain.CertificateRecord{}, fmt.Errorf("parse cached fingerprint: %w", err)
	}

	c.metrics.RecordCacheHit(path)
	return domain.CertificateRecord{
		ID:            cached.ID,
		DocHash:       hash,
		Recipient:     domain.Address(cached.Recipient),
		MetadataURI:   cached.MetadataURI,
		IssuedAt:      cached.IssuedAt,
		Revoked:       cached.Revoked,
		RevokedReason: cached.RevokedReason,
	}, nil
}
