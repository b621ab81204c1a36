package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

const (
	generationKey    = "directory:listing:gen"
	listingKeyPrefix = "directory:listing:v2:"
)

func listingKey(gen int64) string {
	return listingKeyPrefix + strconv.FormatInt(gen, 10)
}

// ListingCache keeps the resolved public listing in Redis. Entries are keyed
// by a generation counter that Invalidate bumps, so a listing computed before
// a mutation lands under a key nobody reads any more and expires with its TTL.
// Redis errors degrade to cache misses.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ListingCache {
	return &ListingCache{client: client, ttl: ttl, log: log}
}

// Get returns the listing cached for the current generation. gen is -1 when
// the generation cannot be read.
func (c *ListingCache) Get(ctx context.Context) ([]*models.PublicProvider, int64, bool) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("listing cache generation read failed", zap.Error(err))
		return nil, -1, false
	}

	data, err := c.client.Get(ctx, listingKey(gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("listing cache read failed", zap.Error(err))
		}
		return nil, gen, false
	}

	var listing []*models.PublicProvider
	if err := json.Unmarshal(data, &listing); err != nil {
		c.log.Warn("listing cache entry corrupt", zap.Error(err))
		return nil, gen, false
	}
	return listing, gen, true
}

// Set stores listing under generation gen
func (c *ListingCache) Set(ctx context.Context, gen int64, listing []*models.PublicProvider) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(listing)
	if err != nil {
		c.log.Warn("listing cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, listingKey(gen), data, c.ttl).Err(); err != nil {
		c.log.Warn("listing cache write failed", zap.Error(err))
	}
}

// Invalidate moves readers to a fresh generation
func (c *ListingCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.log.Warn("listing cache invalidate failed", zap.Error(err))
	}
}
