package contact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const listCacheTTL = 60 * time.Second

// ListCache is an optional Redis cache for list responses. Keys embed a
// per-owner version counter that every mutation bumps, so an owner can never
// read their own stale list. A nil *ListCache is a no-op.
type ListCache struct {
	client *redis.Client
}

func NewListCache(client *redis.Client) *ListCache {
	return &ListCache{client: client}
}

func versionKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("contacts:ver:%s", ownerID)
}

func listKey(ownerID uuid.UUID, version int64, searchTerm string, favoritesOnly bool) string {
	// The search term is user input; hash it to keep keys bounded and flat.
	sum := sha256.Sum256([]byte(searchTerm))
	return fmt.Sprintf("contacts:%s:v%d:q%s:f%t", ownerID, version, hex.EncodeToString(sum[:8]), favoritesOnly)
}

func (c *ListCache) version(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(ownerID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return version, err
}

// Get returns the cached list for the query, or ok=false on a miss, along
// with the version counter it observed. Callers must pass that version back
// to Set so a snapshot assembled before a mutation lands under the old,
// unreachable key instead of the bumped one.
func (c *ListCache) Get(ctx context.Context, ownerID uuid.UUID, searchTerm string, favoritesOnly bool) ([]*Contact, int64, bool, error) {
	if c == nil {
		return nil, 0, false, nil
	}

	version, err := c.version(ctx, ownerID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read cache version: %w", err)
	}

	payload, err := c.client.Get(ctx, listKey(ownerID, version, searchTerm, favoritesOnly)).Bytes()
	if err == redis.Nil {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, version, false, fmt.Errorf("failed to read cached list: %w", err)
	}

	var contacts []*Contact
	if err := json.Unmarshal(payload, &contacts); err != nil {
		return nil, version, false, fmt.Errorf("failed to decode cached list: %w", err)
	}
	return contacts, version, true, nil
}

// Set stores the list response under the version observed at Get time.
func (c *ListCache) Set(ctx context.Context, ownerID uuid.UUID, version int64, searchTerm string, favoritesOnly bool, contacts []*Contact) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("failed to encode list: %w", err)
	}

	if err := c.client.Set(ctx, listKey(ownerID, version, searchTerm, favoritesOnly), payload, listCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to store cached list: %w", err)
	}
	return nil
}

// Invalidate bumps the owner's version so existing entries become
// unreachable; their TTL reclaims them.
func (c *ListCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if c == nil {
		return nil
	}

	pipe := c.client.Pipeline()
	pipe.Incr(ctx, versionKey(ownerID))
	pipe.Expire(ctx, versionKey(ownerID), 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate list cache: %w", err)
	}
	return nil
}
