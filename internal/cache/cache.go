package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key under which the stock summary is cached.
const SummaryKey = "inventory:stock:summary"

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

// Cache is a JSON read-through cache. A nil *Cache, or one without a client,
// always calls the loader.
//
// Every entry is stamped with the key's generation, and Invalidate bumps the
// generation. A loader that started before an invalidation therefore stores
// an entry that is already outdated and is ignored on the next read.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

type entry struct {
	Gen  int64           `json:"gen"`
	Data json.RawMessage `json:"data"`
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

func genKey(key string) string {
	return key + ":gen"
}

// FetchJSON decodes the cached value at key into dest, or runs loader and
// caches its result. Redis failures degrade to calling the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}

	var (
		gen    int64
		stored bool
	)
	if c.enabled() {
		vals, err := c.client.MGet(ctx, key, genKey(key)).Result()
		if err == nil && len(vals) == 2 {
			stored = true
			gen = parseGen(vals[1])
			if payload, ok := vals[0].(string); ok {
				var e entry
				if json.Unmarshal([]byte(payload), &e) == nil && e.Gen == gen &&
					json.Unmarshal(e.Data, dest) == nil {
					return nil
				}
			}
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if stored {
		if payload, err := json.Marshal(entry{Gen: gen, Data: raw}); err == nil {
			_ = c.client.Set(ctx, key, payload, c.ttl).Err()
		}
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops the given keys and bumps their generations.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, genKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	return err
}

func parseGen(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	gen, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return gen
}
