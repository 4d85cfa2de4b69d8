package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/models"
)

const tokenKeyPrefix = "member_token:"

// Cache is a read-through redis cache for token→member lookups. The scan
// endpoint is read-heavy on the members table; quota state is never
// cached, only member identity and validity, and every member mutation
// invalidates the entry.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

// GetMember returns the cached member for a token, or (nil, nil) on a
// cache miss. Redis errors degrade to a miss; the database stays the
// source of truth.
func (c *Cache) GetMember(ctx context.Context, token string) (*models.Member, error) {
	val, err := c.Client.Get(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("CACHE", "redis get failed, falling through to store: "+err.Error())
		}
		return nil, nil
	}

	var member models.Member
	if err := json.Unmarshal([]byte(val), &member); err != nil {
		// Corrupt entry: drop it and miss.
		c.Client.Del(ctx, tokenKeyPrefix+token)
		return nil, nil
	}
	return &member, nil
}

func (c *Cache) SetMember(ctx context.Context, member *models.Member) {
	data, err := json.Marshal(member)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, tokenKeyPrefix+member.Token, data, c.TTL).Err(); err != nil && c.Logger != nil {
		c.Logger.Warn("CACHE", "redis set failed: "+err.Error())
	}
}

// Invalidate drops the cached entry for a token after any member
// mutation (prolong, deactivate, delete).
func (c *Cache) Invalidate(ctx context.Context, token string) {
	if err := c.Client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil && c.Logger != nil {
		c.Logger.Warn("CACHE", "redis del failed: "+err.Error())
	}
}

// InitializeCache connects to redis and verifies the connection the way
// the service does at startup.
func InitializeCache(addr string, ttl time.Duration, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		if log != nil {
			log.Error("CACHE", "failed to connect to redis at "+addr+": "+err.Error())
		}
		return nil, err
	}
	if log != nil {
		log.Info("CACHE", "redis member cache ready at "+addr)
	}
	return client, nil
}
