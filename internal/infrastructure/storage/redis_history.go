package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const defaultRedisKey = "newsdigest:sent_links"

// RedisHistory keeps delivered links in a Redis set.
type RedisHistory struct {
	client redis.UniversalClient
	key    string
}

var _ ports.HistoryStore = (*RedisHistory)(nil)

// NewRedisHistory wraps an existing client.
func NewRedisHistory(client redis.UniversalClient, key string) *RedisHistory {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisHistory{client: client, key: key}
}

// OpenRedis parses a redis:// URL and verifies connectivity.
func OpenRedis(ctx context.Context, url, key string) (*RedisHistory, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisHistory(client, key), nil
}

// Load returns the members of the history set.
func (r *RedisHistory) Load(ctx context.Context) (domain.LinkSet, error) {
	members, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", r.key, err)
	}
	return domain.NewLinkSet(members...), nil
}

// Append adds links to the history set in a single SADD.
func (r *RedisHistory) Append(ctx context.Context, links []string) error {
	members := make([]any, 0, len(links))
	for _, link := range links {
		if link = strings.TrimSpace(link); link != "" {
			members = append(members, link)
		}
	}
	if len(members) == 0 {
		return nil
	}
	if err := r.client.SAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("sadd %s: %w", r.key, err)
	}
	return nil
}

// Close releases the client.
func (r *RedisHistory) Close() error {
	return r.client.Close()
}
