package storage

import (
	"context"
	"fmt"
	"strings"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// OpenHistory builds the configured history backend. The returned closer is
// never nil.
func OpenHistory(ctx context.Context, cfg config.HistoryConfig) (ports.HistoryStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		path := cfg.Path
		if path == "" {
			path = "sent_links.txt"
		}
		return NewFileHistory(path), noop, nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "newsdigest.db"
		}
		store, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, noop, fmt.Errorf("history backend postgres requires a dsn")
		}
		store, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, noop, fmt.Errorf("history backend redis requires a url")
		}
		store, err := OpenRedis(ctx, cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
