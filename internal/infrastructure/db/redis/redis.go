package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the connection settings for the pending-auth store and the
// query cache. Both share one client.
type Config struct {
	Addr     string
	Password string
	DB       int
	// ClientName shows up in CLIENT LIST.
	ClientName string
	// DialTimeout bounds the initial connect and ping. Defaults to 5s.
	DialTimeout time.Duration
}

// Connect opens the client and pings it once. Commands honour the caller's
// context deadline, so request cancellation reaches Redis.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ClientName:            cfg.ClientName,
		DialTimeout:           dial,
		ReadTimeout:           time.Second,
		WriteTimeout:          time.Second,
		ContextTimeoutEnabled: true,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
