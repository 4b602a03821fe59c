package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a pooled client for the shared store and verifies it
// with a short ping.  The caller owns the client and must Close it on
// shutdown.
func NewRedisClient(ctx context.Context, r Redis) (*redis.Client, error) {
	var tlsConf *tls.Config
	if r.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      r.Address(),
		Password:  r.Password,
		DB:        r.DB,
		PoolSize:  r.PoolSize,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", r.Address(), err)
	}
	return client, nil
}
