package config

// Redis backs the logout revocation set and the credential endpoint rate
// limiter.  Both degrade to no-ops when the client is nil.

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisOptions resolves client options.  REDIS_URL (redis:// or rediss://)
// wins; otherwise REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and REDIS_TLS are
// combined, defaulting to localhost:6379 db 0.
func RedisOptions() (*redis.Options, error) {
    if u := envStr("REDIS_URL", ""); u != "" {
        opts, err := redis.ParseURL(u)
        if err != nil {
            return nil, fmt.Errorf("REDIS_URL: %w", err)
        }
        return opts, nil
    }
    opts := &redis.Options{
        Addr:         envStr("REDIS_ADDR", "localhost:6379"),
        Password:     envStr("REDIS_PASSWORD", ""),
        DB:           envInt("REDIS_DB", 0),
        DialTimeout:  envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
        ReadTimeout:  envDur("REDIS_IO_TIMEOUT", time.Second),
        WriteTimeout: envDur("REDIS_IO_TIMEOUT", time.Second),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}

// NewRedisClient connects and pings once.  A nil client with a nil error
// means Redis is switched off (REDIS_ENABLED=false); an unreachable server
// is reported so the caller can log it and carry on without Redis.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
    if !envBool("REDIS_ENABLED", true) {
        return nil, nil
    }
    opts, err := RedisOptions()
    if err != nil {
        return nil, err
    }
    client := redis.NewClient(opts)
    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
    }
    return client, nil
}
