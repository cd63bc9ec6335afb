package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config conexión a Redis.
type Config struct {
	Addr     string
	Password string // optional
	DB       int    // optional
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

const keyPrefix = "inventory:processed:"

// ProcessedCache atajo de idempotencia: marca eventos ya procesados con éxito durante ttl.
// Nunca es la fuente de verdad; una entrada ausente solo obliga a consultar PostgreSQL.
type ProcessedCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewProcessedCache construye la cache sobre un cliente existente.
func NewProcessedCache(client redis.Cmdable, ttl time.Duration) *ProcessedCache {
	return &ProcessedCache{client: client, ttl: ttl}
}

// Has indica si eventID está marcado.
func (c *ProcessedCache) Has(ctx context.Context, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, keyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Mark registra eventID con el TTL configurado.
func (c *ProcessedCache) Mark(ctx context.Context, eventID string) error {
	if err := c.client.Set(ctx, keyPrefix+eventID, 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
