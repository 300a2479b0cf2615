package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/config"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "orders:archive:"

// Client is the part of *redis.Client the archive needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Archive keeps each day's order table under orders:archive:YYYYMMDD.
// Keys expire after ttl; zero keeps them forever.
type Archive struct {
	client Client
	ttl    time.Duration
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewArchive(client Client, ttl time.Duration) *Archive {
	return &Archive{client: client, ttl: ttl}
}

func Key(day time.Time) string {
	return keyPrefix + interfaces.ArchiveKey(day)
}

func (a *Archive) Load(ctx context.Context, day time.Time) (map[string]*domain.Order, error) {
	raw, err := a.client.Get(ctx, Key(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string]*domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archive %s: %w", Key(day), err)
	}

	orders := make(map[string]*domain.Order)
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", Key(day), err)
	}
	return orders, nil
}

func (a *Archive) Save(ctx context.Context, day time.Time, orders map[string]*domain.Order) error {
	body, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := a.client.Set(ctx, Key(day), body, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save archive %s: %w", Key(day), err)
	}
	return nil
}

var _ interfaces.OrderArchive = (*Archive)(nil)
