package out

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "fastflow/internal/platform/errors"
)

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisBlobStore keeps each slot as a plain string key <prefix><slot>.
type RedisBlobStore struct {
	client *redis.Client
	prefix string
}

func NewRedisBlobStore(opts RedisOptions) (*RedisBlobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisBlobStore{client: client, prefix: opts.KeyPrefix}, nil
}

func (s *RedisBlobStore) key(slot string) string {
	return s.prefix + slot
}

func (s *RedisBlobStore) Get(ctx context.Context, slot string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (s *RedisBlobStore) Put(ctx context.Context, slot string, value []byte) error {
	if err := s.client.Set(ctx, s.key(slot), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisBlobStore) Close() error {
	return s.client.Close()
}
