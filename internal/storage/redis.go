package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cutover:storage:"

// RedisProvider 每个命名空间对应一个 redis hash
type RedisProvider struct {
	Client *redis.Client
}

func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{Client: client}
}

func (p *RedisProvider) Namespace(ns string) Storage {
	return &redisStorage{client: p.Client, key: redisKeyPrefix + ns}
}

type redisStorage struct {
	client *redis.Client
	key    string
}

func (s *redisStorage) GetItem(ctx context.Context, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStorage) SetItem(ctx context.Context, field, value string) error {
	return s.client.HSet(ctx, s.key, field, value).Err()
}
