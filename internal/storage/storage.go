// Package storage 提供浏览器 localStorage 的服务端替代: 按命名空间隔离的字符串键值存储。
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/domain-cutover/internal/database"
	"github.com/domain-cutover/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Storage 是一个命名空间下的键值存储。ok=false 表示键不存在。
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
}

// Provider 为每个命名空间 (会话) 返回独立的 Storage
type Provider interface {
	Namespace(ns string) Storage
}

// NewProvider 根据 storage.driver 创建存储实现
func NewProvider(cfg *config.Config) (Provider, func() error, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("get sql.DB: %w", err)
		}
		return NewGormProvider(db), sqlDB.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisProvider(client), client.Close, nil
	default:
		return NewMemoryProvider(), func() error { return nil }, nil
	}
}

// MemoryProvider 进程内存储, 进程退出后丢失
type MemoryProvider struct {
	mu    sync.Mutex
	items map[string]map[string]string
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{items: make(map[string]map[string]string)}
}

func (p *MemoryProvider) Namespace(ns string) Storage {
	return &memoryStorage{p: p, ns: ns}
}

type memoryStorage struct {
	p  *MemoryProvider
	ns string
}

func (s *memoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	v, ok := s.p.items[s.ns][key]
	return v, ok, nil
}

func (s *memoryStorage) SetItem(_ context.Context, key, value string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.items[s.ns] == nil {
		s.p.items[s.ns] = make(map[string]string)
	}
	s.p.items[s.ns][key] = value
	return nil
}
