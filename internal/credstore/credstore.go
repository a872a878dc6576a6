// Package credstore 保存四个凭据字段的本地镜像, 缺失时使用默认值。
package credstore

import (
	"context"

	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/storage"
	"github.com/domain-cutover/pkg/config"
	"github.com/domain-cutover/pkg/logger"
	"go.uber.org/zap"
)

const (
	KeyCloudflareEmail  = "cloudflare_email"
	KeyCloudflareAPIKey = "cloudflare_api_key"
	KeyRegistrarAPIURL  = "registrar_api_url"
	KeyRegistrarAPIKey  = "registrar_api_key"
)

type Store struct {
	storage    storage.Storage
	defaultURL string
}

// New 创建凭据存储, defaultURL 为空时使用 config.DefaultRegistrarAPIURL
func New(s storage.Storage, defaultURL string) *Store {
	if defaultURL == "" {
		defaultURL = config.DefaultRegistrarAPIURL
	}
	return &Store{storage: s, defaultURL: defaultURL}
}

func (s *Store) DefaultRegistrarAPIURL() string { return s.defaultURL }

// Get 读取四个键; 读取失败按缺失处理
func (s *Store) Get(ctx context.Context) model.Credentials {
	return model.Credentials{
		CloudflareEmail:  s.item(ctx, KeyCloudflareEmail, ""),
		CloudflareAPIKey: s.item(ctx, KeyCloudflareAPIKey, ""),
		RegistrarAPIURL:  s.item(ctx, KeyRegistrarAPIURL, s.defaultURL),
		RegistrarAPIKey:  s.item(ctx, KeyRegistrarAPIKey, ""),
	}
}

// Set 无条件写入全部四个键
func (s *Store) Set(ctx context.Context, c model.Credentials) {
	s.setItem(ctx, KeyCloudflareEmail, c.CloudflareEmail)
	s.setItem(ctx, KeyCloudflareAPIKey, c.CloudflareAPIKey)
	s.setItem(ctx, KeyRegistrarAPIURL, c.RegistrarAPIURL)
	s.setItem(ctx, KeyRegistrarAPIKey, c.RegistrarAPIKey)
}

// WithDefaults 为缺失字段补默认值, 与 Get 的规则相同
func (s *Store) WithDefaults(c model.Credentials) model.Credentials {
	if c.RegistrarAPIURL == "" {
		c.RegistrarAPIURL = s.defaultURL
	}
	return c
}

func (s *Store) item(ctx context.Context, key, fallback string) string {
	v, ok, err := s.storage.GetItem(ctx, key)
	if err != nil {
		logger.Logger.Warn("读取本地存储失败", zap.String("key", key), zap.Error(err))
		return fallback
	}
	// 与 localStorage.getItem(k) || default 一致, 空串也使用默认值
	if !ok || v == "" {
		return fallback
	}
	return v
}

func (s *Store) setItem(ctx context.Context, key, value string) {
	if err := s.storage.SetItem(ctx, key, value); err != nil {
		logger.Logger.Warn("写入本地存储失败", zap.String("key", key), zap.Error(err))
	}
}
