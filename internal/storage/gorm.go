package storage

import (
	"context"
	"errors"

	"github.com/domain-cutover/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProvider 将键值保存在 storage_entries 表中
type GormProvider struct {
	DB *gorm.DB
}

func NewGormProvider(db *gorm.DB) *GormProvider {
	return &GormProvider{DB: db}
}

func (p *GormProvider) Namespace(ns string) Storage {
	return &gormStorage{db: p.DB, ns: ns}
}

type gormStorage struct {
	db *gorm.DB
	ns string
}

func (s *gormStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var entry model.StorageEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.ns, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *gormStorage) SetItem(ctx context.Context, key, value string) error {
	entry := model.StorageEntry{Namespace: s.ns, Key: key, Value: value}
	// 主键冲突时覆盖旧值
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
