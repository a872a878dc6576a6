package database

import (
	"fmt"

	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/pkg/config"
	"github.com/domain-cutover/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DSN 按配置拼接 postgres 连接串
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.Port,
		cfg.SSLMode,
	)
}

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	return Open(DSN(cfg))
}

// Open 连接数据库并迁移本地存储表
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Logger.Info("连接数据库成功")

	if err := db.AutoMigrate(&model.StorageEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage entries: %w", err)
	}
	logger.Logger.Info("数据库迁移成功")
	return db, nil
}
