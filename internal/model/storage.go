package model

import "time"

// StorageEntry 是本地存储镜像在数据库中的一行, 按 (namespace, key) 唯一
type StorageEntry struct {
	Namespace string `gorm:"primaryKey;size:128;comment:会话ID或cli"`
	Key       string `gorm:"primaryKey;size:128;comment:存储键"`
	Value     string `gorm:"type:text;comment:存储值"`
	UpdatedAt time.Time
}
