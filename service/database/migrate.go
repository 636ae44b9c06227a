/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据集目录相关表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference dev_docs/model.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致
 * @dependencies datawrangle-service/service/models, gorm.io/gorm
 * @refs service/models/dataset.go
 */

package database

import (
	"log/slog"

	"gorm.io/gorm"

	"datawrangle-service/service/models"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	slog.Info("开始数据库迁移")

	// 数据集目录相关表
	err := db.AutoMigrate(
		&models.Dataset{},
		&models.DatasetTag{},
		&models.ProcessingStep{},
		&models.DatasetPayload{},
		&models.SearchToken{},
	)
	if err != nil {
		return err
	}

	slog.Info("数据库表结构迁移完成")
	return nil
}
