/*
 * @module service/database/database
 * @description 数据库连接管理，按环境变量选择PostgreSQL或本地SQLite
 * @architecture 数据访问层 - 连接管理
 * @documentReference dev_docs/backend_requirements.md 持久化布局一节
 * @stateFlow 应用启动时建立连接 -> 迁移 -> 服务层复用同一连接池
 * @rules DATABASE_URL / DB_* 存在时使用PostgreSQL，否则回退到 DB_PATH 指定的SQLite文件
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs service/init.go
 */

package database

import (
	"fmt"
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// defaultSQLitePath 未配置PostgreSQL时的本地数据库文件
const defaultSQLitePath = "datawrangle.db"

// Open 按环境变量建立数据库连接
func Open() (*gorm.DB, error) {
	if dsn := postgresDSN(); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("PostgreSQL连接失败: %w", err)
		}
		slog.Info("数据库连接成功", "driver", "postgres")
		return db, nil
	}

	path := os.Getenv("DB_PATH")
	if path == "" {
		path = defaultSQLitePath
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("SQLite连接失败: %w", err)
	}
	slog.Info("数据库连接成功", "driver", "sqlite", "path", path)
	return db, nil
}

// postgresDSN 从环境变量构建PostgreSQL连接串，未配置时返回空串
func postgresDSN() string {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL
	}
	if os.Getenv("DB_HOST") == "" {
		return ""
	}

	host := getEnvWithDefault("DB_HOST", "localhost")
	port := getEnvWithDefault("DB_PORT", "5432")
	user := getEnvWithDefault("DB_USER", "postgres")
	password := os.Getenv("DB_PASSWORD")
	dbname := getEnvWithDefault("DB_NAME", "postgres")
	sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
	schema := getEnvWithDefault("DB_SCHEMA", "public")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
		host, port, user, password, dbname, sslmode, schema)
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
