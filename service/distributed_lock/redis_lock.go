/*
 * @module service/distributed_lock/redis_lock
 * @description Redis分布式锁实现，用于多实例环境下同一数据集保存操作的串行化
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference dev_docs/backend_requirements.md 并发模型一节
 * @stateFlow 获取锁 -> 执行保存 -> 释放锁/自动过期
 * @rules 使用Redis SET NX实现，Lua脚本保证只有持有者能释放；未获取到锁视为保存冲突
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/catalog/service.go
 */

package distributed_lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// DatasetLock 数据集保存锁接口
type DatasetLock interface {
	// TryLock 尝试获取指定数据集的保存锁
	TryLock(ctx context.Context, datasetID string, ttl time.Duration) (bool, error)
	// Unlock 释放保存锁
	Unlock(ctx context.Context, datasetID string) error
	// Close 关闭底层连接
	Close() error
}

// RedisLock Redis数据集保存锁实现
type RedisLock struct {
	client     *redis.Client
	instanceID string // 实例ID，标识锁的持有者
}

// NewRedisLock 创建Redis数据集保存锁
func NewRedisLock() (*RedisLock, error) {
	host := getEnvWithDefault("REDIS_HOST", "localhost")
	port := getEnvWithDefault("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		fmt.Sscanf(dbStr, "%d", &db)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s:%d", hostname, os.Getpid())

	slog.Info("Redis数据集保存锁初始化成功",
		"instance_id", instanceID,
		"redis_host", host,
		"redis_port", port)

	return &RedisLock{
		client:     client,
		instanceID: instanceID,
	}, nil
}

// lockKey 构造数据集保存锁的键
func lockKey(datasetID string) string {
	return fmt.Sprintf("dataset_catalog:save_lock:%s", datasetID)
}

// TryLock 尝试获取保存锁，只有当key不存在时才会设置成功
func (r *RedisLock) TryLock(ctx context.Context, datasetID string, ttl time.Duration) (bool, error) {
	result, err := r.client.SetNX(ctx, lockKey(datasetID), r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取保存锁失败: %w", err)
	}

	if result {
		slog.Debug("数据集保存锁: 成功获取",
			"dataset_id", datasetID,
			"ttl", ttl,
			"instance", r.instanceID)
	}

	return result, nil
}

// Unlock 释放保存锁
// Lua脚本确保只有锁的持有者才能释放
func (r *RedisLock) Unlock(ctx context.Context, datasetID string) error {
	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{lockKey(datasetID)}, r.instanceID).Result()
	if err != nil {
		return fmt.Errorf("释放保存锁失败: %w", err)
	}

	if result.(int64) != 1 {
		slog.Warn("数据集保存锁: 锁不存在或已被其他实例持有",
			"dataset_id", datasetID,
			"instance", r.instanceID)
	}

	return nil
}

// Close 关闭Redis客户端
func (r *RedisLock) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
