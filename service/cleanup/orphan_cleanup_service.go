/*
 * @module service/cleanup/orphan_cleanup_service
 * @description 孤儿数据清理服务，定期回收数据集删除后残留的载荷、索引、标签和历史行
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md 持久化布局一节
 * @stateFlow 定时触发 -> 逐表扫描孤儿行 -> 删除 -> 记录结果
 * @rules 只清理所属数据集已不存在的行；在册数据集的处理历史仅追加、永不清理
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/catalog, service/database/migrate.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"datawrangle-service/service/models"
)

// defaultCleanupCron 缺省每天凌晨2点执行（秒 分 时 日 月 周）
const defaultCleanupCron = "0 0 2 * * *"

// OrphanCleanupService 孤儿数据清理服务
type OrphanCleanupService struct {
	db      *gorm.DB
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewOrphanCleanupService 创建孤儿数据清理服务实例
func NewOrphanCleanupService(db *gorm.DB) *OrphanCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &OrphanCleanupService{
		db:     db,
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// CleanupOrphans 清理所有孤儿行
// 正常删除流程在事务内完成全部清理，此处兜底处理历史异常（如进程中断）留下的残留
func (s *OrphanCleanupService) CleanupOrphans(ctx context.Context) error {
	slog.Info("开始清理孤儿数据")
	startTime := time.Now()

	db := s.db.WithContext(ctx)

	steps, err := s.cleanupOrphanRows(db, &models.ProcessingStep{}, "处理历史")
	if err != nil {
		return err
	}
	tags, err := s.cleanupOrphanRows(db, &models.DatasetTag{}, "标签")
	if err != nil {
		return err
	}
	tokens, err := s.cleanupOrphanRows(db, &models.SearchToken{}, "索引条目")
	if err != nil {
		return err
	}
	payloads, err := s.cleanupOrphanPayloads(db)
	if err != nil {
		return err
	}

	slog.Info("孤儿数据清理完成",
		"steps_deleted", steps,
		"tags_deleted", tags,
		"tokens_deleted", tokens,
		"payloads_deleted", payloads,
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// cleanupOrphanRows 删除 dataset_id 已无对应数据集的行
func (s *OrphanCleanupService) cleanupOrphanRows(db *gorm.DB, model interface{}, label string) (int64, error) {
	result := db.Where("dataset_id NOT IN (SELECT id FROM datasets)").Delete(model)
	if result.Error != nil {
		return 0, fmt.Errorf("清理孤儿%s失败: %w", label, result.Error)
	}
	if result.RowsAffected > 0 {
		slog.Debug("清理孤儿行", "table", label, "deleted_count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// cleanupOrphanPayloads 删除已无任何数据集引用的载荷行
func (s *OrphanCleanupService) cleanupOrphanPayloads(db *gorm.DB) (int64, error) {
	result := db.Where("ref NOT IN (SELECT storage_ref FROM datasets)").Delete(&models.DatasetPayload{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理孤儿载荷失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartScheduledCleanup 启动定时清理任务
// Cron表达式可通过 CLEANUP_CRON 覆盖（带秒字段）
func (s *OrphanCleanupService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("孤儿数据清理调度器已经启动")
	}

	spec := os.Getenv("CLEANUP_CRON")
	if spec == "" {
		spec = defaultCleanupCron
	}

	_, err := s.cron.AddFunc(spec, func() {
		if err := s.CleanupOrphans(s.ctx); err != nil {
			slog.Error("定时孤儿数据清理失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true

	slog.Info("孤儿数据清理调度器启动成功", "cron", spec)
	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *OrphanCleanupService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	s.cancel()
	s.cron.Stop()
	s.started = false

	slog.Info("孤儿数据清理调度器已停止")
}
