/*
 * @module service/catalog/service
 * @description 数据集目录服务，提供保存、加载、删除、历史查询和搜索，维护处理历史与搜索索引
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md 数据集目录一节
 * @stateFlow 保存（整记录替换+历史追加+索引重建）-> 加载/搜索 -> 显式删除
 * @rules 同一数据集写操作串行化，陈旧updated_at写入报冲突；目录I/O限时；变更操作失败不自动重试
 * @dependencies gorm.io/gorm, github.com/google/uuid, service/distributed_lock, service/pipeline
 * @refs service/models/dataset.go, api/controllers/dataset_controller.go
 */

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"datawrangle-service/service/distributed_lock"
	"datawrangle-service/service/models"
	"datawrangle-service/service/pipeline"
)

// defaultTimeout 目录I/O缺省限时
const defaultTimeout = 5 * time.Second

// saveLockTTL 跨实例保存锁的过期时长
const saveLockTTL = 30 * time.Second

// Service 数据集目录服务
type Service struct {
	db       *gorm.DB
	timeout  time.Duration
	locks    sync.Map // 数据集id -> *sync.Mutex，进程内按id串行化写操作
	distLock distributed_lock.DatasetLock
}

// NewService 创建数据集目录服务实例
// 限时可通过 CATALOG_TIMEOUT_SECONDS 覆盖
func NewService(db *gorm.DB) *Service {
	timeout := defaultTimeout
	if val := os.Getenv("CATALOG_TIMEOUT_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
	}
	return &Service{db: db, timeout: timeout}
}

// WithDistributedLock 启用跨实例的数据集保存锁（多实例部署时由初始化逻辑注入）
func (s *Service) WithDistributedLock(lock distributed_lock.DatasetLock) *Service {
	s.distLock = lock
	return s
}

// Save 保存数据集：新建时分配id，更新时整记录替换并将本次步骤追加到既有历史之后
// 携带陈旧 expected_updated_at 的写入者收到冲突错误，不会发生静默覆盖
func (s *Service) Save(ctx context.Context, table *models.DataTable, req models.SaveRequest, steps []models.ProcessingStep) (*models.Dataset, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	for _, col := range table.Columns {
		if !models.ValidColumnType(col.Type) {
			return nil, &models.ValidationError{
				Operation: "save_dataset",
				Columns:   []string{col.Name},
				Message:   fmt.Sprintf("列缺少合法的类型标注: %q", col.Type),
			}
		}
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, &models.ValidationError{Operation: "save_dataset", Message: "数据集名称不能为空"}
	}

	id := req.ID
	isNew := id == ""
	if isNew {
		id = uuid.NewString()
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if s.distLock != nil {
		acquired, err := s.distLock.TryLock(ctx, id, saveLockTTL)
		if err != nil {
			return nil, fmt.Errorf("获取保存锁失败: %w", err)
		}
		if !acquired {
			return nil, &models.ConflictError{DatasetID: id, Message: "其他实例正在保存该数据集"}
		}
		defer func() {
			if err := s.distLock.Unlock(context.Background(), id); err != nil {
				slog.Error("释放保存锁失败", "dataset_id", id, "error", err)
			}
		}()
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tags := NormalizeTags(req.Tags)

	err := s.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		var createdAt time.Time
		previousRef := ""

		if isNew {
			createdAt = time.Now()
		} else {
			var existing models.Dataset
			if err := tx.First(&existing, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &models.NotFoundError{Resource: "数据集", ID: id}
				}
				return err
			}
			if req.ExpectedUpdatedAt != nil && !existing.UpdatedAt.Equal(*req.ExpectedUpdatedAt) {
				return &models.ConflictError{
					DatasetID: id,
					Message: fmt.Sprintf("updated_at 已过期（期望 %s，当前 %s）",
						req.ExpectedUpdatedAt.Format(time.RFC3339Nano),
						existing.UpdatedAt.Format(time.RFC3339Nano)),
				}
			}
			createdAt = existing.CreatedAt
			previousRef = existing.StorageRef
		}

		data, ref, err := encodePayload(table)
		if err != nil {
			return err
		}
		if err := savePayload(tx, ref, data); err != nil {
			return err
		}

		dataset := models.Dataset{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Owner:       req.Owner,
			RowCount:    table.RowCount(),
			ColumnCount: len(table.Columns),
			Schema:      schemaOf(table),
			StorageRef:  ref,
			SourceMeta:  req.SourceMeta,
			CreatedAt:   createdAt,
			UpdatedAt:   time.Now(),
		}
		if isNew {
			if err := tx.Create(&dataset).Error; err != nil {
				return err
			}
		} else {
			// 整记录替换，而非字段级补丁
			if err := tx.Model(&models.Dataset{}).Where("id = ?", id).
				Select("*").Omit("created_at").Updates(&dataset).Error; err != nil {
				return err
			}
		}

		// 旧载荷在记录替换后若无引用则回收
		if previousRef != "" && previousRef != dataset.StorageRef {
			if err := deletePayloadIfUnreferenced(tx, previousRef); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.DatasetTag{}, "dataset_id = ?", id).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Create(&models.DatasetTag{DatasetID: id, Tag: tag}).Error; err != nil {
				return err
			}
		}

		// 历史仅追加：本次步骤的 step_index 接在既有历史之后
		var existingSteps int64
		if err := tx.Model(&models.ProcessingStep{}).Where("dataset_id = ?", id).Count(&existingSteps).Error; err != nil {
			return err
		}
		for i := range steps {
			record := steps[i]
			record.ID = 0
			record.DatasetID = id
			record.StepIndex = int(existingSteps) + i
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		return rebuildIndex(tx, id, req.Name, req.Description, tags)
	})
	if err != nil {
		return nil, s.translate("save_dataset", err)
	}

	saved, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("数据集保存成功",
		"dataset_id", id,
		"name", req.Name,
		"owner", req.Owner,
		"rows", saved.RowCount,
		"appended_steps", len(steps),
		"created", isNew)
	return saved, nil
}

// Load 按id加载数据集元数据、标签和完整处理历史
func (s *Service) Load(ctx context.Context, id string) (*models.Dataset, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var dataset models.Dataset
	err := s.db.WithContext(tctx).
		Preload("Tags").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_index ASC")
		}).
		First(&dataset, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Resource: "数据集", ID: id}
		}
		return nil, s.translate("load_dataset", err)
	}
	return &dataset, nil
}

// LoadTable 加载数据集及其载荷表格
// 载荷只持久化取值，统计信息在加载时重新计算
func (s *Service) LoadTable(ctx context.Context, id string) (*models.Dataset, *models.DataTable, error) {
	dataset, err := s.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := loadPayload(s.db.WithContext(tctx), dataset.StorageRef)
	if err != nil {
		return nil, nil, s.translate("load_payload", err)
	}
	table, err := decodePayload(payload.Data)
	if err != nil {
		return nil, nil, err
	}
	pipeline.RecomputeStats(table)
	return dataset, table, nil
}

// Delete 删除数据集记录、标签、历史、索引条目和无引用的载荷；重复删除不报错
func (s *Service) Delete(ctx context.Context, id string) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		var dataset models.Dataset
		if err := tx.First(&dataset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // 幂等：删除不存在的id不是错误
			}
			return err
		}

		if err := tx.Delete(&models.ProcessingStep{}, "dataset_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.DatasetTag{}, "dataset_id = ?", id).Error; err != nil {
			return err
		}
		if err := removeIndex(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Dataset{}, "id = ?", id).Error; err != nil {
			return err
		}
		return deletePayloadIfUnreferenced(tx, dataset.StorageRef)
	})
	if err != nil {
		return s.translate("delete_dataset", err)
	}

	slog.Info("数据集删除完成", "dataset_id", id)
	return nil
}

// History 按追加顺序返回数据集的处理历史
func (s *Service) History(ctx context.Context, id string) ([]models.ProcessingStep, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db := s.db.WithContext(tctx)
	var count int64
	if err := db.Model(&models.Dataset{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, s.translate("load_history", err)
	}
	if count == 0 {
		return nil, &models.NotFoundError{Resource: "数据集", ID: id}
	}

	var steps []models.ProcessingStep
	err := db.Where("dataset_id = ?", id).Order("step_index ASC").Find(&steps).Error
	if err != nil {
		return nil, s.translate("load_history", err)
	}
	return steps, nil
}

// Search 按文本/标签/属主条件搜索数据集
// 文本经倒排索引解析；标签要求全部命中；结果按 updated_at 降序、id 升序排列
func (s *Service) Search(ctx context.Context, query models.SearchQuery) ([]models.DatasetSummary, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db := s.db.WithContext(tctx)

	matched, err := matchByText(db, query.Text)
	if err != nil {
		return nil, s.translate("search_datasets", err)
	}
	if matched != nil && len(matched) == 0 {
		return []models.DatasetSummary{}, nil
	}

	q := db.Model(&models.Dataset{})
	if matched != nil {
		ids := make([]string, 0, len(matched))
		for id := range matched {
			ids = append(ids, id)
		}
		q = q.Where("id IN ?", ids)
	}
	if query.Owner != "" {
		q = q.Where("owner = ?", query.Owner)
	}
	for _, tag := range NormalizeTags(query.Tags) {
		q = q.Where("EXISTS (SELECT 1 FROM dataset_tags WHERE dataset_tags.dataset_id = datasets.id AND dataset_tags.tag = ?)", tag)
	}

	var datasets []models.Dataset
	err = q.Preload("Tags").
		Order("updated_at DESC, id ASC").
		Find(&datasets).Error
	if err != nil {
		return nil, s.translate("search_datasets", err)
	}

	summaries := make([]models.DatasetSummary, len(datasets))
	for i, d := range datasets {
		summaries[i] = models.DatasetSummary{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Owner:       d.Owner,
			Tags:        d.TagNames(),
			RowCount:    d.RowCount,
			ColumnCount: d.ColumnCount,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		}
	}
	return summaries, nil
}

// lockFor 取数据集对应的进程内互斥锁
func (s *Service) lockFor(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// translate 将底层超时转换为超时错误，其余错误原样上抛（不做自动重试）
func (s *Service) translate(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.TimeoutError{Operation: operation, Timeout: s.timeout}
	}
	return err
}

// schemaOf 提取有序列定义（名称、类型、统计）作为数据集schema快照
func schemaOf(t *models.DataTable) models.JSONB {
	columns := make([]map[string]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		columns[i] = map[string]interface{}{
			"name":  col.Name,
			"type":  col.Type,
			"stats": col.Stats,
		}
	}
	return models.JSONB{"columns": columns}
}

// NormalizeTags 标签小写化、去首尾空白并按首次出现顺序去重
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		normalized = append(normalized, cleaned)
	}
	return normalized
}
