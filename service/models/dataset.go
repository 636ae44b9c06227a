/*
 * @module service/models/dataset
 * @description 数据集目录实体模型，包括数据集元数据、标签、处理历史、载荷和搜索索引表
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference dev_docs/model.md
 * @stateFlow 首次保存创建 -> 处理+保存循环更新（追加历史、刷新updated_at）-> 显式删除销毁
 * @rules 处理历史仅追加，step_index 按数据集严格递增；标签小写去重；updated_at 仅在保存时变更
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs dev_docs/requirements.md, service/catalog
 */

package models

import (
	"time"
)

// Dataset 数据集目录实体
type Dataset struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string           `json:"name" gorm:"not null;size:255;index"`
	Description string           `json:"description" gorm:"size:1000"`
	Owner       string           `json:"owner" gorm:"not null;size:255;index"`
	RowCount    int              `json:"row_count" gorm:"not null;default:0"`
	ColumnCount int              `json:"column_count" gorm:"not null;default:0"`
	Schema      JSONB            `json:"schema" gorm:"type:jsonb"` // 有序列定义（名称、类型、统计）
	StorageRef  string           `json:"storage_ref" gorm:"not null;size:64;index"`
	SourceMeta  JSONB            `json:"source_meta,omitempty" gorm:"type:jsonb"` // 原始文件名、检测编码等接入元数据
	CreatedAt   time.Time        `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time        `json:"updated_at" gorm:"not null;index"`

	// 关联关系
	Tags  []DatasetTag     `json:"tags,omitempty" gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
	Steps []ProcessingStep `json:"steps,omitempty" gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
}

// TagNames 按存储顺序返回标签名
func (d *Dataset) TagNames() []string {
	names := make([]string, len(d.Tags))
	for i, t := range d.Tags {
		names[i] = t.Tag
	}
	return names
}

// DatasetTag 数据集标签（多对多展开表）
type DatasetTag struct {
	DatasetID string `json:"dataset_id" gorm:"primaryKey;type:varchar(36)"`
	Tag       string `json:"tag" gorm:"primaryKey;size:100;index"`
}

// ProcessingStep 处理历史记录，一条记录对应流水线中一次已完成的操作
// 记录一经追加不可修改，step_index 从0开始按数据集严格递增
type ProcessingStep struct {
	ID              uint             `json:"-" gorm:"primaryKey;autoIncrement"`
	DatasetID       string           `json:"dataset_id,omitempty" gorm:"type:varchar(36);index:idx_steps_dataset_order,priority:1"`
	StepIndex       int              `json:"step_index" gorm:"index:idx_steps_dataset_order,priority:2"`
	Operation       string           `json:"operation" gorm:"not null;size:50"`
	Parameters      JSONB            `json:"parameters" gorm:"type:jsonb"`
	AppliedAt       time.Time        `json:"applied_at" gorm:"not null"`
	RowsBefore      int              `json:"rows_before" gorm:"not null"`
	RowsAfter       int              `json:"rows_after" gorm:"not null"`
	ColumnsAffected JSONBStringArray `json:"columns_affected" gorm:"type:jsonb"`
	Summary         string           `json:"summary" gorm:"size:1000"`
	Level           string           `json:"level" gorm:"not null;default:'info';size:10"` // info, warning
}

// DatasetPayload 内容寻址的数据集载荷，ref 为载荷规范JSON的 BLAKE2b-256 摘要
// 多个数据集版本可共享同一载荷行，删除时仅清理无引用的行
type DatasetPayload struct {
	Ref       string    `json:"ref" gorm:"primaryKey;size:64"`
	Data      []byte    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// SearchToken 倒排索引条目：词条 -> 数据集
// 保存/删除时在同一事务内重建对应数据集的条目
type SearchToken struct {
	Token     string `json:"token" gorm:"primaryKey;size:100;index"`
	DatasetID string `json:"dataset_id" gorm:"primaryKey;type:varchar(36);index"`
}

// DatasetSummary 搜索结果摘要（不含载荷和历史）
type DatasetSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	Tags        []string  `json:"tags"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchQuery 目录搜索条件
type SearchQuery struct {
	Text  string   `json:"text,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Owner string   `json:"owner,omitempty"`
}

// SaveRequest 数据集保存请求
type SaveRequest struct {
	ID                string     `json:"id,omitempty"` // 为空时新建
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Tags              []string   `json:"tags"`
	Owner             string     `json:"owner"`
	SourceMeta        JSONB      `json:"source_meta,omitempty"`
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at,omitempty"` // 更新时的乐观并发检查基准
}
