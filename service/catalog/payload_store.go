/*
 * @module service/catalog/payload_store
 * @description 数据集载荷存取，将表格序列化为规范JSON并以BLAKE2b-256摘要做内容寻址
 * @architecture 数据访问层 - 内容寻址存储
 * @documentReference dev_docs/backend_requirements.md 持久化布局一节
 * @stateFlow 表格序列化 -> 摘要计算 -> 载荷行写入；读取反向执行
 * @rules storage_ref 即载荷摘要；未被任何数据集引用的载荷行才允许删除
 * @dependencies encoding/json, golang.org/x/crypto/blake2b, gorm.io/gorm
 * @refs service/catalog/service.go, service/cleanup
 */

package catalog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"

	"datawrangle-service/service/models"
)

// payloadDocument 载荷规范JSON结构，列顺序即表格列顺序
type payloadDocument struct {
	Name    string          `json:"name"`
	Columns []payloadColumn `json:"columns"`
}

type payloadColumn struct {
	Name   string            `json:"name"`
	Type   models.ColumnType `json:"type"`
	Values []interface{}     `json:"values"`
}

// encodePayload 序列化表格并计算内容摘要
func encodePayload(t *models.DataTable) ([]byte, string, error) {
	doc := payloadDocument{
		Name:    t.Name,
		Columns: make([]payloadColumn, len(t.Columns)),
	}
	for i, col := range t.Columns {
		doc.Columns[i] = payloadColumn{
			Name:   col.Name,
			Type:   col.Type,
			Values: col.Values,
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("载荷序列化失败: %w", err)
	}

	digest := blake2b.Sum256(data)
	return data, hex.EncodeToString(digest[:]), nil
}

// decodePayload 反序列化载荷为表格
func decodePayload(data []byte) (*models.DataTable, error) {
	var doc payloadDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("载荷反序列化失败: %w", err)
	}

	table := &models.DataTable{
		Name:    doc.Name,
		Columns: make([]models.Column, len(doc.Columns)),
	}
	for i, col := range doc.Columns {
		table.Columns[i] = models.Column{
			Name:   col.Name,
			Type:   col.Type,
			Values: col.Values,
		}
	}
	return table, nil
}

// savePayload 写入载荷行，相同摘要的载荷已存在时为空操作
func savePayload(tx *gorm.DB, ref string, data []byte) error {
	payload := models.DatasetPayload{
		Ref:       ref,
		Data:      data,
		CreatedAt: time.Now(),
	}
	return tx.Where("ref = ?", ref).FirstOrCreate(&payload).Error
}

// loadPayload 按摘要读取载荷
func loadPayload(tx *gorm.DB, ref string) (*models.DatasetPayload, error) {
	var payload models.DatasetPayload
	if err := tx.First(&payload, "ref = ?", ref).Error; err != nil {
		return nil, err
	}
	return &payload, nil
}

// deletePayloadIfUnreferenced 当没有数据集再引用该摘要时删除载荷行
func deletePayloadIfUnreferenced(tx *gorm.DB, ref string) error {
	if ref == "" {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Dataset{}).Where("storage_ref = ?", ref).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Delete(&models.DatasetPayload{}, "ref = ?", ref).Error
}
