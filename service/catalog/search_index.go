/*
 * @module service/catalog/search_index
 * @description 搜索倒排索引，保存时从名称/描述/标签提取词条建立 词条->数据集 映射
 * @architecture 数据访问层 - 派生索引
 * @documentReference dev_docs/backend_requirements.md 搜索一节
 * @stateFlow 保存/删除事务内重建对应数据集的索引条目 -> 查询时按词条交集解析
 * @rules 索引与数据集记录在同一事务内变更，避免全表扫描式全文检索
 * @dependencies strings, unicode, gorm.io/gorm
 * @refs service/catalog/service.go
 */

package catalog

import (
	"strings"
	"unicode"

	"gorm.io/gorm"

	"datawrangle-service/service/models"
)

// tokenize 从若干文本中提取小写词条，按非字母数字切分并去重
func tokenize(texts ...string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, text := range texts {
		fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, field := range fields {
			if field == "" || seen[field] {
				continue
			}
			seen[field] = true
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// rebuildIndex 重建指定数据集的索引条目（先删后插，与保存同事务）
func rebuildIndex(tx *gorm.DB, datasetID, name, description string, tags []string) error {
	if err := removeIndex(tx, datasetID); err != nil {
		return err
	}

	texts := append([]string{name, description}, tags...)
	tokens := tokenize(texts...)
	if len(tokens) == 0 {
		return nil
	}

	entries := make([]models.SearchToken, len(tokens))
	for i, token := range tokens {
		entries[i] = models.SearchToken{Token: token, DatasetID: datasetID}
	}
	return tx.Create(&entries).Error
}

// removeIndex 删除指定数据集的全部索引条目
func removeIndex(tx *gorm.DB, datasetID string) error {
	return tx.Delete(&models.SearchToken{}, "dataset_id = ?", datasetID).Error
}

// matchByText 解析查询文本，返回同时命中所有查询词条的数据集id集合
// 每个查询词条按前缀匹配索引词条
func matchByText(db *gorm.DB, text string) (map[string]bool, error) {
	queryTokens := tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	var matched map[string]bool
	for _, token := range queryTokens {
		var ids []string
		err := db.Model(&models.SearchToken{}).
			Where("token LIKE ?", escapeLike(token)+"%").
			Distinct().
			Pluck("dataset_id", &ids).Error
		if err != nil {
			return nil, err
		}

		current := make(map[string]bool, len(ids))
		for _, id := range ids {
			current[id] = true
		}

		if matched == nil {
			matched = current
			continue
		}
		// 查询词条之间取交集
		for id := range matched {
			if !current[id] {
				delete(matched, id)
			}
		}
		if len(matched) == 0 {
			break
		}
	}
	return matched, nil
}

// escapeLike 转义LIKE模式中的通配符
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
