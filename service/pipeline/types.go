/*
 * @module service/pipeline/types
 * @description 流水线公共类型与参数解析辅助，定义操作枚举、步骤请求和步骤记录构造
 * @architecture 分层架构 - 流水线计算层
 * @documentReference dev_docs/backend_requirements.md 清洗操作一节
 * @stateFlow 步骤请求 -> 参数解析 -> 操作执行 -> 步骤记录
 * @rules 操作为闭集枚举；未知操作和非法参数统一报配置错误
 * @dependencies github.com/spf13/cast, service/models
 * @refs service/pipeline/orchestrator.go
 */

package pipeline

import (
	"time"

	"github.com/spf13/cast"

	"datawrangle-service/service/models"
)

// 流水线操作枚举
const (
	OpRemoveDuplicates = "remove_duplicates" // 去重
	OpHandleMissing    = "handle_missing"    // 缺失值处理
	OpRemoveOutliers   = "remove_outliers"   // 离群值剔除
	OpStandardizeText  = "standardize_text"  // 文本标准化
	OpCustomFilter     = "custom_filter"     // 自定义行过滤脚本
)

// 缺失值处理策略
const (
	StrategyDropRows = "drop_rows"
	StrategyFillMean = "fill_mean"
	StrategyFillMode = "fill_mode"
)

// 离群值多列判定方式
const (
	ViolationModeAny = "any" // 任一选中列越界即剔除（默认）
	ViolationModeAll = "all" // 全部选中列越界才剔除
)

// StepRequest 单个流水线步骤请求
type StepRequest struct {
	Operation  string                 `json:"operation"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// paramColumns 解析 columns 参数；未指定时返回 nil（由操作自行决定默认列集）
func paramColumns(params map[string]interface{}) []string {
	if params == nil {
		return nil
	}
	raw, exists := params["columns"]
	if !exists || raw == nil {
		return nil
	}
	return cast.ToStringSlice(raw)
}

// paramString 读取字符串参数，缺省时返回默认值
func paramString(params map[string]interface{}, key, defaultValue string) string {
	if params == nil {
		return defaultValue
	}
	if raw, exists := params[key]; exists && raw != nil {
		if s := cast.ToString(raw); s != "" {
			return s
		}
	}
	return defaultValue
}

// paramBool 读取布尔参数，缺省时返回默认值
func paramBool(params map[string]interface{}, key string, defaultValue bool) bool {
	if params == nil {
		return defaultValue
	}
	if raw, exists := params[key]; exists && raw != nil {
		if b, err := cast.ToBoolE(raw); err == nil {
			return b
		}
	}
	return defaultValue
}

// resolveColumns 将请求的列名解析为列下标，未指定时用 fallback 过滤默认列集
// 引用不存在的列报配置错误
func resolveColumns(t *models.DataTable, operation string, requested []string,
	fallback func(models.Column) bool) ([]int, error) {
	if len(requested) == 0 {
		indices := make([]int, 0, len(t.Columns))
		for i, col := range t.Columns {
			if fallback == nil || fallback(col) {
				indices = append(indices, i)
			}
		}
		return indices, nil
	}

	indices := make([]int, 0, len(requested))
	var missing []string
	for _, name := range requested {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			missing = append(missing, name)
			continue
		}
		indices = append(indices, idx)
	}
	if len(missing) > 0 {
		return nil, &models.ConfigurationError{
			Operation: operation,
			Columns:   missing,
			Message:   "引用的列不存在",
		}
	}
	return indices, nil
}

// newStep 构造步骤记录，保证参数快照和时间戳一致
func newStep(operation string, params map[string]interface{}, rowsBefore, rowsAfter int,
	affected []string, summary, level string) *models.ProcessingStep {
	if level == "" {
		level = "info"
	}
	return &models.ProcessingStep{
		Operation:       operation,
		Parameters:      models.JSONB(params),
		AppliedAt:       time.Now(),
		RowsBefore:      rowsBefore,
		RowsAfter:       rowsAfter,
		ColumnsAffected: models.JSONBStringArray(affected),
		Summary:         summary,
		Level:           level,
	}
}
