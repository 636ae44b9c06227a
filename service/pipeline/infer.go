/*
 * @module service/pipeline/infer
 * @description 列类型推断引擎，按数值 -> 日期时间 -> 分类 -> 文本的顺序确定每列最具体的语义类型
 * @architecture 分层架构 - 流水线计算层（纯函数）
 * @documentReference dev_docs/backend_requirements.md 类型推断一节
 * @stateFlow 接入表格 -> 逐列采样解析 -> 产出类型标注
 * @rules 非空值中解析成功率 >= 95% 才判定数值/日期时间；相同输入必须得到相同分类；不修改输入表格
 * @dependencies service/models, service/utils
 * @refs service/pipeline/stats.go, api/controllers/pipeline_controller.go
 */

package pipeline

import (
	"datawrangle-service/service/models"
)

// parseThreshold 数值/日期时间判定要求的最低解析成功率
const parseThreshold = 0.95

// categoricalMaxRatio 分类判定的去重比例上限
const categoricalMaxRatio = 0.5

// categoricalMinCount 分类判定要求的最小非空值数量
const categoricalMinCount = 10

// InferTypes 推断每列的语义类型，不修改输入
func InferTypes(t *models.DataTable) []models.ColumnType {
	types := make([]models.ColumnType, len(t.Columns))
	for i := range t.Columns {
		types[i] = inferColumnType(&t.Columns[i])
	}
	return types
}

// Annotate 将推断出的类型写入表格副本并计算统计信息
func Annotate(t *models.DataTable) *models.DataTable {
	annotated := t.Clone()
	types := InferTypes(t)
	for i := range annotated.Columns {
		annotated.Columns[i].Type = types[i]
	}
	RecomputeStats(annotated)
	return annotated
}

// inferColumnType 单列类型推断
func inferColumnType(col *models.Column) models.ColumnType {
	nonNull := 0
	numericOK := 0
	datetimeOK := 0
	distinct := make(map[string]bool)

	for _, v := range col.Values {
		if conv.IsNull(v) {
			continue
		}
		nonNull++
		distinct[conv.ToString(v)] = true

		if _, err := conv.ToFloat(v); err == nil {
			numericOK++
		}
		if _, err := conv.ParseDateTime(v); err == nil {
			datetimeOK++
		}
	}

	// 全空列没有判定依据，归为文本
	if nonNull == 0 {
		return models.ColumnTypeText
	}

	if float64(numericOK)/float64(nonNull) >= parseThreshold {
		return models.ColumnTypeNumeric
	}
	if float64(datetimeOK)/float64(nonNull) >= parseThreshold {
		return models.ColumnTypeDatetime
	}
	if nonNull >= categoricalMinCount &&
		float64(len(distinct))/float64(nonNull) < categoricalMaxRatio {
		return models.ColumnTypeCategorical
	}
	return models.ColumnTypeText
}
