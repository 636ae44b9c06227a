/*
 * @module service/pipeline/textstd
 * @description 文本标准化操作，对文本/分类列执行去首尾空白、小写化和内部空白折叠
 * @architecture 分层架构 - 流水线计算层
 * @documentReference dev_docs/backend_requirements.md 清洗操作一节
 * @stateFlow 解析目标列 -> 逐格标准化 -> 重算统计
 * @rules 数值/日期时间列不做处理，显式选中时记为跳过而非报错
 * @dependencies fmt, regexp, strings, service/models
 * @refs service/pipeline/orchestrator.go
 */

package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"datawrangle-service/service/models"
)

// whitespaceRun 连续内部空白
var whitespaceRun = regexp.MustCompile(`\s+`)

// StandardizeText 标准化文本列取值，目标列缺省为全部文本/分类列
func StandardizeText(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	trim := paramBool(params, "trim", true)
	lowercase := paramBool(params, "lowercase", true)
	collapse := paramBool(params, "collapse_whitespace", true)

	targets, err := resolveColumns(t, OpStandardizeText, paramColumns(params), func(col models.Column) bool {
		return col.Type == models.ColumnTypeText || col.Type == models.ColumnTypeCategorical
	})
	if err != nil {
		return nil, nil, err
	}

	result := t.Clone()
	changed := 0
	var affected []string
	var skipped []string

	for _, idx := range targets {
		col := &result.Columns[idx]
		if col.Type != models.ColumnTypeText && col.Type != models.ColumnTypeCategorical {
			// 对数值/日期时间列的标准化请求按跳过处理
			skipped = append(skipped, col.Name)
			continue
		}

		colChanged := false
		for row, v := range col.Values {
			s, ok := v.(string)
			if !ok || conv.IsNull(v) {
				continue
			}
			standardized := s
			if trim {
				standardized = strings.TrimSpace(standardized)
			}
			if lowercase {
				standardized = strings.ToLower(standardized)
			}
			if collapse {
				standardized = whitespaceRun.ReplaceAllString(standardized, " ")
			}
			if standardized != s {
				col.Values[row] = standardized
				changed++
				colChanged = true
			}
		}
		if colChanged {
			affected = append(affected, col.Name)
		}
	}
	RecomputeStats(result)

	summary := fmt.Sprintf("标准化了 %d 个文本取值", changed)
	if len(skipped) > 0 {
		summary += fmt.Sprintf("；列(%s)类型不适用已跳过", strings.Join(skipped, ","))
	}

	return result, newStep(OpStandardizeText, params, t.RowCount(), result.RowCount(), affected, summary, "info"), nil
}
