/*
 * @module service/pipeline/outlier
 * @description IQR离群值剔除操作，按四分位距1.5倍围栏判定并移除越界行
 * @architecture 分层架构 - 流水线计算层
 * @documentReference dev_docs/backend_requirements.md 清洗操作一节
 * @stateFlow 逐列计算Q1/Q3围栏 -> 按any/all方式合并多列判定 -> 派生新表格
 * @rules 分位数采用线性插值保证可复现；非空值不足4个的列跳过计算并在摘要中记录，不报错
 * @dependencies fmt, sort, strings, service/models
 * @refs service/pipeline/stats.go, service/pipeline/orchestrator.go
 */

package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"datawrangle-service/service/models"
)

// iqrFenceFactor 四分位距围栏倍数
const iqrFenceFactor = 1.5

// minValuesForIQR 计算围栏所需的最少非空值数量
const minValuesForIQR = 4

// columnBounds 单列离群判定围栏
type columnBounds struct {
	index int
	lower float64
	upper float64
}

// RemoveOutliers 按IQR方法移除离群行，目标列缺省为全部数值列
func RemoveOutliers(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	mode := paramString(params, "violation_mode", ViolationModeAny)
	if mode != ViolationModeAny && mode != ViolationModeAll {
		return nil, nil, &models.ConfigurationError{
			Operation: OpRemoveOutliers,
			Message:   fmt.Sprintf("未知的多列判定方式: %q，仅支持 any/all", mode),
		}
	}

	targets, err := resolveColumns(t, OpRemoveOutliers, paramColumns(params), func(col models.Column) bool {
		return col.Type == models.ColumnTypeNumeric
	})
	if err != nil {
		return nil, nil, err
	}

	var incompatible []string
	for _, idx := range targets {
		if t.Columns[idx].Type != models.ColumnTypeNumeric {
			incompatible = append(incompatible, t.Columns[idx].Name)
		}
	}
	if len(incompatible) > 0 {
		return nil, nil, &models.ConfigurationError{
			Operation: OpRemoveOutliers,
			Columns:   incompatible,
			Message:   "离群值剔除仅适用于数值列",
		}
	}

	rowsBefore := t.RowCount()
	bounds := make([]columnBounds, 0, len(targets))
	var skipped []string
	for _, idx := range targets {
		nums := numericValues(&t.Columns[idx])
		if len(nums) < minValuesForIQR {
			skipped = append(skipped, t.Columns[idx].Name)
			continue
		}
		sort.Float64s(nums)
		q1 := quantile(nums, 0.25)
		q3 := quantile(nums, 0.75)
		iqr := q3 - q1
		bounds = append(bounds, columnBounds{
			index: idx,
			lower: q1 - iqrFenceFactor*iqr,
			upper: q3 + iqrFenceFactor*iqr,
		})
	}

	affected := make([]string, 0, len(bounds))
	for _, b := range bounds {
		affected = append(affected, t.Columns[b.index].Name)
	}

	// 所有目标列都不足以计算围栏时按空操作处理
	if len(bounds) == 0 {
		summary := "所有目标列非空值不足，跳过离群值剔除"
		result := t.Clone()
		return result, newStep(OpRemoveOutliers, params, rowsBefore, rowsBefore, nil, summary, "info"), nil
	}

	keep := make([]int, 0, rowsBefore)
	for row := 0; row < rowsBefore; row++ {
		if !isOutlierRow(t, row, bounds, mode) {
			keep = append(keep, row)
		}
	}

	result := t.SelectRows(keep)
	RecomputeStats(result)

	removed := rowsBefore - len(keep)
	summary := fmt.Sprintf("按IQR方法移除了 %d 行离群数据", removed)
	level := "info"
	if len(skipped) > 0 {
		summary += fmt.Sprintf("；列(%s)非空值不足已跳过", strings.Join(skipped, ","))
	}
	if len(keep) == 0 && rowsBefore > 0 {
		summary += "；结果为空表"
		level = "warning"
	}

	return result, newStep(OpRemoveOutliers, params, rowsBefore, len(keep), affected, summary, level), nil
}

// isOutlierRow 按判定方式合并多列越界结果，空值和不可解析值不计为越界
func isOutlierRow(t *models.DataTable, row int, bounds []columnBounds, mode string) bool {
	violations := 0
	evaluated := 0
	for _, b := range bounds {
		v := t.Columns[b.index].Values[row]
		if conv.IsNull(v) {
			continue
		}
		f, err := conv.ToFloat(v)
		if err != nil {
			continue
		}
		evaluated++
		if f < b.lower || f > b.upper {
			violations++
		}
	}

	switch mode {
	case ViolationModeAll:
		return evaluated > 0 && violations == evaluated
	default:
		return violations > 0
	}
}
