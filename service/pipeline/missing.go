/*
 * @module service/pipeline/missing
 * @description 缺失值处理操作，支持整行丢弃、数值列均值填充和分类/文本列众数填充
 * @architecture 分层架构 - 流水线计算层
 * @documentReference dev_docs/backend_requirements.md 清洗操作一节
 * @stateFlow 解析策略 -> 类型兼容检查 -> 填充或丢弃 -> 重算统计
 * @rules fill_mean 仅限数值列，否则报配置错误；drop_rows 清空全表不报错，记警告级结果
 * @dependencies fmt, service/models
 * @refs service/pipeline/orchestrator.go
 */

package pipeline

import (
	"fmt"

	"datawrangle-service/service/models"
)

// HandleMissing 按策略处理目标列中的空值
func HandleMissing(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	strategy := paramString(params, "strategy", "")
	switch strategy {
	case StrategyDropRows:
		return dropRowsWithNulls(t, params)
	case StrategyFillMean:
		return fillMean(t, params)
	case StrategyFillMode:
		return fillMode(t, params)
	default:
		return nil, nil, &models.ConfigurationError{
			Operation: OpHandleMissing,
			Message:   fmt.Sprintf("未知的缺失值处理策略: %q", strategy),
		}
	}
}

// dropRowsWithNulls 丢弃目标列中含空值的行
func dropRowsWithNulls(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	targets, err := resolveColumns(t, OpHandleMissing, paramColumns(params), nil)
	if err != nil {
		return nil, nil, err
	}

	rowsBefore := t.RowCount()
	keep := make([]int, 0, rowsBefore)
	for row := 0; row < rowsBefore; row++ {
		hasNull := false
		for _, idx := range targets {
			if conv.IsNull(t.Columns[idx].Values[row]) {
				hasNull = true
				break
			}
		}
		if !hasNull {
			keep = append(keep, row)
		}
	}

	result := t.SelectRows(keep)
	RecomputeStats(result)

	affected := columnNamesAt(t, targets)
	removed := rowsBefore - len(keep)
	summary := fmt.Sprintf("丢弃了 %d 行含空值数据", removed)
	level := "info"
	// 清空全表按约定继续执行并以警告级结果上报，由后续步骤自行处理空表
	if len(keep) == 0 && rowsBefore > 0 {
		summary = fmt.Sprintf("丢弃了全部 %d 行数据，结果为空表", removed)
		level = "warning"
	}

	return result, newStep(OpHandleMissing, params, rowsBefore, len(keep), affected, summary, level), nil
}

// fillMean 用非空值均值填充数值列空值
func fillMean(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	targets, err := resolveColumns(t, OpHandleMissing, paramColumns(params), func(col models.Column) bool {
		return col.Type == models.ColumnTypeNumeric
	})
	if err != nil {
		return nil, nil, err
	}

	// 显式指定的列必须是数值列
	var incompatible []string
	for _, idx := range targets {
		if t.Columns[idx].Type != models.ColumnTypeNumeric {
			incompatible = append(incompatible, t.Columns[idx].Name)
		}
	}
	if len(incompatible) > 0 {
		return nil, nil, &models.ConfigurationError{
			Operation: OpHandleMissing,
			Columns:   incompatible,
			Message:   "均值填充仅适用于数值列",
		}
	}

	result := t.Clone()
	filled := 0
	var affected []string
	for _, idx := range targets {
		col := &result.Columns[idx]
		nums := numericValues(col)
		if len(nums) == 0 {
			continue // 全空列无均值可用，跳过
		}
		mean := meanOf(nums)
		changed := false
		for row, v := range col.Values {
			if conv.IsNull(v) {
				col.Values[row] = mean
				filled++
				changed = true
			}
		}
		if changed {
			affected = append(affected, col.Name)
		}
	}
	RecomputeStats(result)

	summary := fmt.Sprintf("用列均值填充了 %d 个空值", filled)
	return result, newStep(OpHandleMissing, params, t.RowCount(), result.RowCount(), affected, summary, "info"), nil
}

// fillMode 用出现频率最高的非空值填充分类/文本列空值，频次相同时取先出现者
func fillMode(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	targets, err := resolveColumns(t, OpHandleMissing, paramColumns(params), func(col models.Column) bool {
		return col.Type == models.ColumnTypeCategorical || col.Type == models.ColumnTypeText
	})
	if err != nil {
		return nil, nil, err
	}

	var incompatible []string
	for _, idx := range targets {
		colType := t.Columns[idx].Type
		if colType != models.ColumnTypeCategorical && colType != models.ColumnTypeText {
			incompatible = append(incompatible, t.Columns[idx].Name)
		}
	}
	if len(incompatible) > 0 {
		return nil, nil, &models.ConfigurationError{
			Operation: OpHandleMissing,
			Columns:   incompatible,
			Message:   "众数填充仅适用于分类或文本列",
		}
	}

	result := t.Clone()
	filled := 0
	var affected []string
	for _, idx := range targets {
		col := &result.Columns[idx]
		mode, ok := modeOf(col)
		if !ok {
			continue // 全空列无众数可用，跳过
		}
		changed := false
		for row, v := range col.Values {
			if conv.IsNull(v) {
				col.Values[row] = mode
				filled++
				changed = true
			}
		}
		if changed {
			affected = append(affected, col.Name)
		}
	}
	RecomputeStats(result)

	summary := fmt.Sprintf("用列众数填充了 %d 个空值", filled)
	return result, newStep(OpHandleMissing, params, t.RowCount(), result.RowCount(), affected, summary, "info"), nil
}

// modeOf 求列的众数，频次相同时保留先出现的取值
func modeOf(col *models.Column) (interface{}, bool) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	values := make(map[string]interface{})
	order := 0

	for _, v := range col.Values {
		if conv.IsNull(v) {
			continue
		}
		key := conv.ToString(v)
		if _, exists := counts[key]; !exists {
			firstSeen[key] = order
			values[key] = v
			order++
		}
		counts[key]++
	}
	if len(counts) == 0 {
		return nil, false
	}

	bestKey := ""
	bestCount := -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && firstSeen[key] < firstSeen[bestKey]) {
			bestKey = key
			bestCount = count
		}
	}
	return values[bestKey], true
}

// columnNamesAt 取下标集合对应的列名
func columnNamesAt(t *models.DataTable, indices []int) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = t.Columns[idx].Name
	}
	return names
}
