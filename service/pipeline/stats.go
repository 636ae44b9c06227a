/*
 * @module service/pipeline/stats
 * @description 列统计计算模块，负责计数、去重数、极值、均值、中位数和线性插值分位数
 * @architecture 分层架构 - 流水线计算层
 * @documentReference dev_docs/backend_requirements.md 统计口径一节
 * @stateFlow 每个可能改变取值的流水线步骤之后重新计算列统计
 * @rules 分位数统一采用顺序统计量线性插值，保证界限跨实现可复现
 * @dependencies math, sort, time
 * @refs service/pipeline/outlier.go, service/models/table.go
 */

package pipeline

import (
	"sort"
	"time"

	"datawrangle-service/service/models"
	"datawrangle-service/service/utils"
)

var conv = utils.NewDataConverter()

// RecomputeStats 重新计算表格所有列的统计信息
func RecomputeStats(t *models.DataTable) {
	for i := range t.Columns {
		t.Columns[i].Stats = computeColumnStats(&t.Columns[i])
	}
}

// computeColumnStats 按列类型计算统计信息
func computeColumnStats(col *models.Column) models.ColumnStats {
	stats := models.ColumnStats{}
	distinct := make(map[string]bool)

	for _, v := range col.Values {
		if conv.IsNull(v) {
			stats.NullCount++
			continue
		}
		stats.Count++
		distinct[conv.ToString(v)] = true
	}
	stats.DistinctCount = len(distinct)

	switch col.Type {
	case models.ColumnTypeNumeric:
		nums := numericValues(col)
		if len(nums) == 0 {
			break
		}
		sort.Float64s(nums)
		minStr := conv.ToString(nums[0])
		maxStr := conv.ToString(nums[len(nums)-1])
		mean := meanOf(nums)
		median := quantile(nums, 0.5)
		stats.Min = &minStr
		stats.Max = &maxStr
		stats.Mean = &mean
		stats.Median = &median
	case models.ColumnTypeDatetime:
		times := datetimeValues(col)
		if len(times) == 0 {
			break
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		minStr := times[0].Format(time.RFC3339)
		maxStr := times[len(times)-1].Format(time.RFC3339)
		stats.Min = &minStr
		stats.Max = &maxStr
	}

	return stats
}

// numericValues 提取列中可解析为数值的非空值
// 类型推断允许至多5%的解析失败，失败值在统计中按空值处理
func numericValues(col *models.Column) []float64 {
	nums := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if conv.IsNull(v) {
			continue
		}
		if f, err := conv.ToFloat(v); err == nil {
			nums = append(nums, f)
		}
	}
	return nums
}

// datetimeValues 提取列中可解析为日期时间的非空值
func datetimeValues(col *models.Column) []time.Time {
	times := make([]time.Time, 0, len(col.Values))
	for _, v := range col.Values {
		if conv.IsNull(v) {
			continue
		}
		if t, err := conv.ParseDateTime(v); err == nil {
			times = append(times, t)
		}
	}
	return times
}

// meanOf 算术平均
func meanOf(nums []float64) float64 {
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum / float64(len(nums))
}

// quantile 顺序统计量线性插值分位数，输入必须已升序排序
// pos = (n-1)*p，在相邻顺序统计量之间线性插值
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := float64(n-1) * p
	lower := int(pos)
	if lower >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
