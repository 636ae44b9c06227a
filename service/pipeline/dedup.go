/*
 * @module service/pipeline/dedup
 * @description 去重操作，按可选的键列子集移除重复行，保留首次出现
 * @architecture 分层架构 - 流水线计算层
 * @documentReference dev_docs/backend_requirements.md 清洗操作一节
 * @stateFlow 构造行键 -> 首次出现保留 -> 派生新表格并重算统计
 * @rules 幂等：对同一表格执行两次与执行一次结果相同；行序保持不变
 * @dependencies strings, service/models
 * @refs service/pipeline/orchestrator.go
 */

package pipeline

import (
	"fmt"
	"strings"

	"datawrangle-service/service/models"
)

// 行键分隔符与空值标记，避免不同取值拼接后发生碰撞
const (
	keySeparator = "\x1f"
	nullMarker   = "\x00"
)

// RemoveDuplicates 移除重复行，键列缺省为全部列
func RemoveDuplicates(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	keyIndices, err := resolveColumns(t, OpRemoveDuplicates, paramColumns(params), nil)
	if err != nil {
		return nil, nil, err
	}

	rowsBefore := t.RowCount()
	seen := make(map[string]bool, rowsBefore)
	keep := make([]int, 0, rowsBefore)

	for row := 0; row < rowsBefore; row++ {
		key := rowKey(t, row, keyIndices)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, row)
	}

	result := t.SelectRows(keep)
	RecomputeStats(result)

	affected := make([]string, len(keyIndices))
	for i, idx := range keyIndices {
		affected[i] = t.Columns[idx].Name
	}

	removed := rowsBefore - len(keep)
	summary := fmt.Sprintf("移除了 %d 行重复数据", removed)
	if removed == 0 {
		summary = "未发现重复行"
	}

	return result, newStep(OpRemoveDuplicates, params, rowsBefore, len(keep), affected, summary, "info"), nil
}

// rowKey 拼接键列取值作为去重键
func rowKey(t *models.DataTable, row int, keyIndices []int) string {
	var b strings.Builder
	for i, idx := range keyIndices {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		v := t.Columns[idx].Values[row]
		if conv.IsNull(v) {
			b.WriteString(nullMarker)
			continue
		}
		b.WriteString(conv.ToString(v))
	}
	return b.String()
}
