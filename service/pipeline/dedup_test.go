/*
 * @module service/pipeline/dedup_test
 * @description 去重操作测试，覆盖全列键、子集键、空值键和幂等性
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造表格 -> 执行去重 -> 断言保留行与步骤记录
 * @rules 重复行保留首次出现；行序不变
 * @dependencies testing, testify
 * @refs dedup.go
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datawrangle-service/service/models"
)

func dedupFixture() *models.DataTable {
	return &models.DataTable{
		Name: "t",
		Columns: []models.Column{
			{Name: "name", Type: models.ColumnTypeText, Values: []interface{}{"张三", "李四", "张三", "王五"}},
			{Name: "city", Type: models.ColumnTypeText, Values: []interface{}{"北京", "上海", "北京", "北京"}},
		},
	}
}

func TestRemoveDuplicates(t *testing.T) {
	result, step, err := RemoveDuplicates(dedupFixture(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowCount())
	assert.Equal(t, []interface{}{"张三", "李四", "王五"}, result.Columns[0].Values)
	assert.Equal(t, 4, step.RowsBefore)
	assert.Equal(t, 3, step.RowsAfter)
	assert.Equal(t, "info", step.Level)
}

func TestRemoveDuplicatesSubsetKey(t *testing.T) {
	params := map[string]interface{}{"columns": []string{"city"}}
	result, step, err := RemoveDuplicates(dedupFixture(), params)
	require.NoError(t, err)

	// 仅按city去重，保留北京和上海的首行
	assert.Equal(t, 2, result.RowCount())
	assert.Equal(t, []interface{}{"张三", "李四"}, result.Columns[0].Values)
	assert.Equal(t, []string{"city"}, []string(step.ColumnsAffected))
}

func TestRemoveDuplicatesIdempotent(t *testing.T) {
	once, _, err := RemoveDuplicates(dedupFixture(), nil)
	require.NoError(t, err)
	twice, step, err := RemoveDuplicates(once, nil)
	require.NoError(t, err)

	assert.Equal(t, once.RowCount(), twice.RowCount())
	assert.Equal(t, once.Columns[0].Values, twice.Columns[0].Values)
	assert.Equal(t, "未发现重复行", step.Summary)
}

func TestRemoveDuplicatesNullsEqual(t *testing.T) {
	table := &models.DataTable{
		Name: "t",
		Columns: []models.Column{
			{Name: "c", Type: models.ColumnTypeText, Values: []interface{}{nil, nil, "x"}},
		},
	}
	result, _, err := RemoveDuplicates(table, nil)
	require.NoError(t, err)

	// 两个空值视为相同取值
	assert.Equal(t, 2, result.RowCount())
}

func TestRemoveDuplicatesUnknownColumn(t *testing.T) {
	params := map[string]interface{}{"columns": []string{"不存在的列"}}
	_, _, err := RemoveDuplicates(dedupFixture(), params)
	assert.True(t, models.IsConfigurationError(err))
}
