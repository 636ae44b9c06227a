/*
 * @module service/pipeline/custom_rule_test
 * @description 自定义行过滤测试，覆盖谓词过滤、脚本编译失败和入口函数校验
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 提交脚本 -> 逐行求值 -> 断言保留行
 * @rules 脚本必须定义 Keep(row map[string]interface{}) bool
 * @dependencies testing, testify
 * @refs custom_rule.go
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datawrangle-service/service/models"
)

func customFilterFixture() *models.DataTable {
	return &models.DataTable{
		Name: "t",
		Columns: []models.Column{
			{Name: "age", Type: models.ColumnTypeNumeric,
				Values: []interface{}{float64(15), float64(25), float64(35)}},
		},
	}
}

func TestCustomFilter(t *testing.T) {
	script := `
func Keep(row map[string]interface{}) bool {
	age, ok := row["age"].(float64)
	if !ok {
		return false
	}
	return age >= 18
}
`
	params := map[string]interface{}{"script": script}

	result, step, err := CustomFilter(customFilterFixture(), params)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount())
	assert.Equal(t, []interface{}{float64(25), float64(35)}, result.Columns[0].Values)
	assert.Equal(t, 3, step.RowsBefore)
	assert.Equal(t, 2, step.RowsAfter)
}

func TestCustomFilterMissingScript(t *testing.T) {
	_, _, err := CustomFilter(customFilterFixture(), nil)
	assert.True(t, models.IsConfigurationError(err))
}

func TestCustomFilterCompileError(t *testing.T) {
	params := map[string]interface{}{"script": "func Keep(row map[string]interface{}) bool {"}
	_, _, err := CustomFilter(customFilterFixture(), params)
	assert.True(t, models.IsConfigurationError(err))
}

func TestCustomFilterMissingEntry(t *testing.T) {
	params := map[string]interface{}{"script": "func Other() bool { return true }"}
	_, _, err := CustomFilter(customFilterFixture(), params)
	assert.True(t, models.IsConfigurationError(err))
}

func TestCustomFilterWrongSignature(t *testing.T) {
	params := map[string]interface{}{"script": "func Keep(x int) bool { return true }"}
	_, _, err := CustomFilter(customFilterFixture(), params)
	assert.True(t, models.IsConfigurationError(err))
}
