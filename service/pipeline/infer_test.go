/*
 * @module service/pipeline/infer_test
 * @description 列类型推断测试，覆盖数值/日期时间/分类/文本判定和95%阈值边界
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造列取值 -> 推断 -> 断言类型
 * @rules 相同输入必须得到相同分类
 * @dependencies testing, testify
 * @refs infer.go
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"datawrangle-service/service/models"
)

func singleColumn(values []interface{}) *models.DataTable {
	return &models.DataTable{
		Name:    "t",
		Columns: []models.Column{{Name: "c", Values: values}},
	}
}

func TestInferTypes(t *testing.T) {
	manyCategories := make([]interface{}, 0, 12)
	for i := 0; i < 12; i++ {
		manyCategories = append(manyCategories, []string{"销售", "研发", "运营"}[i%3])
	}

	testCases := []struct {
		name     string
		values   []interface{}
		expected models.ColumnType
	}{
		{
			name:     "全部可解析为数值",
			values:   []interface{}{float64(1), "2.5", "3", nil},
			expected: models.ColumnTypeNumeric,
		},
		{
			name:     "全部可解析为日期时间",
			values:   []interface{}{"2024-01-02", "2024/03/04", "2024-05-06 07:08:09"},
			expected: models.ColumnTypeDatetime,
		},
		{
			name:     "重复率高且数量充足判定为分类",
			values:   manyCategories,
			expected: models.ColumnTypeCategorical,
		},
		{
			name:     "非空值不足十个不判定为分类",
			values:   []interface{}{"销售", "销售", "研发", "销售"},
			expected: models.ColumnTypeText,
		},
		{
			name:     "自由文本",
			values:   []interface{}{"第一条备注", "第二条备注", "第三条备注"},
			expected: models.ColumnTypeText,
		},
		{
			name:     "全空列归为文本",
			values:   []interface{}{nil, "", nil},
			expected: models.ColumnTypeText,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			types := InferTypes(singleColumn(tc.values))
			assert.Equal(t, tc.expected, types[0])
		})
	}
}

func TestInferTypesParseThreshold(t *testing.T) {
	// 20个非空值中19个数值，解析成功率恰为95%
	atThreshold := make([]interface{}, 0, 20)
	for i := 0; i < 19; i++ {
		atThreshold = append(atThreshold, float64(i))
	}
	atThreshold = append(atThreshold, "不是数字")

	types := InferTypes(singleColumn(atThreshold))
	assert.Equal(t, models.ColumnTypeNumeric, types[0], "95%解析成功率应判定为数值")

	// 再混入一个非数值，成功率降到阈值之下
	belowThreshold := append(append([]interface{}{}, atThreshold...), "也不是数字")
	types = InferTypes(singleColumn(belowThreshold))
	assert.NotEqual(t, models.ColumnTypeNumeric, types[0], "低于95%不应判定为数值")
}

func TestInferTypesDeterministic(t *testing.T) {
	values := []interface{}{"1", "2", "abc", "2024-01-01"}
	first := InferTypes(singleColumn(values))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, InferTypes(singleColumn(values)))
	}
}

func TestAnnotate(t *testing.T) {
	table := singleColumn([]interface{}{"1", "2", "3", nil})
	annotated := Annotate(table)

	// 输入不被修改
	assert.Equal(t, models.ColumnType(""), table.Columns[0].Type)

	assert.Equal(t, models.ColumnTypeNumeric, annotated.Columns[0].Type)
	assert.Equal(t, 3, annotated.Columns[0].Stats.Count)
	assert.Equal(t, 1, annotated.Columns[0].Stats.NullCount)
	if assert.NotNil(t, annotated.Columns[0].Stats.Mean) {
		assert.InDelta(t, 2.0, *annotated.Columns[0].Stats.Mean, 1e-9)
	}
	if assert.NotNil(t, annotated.Columns[0].Stats.Median) {
		assert.InDelta(t, 2.0, *annotated.Columns[0].Stats.Median, 1e-9)
	}
}
