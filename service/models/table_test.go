/*
 * @module service/models/table_test
 * @description 表格模型测试，覆盖矩形不变量校验、深拷贝独立性和行选取
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造表格 -> 调用方法 -> 断言
 * @rules 校验失败返回ValidationError；Clone后修改副本不影响原表
 * @dependencies testing, testify
 * @refs table.go
 */

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableFixture() *DataTable {
	return &DataTable{
		Name: "employees",
		Columns: []Column{
			{Name: "age", Type: ColumnTypeNumeric, Values: []interface{}{float64(25), float64(31), nil}},
			{Name: "city", Type: ColumnTypeText, Values: []interface{}{"北京", "上海", "北京"}},
		},
	}
}

func TestValidColumnType(t *testing.T) {
	assert.True(t, ValidColumnType(ColumnTypeNumeric))
	assert.True(t, ValidColumnType(ColumnTypeCategorical))
	assert.True(t, ValidColumnType(ColumnTypeDatetime))
	assert.True(t, ValidColumnType(ColumnTypeText))
	assert.False(t, ValidColumnType(ColumnType("integer")))
	assert.False(t, ValidColumnType(ColumnType("")))
}

func TestDataTableValidate(t *testing.T) {
	testCases := []struct {
		name      string
		table     *DataTable
		expectErr bool
	}{
		{name: "合法表格", table: tableFixture()},
		{
			name:      "无列表格",
			table:     &DataTable{Name: "empty"},
			expectErr: true,
		},
		{
			name: "未命名列",
			table: &DataTable{Name: "t", Columns: []Column{
				{Name: "", Type: ColumnTypeText, Values: []interface{}{"x"}},
			}},
			expectErr: true,
		},
		{
			name: "列名重复",
			table: &DataTable{Name: "t", Columns: []Column{
				{Name: "a", Type: ColumnTypeText, Values: []interface{}{"x"}},
				{Name: "a", Type: ColumnTypeText, Values: []interface{}{"y"}},
			}},
			expectErr: true,
		},
		{
			name: "列长度不一致",
			table: &DataTable{Name: "t", Columns: []Column{
				{Name: "a", Type: ColumnTypeText, Values: []interface{}{"x", "y"}},
				{Name: "b", Type: ColumnTypeText, Values: []interface{}{"z"}},
			}},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.table.Validate()
			if tc.expectErr {
				assert.True(t, IsValidationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDataTableAccessors(t *testing.T) {
	table := tableFixture()

	assert.Equal(t, 3, table.RowCount())
	assert.Equal(t, []string{"age", "city"}, table.ColumnNames())
	assert.Equal(t, 1, table.ColumnIndex("city"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))

	row := table.Row(1)
	assert.Equal(t, float64(31), row["age"])
	assert.Equal(t, "上海", row["city"])

	empty := &DataTable{Name: "empty"}
	assert.Equal(t, 0, empty.RowCount())
}

func TestDataTableClone(t *testing.T) {
	table := tableFixture()
	clone := table.Clone()
	require.Equal(t, table, clone)

	// 修改副本不影响原表
	clone.Columns[0].Values[0] = float64(99)
	clone.Columns[1].Name = "renamed"
	assert.Equal(t, float64(25), table.Columns[0].Values[0])
	assert.Equal(t, "city", table.Columns[1].Name)
}

func TestDataTableSelectRows(t *testing.T) {
	table := tableFixture()

	selected := table.SelectRows([]int{2, 0})
	require.Equal(t, 2, selected.RowCount())
	assert.Nil(t, selected.Columns[0].Values[0])
	assert.Equal(t, float64(25), selected.Columns[0].Values[1])
	assert.Equal(t, "北京", selected.Columns[1].Values[0])
	// 原表不变
	assert.Equal(t, 3, table.RowCount())

	none := table.SelectRows(nil)
	assert.Equal(t, 0, none.RowCount())
	assert.Equal(t, table.ColumnNames(), none.ColumnNames())
}
