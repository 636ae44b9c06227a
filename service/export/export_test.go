/*
 * @module service/export/export_test
 * @description 导出测试，覆盖CSV/JSON/Excel渲染、空值表示和非法格式
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造表格 -> 导出 -> 解析产物断言
 * @rules CSV空值渲染为空串，JSON空值显式为null
 * @dependencies testing, testify, encoding/csv, github.com/xuri/excelize/v2
 * @refs export.go
 */

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"datawrangle-service/service/models"
)

func exportFixture() *models.DataTable {
	return &models.DataTable{
		Name: "employees",
		Columns: []models.Column{
			{Name: "age", Type: models.ColumnTypeNumeric, Values: []interface{}{float64(25), nil}},
			{Name: "city", Type: models.ColumnTypeText, Values: []interface{}{"北京", "上海"}},
		},
	}
}

func TestExportCSV(t *testing.T) {
	result, err := Export(exportFixture(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Extension)

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"age", "city"}, records[0])
	assert.Equal(t, []string{"25", "北京"}, records[1])
	// 空值渲染为空串
	assert.Equal(t, []string{"", "上海"}, records[2])
}

func TestExportJSON(t *testing.T) {
	result, err := Export(exportFixture(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.ContentType)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, float64(25), rows[0]["age"])

	// 空值显式输出为null
	value, exists := rows[1]["age"]
	assert.True(t, exists)
	assert.Nil(t, value)
}

func TestExportXLSX(t *testing.T) {
	result, err := Export(exportFixture(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", result.Extension)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("数据", "B1")
	require.NoError(t, err)
	assert.Equal(t, "city", header)

	cell, err := f.GetCellValue("数据", "B2")
	require.NoError(t, err)
	assert.Equal(t, "北京", cell)

	statsName, err := f.GetCellValue("列统计", "A2")
	require.NoError(t, err)
	assert.Equal(t, "age", statsName)
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(exportFixture(), Format("parquet"))
	assert.True(t, models.IsValidationError(err))
}
