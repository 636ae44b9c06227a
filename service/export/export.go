/*
 * @module service/export/export
 * @description 数据集导出，将表格按列顺序渲染为 CSV、JSON 或 Excel 文件
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md 导出一节
 * @stateFlow 加载表格 -> 按格式渲染 -> 返回字节流与内容类型
 * @dependencies encoding/csv, encoding/json, github.com/xuri/excelize/v2
 * @refs api/controllers/export_controller.go
 */

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"datawrangle-service/service/models"
	"datawrangle-service/service/utils"
)

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var conv = utils.NewDataConverter()

// Result 导出结果
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Export 按指定格式导出表格
func Export(table *models.DataTable, format Format) (*Result, error) {
	switch format {
	case FormatCSV:
		return toCSV(table)
	case FormatJSON:
		return toJSON(table)
	case FormatXLSX:
		return toXLSX(table)
	default:
		return nil, &models.ValidationError{
			Operation: "export_dataset",
			Message:   fmt.Sprintf("不支持的导出格式: %q", format),
		}
	}
}

// toCSV 渲染CSV，首行为表头，空值渲染为空字符串
func toCSV(table *models.DataTable) (*Result, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(table.ColumnNames()); err != nil {
		return nil, fmt.Errorf("写入CSV表头失败: %w", err)
	}

	rowCount := table.RowCount()
	record := make([]string, len(table.Columns))
	for row := 0; row < rowCount; row++ {
		for i, col := range table.Columns {
			if conv.IsNull(col.Values[row]) {
				record[i] = ""
				continue
			}
			record[i] = conv.ToString(col.Values[row])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("写入CSV行失败: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV导出失败: %w", err)
	}
	return &Result{Data: buf.Bytes(), ContentType: "text/csv; charset=utf-8", Extension: "csv"}, nil
}

// toJSON 渲染行对象数组，空值显式输出为 null
func toJSON(table *models.DataTable) (*Result, error) {
	rowCount := table.RowCount()
	rows := make([]map[string]interface{}, rowCount)
	for row := 0; row < rowCount; row++ {
		obj := make(map[string]interface{}, len(table.Columns))
		for _, col := range table.Columns {
			if conv.IsNull(col.Values[row]) {
				obj[col.Name] = nil
				continue
			}
			obj[col.Name] = col.Values[row]
		}
		rows[row] = obj
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("JSON导出失败: %w", err)
	}
	return &Result{Data: data, ContentType: "application/json", Extension: "json"}, nil
}

// toXLSX 渲染Excel工作簿：数据工作表 + 列统计工作表
func toXLSX(table *models.DataTable) (*Result, error) {
	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "数据"
	const statsSheet = "列统计"

	f.SetSheetName("Sheet1", dataSheet)

	for i, name := range table.ColumnNames() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(dataSheet, cell, name); err != nil {
			return nil, err
		}
	}

	rowCount := table.RowCount()
	for row := 0; row < rowCount; row++ {
		for i, col := range table.Columns {
			if conv.IsNull(col.Values[row]) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(dataSheet, cell, col.Values[row]); err != nil {
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, err
	}
	header := []interface{}{"列名", "类型", "非空数", "空值数", "去重数", "最小值", "最大值", "均值", "中位数"}
	if err := f.SetSheetRow(statsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, col := range table.Columns {
		row := []interface{}{
			col.Name,
			string(col.Type),
			col.Stats.Count,
			col.Stats.NullCount,
			col.Stats.DistinctCount,
			derefString(col.Stats.Min),
			derefString(col.Stats.Max),
			derefFloat(col.Stats.Mean),
			derefFloat(col.Stats.Median),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(statsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("Excel导出失败: %w", err)
	}
	return &Result{
		Data:        buf.Bytes(),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   "xlsx",
	}, nil
}

func derefString(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
