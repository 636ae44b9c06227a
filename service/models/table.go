/*
 * @module service/models/table
 * @description 表格数据结构模型，定义内存中单次处理所用的列式表格、列类型和列统计信息
 * @architecture DDD领域驱动设计 - 值对象模型
 * @documentReference dev_docs/model.md
 * @stateFlow 接入数据 -> 类型推断标注 -> 清洗流水线逐步派生新表格
 * @rules 所有列长度一致（矩形不变量）；流水线操作不得原地修改表格，必须返回副本
 * @dependencies encoding/json
 * @refs service/pipeline, service/catalog
 */

package models

// ColumnType 列语义类型
type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"     // 数值型
	ColumnTypeCategorical ColumnType = "categorical" // 分类型
	ColumnTypeDatetime    ColumnType = "datetime"    // 日期时间型
	ColumnTypeText        ColumnType = "text"        // 文本型
)

// ValidColumnType 判断是否为合法的列类型
func ValidColumnType(t ColumnType) bool {
	switch t {
	case ColumnTypeNumeric, ColumnTypeCategorical, ColumnTypeDatetime, ColumnTypeText:
		return true
	}
	return false
}

// ColumnStats 列统计信息，每次可能改变取值的流水线步骤之后重新计算
type ColumnStats struct {
	Count         int      `json:"count"`            // 非空值数量
	NullCount     int      `json:"null_count"`       // 空值数量
	DistinctCount int      `json:"distinct_count"`   // 去重后数量
	Min           *string  `json:"min,omitempty"`    // 最小值（数值/日期时间列）
	Max           *string  `json:"max,omitempty"`    // 最大值（数值/日期时间列）
	Mean          *float64 `json:"mean,omitempty"`   // 均值（数值列）
	Median        *float64 `json:"median,omitempty"` // 中位数（数值列）
}

// Column 表格列，值按行索引与其他列对齐，nil 表示空值
type Column struct {
	Name   string        `json:"name"`
	Type   ColumnType    `json:"type"`
	Values []interface{} `json:"values"`
	Stats  ColumnStats   `json:"stats"`
}

// DataTable 列式表格数据结构，承载一次处理运行的全部数据
type DataTable struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// RowCount 返回表格行数
func (t *DataTable) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames 按列顺序返回列名
func (t *DataTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex 根据列名查找列下标，不存在时返回 -1
func (t *DataTable) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Validate 校验矩形不变量和列名唯一性
func (t *DataTable) Validate() error {
	if len(t.Columns) == 0 {
		return &ValidationError{Operation: "validate_table", Message: "表格不包含任何列"}
	}

	seen := make(map[string]bool, len(t.Columns))
	rowCount := len(t.Columns[0].Values)
	for _, col := range t.Columns {
		if col.Name == "" {
			return &ValidationError{Operation: "validate_table", Message: "存在未命名的列"}
		}
		if seen[col.Name] {
			return &ValidationError{
				Operation: "validate_table",
				Columns:   []string{col.Name},
				Message:   "列名重复: " + col.Name,
			}
		}
		seen[col.Name] = true

		if len(col.Values) != rowCount {
			return &ValidationError{
				Operation: "validate_table",
				Columns:   []string{col.Name},
				Message:   "列长度不一致，违反矩形不变量",
			}
		}
	}
	return nil
}

// Clone 深拷贝表格，流水线操作以此保证输入不被修改
func (t *DataTable) Clone() *DataTable {
	clone := &DataTable{
		Name:    t.Name,
		Columns: make([]Column, len(t.Columns)),
	}
	for i, col := range t.Columns {
		values := make([]interface{}, len(col.Values))
		copy(values, col.Values)
		clone.Columns[i] = Column{
			Name:   col.Name,
			Type:   col.Type,
			Values: values,
			Stats:  col.Stats,
		}
	}
	return clone
}

// SelectRows 按行下标选取行，返回新表格（统计信息由调用方重新计算）
func (t *DataTable) SelectRows(indices []int) *DataTable {
	result := &DataTable{
		Name:    t.Name,
		Columns: make([]Column, len(t.Columns)),
	}
	for i, col := range t.Columns {
		values := make([]interface{}, 0, len(indices))
		for _, idx := range indices {
			values = append(values, col.Values[idx])
		}
		result.Columns[i] = Column{
			Name:   col.Name,
			Type:   col.Type,
			Values: values,
		}
	}
	return result
}

// Row 返回指定行的列名到值映射
func (t *DataTable) Row(index int) map[string]interface{} {
	row := make(map[string]interface{}, len(t.Columns))
	for _, col := range t.Columns {
		row[col.Name] = col.Values[index]
	}
	return row
}
