/**
 * @module data_converter
 * @description 数据转换工具模块，负责标量类型转换、日期时间解析和字符编码转换
 * @architecture 工具函数模式，提供无状态转换方法集合
 * @documentReference dev_docs/backend_requirements.md 接入契约一节
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 转换失败返回错误而非静默置零
 *   - 日期时间解析只认闭集内的常见格式
 *   - 编码转换支持接入元数据中声明的字符集
 * @dependencies
 *   - github.com/spf13/cast: 标量类型转换
 *   - golang.org/x/text: 字符编码转换
 * @refs
 *   - service/pipeline/infer.go: 类型推断
 *   - api/controllers/dataset_controller.go: 接入处理
 */

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DateTimePatterns 类型推断认可的日期时间格式闭集
var DateTimePatterns = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"15:04:05",
}

// DataConverter 数据转换器
type DataConverter struct{}

// NewDataConverter 创建数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// IsNull 判断单元格值是否为空值
func (dc *DataConverter) IsNull(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ToString 转换为字符串表示，空值返回空字符串
func (dc *DataConverter) ToString(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case float64:
		// 整数值不带小数部分输出，与JSON数值往返保持一致
		if v == float64(int64(v)) {
			return cast.ToString(int64(v))
		}
		return cast.ToString(v)
	default:
		return cast.ToString(value)
	}
}

// ToFloat 转换为浮点数
func (dc *DataConverter) ToFloat(value interface{}) (float64, error) {
	if dc.IsNull(value) {
		return 0, fmt.Errorf("空值无法转换为数值")
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToFloat64E(value)
}

// ToBool 转换为布尔值
func (dc *DataConverter) ToBool(value interface{}) (bool, error) {
	if dc.IsNull(value) {
		return false, fmt.Errorf("空值无法转换为布尔值")
	}
	return cast.ToBoolE(value)
}

// ParseDateTime 按格式闭集解析日期时间
func (dc *DataConverter) ParseDateTime(value interface{}) (time.Time, error) {
	if t, ok := value.(time.Time); ok {
		return t, nil
	}
	s := strings.TrimSpace(dc.ToString(value))
	if s == "" {
		return time.Time{}, fmt.Errorf("空值无法解析为日期时间")
	}
	for _, pattern := range DateTimePatterns {
		if t, err := time.Parse(pattern, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法识别的日期时间格式: %s", s)
}

// DecodeText 按接入元数据声明的编码将字节序列转换为UTF-8文本
// 未声明或已是UTF-8时原样返回
func (dc *DataConverter) DecodeText(data []byte, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return string(data), nil
	case "gbk":
		decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("GBK解码失败: %w", err)
		}
		return string(decoded), nil
	case "gb2312":
		decoded, _, err := transform.Bytes(simplifiedchinese.HZGB2312.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("GB2312解码失败: %w", err)
		}
		return string(decoded), nil
	case "gb18030":
		decoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("GB18030解码失败: %w", err)
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("不支持的字符编码: %s", encoding)
	}
}
