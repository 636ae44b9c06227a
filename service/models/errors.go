/*
 * @module service/models/errors
 * @description 错误分类模型，定义校验、配置、未找到、写冲突和超时五类业务错误
 * @architecture DDD领域驱动设计 - 错误模型
 * @documentReference dev_docs/model.md
 * @stateFlow 服务层产生分类错误 -> 控制器层映射为HTTP响应
 * @rules 每类错误携带操作名、涉及列（如适用）和可读原因；调用方通过 errors.As 分支处理
 * @dependencies errors, fmt, strings, time
 * @refs api/controllers/response.go, service/catalog, service/pipeline
 */

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError 输入结构不合法（空表格、列长度不一致等）
type ValidationError struct {
	Operation string
	Columns   []string
	Message   string
}

func (e *ValidationError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("校验失败 [%s] 列(%s): %s", e.Operation, strings.Join(e.Columns, ","), e.Message)
	}
	return fmt.Sprintf("校验失败 [%s]: %s", e.Operation, e.Message)
}

// ConfigurationError 操作与列类型不兼容（如对文本列执行均值填充）
type ConfigurationError struct {
	Operation string
	Columns   []string
	Message   string
}

func (e *ConfigurationError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("配置错误 [%s] 列(%s): %s", e.Operation, strings.Join(e.Columns, ","), e.Message)
	}
	return fmt.Sprintf("配置错误 [%s]: %s", e.Operation, e.Message)
}

// NotFoundError 目录查询未命中
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s不存在: %s", e.Resource, e.ID)
}

// ConflictError 同一数据集的并发保存竞争失败
type ConflictError struct {
	DatasetID string
	Message   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("写入冲突 [dataset=%s]: %s", e.DatasetID, e.Message)
}

// TimeoutError 目录I/O超出限定时长
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("操作超时 [%s]: 超过限定时长 %s", e.Operation, e.Timeout)
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConfigurationError 判断是否为配置错误
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsNotFoundError 判断是否为未找到错误
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflictError 判断是否为写冲突错误
func IsConflictError(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsTimeoutError 判断是否为超时错误
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
