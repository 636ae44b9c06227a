/*
 * @module service/pipeline/custom_rule
 * @description 自定义行过滤操作，通过yaegi解释器执行用户提供的行谓词脚本
 * @architecture 分层架构 - 流水线计算层（脚本解释）
 * @documentReference dev_docs/backend_requirements.md 清洗操作一节
 * @stateFlow 脚本编译 -> 入口函数定位 -> 逐行求值 -> 派生新表格
 * @rules 脚本必须定义 Keep(row map[string]interface{}) bool；编译或求值失败报配置错误
 * @dependencies github.com/traefik/yaegi/interp, github.com/traefik/yaegi/stdlib
 * @refs service/pipeline/orchestrator.go
 */

package pipeline

import (
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"datawrangle-service/service/models"
)

// CustomFilter 按用户脚本谓词过滤行，谓词返回false的行被移除
func CustomFilter(t *models.DataTable, params map[string]interface{}) (*models.DataTable, *models.ProcessingStep, error) {
	script := paramString(params, "script", "")
	if script == "" {
		return nil, nil, &models.ConfigurationError{
			Operation: OpCustomFilter,
			Message:   "缺少 script 参数",
		}
	}

	keep, err := compilePredicate(script)
	if err != nil {
		return nil, nil, err
	}

	rowsBefore := t.RowCount()
	keepRows := make([]int, 0, rowsBefore)
	for row := 0; row < rowsBefore; row++ {
		kept, err := evalPredicate(keep, t.Row(row))
		if err != nil {
			return nil, nil, &models.ConfigurationError{
				Operation: OpCustomFilter,
				Message:   fmt.Sprintf("第 %d 行谓词求值失败: %v", row, err),
			}
		}
		if kept {
			keepRows = append(keepRows, row)
		}
	}

	result := t.SelectRows(keepRows)
	RecomputeStats(result)

	removed := rowsBefore - len(keepRows)
	summary := fmt.Sprintf("自定义过滤移除了 %d 行", removed)
	level := "info"
	if len(keepRows) == 0 && rowsBefore > 0 {
		summary += "；结果为空表"
		level = "warning"
	}

	return result, newStep(OpCustomFilter, params, rowsBefore, len(keepRows), nil, summary, level), nil
}

// compilePredicate 编译脚本并定位 Keep 入口函数
func compilePredicate(script string) (func(map[string]interface{}) bool, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	if _, err := i.Eval(script); err != nil {
		return nil, &models.ConfigurationError{
			Operation: OpCustomFilter,
			Message:   fmt.Sprintf("脚本编译失败: %v", err),
		}
	}

	v, err := i.Eval("Keep")
	if err != nil {
		return nil, &models.ConfigurationError{
			Operation: OpCustomFilter,
			Message:   "脚本必须定义 Keep(row map[string]interface{}) bool 函数",
		}
	}

	keep, ok := v.Interface().(func(map[string]interface{}) bool)
	if !ok {
		return nil, &models.ConfigurationError{
			Operation: OpCustomFilter,
			Message:   fmt.Sprintf("Keep 函数签名不正确: %T", v.Interface()),
		}
	}
	return keep, nil
}

// evalPredicate 求值单行谓词，脚本内的panic转换为错误
func evalPredicate(keep func(map[string]interface{}) bool, row map[string]interface{}) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("脚本panic: %v", r)
		}
	}()
	return keep(row), nil
}
