/*
 * @module service/pipeline/orchestrator
 * @description 流水线编排器，按用户顺序执行清洗操作序列并累积处理步骤记录
 * @architecture 管道模式 - 每步输出作为下一步输入
 * @documentReference dev_docs/backend_requirements.md 流水线编排一节
 * @stateFlow 表格校验 -> 逐步执行（步间检查取消）-> 返回结果表格与完整步骤日志
 * @rules 配置错误中止后续步骤但保留已完成步骤；空操作同样记录；单次运行内步骤严格串行
 * @dependencies context, time, service/models
 * @refs api/controllers/pipeline_controller.go, service/catalog
 */

package pipeline

import (
	"context"
	"log/slog"
	"time"

	"datawrangle-service/service/models"
)

// Orchestrator 流水线编排器
// 操作本身是纯函数，编排器可安全地被多个数据集的处理并发复用
type Orchestrator struct{}

// NewOrchestrator 创建流水线编排器实例
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

// RunResult 一次流水线运行的结果：最终（或部分）表格与已完成步骤
type RunResult struct {
	Table *models.DataTable       `json:"table"`
	Steps []models.ProcessingStep `json:"steps"`
}

// Run 按顺序执行步骤序列
// 任一步骤报配置错误时中止剩余步骤，已完成的步骤与表格随结果返回，错误原样上抛
// 步骤之间检查上下文取消，日志只反映完整执行的步骤
func (o *Orchestrator) Run(ctx context.Context, table *models.DataTable, requests []StepRequest) (*RunResult, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	result := &RunResult{
		Table: table,
		Steps: make([]models.ProcessingStep, 0, len(requests)),
	}

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			slog.Warn("流水线被取消", "completed_steps", len(result.Steps), "total_steps", len(requests))
			return result, err
		}

		start := time.Now()
		next, step, err := o.apply(result.Table, req)
		if err != nil {
			operationsTotal.WithLabelValues(req.Operation, "error").Inc()
			slog.Error("流水线步骤失败",
				"step_index", i,
				"operation", req.Operation,
				"error", err)
			return result, err
		}
		operationsTotal.WithLabelValues(req.Operation, "ok").Inc()
		operationDuration.WithLabelValues(req.Operation).Observe(time.Since(start).Seconds())

		result.Table = next
		result.Steps = append(result.Steps, *step)

		slog.Debug("流水线步骤完成",
			"step_index", i,
			"operation", req.Operation,
			"rows_before", step.RowsBefore,
			"rows_after", step.RowsAfter)
	}

	return result, nil
}

// apply 分发单个操作
func (o *Orchestrator) apply(table *models.DataTable, req StepRequest) (*models.DataTable, *models.ProcessingStep, error) {
	switch req.Operation {
	case OpRemoveDuplicates:
		return RemoveDuplicates(table, req.Parameters)
	case OpHandleMissing:
		return HandleMissing(table, req.Parameters)
	case OpRemoveOutliers:
		return RemoveOutliers(table, req.Parameters)
	case OpStandardizeText:
		return StandardizeText(table, req.Parameters)
	case OpCustomFilter:
		return CustomFilter(table, req.Parameters)
	default:
		return nil, nil, &models.ConfigurationError{
			Operation: req.Operation,
			Message:   "未知的流水线操作",
		}
	}
}
