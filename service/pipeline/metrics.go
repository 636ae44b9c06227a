/*
 * @module service/pipeline/metrics
 * @description 流水线Prometheus指标，按操作统计执行次数和耗时分布
 * @architecture 监控层 - 指标采集
 * @documentReference dev_docs/backend_requirements.md 可观测性一节
 * @stateFlow 操作执行 -> 指标记录 -> /metrics 暴露
 * @rules 指标失败不影响业务流程
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/pipeline/orchestrator.go
 */

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal 按操作与结果统计的流水线步骤计数
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datawrangle_pipeline_operations_total",
		Help: "流水线操作执行总数",
	}, []string{"operation", "status"})

	// operationDuration 按操作统计的步骤耗时分布
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datawrangle_pipeline_operation_duration_seconds",
		Help:    "流水线操作耗时分布",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
