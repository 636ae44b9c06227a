/*
 * @module api/controllers/pipeline_controller
 * @description 流水线控制器，提供清洗流水线执行、预览和类型推断接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md 流水线编排一节
 * @stateFlow HTTP请求处理流程
 * @rules 执行接口将结果与步骤记录持久化到目录；预览和类型推断不产生任何持久化副作用
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/pipeline, service/catalog
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"datawrangle-service/service"
	"datawrangle-service/service/catalog"
	"datawrangle-service/service/events"
	"datawrangle-service/service/models"
	"datawrangle-service/service/pipeline"
)

// PipelineController 流水线控制器
type PipelineController struct {
	catalog      *catalog.Service
	orchestrator *pipeline.Orchestrator
	publisher    events.Publisher
}

// NewPipelineController 创建流水线控制器实例
func NewPipelineController() *PipelineController {
	return &PipelineController{
		catalog:      service.GlobalCatalogService,
		orchestrator: service.GlobalOrchestrator,
		publisher:    service.GlobalEventPublisher,
	}
}

// RunPipelineRequest 流水线执行请求
type RunPipelineRequest struct {
	Steps             []pipeline.StepRequest `json:"steps"`
	ExpectedUpdatedAt *time.Time             `json:"expected_updated_at,omitempty"`
}

// PreviewPipelineRequest 流水线预览请求
type PreviewPipelineRequest struct {
	Table *models.DataTable      `json:"table"`
	Steps []pipeline.StepRequest `json:"steps"`
}

// InferTypesRequest 类型推断请求
type InferTypesRequest struct {
	Table *models.DataTable `json:"table"`
}

// RunPipeline 对已登记数据集执行清洗流水线
// @Summary 执行清洗流水线
// @Description 按顺序执行清洗操作并保存结果，步骤记录追加到数据集处理历史
// @Tags 流水线
// @Accept json
// @Produce json
// @Param id path string true "数据集ID"
// @Param request body RunPipelineRequest true "流水线执行请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /datasets/{id}/pipeline [post]
func (c *PipelineController) RunPipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RunPipelineRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.Steps) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "流水线不包含任何步骤", nil))
		return
	}

	dataset, table, err := c.catalog.LoadTable(r.Context(), id)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	result, runErr := c.orchestrator.Run(r.Context(), table, req.Steps)
	if runErr != nil {
		// 失败时不持久化，返回已完成步骤帮助调用方定位出错位置
		render.Status(r, errorStatus(runErr))
		render.JSON(w, r, &APIResponse{
			Status: errorStatus(runErr),
			Msg:    "流水线执行失败",
			Data: map[string]interface{}{
				"error":           runErr.Error(),
				"completed_steps": completedSteps(result),
			},
		})
		return
	}

	saved, err := c.catalog.Save(r.Context(), result.Table, models.SaveRequest{
		ID:                dataset.ID,
		Name:              dataset.Name,
		Description:       dataset.Description,
		Tags:              dataset.TagNames(),
		Owner:             dataset.Owner,
		SourceMeta:        dataset.SourceMeta,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
	}, result.Steps)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	go events.PublishAsync(c.publisher, events.Event{
		Type:      events.EventDatasetUpdated,
		DatasetID: saved.ID,
		Name:      saved.Name,
		Owner:     saved.Owner,
		Timestamp: time.Now(),
	})

	render.JSON(w, r, SuccessResponse("流水线执行成功", map[string]interface{}{
		"dataset": saved,
		"steps":   result.Steps,
	}))
}

// PreviewPipeline 预览清洗流水线
// @Summary 预览清洗流水线
// @Description 对请求中的表格执行流水线并返回结果，不持久化
// @Tags 流水线
// @Accept json
// @Produce json
// @Param request body PreviewPipelineRequest true "流水线预览请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /pipeline/preview [post]
func (c *PipelineController) PreviewPipeline(w http.ResponseWriter, r *http.Request) {
	var req PreviewPipelineRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.Table == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "缺少表格数据", nil))
		return
	}

	table, err := prepareTable(req.Table)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	result, err := c.orchestrator.Run(r.Context(), table, req.Steps)
	if err != nil {
		render.Status(r, errorStatus(err))
		render.JSON(w, r, &APIResponse{
			Status: errorStatus(err),
			Msg:    "流水线预览失败",
			Data: map[string]interface{}{
				"error":           err.Error(),
				"completed_steps": completedSteps(result),
			},
		})
		return
	}

	render.JSON(w, r, SuccessResponse("预览成功", result))
}

// InferTypes 推断表格列类型
// @Summary 推断表格列类型
// @Description 对请求中的表格执行列类型推断并计算统计信息，不持久化
// @Tags 流水线
// @Accept json
// @Produce json
// @Param request body InferTypesRequest true "类型推断请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /pipeline/infer-types [post]
func (c *PipelineController) InferTypes(w http.ResponseWriter, r *http.Request) {
	var req InferTypesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.Table == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "缺少表格数据", nil))
		return
	}
	if err := req.Table.Validate(); err != nil {
		RenderError(w, r, err)
		return
	}

	annotated := pipeline.Annotate(req.Table)

	columns := make([]map[string]interface{}, len(annotated.Columns))
	for i, col := range annotated.Columns {
		columns[i] = map[string]interface{}{
			"name":  col.Name,
			"type":  col.Type,
			"stats": col.Stats,
		}
	}
	render.JSON(w, r, SuccessResponse("类型推断完成", map[string]interface{}{
		"columns": columns,
	}))
}

// completedSteps 取已完成步骤，表格校验失败时运行结果为空
func completedSteps(result *pipeline.RunResult) []models.ProcessingStep {
	if result == nil {
		return nil
	}
	return result.Steps
}

// errorStatus 按错误类别取HTTP状态码
func errorStatus(err error) int {
	switch {
	case models.IsValidationError(err), models.IsConfigurationError(err):
		return http.StatusBadRequest
	case models.IsNotFoundError(err):
		return http.StatusNotFound
	case models.IsConflictError(err):
		return http.StatusConflict
	case models.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
