/*
 * @module api/controllers/dataset_controller
 * @description 数据集控制器，提供数据集的创建、查询、搜索、历史和删除接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md 数据集目录一节
 * @stateFlow HTTP请求处理流程
 * @rules 创建时自动推断列类型并计算统计；属主从 X-Owner-ID 上下文取值
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/catalog, service/pipeline
 */

package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"datawrangle-service/api/middleware"
	"datawrangle-service/service"
	"datawrangle-service/service/catalog"
	"datawrangle-service/service/events"
	"datawrangle-service/service/models"
	"datawrangle-service/service/pipeline"
	"datawrangle-service/service/utils"
)

var conv = utils.NewDataConverter()

// DatasetController 数据集控制器
type DatasetController struct {
	catalog   *catalog.Service
	publisher events.Publisher
}

// NewDatasetController 创建数据集控制器实例
func NewDatasetController() *DatasetController {
	return &DatasetController{
		catalog:   service.GlobalCatalogService,
		publisher: service.GlobalEventPublisher,
	}
}

// CreateDatasetRequest 数据集创建请求
type CreateDatasetRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Owner       string            `json:"owner,omitempty"`
	SourceMeta  models.JSONB      `json:"source_meta,omitempty"`
	Table       *models.DataTable `json:"table"`
}

// CreateDataset 创建数据集
// @Summary 创建数据集
// @Description 接入表格数据，自动推断列类型并计算统计信息后登记到目录
// @Tags 数据集
// @Accept json
// @Produce json
// @Param request body CreateDatasetRequest true "数据集创建请求"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /datasets [post]
func (c *DatasetController) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req CreateDatasetRequest
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

	owner := req.Owner
	if ctxOwner, ok := middleware.GetOwnerFromContext(r.Context()); ok {
		owner = ctxOwner
	}

	if err := decodeTableText(req.Table, req.SourceMeta); err != nil {
		RenderError(w, r, err)
		return
	}

	table, err := prepareTable(req.Table)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	dataset, err := c.catalog.Save(r.Context(), table, models.SaveRequest{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Owner:       owner,
		SourceMeta:  req.SourceMeta,
	}, nil)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	go events.PublishAsync(c.publisher, events.Event{
		Type:      events.EventDatasetCreated,
		DatasetID: dataset.ID,
		Name:      dataset.Name,
		Owner:     dataset.Owner,
		Timestamp: time.Now(),
	})

	render.JSON(w, r, SuccessResponse("数据集创建成功", dataset))
}

// SearchDatasets 搜索数据集
// @Summary 搜索数据集
// @Description 按文本、标签和属主搜索数据集，结果按更新时间倒序
// @Tags 数据集
// @Produce json
// @Param q query string false "全文搜索词"
// @Param tags query string false "标签过滤，逗号分隔，要求全部命中"
// @Param owner query string false "属主过滤"
// @Success 200 {object} APIResponse
// @Router /datasets [get]
func (c *DatasetController) SearchDatasets(w http.ResponseWriter, r *http.Request) {
	query := models.SearchQuery{
		Text:  r.URL.Query().Get("q"),
		Owner: r.URL.Query().Get("owner"),
	}
	if raw := r.URL.Query().Get("tags"); raw != "" {
		query.Tags = strings.Split(raw, ",")
	}

	summaries, err := c.catalog.Search(r.Context(), query)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", summaries))
}

// GetDataset 获取数据集详情
// @Summary 获取数据集详情
// @Description 获取数据集元数据、标签和处理历史，include_data=true 时附带表格数据
// @Tags 数据集
// @Produce json
// @Param id path string true "数据集ID"
// @Param include_data query bool false "是否附带表格数据"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasets/{id} [get]
func (c *DatasetController) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("include_data") == "true" {
		dataset, table, err := c.catalog.LoadTable(r.Context(), id)
		if err != nil {
			RenderError(w, r, err)
			return
		}
		render.JSON(w, r, SuccessResponse("查询成功", map[string]interface{}{
			"dataset": dataset,
			"table":   table,
		}))
		return
	}

	dataset, err := c.catalog.Load(r.Context(), id)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", dataset))
}

// GetDatasetHistory 获取数据集处理历史
// @Summary 获取数据集处理历史
// @Description 按追加顺序返回数据集的全部处理步骤记录
// @Tags 数据集
// @Produce json
// @Param id path string true "数据集ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasets/{id}/history [get]
func (c *DatasetController) GetDatasetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	steps, err := c.catalog.History(r.Context(), id)
	if err != nil {
		RenderError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", steps))
}

// DeleteDataset 删除数据集
// @Summary 删除数据集
// @Description 删除数据集及其标签、历史和无引用载荷，重复删除不报错
// @Tags 数据集
// @Produce json
// @Param id path string true "数据集ID"
// @Success 200 {object} APIResponse
// @Router /datasets/{id} [delete]
func (c *DatasetController) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// 提前加载元数据用于事件通知，数据集不存在时保持删除幂等语义
	existing, loadErr := c.catalog.Load(r.Context(), id)

	if err := c.catalog.Delete(r.Context(), id); err != nil {
		RenderError(w, r, err)
		return
	}

	if loadErr == nil {
		go events.PublishAsync(c.publisher, events.Event{
			Type:      events.EventDatasetDeleted,
			DatasetID: id,
			Name:      existing.Name,
			Owner:     existing.Owner,
			Timestamp: time.Now(),
		})
	}

	render.JSON(w, r, SuccessResponse("数据集删除成功", nil))
}

// decodeTableText 按来源元数据声明的字符编码将表格中的字符串取值转换为UTF-8
// 未声明编码时不做转换，不支持的编码报数据校验失败
func decodeTableText(t *models.DataTable, meta models.JSONB) error {
	encoding, _ := meta["encoding"].(string)
	if encoding == "" {
		return nil
	}
	for ci := range t.Columns {
		for vi, value := range t.Columns[ci].Values {
			s, ok := value.(string)
			if !ok {
				continue
			}
			decoded, err := conv.DecodeText([]byte(s), encoding)
			if err != nil {
				return &models.ValidationError{
					Operation: "decode_text",
					Columns:   []string{t.Columns[ci].Name},
					Message:   err.Error(),
				}
			}
			t.Columns[ci].Values[vi] = decoded
		}
	}
	return nil
}

// prepareTable 为接入表格准备类型标注和统计信息
// 所有列都携带合法类型时仅重算统计，否则执行完整类型推断
func prepareTable(t *models.DataTable) (*models.DataTable, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	for _, col := range t.Columns {
		if !models.ValidColumnType(col.Type) {
			return pipeline.Annotate(t), nil
		}
	}
	clone := t.Clone()
	pipeline.RecomputeStats(clone)
	return clone, nil
}
