/*
 * @module api/controllers/export_controller
 * @description 导出控制器，将数据集表格导出为 CSV、JSON 或 Excel 文件下载
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md 导出一节
 * @stateFlow HTTP请求处理流程
 * @rules 导出内容为数据集当前载荷，文件名取数据集名称
 * @dependencies github.com/go-chi/chi/v5, service/export
 * @refs service/export/export.go
 */

package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"datawrangle-service/service"
	"datawrangle-service/service/catalog"
	"datawrangle-service/service/export"
)

// ExportController 导出控制器
type ExportController struct {
	catalog *catalog.Service
}

// NewExportController 创建导出控制器实例
func NewExportController() *ExportController {
	return &ExportController{
		catalog: service.GlobalCatalogService,
	}
}

// ExportDataset 导出数据集
// @Summary 导出数据集
// @Description 将数据集表格导出为指定格式的文件，格式支持 csv、json、xlsx
// @Tags 数据集
// @Produce octet-stream
// @Param id path string true "数据集ID"
// @Param format query string false "导出格式，默认csv"
// @Success 200 {file} binary
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasets/{id}/export [get]
func (c *ExportController) ExportDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}

	dataset, table, err := c.catalog.LoadTable(r.Context(), id)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	result, err := export.Export(table, format)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	filename := dataset.Name
	if filename == "" {
		filename = dataset.ID
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", strconv.Quote(filename+"."+result.Extension)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}
